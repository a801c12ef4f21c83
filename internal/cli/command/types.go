package command

import (
	"os"
	"strconv"
	"strings"

	"ojclient/pkg/errors"
)

// FieldType describes input type.
type FieldType int

const (
	FieldString FieldType = iota
	FieldInt
	FieldInt64
	FieldFile
	// FieldSecret is prompted without echo.
	FieldSecret
)

// Field defines a CLI input field.
type Field struct {
	Name     string
	Aliases  []string
	Prompt   string
	Type     FieldType
	Required bool
}

// Command defines a CLI command binding.
type Command struct {
	Service      string
	Action       string
	Summary      string
	RequiresAuth bool
	Fields       []Field
}

func (c Command) Key() string {
	return c.Service + " " + c.Action
}

// Usage renders "service action key=<key> [opt=<opt>]".
func (c Command) Usage() string {
	parts := []string{c.Service, c.Action}
	for _, f := range c.Fields {
		if f.Required {
			parts = append(parts, f.Name+"=<"+f.Name+">")
		} else {
			parts = append(parts, "["+f.Name+"=<"+f.Name+">]")
		}
	}
	return strings.Join(parts, " ")
}

// Params holds parsed input params.
type Params map[string]string

func (p Params) Get(key string) string {
	return p[strings.ToLower(key)]
}

func (p Params) Set(key, value string) {
	p[strings.ToLower(key)] = value
}

func (p Params) Has(key string) bool {
	_, ok := p[strings.ToLower(key)]
	return ok
}

func (p Params) Canonicalize(fields []Field) {
	for _, field := range fields {
		for _, alias := range field.Aliases {
			aliasKey := strings.ToLower(alias)
			if value, ok := p[aliasKey]; ok {
				p[strings.ToLower(field.Name)] = value
				delete(p, aliasKey)
			}
		}
	}
}

// Int64 parses a positive id-like param. Missing or malformed values are
// validation errors naming the field.
func (p Params) Int64(name string) (int64, error) {
	raw := strings.TrimSpace(p.Get(name))
	if raw == "" {
		return 0, errors.ValidationError(name, "This field is required.")
	}
	n, err := ParseInt64(raw)
	if err != nil || n <= 0 {
		return 0, errors.ValidationError(name, "must be a positive integer")
	}
	return n, nil
}

// IntOr parses an optional integer param, returning def when absent.
func (p Params) IntOr(name string, def int) (int, error) {
	raw := strings.TrimSpace(p.Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := ParseInt(raw)
	if err != nil {
		return 0, errors.ValidationError(name, "must be an integer")
	}
	return n, nil
}

// ParseArgs turns key=value tokens into Params.
func ParseArgs(tokens []string) (Params, error) {
	params := Params{}
	for _, token := range tokens {
		parts := strings.SplitN(token, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, errors.Newf(errors.InvalidParams, "invalid param: %s", token)
		}
		params.Set(parts[0], parts[1])
	}
	return params, nil
}

// Missing returns the required fields that have no value yet.
func Missing(cmd Command, params Params) []Field {
	var out []Field
	for _, field := range cmd.Fields {
		if field.Required && strings.TrimSpace(params.Get(field.Name)) == "" {
			out = append(out, field)
		}
	}
	return out
}

func ParseInt64(value string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(value), 10, 64)
}

func ParseInt(value string) (int, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 32)
	return int(n), err
}

func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, errors.InvalidParams, "read file failed: %v", err)
	}
	return string(data), nil
}
