package httpclient

import (
	"bytes"
	"encoding/json"

	"ojclient/pkg/errors"
)

// Page is the normalised form of every list endpoint.
type Page[T any] struct {
	Items    []T
	Count    int
	Next     string
	Previous string
}

// HasNext reports whether the backend advertised a following page.
func (p Page[T]) HasNext() bool { return p.Next != "" }

// DecodePage accepts either a bare JSON array or a paginated envelope
// {count, next, previous, results}. A bare array yields Count = len(items).
func DecodePage[T any](body []byte) (Page[T], error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Page[T]{Items: []T{}}, nil
	}

	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Page[T]{}, errors.Wrapf(err, errors.InvalidResponse, "decode list failed: %v", err)
		}
		return Page[T]{Items: nonNil(items), Count: len(items)}, nil
	}

	var env struct {
		Count    *int    `json:"count"`
		Next     *string `json:"next"`
		Previous *string `json:"previous"`
		Results  []T     `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return Page[T]{}, errors.Wrapf(err, errors.InvalidResponse, "decode page failed: %v", err)
	}
	page := Page[T]{Items: nonNil(env.Results), Count: len(env.Results)}
	if env.Count != nil {
		page.Count = *env.Count
	}
	if env.Next != nil {
		page.Next = *env.Next
	}
	if env.Previous != nil {
		page.Previous = *env.Previous
	}
	return page, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
