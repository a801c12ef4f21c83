package httpclient

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"

	"ojclient/pkg/errors"
)

// statusError converts a non-2xx response into *errors.Error; nil otherwise.
func statusError(info ResponseInfo) error {
	if info.StatusCode < 400 {
		return nil
	}
	code := errors.FromHTTPStatus(info.StatusCode)
	msg, fields, bodyCode := parseErrorBody(info.Body)

	if info.StatusCode == http.StatusUnauthorized && bodyCode == "token_not_valid" {
		code = errors.TokenExpired
	}
	if code == errors.NotFound && msg == "" {
		msg = "Not found"
	}
	if msg == "" && len(fields) > 0 {
		msg = firstFieldMessage(fields)
	}

	e := errors.New(code).WithStatus(info.StatusCode)
	if msg != "" {
		e = e.WithMessage(msg)
	}
	if len(fields) > 0 {
		e = e.WithDetail("fields", fields)
	}
	return e
}

// parseErrorBody pulls a human message from {"error"}, {"detail"} or {"message"}
// and collects DRF-style field errors ({"field": ["msg", ...]} or {"field": "msg"}).
func parseErrorBody(body []byte) (string, map[string]string, string) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		text := strings.TrimSpace(string(body))
		if len(text) > 200 || strings.HasPrefix(text, "<") {
			text = ""
		}
		return text, nil, ""
	}

	var msg string
	for _, key := range []string{"error", "detail", "message"} {
		if v, ok := raw[key]; ok {
			if s := asString(v); s != "" {
				msg = s
				break
			}
		}
	}
	bodyCode := asString(raw["code"])

	fields := make(map[string]string)
	for k, v := range raw {
		switch k {
		case "error", "detail", "message", "code", "messages":
			continue
		}
		if s := asString(v); s != "" {
			fields[k] = s
		}
	}
	return msg, fields, bodyCode
}

// asString accepts "x" or ["x", ...] and returns the first string.
func asString(v json.RawMessage) string {
	if len(v) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(v, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}

func firstFieldMessage(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if keys[0] == "non_field_errors" {
		return fields[keys[0]]
	}
	return fmt.Sprintf("%s: %s", keys[0], fields[keys[0]])
}

// transportError classifies a failure that produced no HTTP response.
func transportError(ctx context.Context, err error) error {
	if stderrors.Is(err, context.Canceled) && ctx.Err() != nil {
		return errors.Wrap(err, errors.RequestCanceled)
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Wrapf(err, errors.Timeout, "request timed out")
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.Wrapf(err, errors.Timeout, "request timed out")
	}
	return errors.Wrapf(err, errors.NetworkError, "%s: %v", errors.NetworkError.Message(), err)
}
