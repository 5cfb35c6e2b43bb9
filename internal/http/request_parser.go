package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	maxBodyBytes = 64 << 10

	msgBadRequest     = "Formato de requisição inválido."
	msgInvalidEntryID = "Despesa inválida."
)

// formFields is a submitted body, read from a urlencoded form or from a flat
// JSON object. htmx sends the former; scripts and tests may send the latter.
type formFields struct {
	values url.Values
	json   bool
}

// readFormFields reads at most maxBodyBytes of the body. A body starting
// with '{' is decoded as JSON, anything else as a form.
func readFormFields(r *http.Request) (formFields, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return formFields{}, fmt.Errorf("read body: %w", err)
	}
	body = bytes.TrimSpace(body)

	if len(body) > 0 && body[0] == '{' {
		var obj map[string]any
		if err := json.Unmarshal(body, &obj); err != nil {
			return formFields{}, fmt.Errorf("decode json body: %w", err)
		}
		values := make(url.Values, len(obj))
		for k, v := range obj {
			values.Set(k, scalarString(v))
		}
		return formFields{values: values, json: true}, nil
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return formFields{}, fmt.Errorf("decode form body: %w", err)
	}
	return formFields{values: values}, nil
}

// Get returns the cleaned value of key, or "" when absent.
func (f formFields) Get(key string) string {
	return sanitizeInput(f.values.Get(key))
}

// Raw returns the value of key exactly as sent.
func (f formFields) Raw(key string) string {
	return f.values.Get(key)
}

// scalarString flattens a decoded JSON scalar. Objects and arrays read as "".
func scalarString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// RequireMethod returns a 405 response unless r uses one of methods.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequireDeleteOrPOST guards the removal route, which also accepts POST for
// clients that cannot send DELETE.
func RequireDeleteOrPOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodDelete, http.MethodPost)
}

func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError(msgBadRequest)
	}
	return nil
}

// ParseEntryID reads the {entry} path segment. Ids are positive.
func ParseEntryID(r *http.Request) (int64, *HTMXResponseBuilder) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.PathValue("entry")), 10, 64)
	if err != nil || id <= 0 {
		return 0, BadRequestError(msgInvalidEntryID)
	}
	return id, nil
}
