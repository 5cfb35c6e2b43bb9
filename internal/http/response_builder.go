package http

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"unicode/utf16"
)

// Client-side events raised through HX-Trigger. app.js listens for both.
const (
	triggerFormReset = "form:reset"
	triggerAlert     = "show-alert"
)

// HTMXResponseBuilder assembles a fragment response: status, HX-* headers
// and an optional HTML body.
type HTMXResponseBuilder struct {
	status   int
	header   http.Header
	triggers map[string]any
	body     []byte
}

func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		status:   http.StatusOK,
		header:   make(http.Header),
		triggers: make(map[string]any),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.status = code
	return b
}

// Trigger queues a client event. Later calls with the same name win.
func (b *HTMXResponseBuilder) Trigger(name string, detail any) *HTMXResponseBuilder {
	b.triggers[name] = detail
	return b
}

// TriggerFormReset clears the expense form and focuses the description field.
func (b *HTMXResponseBuilder) TriggerFormReset() *HTMXResponseBuilder {
	return b.Trigger(triggerFormReset, struct{}{})
}

// TriggerAlert shows message in a blocking browser alert.
func (b *HTMXResponseBuilder) TriggerAlert(message string) *HTMXResponseBuilder {
	return b.Trigger(triggerAlert, map[string]string{"message": message})
}

// Reswap overrides the hx-swap of the element that made the request.
func (b *HTMXResponseBuilder) Reswap(strategy string) *HTMXResponseBuilder {
	return b.Header("HX-Reswap", strategy)
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.header.Set(name, value)
	return b
}

func (b *HTMXResponseBuilder) BodyString(content string) *HTMXResponseBuilder {
	b.body = []byte(content)
	return b
}

// BodyHTML sets an HTML fragment as the body. A nil fragment still marks
// the response as HTML so htmx swaps in the empty content.
func (b *HTMXResponseBuilder) BodyHTML(fragment []byte) *HTMXResponseBuilder {
	b.header.Set("Content-Type", "text/html; charset=utf-8")
	b.body = fragment
	return b
}

func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	dst := w.Header()
	for name, values := range b.header {
		dst[name] = values
	}
	if len(b.triggers) > 0 {
		if raw, err := json.Marshal(b.triggers); err == nil {
			dst.Set("HX-Trigger", asciiJSON(raw))
		}
	}

	w.WriteHeader(b.status)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// asciiJSON escapes every non-ASCII rune as \uXXXX. Browsers decode header
// values as Latin-1, so accented alert messages must not travel as raw UTF-8.
func asciiJSON(raw []byte) string {
	var sb strings.Builder
	sb.Grow(len(raw))
	for _, r := range string(raw) {
		switch {
		case r < 0x80:
			sb.WriteRune(r)
		case r > 0xffff:
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(&sb, `\u%04x\u%04x`, hi, lo)
		default:
			fmt.Fprintf(&sb, `\u%04x`, r)
		}
	}
	return sb.String()
}

// AlertResponse raises an alert and leaves the page untouched.
func AlertResponse(status int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().Status(status).TriggerAlert(message).Reswap("none")
}

// ErrorResponse raises message as an alert and also carries it as an
// escaped error fragment. htmx does not swap 4xx and 5xx bodies, so the
// alert is what the user sees.
func ErrorResponse(status int, message string) *HTMXResponseBuilder {
	fragment := `<div class="error">` + template.HTMLEscapeString(message) + `</div>`
	return NewHTMXResponse().Status(status).TriggerAlert(message).BodyHTML([]byte(fragment))
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// ConflictError reports a rejected duplicate.
func ConflictError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusConflict, message)
}

func UnprocessableEntityError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// MethodNotAllowedError answers 405 with the Allow header set.
func MethodNotAllowedError(allow string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allow).
		Header("Content-Type", "text/plain; charset=utf-8").
		BodyString(http.StatusText(http.StatusMethodNotAllowed))
}
