// Package albiserr defines the error kinds returned by the SDK.
// Callers branch on the kind with errors.Is against the sentinels or with KindOf.
package albiserr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-albis-sdk/mapping"
)

// Kind classifies a failure.
type Kind string

const (
	KindCredential Kind = "credential" // missing or incomplete credentials
	KindConfig     Kind = "config"     // invalid or mismatched API stage
	KindProtocol   Kind = "protocol"   // provider response lacks expected fields
	KindRemote     Kind = "remote"     // provider answered with a non-2xx status
	KindTransport  Kind = "transport"  // no response at all
	KindFormat     Kind = "format"     // response could not be parsed into the requested shape
)

// Severity follows the provider SDK scale: 1 debug, 2 log, 3 warning, 4 error.
type Severity int

const (
	SeverityDebug   Severity = 1
	SeverityLog     Severity = 2
	SeverityWarning Severity = 3
	SeverityError   Severity = 4
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrCredential = &Error{Kind: KindCredential}
	ErrConfig     = &Error{Kind: KindConfig}
	ErrProtocol   = &Error{Kind: KindProtocol}
	ErrRemote     = &Error{Kind: KindRemote}
	ErrTransport  = &Error{Kind: KindTransport}
	ErrFormat     = &Error{Kind: KindFormat}
)

// Error is the single error type of the SDK.
type Error struct {
	Kind     Kind
	Severity Severity
	Message  string

	// Fields lists missing credential fields (KindCredential).
	Fields []string
	// HTTPStatus is the provider status code (KindRemote).
	HTTPStatus int
	// Payload is the provider error body with httpStatus attached (KindRemote).
	Payload mapping.Map
	// Body is the raw response body, when there was one.
	Body string

	Cause error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Kind))
	sb.WriteString(" error")
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches sentinels by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Cause == nil && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Credential reports missing credentials. fields may be empty when no credential set was given at all.
func Credential(message string, fields ...string) *Error {
	return &Error{Kind: KindCredential, Severity: SeverityError, Message: message, Fields: fields}
}

// MissingCredentialFields builds the error for an incomplete credential set.
func MissingCredentialFields(fields []string) *Error {
	return Credential("missing credential fields: "+strings.Join(fields, ", "), fields...)
}

// Config reports an API stage problem.
func Config(format string, args ...any) *Error {
	return &Error{Kind: KindConfig, Severity: SeverityLog, Message: fmt.Sprintf(format, args...)}
}

// Protocol reports a malformed provider response; body is included in the message.
func Protocol(severity Severity, message, body string) *Error {
	return &Error{Kind: KindProtocol, Severity: severity, Message: message + ": " + body, Body: body}
}

// Remote reports a non-2xx provider response.
func Remote(status int, payload mapping.Map, body string) *Error {
	return &Error{
		Kind:       KindRemote,
		Severity:   SeverityError,
		Message:    fmt.Sprintf("provider returned status %d", status),
		HTTPStatus: status,
		Payload:    payload,
		Body:       body,
	}
}

// Transport reports a request that produced no response.
func Transport(message string, cause error) *Error {
	return &Error{Kind: KindTransport, Severity: SeverityWarning, Message: message, Cause: cause}
}

// Format reports a body that could not be parsed.
func Format(body string, cause error) *Error {
	return &Error{Kind: KindFormat, Severity: SeverityWarning, Message: "response is not valid JSON", Body: body, Cause: cause}
}
