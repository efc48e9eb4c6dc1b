package client

import (
	"github.com/jrsteele09/go-albis-sdk/albiserr"
	"github.com/jrsteele09/go-albis-sdk/format"
	"github.com/jrsteele09/go-albis-sdk/mapping"
	"github.com/pkg/errors"
)

// Response is a provider body that can be read in any return type.
type Response struct {
	body       string
	returnType format.ReturnType
}

// NewResponse wraps body; Value formats it as rt.
func NewResponse(body string, rt format.ReturnType) *Response {
	return &Response{body: body, returnType: rt}
}

// Raw returns the body unchanged.
func (r *Response) Raw() string {
	return r.body
}

// Object returns the decoded value with the result envelope removed.
func (r *Response) Object() (any, error) {
	return format.Format(r.body, format.Object)
}

// Mapping returns the result as a mapping; the result must be a JSON object.
func (r *Response) Mapping() (mapping.Map, error) {
	v, err := format.Format(r.body, format.Mapping)
	if err != nil {
		return nil, err
	}
	m, ok := v.(mapping.Map)
	if !ok {
		return nil, albiserr.Format(r.body, errors.Errorf("result is %T, not an object", v))
	}
	return m, nil
}

// Decode unmarshals the result into v.
func (r *Response) Decode(v any) error {
	return format.Into(r.body, v)
}

func (r *Response) Format(rt format.ReturnType) (any, error) {
	return format.Format(r.body, rt)
}

// Value formats the body with the configured standard return type.
func (r *Response) Value() (any, error) {
	return format.Format(r.body, r.returnType)
}

func (r *Response) String() string {
	return r.body
}
