// Package dispatch sends one HTTP request per API call and turns non-2xx
// answers into albiserr errors.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-albis-sdk/albiserr"
	"github.com/jrsteele09/go-albis-sdk/config"
	"github.com/jrsteele09/go-albis-sdk/mapping"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Encoding selects how the payload is serialized.
type Encoding int

const (
	JSON Encoding = iota // JSON body
	Form                 // form-urlencoded; query string for GET and DELETE
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"

	// HTTPStatusField is added to provider error bodies.
	HTTPStatusField = "httpStatus"

	requestIDHeader     = "X-Request-ID"
	defaultMaxBodyBytes = 64 << 20
)

// ErrBodyTooLarge is the cause of the TransportError returned for a response
// body over the configured limit.
var ErrBodyTooLarge = errors.New("response body too large")

// Request describes one provider call.
type Request struct {
	Path string
	// Payload is sent verbatim when it is a string, []byte or json.RawMessage.
	// Anything else is JSON-marshaled or form-encoded.
	Payload   any
	AuthToken string
	Encoding  Encoding
	// Method is GET, POST, PUT or DELETE. Empty means POST.
	Method string
}

// Doer is the HTTP transport. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Dispatcher struct {
	cfg          *config.Config
	client       Doer
	logger       zerolog.Logger
	maxBodyBytes int64
}

type Option func(*Dispatcher)

func WithHTTPClient(client Doer) Option {
	return func(d *Dispatcher) {
		d.client = client
	}
}

// WithLogger sets the sink for debug request logging.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithMaxBodyBytes limits how much of a response body is read.
func WithMaxBodyBytes(n int64) Option {
	return func(d *Dispatcher) {
		d.maxBodyBytes = n
	}
}

func New(cfg *config.Config, options ...Option) *Dispatcher {
	d := &Dispatcher{
		cfg:          cfg,
		logger:       log.Logger,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range options {
		opt(d)
	}
	if d.client == nil {
		d.client = &http.Client{Timeout: cfg.RequestTimeout()}
	}
	return d
}

// Send issues req and returns the body of a 2xx response unaltered.
func (d *Dispatcher) Send(ctx context.Context, req Request) (string, error) {
	method, err := normalizeMethod(req.Method)
	if err != nil {
		return "", err
	}

	endpointURL, err := d.cfg.URL(req.Path)
	if err != nil {
		return "", err
	}

	content, contentType, err := encode(req.Payload, req.Encoding)
	if err != nil {
		return "", errors.Wrap(err, "Dispatcher.Send encode")
	}

	if req.Encoding == Form && (method == http.MethodGet || method == http.MethodDelete) {
		if content != "" {
			endpointURL += "?" + content
		}
		content = ""
	}

	var body io.Reader
	if content != "" {
		body = strings.NewReader(content)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, endpointURL, body)
	if err != nil {
		return "", errors.Wrap(err, "Dispatcher.Send NewRequest")
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", contentTypeJSON)
	httpReq.Header.Set(requestIDHeader, uuid.NewString())
	if req.AuthToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.AuthToken)
	}

	if d.cfg.DebugRequests() {
		d.logRequest(httpReq, content)
	}

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return "", albiserr.Transport("error in request "+method+" "+endpointURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBodyBytes+1))
	if err != nil {
		return "", albiserr.Transport("error reading response of "+method+" "+endpointURL, err)
	}
	if int64(len(respBody)) > d.maxBodyBytes {
		return "", albiserr.Transport(fmt.Sprintf("response of %s %s exceeds %d bytes", method, endpointURL, d.maxBodyBytes), ErrBodyTooLarge)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", remoteError(resp.StatusCode, respBody)
	}
	return string(respBody), nil
}

func (d *Dispatcher) logRequest(req *http.Request, content string) {
	headers := zerolog.Dict()
	for name := range req.Header {
		value := req.Header.Get(name)
		if name == "Authorization" {
			value = "Bearer <redacted>"
		}
		headers.Str(name, value)
	}
	d.logger.Debug().
		Str("url", req.URL.String()).
		Str("method", req.Method).
		Dict("headers", headers).
		Str("body", content).
		Msg("sending request")
}

func normalizeMethod(method string) (string, error) {
	switch m := strings.ToUpper(method); m {
	case "":
		return http.MethodPost, nil
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
		return m, nil
	default:
		return "", albiserr.Config("unsupported HTTP method %q", method)
	}
}

func encode(payload any, encoding Encoding) (string, string, error) {
	contentType := contentTypeJSON
	if encoding == Form {
		contentType = contentTypeForm
	}

	switch p := payload.(type) {
	case nil:
		return "", contentType, nil
	case string:
		return p, contentType, nil
	case []byte:
		return string(p), contentType, nil
	case json.RawMessage:
		return string(p), contentType, nil
	}

	if encoding == JSON {
		b, err := json.Marshal(payload)
		if err != nil {
			return "", "", err
		}
		return string(b), contentType, nil
	}

	switch p := payload.(type) {
	case url.Values:
		return p.Encode(), contentType, nil
	case mapping.Map:
		return p.Encode(), contentType, nil
	case map[string]any:
		return mapping.Map(p).Encode(), contentType, nil
	}
	m, err := mapping.FromStruct(payload)
	if err != nil {
		return "", "", err
	}
	return m.Encode(), contentType, nil
}

func remoteError(status int, body []byte) error {
	payload, err := mapping.Parse(bytes.TrimSpace(body))
	if err != nil || payload == nil {
		payload = mapping.Map{}
	}
	payload[HTTPStatusField] = status
	return albiserr.Remote(status, payload, string(body))
}
