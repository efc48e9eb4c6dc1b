// Package catalog lists every provider operation the SDK knows.
package catalog

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/jrsteele09/go-albis-sdk/dispatch"
)

// Operation names.
const (
	Token                   = "token"
	ChangePassword          = "password"
	Ping                    = "ping"
	Echo                    = "echo"
	ApplicationRead         = "application.read"
	ApplicationCreate       = "application.create"
	ApplicationUpdate       = "application.update"
	ApplicationCancel       = "application.cancel"
	ApplicationStatus       = "applications-status"
	Rate                    = "rate"
	LegalForms              = "legal-forms"
	Salutations             = "salutations"
	ProductGroups           = "product-groups"
	ContractTypes           = "contract-types"
	PaymentMethods          = "payment-methods"
	Documents               = "documents.read"
	DocumentsUpload         = "documents.upload"
	ContractDocuments       = "contract-documents.read"
	ContractDocumentsUpload = "contract-documents.upload"
	FrameApplication        = "frame-application"
	FrameSubApplications    = "frame-sub-applications"
	FrameRates              = "frame-rates"
)

// Endpoint describes how one operation is sent.
type Endpoint struct {
	Name          string
	Path          string
	Method        string
	Encoding      dispatch.Encoding
	Authenticated bool
	// Fields are the documented query or body fields, for reference.
	Fields []string
}

// Request builds the dispatch request for this endpoint.
func (e Endpoint) Request(payload any, authToken string) dispatch.Request {
	if !e.Authenticated {
		authToken = ""
	}
	return dispatch.Request{
		Path:      e.Path,
		Payload:   payload,
		AuthToken: authToken,
		Encoding:  e.Encoding,
		Method:    e.Method,
	}
}

// Writes reports whether the endpoint changes provider state.
func (e Endpoint) Writes() bool {
	return e.Method != http.MethodGet && e.Name != Token
}

func get(name, path string, fields ...string) Endpoint {
	return Endpoint{Name: name, Path: path, Method: http.MethodGet, Encoding: dispatch.Form, Authenticated: true, Fields: fields}
}

func jsonBody(name, path, method string, fields ...string) Endpoint {
	return Endpoint{Name: name, Path: path, Method: method, Encoding: dispatch.JSON, Authenticated: true, Fields: fields}
}

var endpoints = map[string]Endpoint{
	Token: {
		Name: Token, Path: "token", Method: http.MethodPost, Encoding: dispatch.JSON,
		Fields: []string{"username", "password", "auth0Username", "auth0Password", "realm"},
	},
	ChangePassword:    jsonBody(ChangePassword, "password", http.MethodPost, "auth0NewPassword", "albisNewPassword"),
	Ping:              get(Ping, "ping"),
	Echo:              get(Echo, "echo", "data"),
	ApplicationRead:   get(ApplicationRead, "application", "applicationId"),
	ApplicationCreate: jsonBody(ApplicationCreate, "application", http.MethodPost),
	ApplicationUpdate: jsonBody(ApplicationUpdate, "application", http.MethodPut),
	ApplicationCancel: {
		Name: ApplicationCancel, Path: "application", Method: http.MethodDelete, Encoding: dispatch.Form,
		Authenticated: true, Fields: []string{"applicationId", "cancelationReason"},
	},
	ApplicationStatus:       get(ApplicationStatus, "applications-status", "applicationId"),
	Rate:                    get(Rate, "rate", "contractType", "downPayment", "object", "paymentMethod", "productGroup", "purchasePrice", "provision"),
	LegalForms:              get(LegalForms, "legal-forms"),
	Salutations:             get(Salutations, "salutations"),
	ProductGroups:           get(ProductGroups, "product-groups"),
	ContractTypes:           get(ContractTypes, "contract-types"),
	PaymentMethods:          get(PaymentMethods, "payment-methods"),
	Documents:               get(Documents, "documents", "applicationId", "purchasePrice", "iban", "rate"),
	DocumentsUpload:         jsonBody(DocumentsUpload, "documents", http.MethodPost, "id", "documents"),
	ContractDocuments:       get(ContractDocuments, "contract-documents", "applicationId"),
	ContractDocumentsUpload: jsonBody(ContractDocumentsUpload, "contract-documents", http.MethodPost, "id", "documents"),
	FrameApplication:        get(FrameApplication, "frame-application"),
	FrameSubApplications:    get(FrameSubApplications, "frame-sub-applications"),
	FrameRates:              get(FrameRates, "frame-rates"),
}

// Lookup returns the endpoint for name.
func Lookup(name string) (Endpoint, bool) {
	e, ok := endpoints[name]
	return e, ok
}

// MustLookup panics on unknown names; used with the constants above.
func MustLookup(name string) Endpoint {
	e, ok := endpoints[name]
	if !ok {
		panic(fmt.Sprintf("catalog: unknown endpoint %q", name))
	}
	return e
}

// All returns every endpoint sorted by name.
func All() []Endpoint {
	out := make([]Endpoint, 0, len(endpoints))
	for _, e := range endpoints {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
