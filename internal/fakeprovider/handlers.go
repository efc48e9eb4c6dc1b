package fakeprovider

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-albis-sdk/mapping"
	"github.com/jrsteele09/go-albis-sdk/token"
	"github.com/shopspring/decimal"
)

var rateTerms = []int64{24, 36, 48}

var rateFields = []string{"contractType", "downPayment", "object", "paymentMethod", "productGroup", "purchasePrice", "provision"}

var lookups = map[string][]mapping.Map{
	"legal-forms":     {{"id": 1, "text": "GmbH"}, {"id": 2, "text": "AG"}, {"id": 3, "text": "Einzelunternehmen"}},
	"salutations":     {{"id": 1, "text": "Herr"}, {"id": 2, "text": "Frau"}, {"id": 3, "text": "Firma"}},
	"product-groups":  {{"id": 1, "text": "Maschinen"}, {"id": 2, "text": "IT"}},
	"contract-types":  {{"id": 1, "text": "Leasing"}, {"id": 2, "text": "Mietkauf"}},
	"payment-methods": {{"id": 1, "text": "monatlich"}, {"id": 2, "text": "quartalsweise"}},
}

func (p *Provider) initRoutes() {
	p.handle(http.MethodPost, "token", p.tokenHandler(), false)
	p.handle(http.MethodPost, "password", p.changePasswordHandler(), true)
	p.handle(http.MethodGet, "ping", p.resultHandler(func(*http.Request) any { return "pong" }), true)
	p.handle(http.MethodGet, "echo", p.resultHandler(func(r *http.Request) any { return r.URL.Query().Get("data") }), true)

	p.handle(http.MethodGet, "application", p.findApplicationHandler(), true)
	p.handle(http.MethodPost, "application", p.saveApplicationHandler(), true)
	p.handle(http.MethodPut, "application", p.updateApplicationHandler(), true)
	p.handle(http.MethodDelete, "application", p.cancelApplicationHandler(), true)
	p.handle(http.MethodGet, "applications-status", p.applicationStatusHandler(), true)

	for name, values := range lookups {
		p.handle(http.MethodGet, name, p.resultHandler(func(*http.Request) any { return values }), true)
	}
	p.handle(http.MethodGet, "rate", p.rateHandler(), true)

	p.handle(http.MethodGet, "documents", p.documentHandler("application"), true)
	p.handle(http.MethodPost, "documents", p.uploadHandler(), true)
	p.handle(http.MethodGet, "contract-documents", p.documentHandler("contract"), true)
	p.handle(http.MethodPost, "contract-documents", p.uploadHandler(), true)

	for _, name := range []string{"frame-application", "frame-sub-applications", "frame-rates"} {
		p.handle(http.MethodGet, name, p.resultHandler(func(r *http.Request) any {
			return mapping.Map{"frame": name, "query": queryMap(r)}
		}), true)
	}
}

func (p *Provider) handle(method, path string, h http.HandlerFunc, authenticated bool) {
	mw := []func(http.HandlerFunc) http.HandlerFunc{p.loggingMiddleware(path)}
	if authenticated {
		mw = append(mw, p.requireAuth)
	}
	p.mux.HandleFunc(method+" /"+p.stage+"/"+path, chainMiddleware(h, mw...))
}

func (p *Provider) tokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds, err := token.CredentialsFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if missing := creds.Missing(); len(missing) > 0 {
			writeError(w, http.StatusBadRequest, "missing fields: "+strings.Join(missing, ", "))
			return
		}
		if err := p.accounts.Authenticate(*creds); err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		accessToken, err := p.issueToken(creds.Username, creds.Realm)
		if err != nil {
			p.logger.Err(err).Msg("issuing token")
			writeError(w, http.StatusInternalServerError, "could not issue token")
			return
		}
		writeJSON(w, http.StatusOK, token.Response{
			AccessToken: accessToken,
			ExpiresIn:   p.expiresIn,
			TokenType:   "bearer",
		})
	}
}

func (p *Provider) changePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := readBody(w, r)
		if !ok {
			return
		}
		albisPassword, _ := body["albisNewPassword"].(string)
		auth0Password, _ := body["auth0NewPassword"].(string)
		if albisPassword == "" || auth0Password == "" {
			writeError(w, http.StatusBadRequest, "albisNewPassword and auth0NewPassword are required")
			return
		}
		if err := p.accounts.ChangePasswords(usernameFrom(r.Context()), albisPassword, auth0Password); err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeResult(w, true)
	}
}

func (p *Provider) resultHandler(result func(*http.Request) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, result(r))
	}
}

func (p *Provider) findApplicationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := queryID(w, r)
		if !ok {
			return
		}
		app, found := p.Application(id)
		if !found {
			writeError(w, http.StatusNotFound, "application not found")
			return
		}
		writeResult(w, app)
	}
}

func (p *Provider) saveApplicationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := readBody(w, r)
		if !ok {
			return
		}

		p.lock.Lock()
		id := p.nextID
		p.nextID++
		app["applicationId"] = id
		p.applications[id] = app
		p.statuses[id] = "received"
		p.lock.Unlock()

		writeResult(w, mapping.Map{"applicationId": id})
	}
}

func (p *Provider) updateApplicationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := readBody(w, r)
		if !ok {
			return
		}
		id, ok := int64Of(app["applicationId"])
		if !ok {
			writeError(w, http.StatusBadRequest, "applicationId is required")
			return
		}

		p.lock.Lock()
		_, found := p.applications[id]
		if found {
			app["applicationId"] = id
			p.applications[id] = app
			p.statuses[id] = "updated"
		}
		p.lock.Unlock()

		if !found {
			writeError(w, http.StatusNotFound, "application not found")
			return
		}
		writeResult(w, mapping.Map{"applicationId": id})
	}
}

func (p *Provider) cancelApplicationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := queryID(w, r)
		if !ok {
			return
		}
		reason := r.URL.Query().Get("cancelationReason")

		p.lock.Lock()
		_, found := p.applications[id]
		if found {
			p.statuses[id] = "cancelled"
		}
		p.lock.Unlock()

		if !found {
			writeError(w, http.StatusNotFound, "application not found")
			return
		}
		writeResult(w, mapping.Map{"applicationId": id, "status": "cancelled", "cancelationReason": reason})
	}
}

func (p *Provider) applicationStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := queryID(w, r)
		if !ok {
			return
		}
		p.lock.RLock()
		status, found := p.statuses[id]
		p.lock.RUnlock()

		if !found {
			writeError(w, http.StatusNotFound, "application not found")
			return
		}
		writeResult(w, mapping.Map{"applicationId": id, "status": status})
	}
}

func (p *Provider) rateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var missing []string
		for _, f := range rateFields {
			if q.Get(f) == "" {
				missing = append(missing, f)
			}
		}
		if len(missing) > 0 {
			writeError(w, http.StatusBadRequest, "missing fields: "+strings.Join(missing, ", "))
			return
		}

		price, err := decimal.NewFromString(q.Get("purchasePrice"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid purchasePrice")
			return
		}
		down, err := decimal.NewFromString(q.Get("downPayment"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid downPayment")
			return
		}

		financed := price.Sub(down)
		rates := make([]mapping.Map, 0, len(rateTerms))
		for _, term := range rateTerms {
			rates = append(rates, mapping.Map{
				"term": term,
				"rate": financed.Div(decimal.NewFromInt(term)).StringFixed(2),
			})
		}
		writeResult(w, rates)
	}
}

func (p *Provider) documentHandler(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := queryID(w, r)
		if !ok {
			return
		}
		pdf := fmt.Sprintf("%%PDF-1.4\n%% %s %d\n", kind, id)
		writeResult(w, base64.StdEncoding.EncodeToString([]byte(pdf)))
	}
}

func (p *Provider) uploadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := readBody(w, r)
		if !ok {
			return
		}
		id, ok := int64Of(body["id"])
		if !ok {
			writeError(w, http.StatusBadRequest, "id is required")
			return
		}
		docs, _ := body["documents"].([]any)
		if len(docs) == 0 {
			writeError(w, http.StatusBadRequest, "documents are required")
			return
		}
		for i, d := range docs {
			doc, _ := d.(map[string]any)
			content, _ := doc["doc"].(string)
			if _, err := base64.StdEncoding.DecodeString(content); err != nil || content == "" || doc["art"] == nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("document %d is invalid", i))
				return
			}
		}

		p.lock.Lock()
		p.uploads[id] += len(docs)
		p.lock.Unlock()

		writeResult(w, mapping.Map{"id": id, "uploaded": len(docs)})
	}
}

func readBody(w http.ResponseWriter, r *http.Request) (mapping.Map, bool) {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return nil, false
	}
	m, err := mapping.Parse(b)
	if err != nil || m == nil {
		writeError(w, http.StatusBadRequest, "body must be a JSON object")
		return nil, false
	}
	return m, true
}

func queryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("applicationId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "applicationId is required")
		return 0, false
	}
	return id, true
}

func queryMap(r *http.Request) mapping.Map {
	out := mapping.Map{}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func int64Of(v any) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		n, err := t.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	}
	return 0, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeResult(w http.ResponseWriter, result any) {
	writeJSON(w, http.StatusOK, mapping.Map{"result": result})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, mapping.Map{"message": message})
}
