package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/osr-alliance/backend-lead-capture/gateway"
)

// Submit handles the public form of one category. The category comes from the route;
// a `category` key in the body is ignored like any other unknown key.
func (a *API) Submit(category gateway.Category) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := map[string]json.RawMessage{}
		if err := readJSON(w, r, &raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}

		_, err := a.gateway.Submit(r.Context(), category, payloadFrom(raw))
		if err != nil {
			a.fail(w, r, err)
			return
		}

		writeOK(w)
	}
}

// payloadFrom keeps the known form fields. Strings and nulls are taken as is, any other json
// value is kept as its json text since submissions aren't validated.
func payloadFrom(raw map[string]json.RawMessage) gateway.Payload {
	p := gateway.Payload{}
	for _, name := range gateway.FieldNames {
		v, ok := raw[name]
		if !ok {
			continue
		}

		var s *string
		if err := json.Unmarshal(v, &s); err == nil {
			p[name] = s
			continue
		}

		text := strings.TrimSpace(string(v))
		p[name] = &text
	}
	return p
}
