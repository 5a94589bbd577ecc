package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/osr-alliance/backend-lead-capture/auth"
	"github.com/osr-alliance/backend-lead-capture/store"
)

const (
	msgBadPassword  = "비밀번호가 올바르지 않습니다." // shown to the admin as is
	msgUnauthorized = "unauthorized"
	msgInternal     = "internal error"
)

type response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type leadsResponse struct {
	OK    bool         `json:"ok"`
	Leads []store.Lead `json:"leads"`
}

type loginResponse struct {
	OK        bool   `json:"ok"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"` // unix seconds
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, response{OK: true})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, response{OK: false, Error: msg})
}

// fail maps an error of a lower layer to a response. Storage errors never leak their details.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
	default:
		entry := a.log.WithContext(r.Context()).WithError(err).WithField("path", r.URL.Path)
		if errors.Is(err, store.ErrStorage) {
			entry.Error("storage failure")
		} else {
			entry.Error("request failed")
		}
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

// readJSON decodes the request body into out. An empty body leaves out untouched.
func readJSON(w http.ResponseWriter, r *http.Request, out interface{}) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}
