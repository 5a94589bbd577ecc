package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/osr-alliance/backend-lead-capture/export"
)

type loginRequest struct {
	Password string `json:"password"`
}

type updateStatusRequest struct {
	ID     *int64  `json:"id"`
	Status *string `json:"status"`
}

func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	req := loginRequest{}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	if err := a.gate.Authenticate(req.Password); err != nil {
		a.log.WithField("remote_addr", r.RemoteAddr).Warn("admin login failed")
		writeError(w, http.StatusUnauthorized, msgBadPassword)
		return
	}

	token, expires, err := a.gate.IssueToken()
	if err != nil {
		a.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{OK: true, Token: token, ExpiresAt: expires.Unix()})
}

func (a *API) Leads(w http.ResponseWriter, r *http.Request) {
	leads, err := a.leads.ListLeads(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, leadsResponse{OK: true, Leads: leads})
}

func (a *API) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	req := updateStatusRequest{}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.ID == nil || req.Status == nil {
		writeError(w, http.StatusBadRequest, "id and status are required")
		return
	}

	if err := a.leads.UpdateLeadStatus(r.Context(), *req.ID, *req.Status); err != nil {
		a.fail(w, r, err)
		return
	}

	writeOK(w)
}

func (a *API) ExportExcel(w http.ResponseWriter, r *http.Request) {
	leads, err := a.leads.ListLeads(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}

	// build it fully first so a failure is still a clean 500
	var buf bytes.Buffer
	if err := export.Write(&buf, leads); err != nil {
		a.fail(w, r, err)
		return
	}

	filename := fmt.Sprintf("leads-%s.xlsx", a.now().Format("20060102"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	if err := a.leads.Ping(r.Context()); err != nil {
		a.log.WithError(err).Warn("health check failed")
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeOK(w)
}
