// Package api is the http surface: public form submissions and the admin lead endpoints.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/osr-alliance/backend-lead-capture/auth"
	"github.com/osr-alliance/backend-lead-capture/gateway"
	"github.com/osr-alliance/backend-lead-capture/store"
	"github.com/sirupsen/logrus"
)

// maxBodyBytes caps every json request body
const maxBodyBytes = 1 << 20

type Submitter interface {
	Submit(ctx context.Context, category gateway.Category, payload gateway.Payload) (*store.Lead, error)
}

type LeadAdmin interface {
	ListLeads(ctx context.Context) ([]store.Lead, error)
	UpdateLeadStatus(ctx context.Context, id int64, status string) error
	Ping(ctx context.Context) error
}

type Config struct {
	Gateway Submitter
	Leads   LeadAdmin
	Gate    *auth.Gate

	// RequireToken gates the admin lead routes behind the token issued on login
	RequireToken bool

	// Now dates the export filename; defaults to time.Now
	Now func() time.Time
}

type API struct {
	gateway      Submitter
	leads        LeadAdmin
	gate         *auth.Gate
	requireToken bool
	now          func() time.Time
	log          *logrus.Entry
}

func New(conf *Config) *API {
	now := conf.Now
	if now == nil {
		now = time.Now
	}

	return &API{
		gateway:      conf.Gateway,
		leads:        conf.Leads,
		gate:         conf.Gate,
		requireToken: conf.RequireToken,
		now:          now,
		log:          logrus.WithField("component", "api"),
	}
}

// Register adds every route to router
func (a *API) Register(router *mux.Router) {
	router.Use(a.logRequests)

	for _, route := range gateway.Routes() {
		category, _ := gateway.CategoryForRoute(route)
		router.HandleFunc("/api/submit/"+route, a.Submit(category)).Methods(http.MethodPost)
	}

	router.HandleFunc("/api/admin/login", a.Login).Methods(http.MethodPost)
	router.Handle("/api/admin/leads", a.requireAdmin(http.HandlerFunc(a.Leads))).Methods(http.MethodGet)
	router.Handle("/api/admin/update_status", a.requireAdmin(http.HandlerFunc(a.UpdateStatus))).Methods(http.MethodPost)
	router.Handle("/api/admin/export_excel", a.requireAdmin(http.HandlerFunc(a.ExportExcel))).Methods(http.MethodGet)

	router.HandleFunc("/healthz", a.Health).Methods(http.MethodGet)
}

// NewRouter returns a router with every route registered
func NewRouter(conf *Config) *mux.Router {
	router := mux.NewRouter()
	New(conf).Register(router)
	return router
}
