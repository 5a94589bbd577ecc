package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/osr-alliance/backend-lead-capture/config"
	"github.com/osr-alliance/backend-lead-capture/store"
)

func run(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestInitDBThenExport(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(dir, "leads.db"))
	t.Setenv("REDIS_ADDR", "")

	run(t, "init-db")
	// running it twice keeps the table
	run(t, "init-db")

	cfg, err := config.Parse()
	require.NoError(t, err)

	c, err := openStore(context.Background(), cfg, false)
	require.NoError(t, err)
	_, err = c.store.CreateLead(context.Background(), "tax-finance", store.Fields{})
	require.NoError(t, err)
	c.Close()

	xlsx := filepath.Join(dir, "out.xlsx")
	out := run(t, "export", "-o", xlsx)
	assert.Contains(t, out, "exported 1 leads")

	f, err := excelize.OpenFile(xlsx)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Leads")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "tax-finance", rows[1][2])
}

func TestSetupLogging(t *testing.T) {
	t.Cleanup(func() {
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
	})

	cfg := &config.Config{}
	cfg.Log.Level = "debug"
	cfg.Log.Format = "JSON"
	setupLogging(cfg)
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logrus.StandardLogger().Formatter)

	cfg.Log.Level = "loud"
	cfg.Log.Format = "text"
	setupLogging(cfg)
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logrus.StandardLogger().Formatter)
}

func freeAddr(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestRunServe(t *testing.T) {
	mr := miniredis.RunT(t)
	// left behind by a previous run
	require.NoError(t, mr.Set("service:lead_capture|leads|all", `[]`))

	addr := freeAddr(t)
	t.Setenv("HTTP_ADDR", addr)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(t.TempDir(), "leads.db"))
	t.Setenv("REDIS_ADDR", mr.Addr())
	t.Setenv("ADMIN_PASSWORD", "changeme")
	t.Setenv("ADMIN_REQUIRE_TOKEN", "true")
	t.Setenv("LOG_LEVEL", "info")

	hook := logtest.NewGlobal()
	t.Cleanup(func() {
		logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))
		logrus.SetFormatter(&logrus.TextFormatter{})
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := &cobra.Command{}
	cmd.SetContext(ctx)

	done := make(chan error, 1)
	go func() { done <- runServe(cmd, nil) }()

	base := "http://" + addr
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	// the cache was cleared before the server came up
	assert.False(t, mr.Exists("service:lead_capture|leads|all"))

	resp, err := http.Post(base+"/api/submit/cash", "application/json", strings.NewReader(`{"company_name":"Acme"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(base + "/api/admin/leads")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not shut down")
	}

	warned := false
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && strings.Contains(e.Message, "insecure default password") {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestRunServe_PortInUse(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	t.Setenv("HTTP_ADDR", l.Addr().String())
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(t.TempDir(), "leads.db"))
	t.Setenv("REDIS_ADDR", "")

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	assert.Error(t, runServe(cmd, nil))
}

func TestNewServer(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(t.TempDir(), "leads.db"))
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("PORT", "8081")
	t.Setenv("ADMIN_REQUIRE_TOKEN", "false")

	cfg, err := config.Parse()
	require.NoError(t, err)

	c, err := openStore(context.Background(), cfg, false)
	require.NoError(t, err)
	defer c.Close()

	srv := newServer(cfg, c.store)
	assert.Equal(t, ":8081", srv.Addr)
	assert.Equal(t, 15*time.Second, srv.ReadTimeout)

	for _, path := range []string{"/healthz", "/api/admin/leads", "/api/admin/export_excel"} {
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(`{"password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
