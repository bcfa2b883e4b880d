package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/m04kA/SMC-RentalService/internal/worker/reconciliation"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := &cli.App{
		Name:     "smc-rental-service",
		Writer:   &out,
		Commands: []*cli.Command{reconcileCommand()},
	}
	err := app.Run(append([]string{"smc-rental-service"}, args...))
	return out.String(), err
}

func TestReconcile_RemoteUsesAdminEndpoint(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/admin/reconciliation", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(reconciliation.Report{
			RunID: "run-1",
			Aging: reconciliation.PassReport{Candidates: 1, Changed: []int64{7}},
		})
	}))
	defer srv.Close()

	out, err := runCLI(t, "reconcile", "--server", srv.URL+"/")

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	var report reconciliation.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, []int64{7}, report.Aging.Changed)
}

func TestReconcile_RemoteErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"внутренняя ошибка сервера"}`))
	}))
	defer srv.Close()

	_, err := runCLI(t, "reconcile", "--server", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")

	partial := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(reconciliation.Report{RunID: "run-2", Blocking: reconciliation.PassReport{Error: "boom"}})
	}))
	defer partial.Close()

	out, err := runCLI(t, "reconcile", "--server", partial.URL)
	require.Error(t, err)
	assert.Contains(t, out, "run-2")
}
