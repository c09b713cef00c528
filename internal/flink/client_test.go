package flink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "key", "secret")
}

func TestSubmitCreated(t *testing.T) {
	var captured submitRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/statements", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"name": "server-assigned"}`))
	})

	outcome, err := client.Submit(context.Background(), "my-stmt", "CREATE VIEW v AS SELECT 1", Placement{
		ComputePoolID: "lfcp-1",
		Catalog:       "my-env",
		Database:      "my-cluster",
	})

	require.NoError(t, err)
	assert.True(t, outcome.Created)
	assert.Equal(t, "server-assigned", outcome.Handle)
	assert.Equal(t, "my-stmt", captured.Name)
	assert.Equal(t, "CREATE VIEW v AS SELECT 1", captured.Spec.Statement)
	assert.Equal(t, "lfcp-1", captured.Spec.ComputePoolID)
	assert.Equal(t, "my-env", captured.Spec.Properties["sql.current-catalog"])
	assert.Equal(t, "my-cluster", captured.Spec.Properties["sql.current-database"])
}

func TestSubmitHandleDefaultsToRequestName(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	})

	outcome, err := client.Submit(context.Background(), "my-stmt", "CREATE ...", Placement{})

	require.NoError(t, err)
	assert.True(t, outcome.Created)
	assert.Equal(t, "my-stmt", outcome.Handle)
}

func TestSubmitConflictIsIdempotentSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	outcome, err := client.Submit(context.Background(), "my-stmt", "CREATE ...", Placement{})

	require.NoError(t, err)
	assert.False(t, outcome.Created)
	assert.Empty(t, outcome.Handle)
}

func TestSubmitRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message": "invalid sql"}`))
	})

	_, err := client.Submit(context.Background(), "my-stmt", "bogus", Placement{})

	var rejected *SubmissionRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "my-stmt", rejected.Name)
	assert.Equal(t, http.StatusBadRequest, rejected.StatusCode)
	assert.Contains(t, rejected.Body, "invalid sql")
}

func TestStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/statements/stmt-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"status": {"phase": "FAILED", "detail": "table not found"}}`))
	})

	status, err := client.Status(context.Background(), "stmt-1")

	require.NoError(t, err)
	assert.Equal(t, PhaseFailed, status.Phase)
	assert.Equal(t, "table not found", status.Detail)
}

func TestStatusUnrecognizedPhase(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": {"phase": "DEGRADED"}}`))
	})

	status, err := client.Status(context.Background(), "stmt-1")

	require.NoError(t, err)
	assert.Equal(t, PhaseUnknown, status.Phase)
	assert.True(t, status.Phase.Terminal())
	assert.True(t, status.Phase.Succeeded())
}

func TestStatusNon200(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Status(context.Background(), "stmt-1")
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/statements", r.URL.Path)
		_, _ = w.Write([]byte(`{"data": [
			{"statement_handle": "stmt-1", "status": {"status": "RUNNING"}},
			{"statement_handle": "stmt-2", "status": {"status": "STOPPED"}}
		]}`))
	})

	infos, err := client.List(context.Background())

	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "stmt-1", infos[0].Handle)
	assert.True(t, infos[0].Active())
	assert.Equal(t, "stmt-2", infos[1].Handle)
	assert.False(t, infos[1].Active())
}

func TestStop(t *testing.T) {
	var method, path string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		w.WriteHeader(http.StatusAccepted)
	})

	require.NoError(t, client.Stop(context.Background(), "stmt-1"))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/v1/statements/stmt-1", path)
}

func TestStopMissingStatementIsNoOp(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	assert.NoError(t, client.Stop(context.Background(), "stmt-1"))
}

func TestStopFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	assert.Error(t, client.Stop(context.Background(), "stmt-1"))
}

func TestParsePhase(t *testing.T) {
	tests := []struct {
		in   string
		want Phase
	}{
		{"PENDING", PhasePending},
		{"provisioning", PhaseProvisioning},
		{" RUNNING ", PhaseRunning},
		{"COMPLETED", PhaseCompleted},
		{"FAILED", PhaseFailed},
		{"", PhaseUnknown},
		{"STOPPING", PhaseUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParsePhase(tt.in), "phase %q", tt.in)
	}
}
