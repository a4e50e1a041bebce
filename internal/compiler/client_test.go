package compiler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kbukum/gokit/httpclient"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/forge/internal/compiler"
	"github.com/davidbz/forge/internal/domain"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/tasks", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, true, body["ephemeral"])
		require.Equal(t, "sql", body["dialect"])
		_, _ = w.Write([]byte(`{"task_id":"t-1"}`))
	})
	mux.HandleFunc("GET /v1/tasks/{id}/result", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "t-1", r.PathValue("id"))
		require.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"status":"error","errors":[{"message":"syntax error","line":1,"col":7}]}`))
	})
	mux.HandleFunc("GET /v1/dialects/{d}/grammar", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("d") != "sql" {
			_, _ = w.Write([]byte(`{"grammar":""}`))
			return
		}
		_, _ = w.Write([]byte(`{"grammar":"stmt := select ';'"}`))
	})
	mux.HandleFunc("POST /v1/format", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"source":"SELECT 1;"}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClient_RoundTrip(t *testing.T) {
	server := newServer(t)
	client, err := compiler.NewClient(compiler.Config{URL: server.URL, APIKey: "service-key", Timeout: time.Second})
	require.NoError(t, err)
	ctx := context.Background()

	taskID, err := client.Submit(ctx, "select 1", "sql")
	require.NoError(t, err)
	require.Equal(t, "t-1", taskID)

	result, err := client.FetchResult(ctx, taskID, "user-token")
	require.NoError(t, err)
	require.Equal(t, domain.StatusError, result.Status)

	verdict := domain.NewVerifierService(nil, nil, nil, domain.VerifierOptions{}).Normalize(taskID, result)
	require.False(t, verdict.Succeeded())
	require.Len(t, verdict.Errors, 1)
	require.Equal(t, 7, *verdict.Errors[0].Column)

	grammar, err := client.Instructions(ctx, "sql")
	require.NoError(t, err)
	require.Contains(t, grammar, "stmt")

	_, err = client.Instructions(ctx, "datalog")
	require.ErrorIs(t, err, compiler.ErrEmptyGrammar)

	formatted, err := client.Format(ctx, "select   1;", "sql")
	require.NoError(t, err)
	require.Equal(t, "SELECT 1;", formatted)
}

func TestClient_TransportErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client, err := compiler.NewClient(compiler.Config{URL: server.URL})
	require.NoError(t, err)

	_, err = client.Submit(context.Background(), "x", "sql")
	require.True(t, httpclient.IsServerError(err))
	require.ErrorContains(t, err, "HTTP 503")

	_, err = compiler.NewClient(compiler.Config{})
	require.Error(t, err)
}
