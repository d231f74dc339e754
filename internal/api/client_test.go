package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannvm/agentctl/internal/document"
)

func TestClientAuthAndDecode(t *testing.T) {
	var gotAuth, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		require.NotEmpty(t, r.Header.Get("X-Request-Id"))
		_ = json.NewEncoder(w).Encode(Assistant{ID: "asst_1", Name: "greeter"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk-test", time.Second)
	var out Assistant
	require.NoError(t, client.Get(context.Background(), "/assistant/asst_1", &out))

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, http.MethodGet, gotMethod)
	assert.Equal(t, "greeter", out.Name)
}

func TestClientOrgHeader(t *testing.T) {
	var gotOrg string
	var orgPresent bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOrg = r.Header.Get("X-Vapi-Org-Id")
		_, orgPresent = r.Header["X-Vapi-Org-Id"]
		_ = json.NewEncoder(w).Encode(Assistant{ID: "asst_1"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk-test", time.Second).WithOrg("org_42")
	require.NoError(t, client.Get(context.Background(), "assistant/asst_1", nil))
	assert.Equal(t, "org_42", gotOrg)

	// Without an org the header is omitted entirely.
	client = NewClient(srv.URL, "sk-test", time.Second)
	require.NoError(t, client.Get(context.Background(), "assistant/asst_1", nil))
	assert.False(t, orgPresent)
}

func TestClientAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"name is required"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk-test", time.Second)
	err := client.Post(context.Background(), "assistant", document.Document{}, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "name is required")
	assert.False(t, IsNotFound(err))
}

func TestGetWithRetryAbsorbsConsistencyLag(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(Squad{ID: "sq_1", Name: "clinic"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk-test", time.Second)
	var out Squad
	require.NoError(t, client.GetWithRetry(context.Background(), "squad/sq_1", &out))
	assert.Equal(t, 3, calls)
	assert.Equal(t, "clinic", out.Name)
}

func TestGetWithRetryPermanentErrorAbortsImmediately(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk-test", time.Second)
	err := client.GetWithRetry(context.Background(), "squad/sq_1", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestServiceCreateAssistant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/assistant", r.URL.Path)
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "greeter", payload["name"])
		_ = json.NewEncoder(w).Encode(Assistant{ID: "asst_42", Name: "greeter"})
	}))
	defer srv.Close()

	svc := NewService(NewClient(srv.URL, "sk-test", time.Second))
	created, err := svc.CreateAssistant(context.Background(), document.Document{"name": "greeter"})
	require.NoError(t, err)
	assert.Equal(t, "asst_42", created.ID)
}
