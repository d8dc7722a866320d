package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskcamp/taskcamp/pkg/config"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *MemoryTokenStore) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	tokens := NewMemoryTokenStore()
	cfg := &config.Config{BaseURL: server.URL, Timeout: 5 * time.Second, MemberCacheSize: 8}
	return New(cfg, tokens), tokens
}

func writeEnvelope(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"statusCode": status,
		"data":       data,
		"message":    message,
		"success":    status < 400,
	})
}

func bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func TestRefreshOn401RetriesOnce(t *testing.T) {
	var refreshCalls, userCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "refresh-1", body["refreshToken"])
		writeEnvelope(w, http.StatusOK, map[string]string{
			"accessToken":  "access-2",
			"refreshToken": "refresh-2",
		}, "")
	})
	mux.HandleFunc("GET /auth/current-user", func(w http.ResponseWriter, r *http.Request) {
		userCalls.Add(1)
		if bearer(r) != "access-2" {
			writeEnvelope(w, http.StatusUnauthorized, nil, "jwt expired")
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]string{"_id": "u-1", "username": "alice"}, "")
	})

	client, tokens := newTestClient(t, mux)
	tokens.SetTokens("access-stale", "refresh-1")

	user, err := client.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, int32(1), refreshCalls.Load(), "exactly one refresh call")
	assert.Equal(t, int32(2), userCalls.Load(), "original request retried once")
	assert.Equal(t, "access-2", tokens.Access())
	assert.Equal(t, "refresh-2", tokens.Refresh(), "rotated refresh token persisted")
}

func TestRefreshKeepsOldRefreshTokenWhenNotRotated(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh-token", func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]string{"accessToken": "access-2"}, "")
	})
	mux.HandleFunc("GET /auth/current-user", func(w http.ResponseWriter, r *http.Request) {
		if bearer(r) != "access-2" {
			writeEnvelope(w, http.StatusUnauthorized, nil, "jwt expired")
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]string{"_id": "u-1"}, "")
	})

	client, tokens := newTestClient(t, mux)
	tokens.SetTokens("access-stale", "refresh-1")

	_, err := client.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", tokens.Refresh())
}

func TestMissingRefreshTokenEndsSession(t *testing.T) {
	var refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh-token", func(w http.ResponseWriter, _ *http.Request) {
		refreshCalls.Add(1)
		writeEnvelope(w, http.StatusUnauthorized, nil, "invalid refresh token")
	})
	mux.HandleFunc("GET /auth/current-user", func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, nil, "jwt expired")
	})

	client, tokens := newTestClient(t, mux)
	tokens.SetTokens("access-stale", "")

	_, err := client.CurrentUser(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, int32(0), refreshCalls.Load(), "no refresh attempted without a refresh token")
	assert.Empty(t, tokens.Access(), "tokens cleared")
}

func TestRejectedRefreshClearsTokens(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh-token", func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, nil, "invalid refresh token")
	})
	mux.HandleFunc("GET /auth/current-user", func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, nil, "jwt expired")
	})

	client, tokens := newTestClient(t, mux)
	tokens.SetTokens("access-stale", "refresh-bad")

	_, err := client.CurrentUser(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Empty(t, tokens.Access())
	assert.Empty(t, tokens.Refresh())
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	var refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh-token", func(w http.ResponseWriter, _ *http.Request) {
		refreshCalls.Add(1)
		time.Sleep(150 * time.Millisecond)
		writeEnvelope(w, http.StatusOK, map[string]string{"accessToken": "access-2"}, "")
	})
	mux.HandleFunc("GET /auth/current-user", func(w http.ResponseWriter, r *http.Request) {
		if bearer(r) != "access-2" {
			writeEnvelope(w, http.StatusUnauthorized, nil, "jwt expired")
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]string{"_id": "u-1"}, "")
	})

	client, tokens := newTestClient(t, mux)
	tokens.SetTokens("access-stale", "refresh-1")

	const workers = 5
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = client.CurrentUser(context.Background())
		}()
	}
	wg.Wait()

	for i := range workers {
		assert.NoError(t, errs[i])
	}
	assert.Equal(t, int32(1), refreshCalls.Load(), "concurrent 401s deduplicated to one refresh")
}

func TestServerErrorCarriesEnvelopeMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /projects/p-1", func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusForbidden, nil, "You are not part of this project")
	})

	client, _ := newTestClient(t, mux)

	_, err := client.GetProject(context.Background(), "p-1")
	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusForbidden, serverErr.StatusCode)
	assert.Equal(t, "You are not part of this project", serverErr.Message)
	assert.Equal(t, "You are not part of this project", ErrorMessage(err, "fallback"))
}

func TestNetworkErrorWhenServerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // nothing is listening anymore

	tokens := NewMemoryTokenStore()
	cfg := &config.Config{BaseURL: server.URL, Timeout: time.Second}
	client := New(cfg, tokens)

	_, err := client.ListProjects(context.Background())
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "fallback", ErrorMessage(err, "fallback"))
}

func TestLoginPersistsTokens(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		require.Equal(t, "alice@example.com", creds.Email)
		writeEnvelope(w, http.StatusOK, map[string]any{
			"user":         map[string]string{"_id": "u-1", "username": "alice"},
			"accessToken":  "access-1",
			"refreshToken": "refresh-1",
		}, "Login successful")
	})

	client, tokens := newTestClient(t, mux)
	require.False(t, client.LoggedIn())

	result, err := client.Login(context.Background(), Credentials{
		Email:    "alice@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", result.User.Username)
	assert.Equal(t, "access-1", tokens.Access())
	assert.Equal(t, "refresh-1", tokens.Refresh())
	assert.True(t, client.LoggedIn())
}

func TestLogoutClearsTokensEvenOnServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusInternalServerError, nil, "boom")
	})

	client, tokens := newTestClient(t, mux)
	tokens.SetTokens("access-1", "refresh-1")

	err := client.Logout(context.Background())
	require.Error(t, err)
	assert.Empty(t, tokens.Access())
	assert.Empty(t, tokens.Refresh())
}

func TestTaskUpdateUsesMultipartOnlyWithAttachments(t *testing.T) {
	var contentTypes []string
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /tasks/p-1/t/t-1", func(w http.ResponseWriter, r *http.Request) {
		contentTypes = append(contentTypes, r.Header.Get("Content-Type"))
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "Ship it", r.FormValue("title"))
			require.Len(t, r.MultipartForm.File["attachments"], 1)
		}
		writeEnvelope(w, http.StatusOK, map[string]string{"_id": "t-1", "title": "Ship it", "status": "todo"}, "")
	})

	client, _ := newTestClient(t, mux)

	_, err := client.UpdateTask(context.Background(), "p-1", "t-1", TaskForm{Title: "Ship it"})
	require.NoError(t, err)

	_, err = client.UpdateTask(context.Background(), "p-1", "t-1", TaskForm{
		Title:       "Ship it",
		Attachments: []FileAttachment{{Name: "design.png", Content: []byte("png-bytes")}},
	})
	require.NoError(t, err)

	require.Len(t, contentTypes, 2)
	assert.Contains(t, contentTypes[0], "application/json")
	assert.Contains(t, contentTypes[1], "multipart/form-data")
}

func TestRequestsCarryRequestID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /projects", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		writeEnvelope(w, http.StatusOK, []any{}, "")
	})

	client, _ := newTestClient(t, mux)
	_, err := client.ListProjects(context.Background())
	require.NoError(t, err)
}
