package store

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/taskcamp/taskcamp/pkg/apiclient"
	"github.com/taskcamp/taskcamp/pkg/config"
)

// fakeAPI is the httptest-backed server double the store tests share.
// It counts requests per method+path so tests can assert exactly which
// calls reached the network.
type fakeAPI struct {
	mux *http.ServeMux

	mutex sync.Mutex
	calls map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{mux: http.NewServeMux(), calls: map[string]int{}}
}

func (f *fakeAPI) handle(pattern string, handler http.HandlerFunc) {
	f.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		f.mutex.Lock()
		f.calls[pattern]++
		f.mutex.Unlock()
		handler(w, r)
	})
}

func (f *fakeAPI) count(pattern string) int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.calls[pattern]
}

func (f *fakeAPI) total() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	sum := 0
	for _, n := range f.calls {
		sum += n
	}
	return sum
}

func respond(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"statusCode": status,
		"data":       data,
		"message":    message,
		"success":    status < 400,
	})
}

func newTestStores(t *testing.T, api *fakeAPI) (*Stores, *apiclient.MemoryTokenStore) {
	t.Helper()
	server := httptest.NewServer(api.mux)
	t.Cleanup(server.Close)

	tokens := apiclient.NewMemoryTokenStore()
	tokens.SetTokens("access-1", "refresh-1")
	cfg := &config.Config{BaseURL: server.URL, Timeout: 5 * time.Second, MemberCacheSize: 2}
	client := apiclient.New(cfg, tokens)
	return New(client, cfg), tokens
}

func taskJSON(id, title, status string) map[string]any {
	return map[string]any{"_id": id, "title": title, "status": status}
}
