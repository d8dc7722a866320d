// Package store holds the client-side cached copies of server
// entities. Each store owns one collection, an active parent scope, a
// loading flag and the last error message, and reconciles its cache
// against the server's canonical responses.
//
// Stores are plain dependency-injected containers: construct them over
// an API client, pass the handles around, call Reset on logout. There
// is no package-level state.
package store

import (
	"sync"

	"github.com/taskcamp/taskcamp/pkg/apiclient"
	"github.com/taskcamp/taskcamp/pkg/config"
)

// Stores bundles the four entity stores over one shared API client.
type Stores struct {
	Auth     *AuthStore
	Projects *ProjectStore
	Tasks    *TaskStore
	Notes    *NoteStore
}

func New(api *apiclient.Client, cfg *config.Config) *Stores {
	return &Stores{
		Auth:     NewAuthStore(api),
		Projects: NewProjectStore(api, cfg.MemberCacheSize),
		Tasks:    NewTaskStore(api),
		Notes:    NewNoteStore(api),
	}
}

// Reset drops every cached entity, e.g. when the session ends.
func (s *Stores) Reset() {
	s.Auth.Reset()
	s.Projects.Reset()
	s.Tasks.Reset()
	s.Notes.Reset()
}

// state is the envelope every store embeds. The loading flag is
// informational: it does not serialize callers, it only reflects
// whether a network call is outstanding.
type state struct {
	mutex     sync.Mutex
	loading   bool
	lastError string
}

func (s *state) begin() {
	s.mutex.Lock()
	s.loading = true
	s.lastError = ""
	s.mutex.Unlock()
}

// fail records the user-facing message for err and hands the original
// error back for the caller to re-raise.
func (s *state) fail(err error, fallback string) error {
	s.mutex.Lock()
	s.loading = false
	s.lastError = apiclient.ErrorMessage(err, fallback)
	s.mutex.Unlock()
	return err
}

func (s *state) done() {
	s.mutex.Lock()
	s.loading = false
	s.mutex.Unlock()
}

func (s *state) Loading() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.loading
}

func (s *state) LastError() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.lastError
}

func (s *state) ClearError() {
	s.mutex.Lock()
	s.lastError = ""
	s.mutex.Unlock()
}

// runOptimistic is the one optimistic-update transaction: apply the
// local change, attempt the remote call, then either commit the
// server's authoritative result or restore the snapshot the apply
// closure captured. apply, commit and rollback all run under the store
// lock; remote runs outside it.
func runOptimistic[T any](s *state, apply, rollback func(), remote func() (T, error), commit func(T), fallback string) (T, error) {
	s.begin()

	s.mutex.Lock()
	apply()
	s.mutex.Unlock()

	result, err := remote()

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.loading = false
	if err != nil {
		rollback()
		s.lastError = apiclient.ErrorMessage(err, fallback)
		var zero T
		return zero, err
	}
	commit(result)
	return result, nil
}
