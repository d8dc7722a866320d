package apiclient

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// TokenStore persists the access/refresh token pair. Reads and writes
// are synchronous: every authenticated request reads the current access
// token and the refresh flow writes the rotated pair back immediately.
type TokenStore interface {
	Access() string
	Refresh() string
	SetTokens(access, refresh string)
	Clear()
}

// storage keys inside the credentials file
type credentials struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// FileTokenStore keeps the token pair in a JSON credentials file with
// 0600 permissions. It re-reads the file on every access so concurrent
// processes sharing the file observe rotations.
type FileTokenStore struct {
	mutex sync.Mutex
	path  string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (s *FileTokenStore) Access() string  { return s.load().AccessToken }
func (s *FileTokenStore) Refresh() string { return s.load().RefreshToken }

func (s *FileTokenStore) SetTokens(access, refresh string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.save(credentials{AccessToken: access, RefreshToken: refresh})
}

func (s *FileTokenStore) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	_ = os.Remove(s.path)
}

func (s *FileTokenStore) load() credentials {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	var creds credentials
	data, err := os.ReadFile(s.path)
	if err != nil {
		return creds
	}
	_ = json.Unmarshal(data, &creds)
	return creds
}

func (s *FileTokenStore) save(creds credentials) {
	data, err := json.Marshal(creds)
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return
	}
	_ = os.WriteFile(s.path, data, 0o600)
}

// MemoryTokenStore holds the pair in memory. Used by tests and by
// embedders that manage persistence themselves.
type MemoryTokenStore struct {
	mutex sync.Mutex
	creds credentials
}

func NewMemoryTokenStore() *MemoryTokenStore { return &MemoryTokenStore{} }

func (s *MemoryTokenStore) Access() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.creds.AccessToken
}

func (s *MemoryTokenStore) Refresh() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.creds.RefreshToken
}

func (s *MemoryTokenStore) SetTokens(access, refresh string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.creds = credentials{AccessToken: access, RefreshToken: refresh}
}

func (s *MemoryTokenStore) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.creds = credentials{}
}

// TokenExpiresAt parses the JWT expiry claim without verifying the
// signature. The client never holds the signing secret; expiry is only
// used to decide whether a token is worth presenting at all.
func TokenExpiresAt(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
