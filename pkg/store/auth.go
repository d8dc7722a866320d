package store

import (
	"context"

	"github.com/taskcamp/taskcamp/pkg/apiclient"
	"github.com/taskcamp/taskcamp/pkg/logutils"
	"github.com/taskcamp/taskcamp/pkg/model"
)

// placeholderAvatar is shown for users without an uploaded avatar.
const placeholderAvatar = "https://via.placeholder.com/200x200.png"

// AuthStore tracks the current session: whether a user is logged in,
// who they are, and whether startup initialization has run yet.
type AuthStore struct {
	state
	api *apiclient.Client

	user          *model.User
	authenticated bool
	initialized   bool
}

func NewAuthStore(api *apiclient.Client) *AuthStore {
	return &AuthStore{api: api}
}

// Initialize resolves a persisted access token into a live user
// session. It is idempotent: a second call, or a call while the first
// is still in flight, is a no-op. Failure clears the persisted tokens
// and still marks initialization complete, with no user.
func (s *AuthStore) Initialize(ctx context.Context) error {
	s.mutex.Lock()
	if s.initialized || s.loading {
		s.mutex.Unlock()
		return nil
	}
	s.loading = true
	s.lastError = ""
	s.mutex.Unlock()

	if !s.api.LoggedIn() {
		s.mutex.Lock()
		s.loading = false
		s.initialized = true
		s.mutex.Unlock()
		return nil
	}

	user, err := s.api.CurrentUser(ctx)
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.loading = false
	s.initialized = true
	if err != nil {
		s.user = nil
		s.authenticated = false
		s.lastError = apiclient.ErrorMessage(err, "Failed to initialize auth")
		s.api.Tokens().Clear()
		logutils.Log.WithError(err).Debug("auth initialization failed, cleared tokens")
		return err
	}
	s.user = &user
	s.authenticated = true
	return nil
}

func (s *AuthStore) Login(ctx context.Context, creds apiclient.Credentials) (model.User, error) {
	s.begin()
	result, err := s.api.Login(ctx, creds)
	if err != nil {
		return model.User{}, s.fail(err, "Login failed")
	}
	s.mutex.Lock()
	s.loading = false
	s.user = &result.User
	s.authenticated = true
	s.initialized = true
	s.mutex.Unlock()
	return result.User, nil
}

func (s *AuthStore) Register(ctx context.Context, data apiclient.RegisterData) (model.User, error) {
	s.begin()
	user, err := s.api.Register(ctx, data)
	if err != nil {
		return model.User{}, s.fail(err, "Registration failed")
	}
	s.done()
	return user, nil
}

// Logout drops the session. Local state is cleared even when the
// server call fails: the tokens are already gone by then, so keeping a
// phantom user around would only mislead the caller.
func (s *AuthStore) Logout(ctx context.Context) error {
	s.begin()
	err := s.api.Logout(ctx)
	s.mutex.Lock()
	s.loading = false
	s.user = nil
	s.authenticated = false
	s.initialized = true
	if err != nil {
		s.lastError = apiclient.ErrorMessage(err, "Logout failed")
	}
	s.mutex.Unlock()
	return err
}

func (s *AuthStore) VerifyEmail(ctx context.Context, token string) error {
	return s.envelope(func() error { return s.api.VerifyEmail(ctx, token) },
		"Email verification failed")
}

func (s *AuthStore) ForgotPassword(ctx context.Context, email string) error {
	return s.envelope(func() error { return s.api.ForgotPassword(ctx, email) },
		"Password reset request failed")
}

func (s *AuthStore) ResetPassword(ctx context.Context, token, newPassword string) error {
	return s.envelope(func() error { return s.api.ResetPassword(ctx, token, newPassword) },
		"Password reset failed")
}

func (s *AuthStore) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return s.envelope(func() error { return s.api.ChangePassword(ctx, oldPassword, newPassword) },
		"Password change failed")
}

func (s *AuthStore) ResendEmailVerification(ctx context.Context) error {
	return s.envelope(func() error { return s.api.ResendEmailVerification(ctx) },
		"Failed to resend verification email")
}

// envelope runs one side-effect-free-on-the-cache auth call under the
// usual loading/error bookkeeping.
func (s *AuthStore) envelope(call func() error, fallback string) error {
	s.begin()
	if err := call(); err != nil {
		return s.fail(err, fallback)
	}
	s.done()
	return nil
}

func (s *AuthStore) User() *model.User {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.user == nil {
		return nil
	}
	user := *s.user
	return &user
}

func (s *AuthStore) IsAuthenticated() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.authenticated
}

func (s *AuthStore) IsInitialized() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.initialized
}

// UserAvatar returns the user's avatar URL, or a placeholder image
// reference when none is set.
func (s *AuthStore) UserAvatar() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.user == nil {
		return ""
	}
	if s.user.Avatar != nil && s.user.Avatar.URL != "" {
		return s.user.Avatar.URL
	}
	return placeholderAvatar
}

func (s *AuthStore) EmailVerified() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.user != nil && s.user.IsEmailVerified
}

func (s *AuthStore) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.user = nil
	s.authenticated = false
	s.initialized = false
	s.loading = false
	s.lastError = ""
}
