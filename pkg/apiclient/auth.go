package apiclient

import (
	"context"
	"net/url"

	"github.com/taskcamp/taskcamp/pkg/model"
)

type (
	RegisterData struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
		FullName string `json:"fullName,omitempty"`
	}

	Credentials struct {
		Email    string `json:"email,omitempty"`
		Username string `json:"username,omitempty"`
		Password string `json:"password"`
	}

	AuthResult struct {
		User         model.User `json:"user"`
		AccessToken  string     `json:"accessToken"`
		RefreshToken string     `json:"refreshToken"`
	}
)

func (c *Client) Register(ctx context.Context, data RegisterData) (model.User, error) {
	result, err := post[struct {
		User model.User `json:"user"`
	}](ctx, c, "/auth/register", data)
	return result.User, err
}

// Login authenticates and persists the returned token pair, so every
// later request picks up the bearer token automatically.
func (c *Client) Login(ctx context.Context, creds Credentials) (AuthResult, error) {
	result, err := post[AuthResult](ctx, c, "/auth/login", creds)
	if err != nil {
		return AuthResult{}, err
	}
	if result.AccessToken != "" {
		c.tokens.SetTokens(result.AccessToken, result.RefreshToken)
	}
	return result, nil
}

// Logout tells the server to drop the session, then clears the
// persisted pair. The local clear happens even if the server call
// failed: a half-dead session must not keep stale credentials around.
func (c *Client) Logout(ctx context.Context) error {
	_, err := post[any](ctx, c, "/auth/logout", nil)
	c.tokens.Clear()
	return err
}

func (c *Client) CurrentUser(ctx context.Context) (model.User, error) {
	return get[model.User](ctx, c, "/auth/current-user")
}

func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	_, err := get[any](ctx, c, "/auth/verify-email/"+url.PathEscape(token))
	return err
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	_, err := post[any](ctx, c, "/auth/forgot-password", map[string]string{"email": email})
	return err
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	_, err := post[any](ctx, c, "/auth/reset-password/"+url.PathEscape(token),
		map[string]string{"newPassword": newPassword})
	return err
}

func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	_, err := post[any](ctx, c, "/auth/change-password",
		map[string]string{"oldPassword": oldPassword, "newPassword": newPassword})
	return err
}

func (c *Client) ResendEmailVerification(ctx context.Context) error {
	_, err := post[any](ctx, c, "/auth/resend-email-verification", nil)
	return err
}
