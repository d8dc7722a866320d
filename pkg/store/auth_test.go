package store

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskcamp/taskcamp/pkg/apiclient"
)

func userJSON(id, username string) map[string]any {
	return map[string]any{"_id": id, "username": username, "email": username + "@example.com"}
}

func TestInitializeResolvesPersistedSession(t *testing.T) {
	api := newFakeAPI()
	api.handle("GET /auth/current-user", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, userJSON("u-1", "alice"), "")
	})
	stores, _ := newTestStores(t, api)

	require.NoError(t, stores.Auth.Initialize(context.Background()))
	assert.True(t, stores.Auth.IsInitialized())
	assert.True(t, stores.Auth.IsAuthenticated())
	require.NotNil(t, stores.Auth.User())
	assert.Equal(t, "alice", stores.Auth.User().Username)

	// A second call is a no-op.
	require.NoError(t, stores.Auth.Initialize(context.Background()))
	assert.Equal(t, 1, api.count("GET /auth/current-user"))
}

func TestInitializeWithoutTokensSkipsNetwork(t *testing.T) {
	api := newFakeAPI()
	stores, tokens := newTestStores(t, api)
	tokens.Clear()

	require.NoError(t, stores.Auth.Initialize(context.Background()))
	assert.True(t, stores.Auth.IsInitialized())
	assert.False(t, stores.Auth.IsAuthenticated())
	assert.Nil(t, stores.Auth.User())
	assert.Zero(t, api.total())
}

func TestInitializeFailureClearsTokens(t *testing.T) {
	api := newFakeAPI()
	api.handle("GET /auth/current-user", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusInternalServerError, nil, "boom")
	})
	stores, tokens := newTestStores(t, api)

	err := stores.Auth.Initialize(context.Background())
	require.Error(t, err)
	assert.True(t, stores.Auth.IsInitialized(), "failure still completes initialization")
	assert.False(t, stores.Auth.IsAuthenticated())
	assert.Empty(t, tokens.Access(), "stale tokens dropped")
	assert.Equal(t, "boom", stores.Auth.LastError())
}

func TestLoginPopulatesSession(t *testing.T) {
	api := newFakeAPI()
	api.handle("POST /auth/login", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, map[string]any{
			"user":         userJSON("u-1", "alice"),
			"accessToken":  "access-2",
			"refreshToken": "refresh-2",
		}, "Login successful")
	})
	stores, tokens := newTestStores(t, api)
	tokens.Clear()

	user, err := stores.Auth.Login(context.Background(), apiclient.Credentials{
		Email:    "alice@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.True(t, stores.Auth.IsAuthenticated())
	assert.Equal(t, "access-2", tokens.Access())

	// Initialize after login is a no-op.
	require.NoError(t, stores.Auth.Initialize(context.Background()))
	assert.Equal(t, 0, api.count("GET /auth/current-user"))
}

func TestLogoutClearsSessionEvenOnServerError(t *testing.T) {
	api := newFakeAPI()
	api.handle("GET /auth/current-user", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, userJSON("u-1", "alice"), "")
	})
	api.handle("POST /auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusInternalServerError, nil, "boom")
	})
	stores, tokens := newTestStores(t, api)

	require.NoError(t, stores.Auth.Initialize(context.Background()))
	err := stores.Auth.Logout(context.Background())
	require.Error(t, err)
	assert.False(t, stores.Auth.IsAuthenticated())
	assert.Nil(t, stores.Auth.User())
	assert.Empty(t, tokens.Access())
}

func TestUserAvatarFallsBackToPlaceholder(t *testing.T) {
	api := newFakeAPI()
	api.handle("GET /auth/current-user", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, userJSON("u-1", "alice"), "")
	})
	stores, _ := newTestStores(t, api)

	require.NoError(t, stores.Auth.Initialize(context.Background()))
	assert.Equal(t, "https://via.placeholder.com/200x200.png", stores.Auth.UserAvatar())
}

func TestUserAvatarPrefersProfileImage(t *testing.T) {
	api := newFakeAPI()
	api.handle("GET /auth/current-user", func(w http.ResponseWriter, _ *http.Request) {
		user := userJSON("u-1", "alice")
		user["avatar"] = map[string]any{"url": "https://cdn.example.com/alice.png"}
		respond(w, http.StatusOK, user, "")
	})
	stores, _ := newTestStores(t, api)

	require.NoError(t, stores.Auth.Initialize(context.Background()))
	assert.Equal(t, "https://cdn.example.com/alice.png", stores.Auth.UserAvatar())
}

func TestChangePasswordRecordsServerMessage(t *testing.T) {
	api := newFakeAPI()
	api.handle("POST /auth/change-password", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusBadRequest, nil, "Invalid old password")
	})
	stores, _ := newTestStores(t, api)

	err := stores.Auth.ChangePassword(context.Background(), "wrong", "newer")
	require.Error(t, err)
	assert.Equal(t, "Invalid old password", stores.Auth.LastError())

	stores.Auth.ClearError()
	assert.Empty(t, stores.Auth.LastError())
}
