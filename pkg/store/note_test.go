package store

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noteJSON(id, content string) map[string]any {
	return map[string]any{"_id": id, "project": "p-1", "content": content}
}

func TestFetchNotesServesRepeatFromCache(t *testing.T) {
	api := newFakeAPI()
	api.handle("GET /notes/p-1", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, []any{noteJSON("n-1", "remember the milk")}, "")
	})
	stores, _ := newTestStores(t, api)

	first, err := stores.Notes.FetchNotes(context.Background(), "p-1")
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := stores.Notes.FetchNotes(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, api.count("GET /notes/p-1"))

	notes, err := stores.Notes.FetchNotes(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, first, notes, "empty project id returns the cache")
	assert.Equal(t, 1, api.count("GET /notes/p-1"))
}

func TestCreateNoteAppends(t *testing.T) {
	api := newFakeAPI()
	api.handle("POST /notes/p-1", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusCreated, noteJSON("n-1", "first note"), "")
	})
	stores, _ := newTestStores(t, api)

	note, err := stores.Notes.CreateNote(context.Background(), "p-1", "first note")
	require.NoError(t, err)
	assert.Equal(t, "n-1", note.ID)

	cached, ok := stores.Notes.NoteByID("n-1")
	require.True(t, ok)
	assert.Equal(t, "first note", cached.Content)
}

func TestUpdateNoteReplacesCachedCopy(t *testing.T) {
	api := newFakeAPI()
	api.handle("GET /notes/p-1", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, []any{noteJSON("n-1", "draft")}, "")
	})
	api.handle("PUT /notes/p-1/n/n-1", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, noteJSON("n-1", "final"), "")
	})
	stores, _ := newTestStores(t, api)

	_, err := stores.Notes.FetchNotes(context.Background(), "p-1")
	require.NoError(t, err)
	_, err = stores.Notes.UpdateNote(context.Background(), "p-1", "n-1", "final")
	require.NoError(t, err)

	cached, ok := stores.Notes.NoteByID("n-1")
	require.True(t, ok)
	assert.Equal(t, "final", cached.Content)
}

func TestDeleteNoteDropsFromCache(t *testing.T) {
	api := newFakeAPI()
	api.handle("GET /notes/p-1", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, []any{noteJSON("n-1", "gone soon")}, "")
	})
	api.handle("DELETE /notes/p-1/n/n-1", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, nil, "Note deleted")
	})
	stores, _ := newTestStores(t, api)

	_, err := stores.Notes.FetchNotes(context.Background(), "p-1")
	require.NoError(t, err)
	require.NoError(t, stores.Notes.DeleteNote(context.Background(), "p-1", "n-1"))

	assert.Empty(t, stores.Notes.Notes())
	_, ok := stores.Notes.NoteByID("n-1")
	assert.False(t, ok)
}

func TestFetchNoteFailureRecordsMessage(t *testing.T) {
	api := newFakeAPI()
	api.handle("GET /notes/p-1/n/n-404", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusNotFound, nil, "Note not found")
	})
	stores, _ := newTestStores(t, api)

	_, err := stores.Notes.FetchNote(context.Background(), "p-1", "n-404")
	require.Error(t, err)
	assert.Equal(t, "Note not found", stores.Notes.LastError())
	assert.False(t, stores.Notes.Loading())
}

func TestStoresResetClearsEverything(t *testing.T) {
	api := newFakeAPI()
	api.handle("GET /auth/current-user", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, userJSON("u-1", "alice"), "")
	})
	api.handle("GET /notes/p-1", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, []any{noteJSON("n-1", "remember")}, "")
	})
	api.handle("GET /tasks/p-1", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, []any{taskJSON("t-1", "First", "todo")}, "")
	})
	stores, _ := newTestStores(t, api)

	require.NoError(t, stores.Auth.Initialize(context.Background()))
	_, err := stores.Notes.FetchNotes(context.Background(), "p-1")
	require.NoError(t, err)
	_, err = stores.Tasks.FetchTasks(context.Background(), "p-1")
	require.NoError(t, err)

	stores.Reset()

	assert.Nil(t, stores.Auth.User())
	assert.False(t, stores.Auth.IsInitialized())
	assert.Empty(t, stores.Notes.Notes())
	assert.Empty(t, stores.Tasks.Tasks())
	assert.Empty(t, stores.Projects.Projects())
}
