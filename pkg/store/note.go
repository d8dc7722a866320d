package store

import (
	"context"
	"slices"

	"github.com/samber/lo"

	"github.com/taskcamp/taskcamp/pkg/apiclient"
	"github.com/taskcamp/taskcamp/pkg/metrics"
	"github.com/taskcamp/taskcamp/pkg/model"
)

// NoteStore caches the notes of one project.
type NoteStore struct {
	state
	api *apiclient.Client

	notes       []model.Note
	currentNote *model.Note
	projectID   string
}

func NewNoteStore(api *apiclient.Client) *NoteStore {
	return &NoteStore{api: api}
}

// FetchNotes follows the common fetch contract: empty scope returns
// the cache untouched, a repeat fetch for the cached project is served
// locally while the cache is non-empty.
func (s *NoteStore) FetchNotes(ctx context.Context, projectID string) ([]model.Note, error) {
	if projectID == "" {
		return s.Notes(), nil
	}

	s.mutex.Lock()
	if s.projectID == projectID && len(s.notes) > 0 {
		cached := slices.Clone(s.notes)
		s.mutex.Unlock()
		metrics.CacheHitsCount.WithLabelValues("note").Inc()
		return cached, nil
	}
	s.mutex.Unlock()
	metrics.CacheMissesCount.WithLabelValues("note").Inc()

	s.begin()
	notes, err := s.api.ListNotes(ctx, projectID)
	if err != nil {
		return nil, s.fail(err, "Failed to fetch notes")
	}
	s.mutex.Lock()
	s.notes = notes
	s.projectID = projectID
	s.loading = false
	s.mutex.Unlock()
	return notes, nil
}

func (s *NoteStore) FetchNote(ctx context.Context, projectID, noteID string) (model.Note, error) {
	s.begin()
	note, err := s.api.GetNote(ctx, projectID, noteID)
	if err != nil {
		return model.Note{}, s.fail(err, "Failed to fetch note")
	}
	s.mutex.Lock()
	s.currentNote = &note
	s.loading = false
	s.mutex.Unlock()
	return note, nil
}

func (s *NoteStore) CreateNote(ctx context.Context, projectID, content string) (model.Note, error) {
	s.begin()
	note, err := s.api.CreateNote(ctx, projectID, content)
	if err != nil {
		return model.Note{}, s.fail(err, "Failed to create note")
	}
	s.mutex.Lock()
	s.notes = append(s.notes, note)
	s.loading = false
	s.mutex.Unlock()
	return note, nil
}

func (s *NoteStore) UpdateNote(ctx context.Context, projectID, noteID, content string) (model.Note, error) {
	s.begin()
	note, err := s.api.UpdateNote(ctx, projectID, noteID, content)
	if err != nil {
		return model.Note{}, s.fail(err, "Failed to update note")
	}
	s.mutex.Lock()
	s.notes = lo.Map(s.notes, func(item model.Note, _ int) model.Note {
		if item.ID == noteID {
			return note
		}
		return item
	})
	if s.currentNote != nil && s.currentNote.ID == noteID {
		s.currentNote = &note
	}
	s.loading = false
	s.mutex.Unlock()
	return note, nil
}

func (s *NoteStore) DeleteNote(ctx context.Context, projectID, noteID string) error {
	s.begin()
	if err := s.api.DeleteNote(ctx, projectID, noteID); err != nil {
		return s.fail(err, "Failed to delete note")
	}
	s.mutex.Lock()
	s.notes = lo.Filter(s.notes, func(item model.Note, _ int) bool {
		return item.ID != noteID
	})
	if s.currentNote != nil && s.currentNote.ID == noteID {
		s.currentNote = nil
	}
	s.loading = false
	s.mutex.Unlock()
	return nil
}

func (s *NoteStore) Notes() []model.Note {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return slices.Clone(s.notes)
}

func (s *NoteStore) NoteByID(noteID string) (model.Note, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, note := range s.notes {
		if note.ID == noteID {
			return note, true
		}
	}
	return model.Note{}, false
}

func (s *NoteStore) CurrentNote() *model.Note {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.currentNote == nil {
		return nil
	}
	note := *s.currentNote
	return &note
}

func (s *NoteStore) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.notes = nil
	s.currentNote = nil
	s.projectID = ""
	s.loading = false
	s.lastError = ""
}
