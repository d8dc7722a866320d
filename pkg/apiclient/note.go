package apiclient

import (
	"context"
	"fmt"

	"github.com/taskcamp/taskcamp/pkg/model"
)

func (c *Client) ListNotes(ctx context.Context, projectID string) ([]model.Note, error) {
	return get[[]model.Note](ctx, c, "/notes/"+projectID)
}

func (c *Client) GetNote(ctx context.Context, projectID, noteID string) (model.Note, error) {
	return get[model.Note](ctx, c, fmt.Sprintf("/notes/%s/n/%s", projectID, noteID))
}

func (c *Client) CreateNote(ctx context.Context, projectID, content string) (model.Note, error) {
	return post[model.Note](ctx, c, "/notes/"+projectID, map[string]string{"content": content})
}

func (c *Client) UpdateNote(ctx context.Context, projectID, noteID, content string) (model.Note, error) {
	return put[model.Note](ctx, c, fmt.Sprintf("/notes/%s/n/%s", projectID, noteID),
		map[string]string{"content": content})
}

func (c *Client) DeleteNote(ctx context.Context, projectID, noteID string) error {
	_, err := del[any](ctx, c, fmt.Sprintf("/notes/%s/n/%s", projectID, noteID))
	return err
}
