package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/imroc/req/v3"

	"github.com/taskcamp/taskcamp/pkg/model"
)

type (
	// FileAttachment is an upload carried by a task create/update.
	FileAttachment struct {
		Name    string
		Content []byte
	}

	// TaskForm is the write form of a task. AssignedTo is always the
	// plain user id; the update endpoint requires title, description
	// and assignee to be resent even when only the status changed.
	TaskForm struct {
		Title       string           `json:"title"`
		Description string           `json:"description"`
		Status      model.TaskStatus `json:"status,omitempty"`
		AssignedTo  string           `json:"assignedTo"`
		Attachments []FileAttachment `json:"-"`
	}

	// SubtaskUpdate patches a subtask. Nil fields are left untouched.
	SubtaskUpdate struct {
		Title       *string `json:"title,omitempty"`
		IsCompleted *bool   `json:"isCompleted,omitempty"`
	}
)

func (c *Client) ListTasks(ctx context.Context, projectID string) ([]model.Task, error) {
	return get[[]model.Task](ctx, c, "/tasks/"+projectID)
}

func (c *Client) GetTask(ctx context.Context, projectID, taskID string) (model.Task, error) {
	return get[model.Task](ctx, c, fmt.Sprintf("/tasks/%s/t/%s", projectID, taskID))
}

func (c *Client) CreateTask(ctx context.Context, projectID string, form TaskForm) (model.Task, error) {
	return doJSON[model.Task](ctx, c, http.MethodPost, "/tasks/"+projectID, form.build)
}

func (c *Client) UpdateTask(ctx context.Context, projectID, taskID string, form TaskForm) (model.Task, error) {
	return doJSON[model.Task](ctx, c, http.MethodPut,
		fmt.Sprintf("/tasks/%s/t/%s", projectID, taskID), form.build)
}

func (c *Client) DeleteTask(ctx context.Context, projectID, taskID string) error {
	_, err := del[any](ctx, c, fmt.Sprintf("/tasks/%s/t/%s", projectID, taskID))
	return err
}

func (c *Client) CreateSubtask(ctx context.Context, projectID, taskID, title string) (model.Subtask, error) {
	return post[model.Subtask](ctx, c, fmt.Sprintf("/tasks/%s/t/%s/subtasks", projectID, taskID),
		map[string]string{"title": title})
}

func (c *Client) UpdateSubtask(ctx context.Context, projectID, subtaskID string, update SubtaskUpdate) (model.Subtask, error) {
	return put[model.Subtask](ctx, c, fmt.Sprintf("/tasks/%s/st/%s", projectID, subtaskID), update)
}

func (c *Client) DeleteSubtask(ctx context.Context, projectID, subtaskID string) error {
	_, err := del[any](ctx, c, fmt.Sprintf("/tasks/%s/st/%s", projectID, subtaskID))
	return err
}

// build fills the request body: multipart form when attachments ride
// along, plain JSON otherwise.
func (form TaskForm) build(r *req.Request) {
	if len(form.Attachments) == 0 {
		r.SetBody(form)
		return
	}

	fields := map[string]string{
		"title":       form.Title,
		"description": form.Description,
		"assignedTo":  form.AssignedTo,
	}
	if form.Status != "" {
		fields["status"] = string(form.Status)
	}
	r.SetFormData(fields)
	for _, attachment := range form.Attachments {
		r.SetFileBytes("attachments", attachment.Name, attachment.Content)
	}
}
