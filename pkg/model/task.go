package model

import "time"

type Attachment struct {
	URL      string `json:"url"`
	MimeType string `json:"mimetype,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

type Task struct {
	ID          string       `json:"_id"`
	ProjectID   string       `json:"project"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      TaskStatus   `json:"status"`
	AssignedTo  *UserRef     `json:"assignedTo,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Subtasks    []Subtask    `json:"subtasks,omitempty"`
	CreatedAt   time.Time    `json:"createdAt,omitempty"`
	UpdatedAt   time.Time    `json:"updatedAt,omitempty"`
}

// AssignedToID returns the assignee's plain id, normalized from the
// expanded read form. Update payloads must carry this, never the object.
func (t *Task) AssignedToID() string {
	return t.AssignedTo.ID()
}

type Subtask struct {
	ID          string    `json:"_id"`
	TaskID      string    `json:"task,omitempty"`
	Title       string    `json:"title"`
	IsCompleted bool      `json:"isCompleted"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}
