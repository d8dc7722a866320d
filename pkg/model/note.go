package model

import "time"

type Note struct {
	ID        string    `json:"_id"`
	ProjectID string    `json:"project"`
	Content   string    `json:"content"`
	CreatedBy *UserRef  `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}
