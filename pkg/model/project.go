package model

import "time"

type Project struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Members     int       `json:"members,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// ProjectMembership is how the project list endpoint wraps each project:
// the project itself plus the requesting user's role in it. The role is
// scoped to this project only.
type ProjectMembership struct {
	Project Project `json:"project"`
	Role    Role    `json:"role"`
}

// ProjectMember is one (user, role) entry of a project's member list.
// At most one entry exists per (project, user) pair.
type ProjectMember struct {
	User      User      `json:"user"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}
