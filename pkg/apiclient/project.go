package apiclient

import (
	"context"
	"fmt"

	"github.com/taskcamp/taskcamp/pkg/model"
)

type (
	ProjectData struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}

	MemberData struct {
		Email string     `json:"email"`
		Role  model.Role `json:"role"`
	}
)

// ListProjects returns the caller's projects, each wrapped with the
// caller's role in that project.
func (c *Client) ListProjects(ctx context.Context) ([]model.ProjectMembership, error) {
	return get[[]model.ProjectMembership](ctx, c, "/projects")
}

func (c *Client) GetProject(ctx context.Context, projectID string) (model.Project, error) {
	return get[model.Project](ctx, c, "/projects/"+projectID)
}

func (c *Client) CreateProject(ctx context.Context, data ProjectData) (model.Project, error) {
	return post[model.Project](ctx, c, "/projects", data)
}

func (c *Client) UpdateProject(ctx context.Context, projectID string, data ProjectData) (model.Project, error) {
	return put[model.Project](ctx, c, "/projects/"+projectID, data)
}

func (c *Client) DeleteProject(ctx context.Context, projectID string) error {
	_, err := del[any](ctx, c, "/projects/"+projectID)
	return err
}

func (c *Client) ListProjectMembers(ctx context.Context, projectID string) ([]model.ProjectMember, error) {
	return get[[]model.ProjectMember](ctx, c, fmt.Sprintf("/projects/%s/members", projectID))
}

func (c *Client) AddProjectMember(ctx context.Context, projectID string, data MemberData) error {
	_, err := post[any](ctx, c, fmt.Sprintf("/projects/%s/members", projectID), data)
	return err
}

func (c *Client) UpdateMemberRole(ctx context.Context, projectID, userID string, role model.Role) error {
	_, err := put[any](ctx, c, fmt.Sprintf("/projects/%s/members/%s", projectID, userID),
		map[string]model.Role{"newRole": role})
	return err
}

func (c *Client) RemoveProjectMember(ctx context.Context, projectID, userID string) error {
	_, err := del[any](ctx, c, fmt.Sprintf("/projects/%s/members/%s", projectID, userID))
	return err
}
