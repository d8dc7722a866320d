package store

import (
	"context"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/taskcamp/taskcamp/pkg/apiclient"
	"github.com/taskcamp/taskcamp/pkg/metrics"
	"github.com/taskcamp/taskcamp/pkg/model"
)

// ProjectStore caches the user's project list (membership tuples), the
// currently opened project, and that project's member list. Member
// lists are additionally kept per project id in a bounded LRU so
// revisiting a project does not refetch its members.
type ProjectStore struct {
	state
	api *apiclient.Client

	projects       []model.ProjectMembership
	currentProject *model.Project
	members        []model.ProjectMember
	initialized    bool
	fetchedMembers *lru.Cache[string, []model.ProjectMember]
}

func NewProjectStore(api *apiclient.Client, memberCacheSize int) *ProjectStore {
	if memberCacheSize <= 0 {
		memberCacheSize = 1
	}
	// lru.New only fails on a non-positive size.
	cache, _ := lru.New[string, []model.ProjectMember](memberCacheSize)
	return &ProjectStore{api: api, fetchedMembers: cache}
}

// FetchProjects loads the caller's project list. The list endpoint has
// no parent scope, so it always goes to the network.
func (s *ProjectStore) FetchProjects(ctx context.Context) ([]model.ProjectMembership, error) {
	s.begin()
	projects, err := s.api.ListProjects(ctx)
	if err != nil {
		return nil, s.fail(err, "Failed to fetch projects")
	}
	s.mutex.Lock()
	s.projects = projects
	s.initialized = true
	s.loading = false
	s.mutex.Unlock()
	return projects, nil
}

func (s *ProjectStore) FetchProject(ctx context.Context, projectID string) (*model.Project, error) {
	if projectID == "" {
		return s.CurrentProject(), nil
	}

	s.mutex.Lock()
	if s.currentProject != nil && s.currentProject.ID == projectID {
		cached := *s.currentProject
		s.mutex.Unlock()
		metrics.CacheHitsCount.WithLabelValues("project").Inc()
		return &cached, nil
	}
	s.mutex.Unlock()
	metrics.CacheMissesCount.WithLabelValues("project").Inc()

	s.begin()
	project, err := s.api.GetProject(ctx, projectID)
	if err != nil {
		return nil, s.fail(err, "Failed to fetch project")
	}
	s.mutex.Lock()
	s.currentProject = &project
	s.loading = false
	s.mutex.Unlock()
	return &project, nil
}

// FetchProjectMembers returns the member list for projectID, served
// from the per-project cache unless forceRefresh is set.
func (s *ProjectStore) FetchProjectMembers(ctx context.Context, projectID string, forceRefresh bool) ([]model.ProjectMember, error) {
	if projectID == "" {
		return s.Members(), nil
	}

	if !forceRefresh {
		if cached, ok := s.fetchedMembers.Get(projectID); ok {
			s.mutex.Lock()
			s.members = cached
			s.mutex.Unlock()
			metrics.CacheHitsCount.WithLabelValues("member").Inc()
			return slices.Clone(cached), nil
		}
	}
	metrics.CacheMissesCount.WithLabelValues("member").Inc()

	s.begin()
	members, err := s.api.ListProjectMembers(ctx, projectID)
	if err != nil {
		return nil, s.fail(err, "Failed to fetch project members")
	}
	s.mutex.Lock()
	s.members = members
	s.loading = false
	s.mutex.Unlock()
	s.fetchedMembers.Add(projectID, members)
	return members, nil
}

// FetchProjectWithMembers loads the project and its member list
// together, issuing only the requests the caches cannot satisfy and
// fanning them out concurrently when both are needed. Both results
// land in store state under a single lock.
func (s *ProjectStore) FetchProjectWithMembers(ctx context.Context, projectID string) (*model.Project, []model.ProjectMember, error) {
	if projectID == "" {
		return nil, nil, nil
	}

	s.mutex.Lock()
	hasProject := s.currentProject != nil && s.currentProject.ID == projectID
	project := s.currentProject
	s.mutex.Unlock()
	members, hasMembers := s.fetchedMembers.Get(projectID)

	if hasProject && hasMembers {
		metrics.CacheHitsCount.WithLabelValues("project_members").Inc()
		cached := *project
		s.mutex.Lock()
		s.members = members
		s.mutex.Unlock()
		return &cached, slices.Clone(members), nil
	}

	s.begin()
	var (
		fetchedProject model.Project
		fetchedMembers []model.ProjectMember
	)
	group, groupCtx := errgroup.WithContext(ctx)
	if !hasProject {
		group.Go(func() error {
			var err error
			fetchedProject, err = s.api.GetProject(groupCtx, projectID)
			return err
		})
	}
	if !hasMembers {
		group.Go(func() error {
			var err error
			fetchedMembers, err = s.api.ListProjectMembers(groupCtx, projectID)
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return nil, nil, s.fail(err, "Failed to fetch project data")
	}

	s.mutex.Lock()
	if !hasProject {
		s.currentProject = &fetchedProject
		project = &fetchedProject
	}
	if !hasMembers {
		s.members = fetchedMembers
		members = fetchedMembers
	} else {
		s.members = members
	}
	s.loading = false
	s.mutex.Unlock()
	if !hasMembers {
		s.fetchedMembers.Add(projectID, members)
	}

	result := *project
	return &result, slices.Clone(members), nil
}

// CreateProject appends the server's canonical project wrapped in an
// ADMIN membership tuple: the creator always starts as project admin.
func (s *ProjectStore) CreateProject(ctx context.Context, data apiclient.ProjectData) (model.Project, error) {
	s.begin()
	project, err := s.api.CreateProject(ctx, data)
	if err != nil {
		return model.Project{}, s.fail(err, "Failed to create project")
	}
	s.mutex.Lock()
	s.projects = append(s.projects, model.ProjectMembership{Project: project, Role: model.RoleAdmin})
	s.loading = false
	s.mutex.Unlock()
	return project, nil
}

func (s *ProjectStore) UpdateProject(ctx context.Context, projectID string, data apiclient.ProjectData) (model.Project, error) {
	s.begin()
	project, err := s.api.UpdateProject(ctx, projectID, data)
	if err != nil {
		return model.Project{}, s.fail(err, "Failed to update project")
	}
	s.mutex.Lock()
	s.projects = lo.Map(s.projects, func(item model.ProjectMembership, _ int) model.ProjectMembership {
		if item.Project.ID == projectID {
			item.Project = project
		}
		return item
	})
	if s.currentProject != nil && s.currentProject.ID == projectID {
		s.currentProject = &project
	}
	s.loading = false
	s.mutex.Unlock()
	return project, nil
}

func (s *ProjectStore) DeleteProject(ctx context.Context, projectID string) error {
	s.begin()
	if err := s.api.DeleteProject(ctx, projectID); err != nil {
		return s.fail(err, "Failed to delete project")
	}
	s.mutex.Lock()
	s.projects = lo.Filter(s.projects, func(item model.ProjectMembership, _ int) bool {
		return item.Project.ID != projectID
	})
	if s.currentProject != nil && s.currentProject.ID == projectID {
		s.currentProject = nil
	}
	s.loading = false
	s.mutex.Unlock()
	s.fetchedMembers.Remove(projectID)
	return nil
}

// AddMember invites a user, then force-refreshes the member list so
// the cache reflects the server-side record (role defaults, expanded
// user, join timestamp).
func (s *ProjectStore) AddMember(ctx context.Context, projectID string, data apiclient.MemberData) error {
	s.begin()
	if err := s.api.AddProjectMember(ctx, projectID, data); err != nil {
		return s.fail(err, "Failed to add member to project")
	}
	s.done()
	_, err := s.FetchProjectMembers(ctx, projectID, true)
	return err
}

func (s *ProjectStore) UpdateMemberRole(ctx context.Context, projectID, userID string, role model.Role) error {
	s.begin()
	if err := s.api.UpdateMemberRole(ctx, projectID, userID, role); err != nil {
		return s.fail(err, "Failed to update member role")
	}
	s.mutex.Lock()
	s.members = lo.Map(s.members, func(member model.ProjectMember, _ int) model.ProjectMember {
		if member.User.ID == userID {
			member.Role = role
		}
		return member
	})
	updated := s.members
	s.loading = false
	s.mutex.Unlock()
	s.fetchedMembers.Add(projectID, updated)
	return nil
}

func (s *ProjectStore) RemoveMember(ctx context.Context, projectID, userID string) error {
	s.begin()
	if err := s.api.RemoveProjectMember(ctx, projectID, userID); err != nil {
		return s.fail(err, "Failed to remove member from project")
	}
	s.mutex.Lock()
	s.members = lo.Filter(s.members, func(member model.ProjectMember, _ int) bool {
		return member.User.ID != userID
	})
	updated := s.members
	s.loading = false
	s.mutex.Unlock()
	s.fetchedMembers.Add(projectID, updated)
	return nil
}

func (s *ProjectStore) Projects() []model.ProjectMembership {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return slices.Clone(s.projects)
}

func (s *ProjectStore) CurrentProject() *model.Project {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.currentProject == nil {
		return nil
	}
	project := *s.currentProject
	return &project
}

func (s *ProjectStore) Members() []model.ProjectMember {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return slices.Clone(s.members)
}

func (s *ProjectStore) Initialized() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.initialized
}

// CurrentUserRole returns the caller's role in the currently opened
// project, derived from the membership tuple of the project list.
func (s *ProjectStore) CurrentUserRole() (model.Role, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.currentProject == nil {
		return "", false
	}
	for _, item := range s.projects {
		if item.Project.ID == s.currentProject.ID {
			return item.Role, true
		}
	}
	return "", false
}

// HasPermission reports whether the caller's role in the current
// project is one of the required roles.
func (s *ProjectStore) HasPermission(requiredRoles ...model.Role) bool {
	role, ok := s.CurrentUserRole()
	return ok && slices.Contains(requiredRoles, role)
}

func (s *ProjectStore) Reset() {
	s.mutex.Lock()
	s.projects = nil
	s.currentProject = nil
	s.members = nil
	s.initialized = false
	s.loading = false
	s.lastError = ""
	s.mutex.Unlock()
	s.fetchedMembers.Purge()
}
