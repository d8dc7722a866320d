// Package permission evaluates what the current user may do inside one
// project, given that project's member list. All checks are pure
// functions over their inputs.
//
// This layer only hides controls the server would reject anyway. The
// server remains the authority on every mutation; never rely on these
// checks as a security boundary.
package permission

import "github.com/taskcamp/taskcamp/pkg/model"

// ProjectRole derives the user's role from the member list by matching
// user ids. A user not present in the list has no role and every check
// denies.
func ProjectRole(user *model.User, members []model.ProjectMember) (model.Role, bool) {
	if user == nil {
		return "", false
	}
	for i := range members {
		if members[i].User.ID == user.ID {
			return members[i].Role, true
		}
	}
	return "", false
}

func hasRole(user *model.User, members []model.ProjectMember, roles ...model.Role) bool {
	role, ok := ProjectRole(user, members)
	if !ok {
		return false
	}
	for _, candidate := range roles {
		if role == candidate {
			return true
		}
	}
	return false
}

// CanManageMembers: only the project admin may add, re-role or remove members.
func CanManageMembers(user *model.User, members []model.ProjectMember) bool {
	return hasRole(user, members, model.RoleAdmin)
}

func CanCreateTask(user *model.User, members []model.ProjectMember) bool {
	return hasRole(user, members, model.RoleAdmin, model.RoleProjectAdmin)
}

func CanEditTask(user *model.User, members []model.ProjectMember) bool {
	return hasRole(user, members, model.RoleAdmin, model.RoleProjectAdmin)
}

func CanCreateNote(user *model.User, members []model.ProjectMember) bool {
	return hasRole(user, members, model.RoleAdmin)
}

func CanEditNote(user *model.User, members []model.ProjectMember) bool {
	return hasRole(user, members, model.RoleAdmin)
}

func CanDeleteNote(user *model.User, members []model.ProjectMember) bool {
	return hasRole(user, members, model.RoleAdmin)
}

// CanCreateProject: any authenticated user may create a project; they
// become its admin.
func CanCreateProject(user *model.User) bool {
	return user != nil
}

func CanEditProject(user *model.User, members []model.ProjectMember) bool {
	return hasRole(user, members, model.RoleAdmin)
}

func CanDeleteProject(user *model.User, members []model.ProjectMember) bool {
	return hasRole(user, members, model.RoleAdmin)
}

func CanCreateSubtask(user *model.User, members []model.ProjectMember) bool {
	return hasRole(user, members, model.RoleAdmin, model.RoleProjectAdmin)
}

// CanUpdateSubtask: any project member may flip completion, whatever
// their role.
func CanUpdateSubtask(user *model.User, members []model.ProjectMember) bool {
	_, ok := ProjectRole(user, members)
	return ok
}

func CanDeleteSubtask(user *model.User, members []model.ProjectMember) bool {
	return hasRole(user, members, model.RoleAdmin, model.RoleProjectAdmin)
}

// Decision is the outcome of a check that owes the caller an
// explanation, not just a boolean.
type Decision struct {
	Allowed bool
	Message string
}

// CanRemoveMember checks whether actor may remove target from the
// project. Admins cannot remove themselves, and the target must
// currently be a member.
func CanRemoveMember(actor, target *model.User, members []model.ProjectMember) Decision {
	if target == nil {
		return Decision{Message: "Invalid member selected for removal"}
	}
	if !hasRole(actor, members, model.RoleAdmin) {
		return Decision{Message: "Only project admins can remove members"}
	}
	if _, ok := ProjectRole(target, members); !ok {
		return Decision{Message: "Selected user is not a member of this project"}
	}
	if actor.ID == target.ID {
		return Decision{Message: "Project admins cannot remove themselves from the project"}
	}
	return Decision{Allowed: true}
}
