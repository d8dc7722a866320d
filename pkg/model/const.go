// Wire-level enums shared by the API client and the stores.
// Values match the server's string representation exactly; never
// persist anything outside these sets on the client.
package model

// Role is a user's permission tier within one project. A user may hold
// different roles in different projects at the same time, so a Role is
// only meaningful next to the project it was granted for.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleProjectAdmin Role = "project_admin"
	RoleMember       Role = "member"
)

// TaskStatus is a kanban column.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// AllTaskStatuses lists the statuses in board order.
var AllTaskStatuses = []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusDone}

// Valid reports whether s is one of the three persisted statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// Label returns the human-readable column label.
func (s TaskStatus) Label() string {
	switch s {
	case TaskStatusTodo:
		return "To Do"
	case TaskStatusInProgress:
		return "In Progress"
	case TaskStatusDone:
		return "Done"
	default:
		return string(s)
	}
}
