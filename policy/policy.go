// Package policy holds the fixed role/action permission table for board
// clients. Decisions are pure: a denial is ordinary control flow the caller
// uses to short-circuit before any network traffic, not an error.
package policy

import "workboard/domain"

// Action tags the operations the table knows about.
type Action string

const (
	ActionCreateBoard Action = "create_board"
	ActionCreateTask  Action = "create_task"
	ActionEditTask    Action = "edit_task"
	ActionMoveTask    Action = "move_task"
	ActionViewBoard   Action = "view_board"
	ActionChangeRole  Action = "change_role"
)

// Context carries the resource facts a rule may consult. Only role changes
// look at it today.
type Context struct {
	// TargetIsSelf is set when the acted-on user is the actor.
	TargetIsSelf bool
}

// Evaluate reports whether the role may perform the action. Unknown roles
// and unknown actions deny; the guard fails closed when uncertain.
func Evaluate(role domain.Role, action Action, ctx Context) bool {
	switch action {
	case ActionViewBoard:
		return role == domain.RoleOwner || role == domain.RoleCollaborator || role == domain.RoleViewer
	case ActionEditTask, ActionMoveTask:
		return role == domain.RoleOwner || role == domain.RoleCollaborator
	case ActionCreateBoard, ActionCreateTask:
		return role == domain.RoleOwner
	case ActionChangeRole:
		return role == domain.RoleOwner && !ctx.TargetIsSelf
	}
	return false
}
