// Package workflow decides whether proposed task mutations are legal and
// computes the normalized next task value to submit. Every operation is
// total and deterministic: no I/O, same inputs, same decision.
//
// The one invariant everything here protects: a task never enters
// in_progress or completed without an assignee.
package workflow

import (
	"strings"

	"workboard/domain"
	"workboard/policy"
)

// RejectReason classifies why a proposal was turned down. Rejections are
// expected control flow, not failures; callers surface them to the user
// without issuing any network call.
type RejectReason string

const (
	// Forbidden means the actor's role does not permit the action.
	Forbidden RejectReason = "forbidden"
	// AssignmentRequired means the target state needs an assignee and the
	// effective assignee resolved to none.
	AssignmentRequired RejectReason = "assignment_required"
	// ValidationFailed means a field-level check failed, e.g. a blank title.
	ValidationFailed RejectReason = "validation_failed"
)

// Decision is the outcome of a proposal. When OK is set, Task holds the
// computed next value to submit; the caller never applies it to its cache.
type Decision struct {
	OK     bool
	Task   domain.Task
	Reason RejectReason
	Detail string
}

// Accepted wraps a computed next task value.
func Accepted(task domain.Task) Decision {
	return Decision{OK: true, Task: task}
}

// Rejected wraps a typed refusal.
func Rejected(reason RejectReason, detail string) Decision {
	return Decision{Reason: reason, Detail: detail}
}

// AssigneeSelection expresses a caller's intent for a task's assignee.
// The zero value means "leave the current assignee alone"; the sentinel
// unassigned id clears it. Resolving the sentinel happens here, once, not
// at every call site.
type AssigneeSelection struct {
	set bool
	ref *domain.UserRef
}

// KeepAssignee retains the task's current assignee.
func KeepAssignee() AssigneeSelection { return AssigneeSelection{} }

// ClearAssignee removes any assignee.
func ClearAssignee() AssigneeSelection { return AssigneeSelection{set: true} }

// Assign selects the given user. The unassigned sentinel id or an empty id
// is equivalent to ClearAssignee.
func Assign(id, username string) AssigneeSelection {
	if id == "" || id == domain.Unassigned {
		return ClearAssignee()
	}
	return AssigneeSelection{set: true, ref: &domain.UserRef{ID: id, Username: username}}
}

// resolve computes the effective assignee for a proposal against the
// task's current one.
func (s AssigneeSelection) resolve(current *domain.UserRef) *domain.UserRef {
	if !s.set {
		return current
	}
	return s.ref
}

// ProposeTransition validates a status move (a drag between columns) and
// returns the next task value on acceptance.
func ProposeTransition(task domain.Task, target domain.Status, assignee AssigneeSelection, actor domain.Role) Decision {
	if !policy.Evaluate(actor, policy.ActionMoveTask, policy.Context{}) {
		return Rejected(Forbidden, "role may not move tasks")
	}

	next := task
	next.Status = target
	next.AssignedTo = assignee.resolve(task.AssignedTo)
	if err := checkAssignment(next); err != "" {
		return Rejected(AssignmentRequired, err)
	}
	return Accepted(next)
}

// TaskDraft is the input to task creation. Status defaults to todo when
// empty.
type TaskDraft struct {
	Title       string
	Description string
	Status      domain.Status
	Assignee    AssigneeSelection
}

// ProposeCreate validates a new task draft. Only owners create tasks. The
// assignment invariant applies to drafts that start beyond todo; creation
// is not a loophole around it.
func ProposeCreate(draft TaskDraft, actor domain.Role) Decision {
	if !policy.Evaluate(actor, policy.ActionCreateTask, policy.Context{}) {
		return Rejected(Forbidden, "role may not create tasks")
	}
	if strings.TrimSpace(draft.Title) == "" {
		return Rejected(ValidationFailed, "title must not be empty")
	}

	status := draft.Status
	if status == "" {
		status = domain.StatusTodo
	}
	next := domain.Task{
		Title:       draft.Title,
		Description: draft.Description,
		Status:      status,
		AssignedTo:  draft.Assignee.resolve(nil),
	}
	if err := checkAssignment(next); err != "" {
		return Rejected(AssignmentRequired, err)
	}
	return Accepted(next)
}

// TaskEdits is a partial update; nil fields are left untouched.
type TaskEdits struct {
	Title       *string
	Description *string
	Status      *domain.Status
	Assignee    AssigneeSelection
}

// ProposeFieldEdit merges edits into the task and validates the merged
// result. The invariant is checked on the resulting state, so an edit that
// touches only the description cannot carry an already-invalid
// status/assignee pair through.
func ProposeFieldEdit(task domain.Task, edits TaskEdits, actor domain.Role) Decision {
	if !policy.Evaluate(actor, policy.ActionEditTask, policy.Context{}) {
		return Rejected(Forbidden, "role may not edit tasks")
	}

	next := task
	if edits.Title != nil {
		if strings.TrimSpace(*edits.Title) == "" {
			return Rejected(ValidationFailed, "title must not be empty")
		}
		next.Title = *edits.Title
	}
	if edits.Description != nil {
		next.Description = *edits.Description
	}
	if edits.Status != nil {
		next.Status = *edits.Status
	}
	next.AssignedTo = edits.Assignee.resolve(task.AssignedTo)
	if err := checkAssignment(next); err != "" {
		return Rejected(AssignmentRequired, err)
	}
	return Accepted(next)
}

func checkAssignment(task domain.Task) string {
	if task.Status.RequiresAssignee() && !task.Assigned() {
		return string(task.Status) + " requires an assignee"
	}
	return ""
}
