package workflow

import (
	"testing"

	"workboard/domain"
)

var u7 = &domain.UserRef{ID: "7", Username: "dana"}

func TestProposeTransitionRequiresAssignee(t *testing.T) {
	task := domain.Task{ID: "t1", Title: "write docs", Status: domain.StatusTodo}

	d := ProposeTransition(task, domain.StatusInProgress, KeepAssignee(), domain.RoleCollaborator)
	if d.OK {
		t.Fatal("expected rejection for unassigned in_progress move")
	}
	if d.Reason != AssignmentRequired {
		t.Fatalf("unexpected reason: %s", d.Reason)
	}
}

func TestProposeTransitionCarriesAssignee(t *testing.T) {
	task := domain.Task{ID: "t1", Title: "write docs", Status: domain.StatusTodo, AssignedTo: u7}

	d := ProposeTransition(task, domain.StatusCompleted, KeepAssignee(), domain.RoleCollaborator)
	if !d.OK {
		t.Fatalf("unexpected rejection: %s (%s)", d.Reason, d.Detail)
	}
	if d.Task.Status != domain.StatusCompleted {
		t.Fatalf("unexpected status: %s", d.Task.Status)
	}
	if d.Task.AssignedTo == nil || d.Task.AssignedTo.ID != "7" {
		t.Fatalf("assignee not retained: %+v", d.Task.AssignedTo)
	}
}

func TestProposeTransitionViewerForbidden(t *testing.T) {
	task := domain.Task{ID: "t1", Title: "write docs", Status: domain.StatusTodo, AssignedTo: u7}

	d := ProposeTransition(task, domain.StatusInProgress, KeepAssignee(), domain.RoleViewer)
	if d.OK || d.Reason != Forbidden {
		t.Fatalf("expected Forbidden, got %+v", d)
	}
}

func TestProposeTransitionSentinelClears(t *testing.T) {
	task := domain.Task{ID: "t1", Title: "write docs", Status: domain.StatusInProgress, AssignedTo: u7}

	d := ProposeTransition(task, domain.StatusTodo, Assign(domain.Unassigned, ""), domain.RoleOwner)
	if !d.OK {
		t.Fatalf("unexpected rejection: %s", d.Reason)
	}
	if d.Task.AssignedTo != nil {
		t.Fatalf("sentinel did not clear assignee: %+v", d.Task.AssignedTo)
	}

	// Clearing while staying in_progress violates the invariant.
	d = ProposeTransition(task, domain.StatusInProgress, ClearAssignee(), domain.RoleOwner)
	if d.OK || d.Reason != AssignmentRequired {
		t.Fatalf("expected AssignmentRequired, got %+v", d)
	}
}

func TestProposeTransitionNoOpIsIdempotent(t *testing.T) {
	tasks := []domain.Task{
		{ID: "a", Title: "t", Status: domain.StatusTodo},
		{ID: "b", Title: "t", Status: domain.StatusTodo, AssignedTo: u7},
		{ID: "c", Title: "t", Status: domain.StatusInProgress, AssignedTo: u7},
		{ID: "d", Title: "t", Status: domain.StatusCompleted, AssignedTo: u7},
	}
	for _, role := range []domain.Role{domain.RoleOwner, domain.RoleCollaborator} {
		for _, task := range tasks {
			d := ProposeTransition(task, task.Status, KeepAssignee(), role)
			if !d.OK {
				t.Fatalf("%s %s: no-op rejected: %s", role, task.ID, d.Reason)
			}
			if d.Task != task {
				t.Fatalf("%s %s: no-op changed the task: %+v", role, task.ID, d.Task)
			}
		}
	}
}

// Exhaustive sweep: any decision the engine accepts satisfies the
// status/assignee invariant.
func TestAcceptedDecisionsUpholdInvariant(t *testing.T) {
	statuses := []domain.Status{domain.StatusTodo, domain.StatusInProgress, domain.StatusCompleted}
	assignees := []*domain.UserRef{nil, u7}
	selections := []AssigneeSelection{KeepAssignee(), ClearAssignee(), Assign("7", "dana"), Assign(domain.Unassigned, "")}
	roles := []domain.Role{domain.RoleOwner, domain.RoleCollaborator, domain.RoleViewer}

	for _, cur := range statuses {
		for _, asg := range assignees {
			for _, target := range statuses {
				for _, sel := range selections {
					for _, role := range roles {
						task := domain.Task{ID: "t", Title: "t", Status: cur, AssignedTo: asg}
						d := ProposeTransition(task, target, sel, role)
						if d.OK && d.Task.Status.RequiresAssignee() && !d.Task.Assigned() {
							t.Fatalf("accepted invalid state: %+v", d.Task)
						}
					}
				}
			}
		}
	}
}

func TestProposeCreate(t *testing.T) {
	cases := []struct {
		name   string
		draft  TaskDraft
		actor  domain.Role
		ok     bool
		reason RejectReason
	}{
		{name: "empty title", draft: TaskDraft{Title: ""}, actor: domain.RoleOwner, reason: ValidationFailed},
		{name: "blank title", draft: TaskDraft{Title: "   "}, actor: domain.RoleOwner, reason: ValidationFailed},
		{name: "collaborator denied", draft: TaskDraft{Title: "x"}, actor: domain.RoleCollaborator, reason: Forbidden},
		{name: "viewer denied", draft: TaskDraft{Title: "x"}, actor: domain.RoleViewer, reason: Forbidden},
		{name: "defaults to todo", draft: TaskDraft{Title: "x"}, actor: domain.RoleOwner, ok: true},
		{name: "in_progress unassigned", draft: TaskDraft{Title: "x", Status: domain.StatusInProgress}, actor: domain.RoleOwner, reason: AssignmentRequired},
		{name: "in_progress assigned", draft: TaskDraft{Title: "x", Status: domain.StatusInProgress, Assignee: Assign("7", "dana")}, actor: domain.RoleOwner, ok: true},
	}

	for _, tc := range cases {
		d := ProposeCreate(tc.draft, tc.actor)
		if d.OK != tc.ok {
			t.Fatalf("%s: ok=%v, want %v (%s)", tc.name, d.OK, tc.ok, d.Reason)
		}
		if !tc.ok && d.Reason != tc.reason {
			t.Fatalf("%s: reason=%s, want %s", tc.name, d.Reason, tc.reason)
		}
	}

	d := ProposeCreate(TaskDraft{Title: "x"}, domain.RoleOwner)
	if d.Task.Status != domain.StatusTodo {
		t.Fatalf("draft status not defaulted: %s", d.Task.Status)
	}
}

func TestProposeFieldEditChecksMergedState(t *testing.T) {
	// Corrupt pair from the server: in_progress with no assignee. A
	// description-only edit must not slip it through.
	task := domain.Task{ID: "t1", Title: "write docs", Status: domain.StatusInProgress}
	desc := "updated"

	d := ProposeFieldEdit(task, TaskEdits{Description: &desc}, domain.RoleCollaborator)
	if d.OK || d.Reason != AssignmentRequired {
		t.Fatalf("expected AssignmentRequired on merged state, got %+v", d)
	}
}

func TestProposeFieldEditMerges(t *testing.T) {
	task := domain.Task{ID: "t1", Title: "old", Description: "keep", Status: domain.StatusTodo}
	title := "new"
	status := domain.StatusInProgress

	d := ProposeFieldEdit(task, TaskEdits{
		Title:    &title,
		Status:   &status,
		Assignee: Assign("7", "dana"),
	}, domain.RoleOwner)
	if !d.OK {
		t.Fatalf("unexpected rejection: %s (%s)", d.Reason, d.Detail)
	}
	if d.Task.Title != "new" || d.Task.Description != "keep" {
		t.Fatalf("merge wrong: %+v", d.Task)
	}
	if d.Task.Status != domain.StatusInProgress || d.Task.AssignedTo.ID != "7" {
		t.Fatalf("merge wrong: %+v", d.Task)
	}
}

func TestProposeFieldEditViewerForbidden(t *testing.T) {
	task := domain.Task{ID: "t1", Title: "x", Status: domain.StatusTodo}
	desc := "nope"
	d := ProposeFieldEdit(task, TaskEdits{Description: &desc}, domain.RoleViewer)
	if d.OK || d.Reason != Forbidden {
		t.Fatalf("expected Forbidden, got %+v", d)
	}
}

func TestProposeFieldEditBlankTitle(t *testing.T) {
	task := domain.Task{ID: "t1", Title: "x", Status: domain.StatusTodo}
	blank := " "
	d := ProposeFieldEdit(task, TaskEdits{Title: &blank}, domain.RoleOwner)
	if d.OK || d.Reason != ValidationFailed {
		t.Fatalf("expected ValidationFailed, got %+v", d)
	}
}
