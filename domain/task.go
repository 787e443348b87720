package domain

import "fmt"

// Status is the workflow state of a task. The set is closed; tasks only
// ever move between these three columns.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// ParseStatus validates a raw status string from the wire or the CLI.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return Status(raw), nil
	}
	return "", fmt.Errorf("unknown task status %q", raw)
}

// RequiresAssignee reports whether a task in this status must carry an
// assignee.
func (s Status) RequiresAssignee() bool {
	return s == StatusInProgress || s == StatusCompleted
}

// Unassigned is the sentinel assignee id meaning "no assignee". It matches
// the value the board service's task forms submit for the empty choice.
const Unassigned = "0"

// UserRef is a denormalized reference to the user a task is assigned to.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Task is a single board item.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      Status   `json:"status"`
	AssignedTo  *UserRef `json:"assigned_to"`
}

// Assigned reports whether the task has an assignee.
func (t Task) Assigned() bool {
	return t.AssignedTo != nil && t.AssignedTo.ID != "" && t.AssignedTo.ID != Unassigned
}

// Board is the client's snapshot of a remote board with its nested tasks.
// Snapshots are replaced wholesale after each server round-trip, never
// edited in place.
type Board struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	OwnerID     string `json:"owner"`
	Tasks       []Task `json:"tasks"`
}

// FindTask returns the task with the given id from the snapshot.
func (b Board) FindTask(id string) (Task, bool) {
	for _, t := range b.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}
