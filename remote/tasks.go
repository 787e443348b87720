package remote

import (
	"context"
	"net/http"

	"workboard/domain"
)

// taskDraft is the wire shape for creating a task. assigned_to_id is
// always present; null means unassigned, matching the service contract.
type taskDraft struct {
	BoardID      string        `json:"work_board,omitempty"`
	Title        string        `json:"title"`
	Description  string        `json:"description,omitempty"`
	Status       domain.Status `json:"status"`
	AssignedToID *string       `json:"assigned_to_id"`
}

// taskPatch carries the full normalized task value computed by the
// workflow engine. Sending every field keeps the server's row identical to
// the accepted decision.
type taskPatch struct {
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Status       domain.Status `json:"status"`
	AssignedToID *string       `json:"assigned_to_id"`
}

func assigneeID(t domain.Task) *string {
	if !t.Assigned() {
		return nil
	}
	id := t.AssignedTo.ID
	return &id
}

func newTaskDraft(t domain.Task) taskDraft {
	return taskDraft{
		Title:        t.Title,
		Description:  t.Description,
		Status:       t.Status,
		AssignedToID: assigneeID(t),
	}
}

// CreateTask creates a task on the given board. The task value is the one
// an accepted workflow decision produced.
func (c *Client) CreateTask(ctx context.Context, boardID string, task domain.Task) (domain.Task, error) {
	draft := newTaskDraft(task)
	draft.BoardID = boardID

	var created domain.Task
	err := c.do(ctx, call{
		op:            "create_task",
		method:        http.MethodPost,
		path:          "/api/tasks/",
		body:          draft,
		authenticated: true,
		out:           &created,
	})
	return created, err
}

// UpdateTask submits the computed next value for an existing task.
func (c *Client) UpdateTask(ctx context.Context, task domain.Task) (domain.Task, error) {
	var updated domain.Task
	err := c.do(ctx, call{
		op:     "update_task",
		method: http.MethodPatch,
		path:   "/api/tasks/" + task.ID + "/",
		body: taskPatch{
			Title:        task.Title,
			Description:  task.Description,
			Status:       task.Status,
			AssignedToID: assigneeID(task),
		},
		authenticated: true,
		out:           &updated,
	})
	return updated, err
}
