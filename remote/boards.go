package remote

import (
	"context"
	"net/http"

	"workboard/domain"
)

// Boards lists the caller's boards.
func (c *Client) Boards(ctx context.Context) ([]domain.Board, error) {
	var boards []domain.Board
	err := c.do(ctx, call{
		op:            "boards",
		method:        http.MethodGet,
		path:          "/api/boards/",
		authenticated: true,
		out:           &boards,
	})
	return boards, err
}

// Board fetches one board with its nested tasks.
func (c *Client) Board(ctx context.Context, boardID string) (domain.Board, error) {
	var board domain.Board
	err := c.do(ctx, call{
		op:            "board",
		method:        http.MethodGet,
		path:          "/api/boards/" + boardID + "/",
		authenticated: true,
		out:           &board,
	})
	return board, err
}

// BoardDraft is the creation payload. Tasks may be pre-seeded; each one is
// expected to have passed the workflow's creation checks already.
type BoardDraft struct {
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	OwnerID     string      `json:"owner"`
	Tasks       []taskDraft `json:"tasks,omitempty"`
}

// NewBoardDraft builds the wire payload for a board with its initial
// tasks.
func NewBoardDraft(title, description, ownerID string, tasks []domain.Task) BoardDraft {
	draft := BoardDraft{Title: title, Description: description, OwnerID: ownerID}
	for _, t := range tasks {
		draft.Tasks = append(draft.Tasks, newTaskDraft(t))
	}
	return draft
}

// CreateBoard creates a board.
func (c *Client) CreateBoard(ctx context.Context, draft BoardDraft) (domain.Board, error) {
	var board domain.Board
	err := c.do(ctx, call{
		op:            "create_board",
		method:        http.MethodPost,
		path:          "/api/boards/",
		body:          draft,
		authenticated: true,
		out:           &board,
	})
	return board, err
}
