// Package board coordinates workflow decisions with the remote board
// service for one board. The server stays the source of truth: accepted
// decisions are submitted, never applied to the cached snapshot directly,
// and the snapshot is replaced wholesale from each server response.
package board

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"workboard/domain"
	"workboard/workflow"
)

// ErrBusy is returned while another mutation for this board is in flight.
// Accepting a second one would let the engine decide against a snapshot
// the first mutation is about to invalidate.
var ErrBusy = errors.New("board mutation already in flight")

// ErrUnauthenticated is returned when no valid session backs the actor.
var ErrUnauthenticated = errors.New("no valid session")

// ErrUnknownTask is returned when the requested task is not in the
// snapshot, typically because another client removed it.
var ErrUnknownTask = errors.New("task not in board snapshot")

// Remote is the slice of the API client the coordinator needs.
type Remote interface {
	Board(ctx context.Context, boardID string) (domain.Board, error)
	CreateTask(ctx context.Context, boardID string, task domain.Task) (domain.Task, error)
	UpdateTask(ctx context.Context, task domain.Task) (domain.Task, error)
}

// ActorSource yields the current identity, or false when the session is
// gone or expired.
type ActorSource interface {
	Current() (domain.Identity, bool)
	IsValid() bool
}

// Session is the per-board coordinator.
type Session struct {
	boardID string
	remote  Remote
	actor   ActorSource
	logger  *log.Logger

	mu       sync.Mutex
	snapshot domain.Board
	loaded   bool
	// generation stamps each fetch; a response from a superseded fetch is
	// discarded so stale state cannot resurrect in the cache.
	generation uint64
	inflight   bool
}

// NewSession creates a coordinator for one board. Call Refresh before the
// first request so the snapshot exists.
func NewSession(boardID string, remote Remote, actor ActorSource, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Session{boardID: boardID, remote: remote, actor: actor, logger: logger}
}

// Snapshot returns the cached board value.
func (s *Session) Snapshot() (domain.Board, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot, s.loaded
}

// Refresh fetches the board and replaces the snapshot. When several
// refreshes race, only the newest one lands (last-write-wins); results of
// superseded fetches are dropped on arrival.
func (s *Session) Refresh(ctx context.Context) error {
	if err := s.requireActor(); err != nil {
		return err
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	board, err := s.remote.Board(ctx, s.boardID)
	if err != nil {
		return err
	}
	if !s.install(gen, board) {
		s.logger.WithField("board", s.boardID).Debug("board: discarded stale refresh")
	}
	return nil
}

// install replaces the snapshot unless a newer fetch has been issued.
func (s *Session) install(gen uint64, board domain.Board) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.snapshot = board
	s.loaded = true
	return true
}

// RequestMove asks to drag a task to another column. The assignee is left
// as-is; moves only change status.
func (s *Session) RequestMove(ctx context.Context, taskID string, target domain.Status) (workflow.Decision, error) {
	return s.mutate(ctx, func(actor domain.Identity, snapshot domain.Board) (workflow.Decision, error) {
		task, ok := snapshot.FindTask(taskID)
		if !ok {
			return workflow.Decision{}, ErrUnknownTask
		}
		return workflow.ProposeTransition(task, target, workflow.KeepAssignee(), actor.Role), nil
	}, func(ctx context.Context, next domain.Task) error {
		_, err := s.remote.UpdateTask(ctx, next)
		return err
	})
}

// RequestEdit asks to change task fields.
func (s *Session) RequestEdit(ctx context.Context, taskID string, edits workflow.TaskEdits) (workflow.Decision, error) {
	return s.mutate(ctx, func(actor domain.Identity, snapshot domain.Board) (workflow.Decision, error) {
		task, ok := snapshot.FindTask(taskID)
		if !ok {
			return workflow.Decision{}, ErrUnknownTask
		}
		return workflow.ProposeFieldEdit(task, edits, actor.Role), nil
	}, func(ctx context.Context, next domain.Task) error {
		_, err := s.remote.UpdateTask(ctx, next)
		return err
	})
}

// RequestAssign asks to change only a task's assignee.
func (s *Session) RequestAssign(ctx context.Context, taskID string, assignee workflow.AssigneeSelection) (workflow.Decision, error) {
	return s.RequestEdit(ctx, taskID, workflow.TaskEdits{Assignee: assignee})
}

// RequestCreate asks to add a task to the board.
func (s *Session) RequestCreate(ctx context.Context, draft workflow.TaskDraft) (workflow.Decision, error) {
	return s.mutate(ctx, func(actor domain.Identity, _ domain.Board) (workflow.Decision, error) {
		return workflow.ProposeCreate(draft, actor.Role), nil
	}, func(ctx context.Context, next domain.Task) error {
		_, err := s.remote.CreateTask(ctx, s.boardID, next)
		return err
	})
}

// mutate runs the decide/submit/refresh cycle under the single-in-flight
// gate. Rejections return before any network traffic.
func (s *Session) mutate(
	ctx context.Context,
	decide func(actor domain.Identity, snapshot domain.Board) (workflow.Decision, error),
	submit func(ctx context.Context, next domain.Task) error,
) (workflow.Decision, error) {
	actor, ok := s.actorIdentity()
	if !ok {
		return workflow.Decision{}, ErrUnauthenticated
	}

	s.mu.Lock()
	if s.inflight {
		s.mu.Unlock()
		return workflow.Decision{}, ErrBusy
	}
	snapshot := s.snapshot
	s.inflight = true
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inflight = false
		s.mu.Unlock()
	}()

	decision, err := decide(actor, snapshot)
	if err != nil {
		return workflow.Decision{}, err
	}
	if !decision.OK {
		s.logger.WithFields(log.Fields{
			"board":  s.boardID,
			"reason": decision.Reason,
		}).Debug("board: request rejected locally")
		return decision, nil
	}

	if err := submit(ctx, decision.Task); err != nil {
		return workflow.Decision{}, err
	}

	// Reconcile with the server's view rather than trusting our computed
	// value: the accepted decision was only the outgoing payload.
	board, err := s.remote.Board(ctx, s.boardID)
	if err != nil {
		return decision, err
	}
	s.install(gen, board)
	return decision, nil
}

func (s *Session) requireActor() error {
	if _, ok := s.actorIdentity(); !ok {
		return ErrUnauthenticated
	}
	return nil
}

func (s *Session) actorIdentity() (domain.Identity, bool) {
	id, ok := s.actor.Current()
	if !ok || !s.actor.IsValid() {
		return domain.Identity{}, false
	}
	return id, ok
}
