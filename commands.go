package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"workboard/board"
	"workboard/domain"
	"workboard/policy"
	"workboard/remote"
	"workboard/workflow"
)

var errNotLoggedIn = errors.New("not logged in (or session expired); run: workboard login")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "workboard",
		Short:         "Task-board client for the workboard service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newRegisterCmd(),
		newUsersCmd(),
		newBoardsCmd(),
		newTaskCmd(),
	)
	return root
}

// requireSession returns the identity behind a valid session or a login
// hint. Protected commands never hit the network without one.
func requireSession(a *app) (domain.Identity, error) {
	id, ok := a.manager.Current()
	if !ok || !a.manager.IsValid() {
		return domain.Identity{}, errNotLoggedIn
	}
	return id, nil
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <username> <password>",
		Short: "Log in and persist the session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			res, err := a.client.Login(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			if err := a.manager.Establish(ctx, res.AccessToken, res.RefreshToken, res.User); err != nil {
				return err
			}
			fmt.Printf("logged in as %s (%s)\n", res.User.Username, res.User.Role)
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			if err := a.manager.Invalidate(ctx); err != nil {
				return err
			}
			fmt.Println("logged out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			id, err := requireSession(a)
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s), user id %s\n", id.Username, id.Role, id.ID)
			return nil
		},
	}
}

func newRegisterCmd() *cobra.Command {
	var email, password, role string
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create a new account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			reg := remote.Registration{Username: args[0], Email: email, Password: password}
			if role != "" {
				parsed, err := domain.ParseRole(role)
				if err != nil {
					return err
				}
				reg.Role = parsed
			}
			user, err := a.client.Register(ctx, reg)
			if err != nil {
				return err
			}
			fmt.Printf("registered %s (%s)\n", user.Username, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&role, "role", "", "requested role (defaults to collaborator)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUsersCmd() *cobra.Command {
	users := &cobra.Command{
		Use:   "users",
		Short: "User directory and role administration",
	}
	users.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List users",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				a, err := newApp(ctx)
				if err != nil {
					return err
				}
				if _, err := requireSession(a); err != nil {
					return err
				}
				list, err := a.client.Users(ctx)
				if err != nil {
					return sessionAware(ctx, a, err)
				}
				for _, u := range list {
					fmt.Printf("%s\t%s\t%s\n", u.ID, u.Username, u.Role)
				}
				return nil
			},
		},
		newSetRoleCmd(),
	)
	return users
}

func newSetRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <user-id> <role>",
		Short: "Change a user's role (owners only, never your own)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			id, err := requireSession(a)
			if err != nil {
				return err
			}
			role, err := domain.ParseRole(args[1])
			if err != nil {
				return err
			}
			allowed := policy.Evaluate(id.Role, policy.ActionChangeRole, policy.Context{
				TargetIsSelf: args[0] == id.ID,
			})
			if !allowed {
				return rejection(workflow.Forbidden, "")
			}
			user, err := a.client.SetUserRole(ctx, args[0], role)
			if err != nil {
				return sessionAware(ctx, a, err)
			}
			fmt.Printf("%s is now %s\n", user.Username, user.Role)
			return nil
		},
	}
}

func newBoardsCmd() *cobra.Command {
	boards := &cobra.Command{
		Use:   "boards",
		Short: "Board listing and creation",
	}
	boards.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List boards",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				a, err := newApp(ctx)
				if err != nil {
					return err
				}
				if _, err := requireSession(a); err != nil {
					return err
				}
				list, err := a.client.Boards(ctx)
				if err != nil {
					return sessionAware(ctx, a, err)
				}
				for _, b := range list {
					fmt.Printf("%s\t%s\t(%d tasks)\n", b.ID, b.Title, len(b.Tasks))
				}
				return nil
			},
		},
		newBoardShowCmd(),
		newBoardCreateCmd(),
	)
	return boards
}

func newBoardShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <board-id>",
		Short: "Show a board with its tasks by column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			if _, err := requireSession(a); err != nil {
				return err
			}
			b, err := a.client.Board(ctx, args[0])
			if err != nil {
				return sessionAware(ctx, a, err)
			}
			fmt.Printf("%s - %s\n", b.Title, b.Description)
			for _, status := range []domain.Status{domain.StatusTodo, domain.StatusInProgress, domain.StatusCompleted} {
				fmt.Printf("[%s]\n", status)
				for _, t := range b.Tasks {
					if t.Status != status {
						continue
					}
					assignee := "unassigned"
					if t.Assigned() {
						assignee = t.AssignedTo.Username
					}
					fmt.Printf("  %s\t%s\t(%s)\n", t.ID, t.Title, assignee)
				}
			}
			return nil
		},
	}
}

func newBoardCreateCmd() *cobra.Command {
	var description string
	var taskTitles []string
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a board, optionally seeded with todo tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			id, err := requireSession(a)
			if err != nil {
				return err
			}
			if !policy.Evaluate(id.Role, policy.ActionCreateBoard, policy.Context{}) {
				return rejection(workflow.Forbidden, "")
			}

			var tasks []domain.Task
			for _, title := range taskTitles {
				d := workflow.ProposeCreate(workflow.TaskDraft{Title: title}, id.Role)
				if !d.OK {
					return rejection(d.Reason, d.Detail)
				}
				tasks = append(tasks, d.Task)
			}

			b, err := a.client.CreateBoard(ctx, remote.NewBoardDraft(args[0], description, id.ID, tasks))
			if err != nil {
				return sessionAware(ctx, a, err)
			}
			fmt.Printf("created board %s\n", b.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "board description")
	cmd.Flags().StringArrayVar(&taskTitles, "task", nil, "seed task title, repeatable")
	return cmd
}

func newTaskCmd() *cobra.Command {
	task := &cobra.Command{
		Use:   "task",
		Short: "Task operations on a board",
	}
	task.AddCommand(newTaskCreateCmd(), newTaskMoveCmd(), newTaskEditCmd())
	return task
}

// boardSession wires a per-board coordinator and primes its snapshot.
func boardSession(ctx context.Context, a *app, boardID string) (*board.Session, error) {
	s := board.NewSession(boardID, a.client, a.manager, a.logger)
	if err := s.Refresh(ctx); err != nil {
		return nil, sessionAware(ctx, a, err)
	}
	return s, nil
}

func newTaskCreateCmd() *cobra.Command {
	var description, status, assignee string
	cmd := &cobra.Command{
		Use:   "create <board-id> <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			if _, err := requireSession(a); err != nil {
				return err
			}

			draft := workflow.TaskDraft{Title: args[1], Description: description}
			if status != "" {
				parsed, err := domain.ParseStatus(status)
				if err != nil {
					return err
				}
				draft.Status = parsed
			}
			if assignee != "" {
				draft.Assignee = workflow.Assign(assignee, "")
			}

			s, err := boardSession(ctx, a, args[0])
			if err != nil {
				return err
			}
			d, err := s.RequestCreate(ctx, draft)
			if err != nil {
				return sessionAware(ctx, a, err)
			}
			return printDecision(d, "task created")
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "task description")
	cmd.Flags().StringVar(&status, "status", "", "initial status (defaults to todo)")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assignee user id, 0 for unassigned")
	return cmd
}

func newTaskMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <board-id> <task-id> <status>",
		Short: "Move a task between columns",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			if _, err := requireSession(a); err != nil {
				return err
			}
			target, err := domain.ParseStatus(args[2])
			if err != nil {
				return err
			}

			s, err := boardSession(ctx, a, args[0])
			if err != nil {
				return err
			}
			d, err := s.RequestMove(ctx, args[1], target)
			if err != nil {
				return sessionAware(ctx, a, err)
			}
			return printDecision(d, "task moved")
		},
	}
}

func newTaskEditCmd() *cobra.Command {
	var title, description, status, assignee string
	cmd := &cobra.Command{
		Use:   "edit <board-id> <task-id>",
		Short: "Edit task fields",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			if _, err := requireSession(a); err != nil {
				return err
			}

			var edits workflow.TaskEdits
			if cmd.Flags().Changed("title") {
				edits.Title = &title
			}
			if cmd.Flags().Changed("description") {
				edits.Description = &description
			}
			if cmd.Flags().Changed("status") {
				parsed, err := domain.ParseStatus(status)
				if err != nil {
					return err
				}
				edits.Status = &parsed
			}
			if cmd.Flags().Changed("assignee") {
				edits.Assignee = workflow.Assign(assignee, "")
			}

			s, err := boardSession(ctx, a, args[0])
			if err != nil {
				return err
			}
			d, err := s.RequestEdit(ctx, args[1], edits)
			if err != nil {
				return sessionAware(ctx, a, err)
			}
			return printDecision(d, "task updated")
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assignee user id, 0 for unassigned")
	return cmd
}

// rejection turns a turned-down proposal into a command error so the
// process exits non-zero. No request was sent for these.
func rejection(reason workflow.RejectReason, detail string) error {
	if detail == "" {
		return fmt.Errorf("rejected: %s", reason)
	}
	return fmt.Errorf("rejected: %s (%s)", reason, detail)
}

func printDecision(d workflow.Decision, success string) error {
	if !d.OK {
		return rejection(d.Reason, d.Detail)
	}
	fmt.Println(success)
	return nil
}

// sessionAware invalidates the persisted session when the server or the
// guard reports the credential is gone, so the next command prompts for
// login instead of failing the same way.
func sessionAware(ctx context.Context, a *app, err error) error {
	if errors.Is(err, remote.ErrUnauthenticated) || errors.Is(err, board.ErrUnauthenticated) {
		if clearErr := a.manager.Invalidate(ctx); clearErr != nil {
			a.logger.WithError(clearErr).Warn("failed to clear session")
		}
		return errNotLoggedIn
	}
	return err
}
