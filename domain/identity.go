package domain

import (
	"errors"
	"fmt"
)

// Role determines which board actions a user may perform.
type Role string

const (
	RoleOwner        Role = "owner"
	RoleCollaborator Role = "collaborator"
	RoleViewer       Role = "viewer"
)

// ParseRole validates a raw role string. Roles are a closed set; anything
// else is a contract violation from the server or stale persisted state.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleOwner, RoleCollaborator, RoleViewer:
		return Role(raw), nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// Identity is the decoded user behind the active session. Immutable once
// established; replaced wholesale on login.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

var errIncompleteIdentity = errors.New("identity missing required fields")

// Validate checks that every required field is present and the role is a
// member of the closed set.
func (id Identity) Validate() error {
	if id.ID == "" || id.Username == "" {
		return errIncompleteIdentity
	}
	if _, err := ParseRole(string(id.Role)); err != nil {
		return err
	}
	return nil
}

// User is a directory entry from the user listing endpoint.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     Role   `json:"role"`
}
