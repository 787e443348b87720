package remote

import (
	"context"
	"net/http"

	"workboard/domain"
)

// Users lists the user directory.
func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := c.do(ctx, call{
		op:            "users",
		method:        http.MethodGet,
		path:          "/api/users/",
		authenticated: true,
		out:           &users,
	})
	return users, err
}

type rolePatch struct {
	Role domain.Role `json:"role"`
}

// SetUserRole changes another user's role. The caller is expected to have
// cleared the change through the access policy first.
func (c *Client) SetUserRole(ctx context.Context, userID string, role domain.Role) (domain.User, error) {
	var user domain.User
	err := c.do(ctx, call{
		op:            "set_user_role",
		method:        http.MethodPatch,
		path:          "/api/users/" + userID + "/",
		body:          rolePatch{Role: role},
		authenticated: true,
		out:           &user,
	})
	return user, err
}
