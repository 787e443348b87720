package remote

import (
	"context"
	"net/http"

	"workboard/domain"
)

// LoginResult is the material a successful login yields. The access token
// is a compact claims blob carrying at least an exp claim.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         domain.Identity
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Access  string          `json:"access"`
	Refresh string          `json:"refresh"`
	User    domain.Identity `json:"user"`
}

// Login exchanges credentials for a session. Unauthenticated by design.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var resp loginResponse
	err := c.do(ctx, call{
		op:     "login",
		method: http.MethodPost,
		path:   "/auth/login/",
		body:   loginRequest{Username: username, Password: password},
		out:    &resp,
	})
	if err != nil {
		return LoginResult{}, err
	}
	if resp.Access == "" || resp.User.Validate() != nil {
		return LoginResult{}, ErrInvalidCredential
	}
	return LoginResult{
		AccessToken:  resp.Access,
		RefreshToken: resp.Refresh,
		User:         resp.User,
	}, nil
}

// Registration is a new-account request. Role defaults to collaborator
// server-side when empty.
type Registration struct {
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role,omitempty"`
}

// Register creates an account. Unauthenticated.
func (c *Client) Register(ctx context.Context, reg Registration) (domain.User, error) {
	var user domain.User
	err := c.do(ctx, call{
		op:     "register",
		method: http.MethodPost,
		path:   "/api/users/",
		body:   reg,
		out:    &user,
	})
	return user, err
}
