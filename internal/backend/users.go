package backend

import (
	"context"
	"net/http"

	"github.com/yourorg/orderdesk/internal/domain"
)

// UserInput is the body of user add and update calls.
type UserInput struct {
	Name         string      `json:"name"`
	Age          int         `json:"age"`
	Email        string      `json:"email"`
	Password     string      `json:"password,omitempty"`
	Role         domain.Role `json:"role"`
	ManagerEmail string      `json:"manager_email,omitempty"`
}

// ListUsers fetches every user.
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.get(ctx, "list_users", "/api/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AddUser creates a user.
func (c *Client) AddUser(ctx context.Context, in UserInput) error {
	return c.doJSON(ctx, "add_user", http.MethodPost, "/api/users/add", in, nil)
}

// UpdateUser updates the user with the given id.
func (c *Client) UpdateUser(ctx context.Context, id domain.ID, in UserInput) error {
	return c.doJSON(ctx, "update_user", http.MethodPut, pathID("/api/users/update/", id.String()), in, nil)
}

// DeleteUser deletes the user with the given id.
func (c *Client) DeleteUser(ctx context.Context, id domain.ID) error {
	return c.delete(ctx, "delete_user", pathID("/api/users/delete/", id.String()))
}

// ManagerEmails fetches the emails of every manager.
func (c *Client) ManagerEmails(ctx context.Context) ([]string, error) {
	var emails []string
	if err := c.get(ctx, "manager_emails", "/api/users/managers/emails", &emails); err != nil {
		return nil, err
	}
	return emails, nil
}

// ListTeam fetches a manager's team with order counts.
func (c *Client) ListTeam(ctx context.Context, managerEmail string) ([]domain.Member, error) {
	var members []domain.Member
	if err := c.get(ctx, "list_team", pathID("/api/my-team/", managerEmail), &members); err != nil {
		return nil, err
	}
	return members, nil
}
