package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the login response body.
type LoginResult struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Identity is the verify-token response body.
type Identity struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Login exchanges credentials for a token. It does not send a session token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	data, err := json.Marshal(Credentials{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("login: encode request: %w", err)
	}
	var result LoginResult
	err = c.do(ctx, call{
		op:          "login",
		method:      http.MethodPost,
		path:        "/api/login",
		body:        bytes.NewReader(data),
		contentType: "application/json",
		out:         &result,
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// VerifyToken redeems token, which need not be the session's current token.
func (c *Client) VerifyToken(ctx context.Context, token string) (*Identity, error) {
	var identity Identity
	err := c.do(ctx, call{
		op:        "verify_token",
		method:    http.MethodGet,
		path:      "/api/verify-token",
		token:     token,
		withToken: true,
		out:       &identity,
	})
	if err != nil {
		return nil, err
	}
	return &identity, nil
}
