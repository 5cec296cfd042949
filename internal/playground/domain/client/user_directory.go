package client

import "context"

// DirectoryUser is the subset of an account the playground needs.
type DirectoryUser struct {
	ID       string
	Username string
	Email    string
}

// UserDirectory looks up registered accounts owned by the auth module.
type UserDirectory interface {
	// FindByEmail returns (nil, nil) when no account uses the email.
	FindByEmail(ctx context.Context, email string) (*DirectoryUser, error)
}
