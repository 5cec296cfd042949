package auth_client

import (
	"context"
	"fmt"

	"data-playground/internal/auth/domain/model"
	"data-playground/internal/playground/domain/client"
	sharedErrors "data-playground/internal/shared/errors"
)

// UserLookup is the part of the auth usecase the directory needs
type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// UserDirectoryAdapter resolves share recipients through the auth module
type UserDirectoryAdapter struct {
	users UserLookup
}

// NewUserDirectoryAdapter creates a UserDirectory backed by the auth usecase
func NewUserDirectoryAdapter(users UserLookup) client.UserDirectory {
	return &UserDirectoryAdapter{users: users}
}

// FindByEmail returns nil, nil when no account uses email
func (a *UserDirectoryAdapter) FindByEmail(ctx context.Context, email string) (*client.DirectoryUser, error) {
	user, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		if sharedErrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}
	if user == nil {
		return nil, nil
	}
	return &client.DirectoryUser{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}, nil
}
