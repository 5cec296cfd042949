package utils

import (
	"context"
	"errors"

	"data-playground/internal/shared/contextkeys"
)

// Common context errors
var (
	ErrUserIDNotFound       = errors.New("userID not found in context")
	ErrUserIDNotString      = errors.New("userID in context is not a string")
	ErrUserEmailNotFound    = errors.New("userEmail not found in context")
	ErrUserEmailNotString   = errors.New("userEmail in context is not a string")
	ErrUsernameNotFound     = errors.New("username not found in context")
	ErrUsernameNotString    = errors.New("username in context is not a string")
	ErrRequestIDNotFound    = errors.New("requestID not found in context")
	ErrRequestIDNotString   = errors.New("requestID in context is not a string")
	ErrCollectionIDNotFound = errors.New("collectionID not found in context")
)

// Principal is the authenticated caller attached to a request context.
type Principal struct {
	UserID   string
	Email    string
	Username string
}

func getString(ctx context.Context, key interface{}, missing, wrongType error) (string, error) {
	val := ctx.Value(key)
	if val == nil {
		return "", missing
	}
	s, ok := val.(string)
	if !ok {
		return "", wrongType
	}
	return s, nil
}

// GetUserIDFromContext retrieves the user ID from the context.
func GetUserIDFromContext(ctx context.Context) (string, error) {
	return getString(ctx, contextkeys.UserIDKey, ErrUserIDNotFound, ErrUserIDNotString)
}

// GetUserEmailFromContext retrieves the user email from the context.
func GetUserEmailFromContext(ctx context.Context) (string, error) {
	return getString(ctx, contextkeys.UserEmailKey, ErrUserEmailNotFound, ErrUserEmailNotString)
}

// GetUsernameFromContext retrieves the username from the context.
func GetUsernameFromContext(ctx context.Context) (string, error) {
	return getString(ctx, contextkeys.UsernameKey, ErrUsernameNotFound, ErrUsernameNotString)
}

// GetRequestIDFromContext retrieves the request ID from the context.
func GetRequestIDFromContext(ctx context.Context) (string, error) {
	return getString(ctx, contextkeys.RequestIDKey, ErrRequestIDNotFound, ErrRequestIDNotString)
}

// GetCollectionIDFromContext retrieves the collection ID from the context.
func GetCollectionIDFromContext(ctx context.Context) (string, error) {
	return getString(ctx, contextkeys.CollectionIDKey, ErrCollectionIDNotFound, ErrCollectionIDNotFound)
}

// GetPrincipalFromContext returns the caller identity. The user ID is
// mandatory; email and username are filled when present.
func GetPrincipalFromContext(ctx context.Context) (Principal, error) {
	userID, err := GetUserIDFromContext(ctx)
	if err != nil {
		return Principal{}, err
	}
	return Principal{
		UserID:   userID,
		Email:    GetUserEmailOrDefault(ctx, ""),
		Username: GetUsernameOrDefault(ctx, ""),
	}, nil
}

// Context builder functions

// WithUserID adds user ID to context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextkeys.UserIDKey, userID)
}

// WithUserEmail adds user email to context
func WithUserEmail(ctx context.Context, userEmail string) context.Context {
	return context.WithValue(ctx, contextkeys.UserEmailKey, userEmail)
}

// WithUsername adds username to context
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, contextkeys.UsernameKey, username)
}

// WithPrincipal attaches every part of the principal to the context
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = WithUserID(ctx, p.UserID)
	ctx = WithUserEmail(ctx, p.Email)
	return WithUsername(ctx, p.Username)
}

// WithRequestID adds request ID to context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextkeys.RequestIDKey, requestID)
}

// WithCollectionID adds collection ID to context
func WithCollectionID(ctx context.Context, collectionID string) context.Context {
	return context.WithValue(ctx, contextkeys.CollectionIDKey, collectionID)
}

// WithOperation names the operation a request performs, for logging
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, contextkeys.OperationKey, operation)
}

// Optional getters that return default values instead of errors

// GetUserEmailOrDefault retrieves the user email from context or returns a default value
func GetUserEmailOrDefault(ctx context.Context, def string) string {
	if v, err := GetUserEmailFromContext(ctx); err == nil {
		return v
	}
	return def
}

// GetUsernameOrDefault retrieves the username from context or returns a default value
func GetUsernameOrDefault(ctx context.Context, def string) string {
	if v, err := GetUsernameFromContext(ctx); err == nil {
		return v
	}
	return def
}

// GetRequestIDOrDefault retrieves the request ID from context or returns a default value
func GetRequestIDOrDefault(ctx context.Context, def string) string {
	if v, err := GetRequestIDFromContext(ctx); err == nil {
		return v
	}
	return def
}
