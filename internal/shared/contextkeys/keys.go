package contextkeys

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "data-playground context key " + string(c)
}

// UserIDKey is the key for the authenticated user's ID in context.Context
const UserIDKey = contextKey("userID")

// UserEmailKey is the key for the authenticated user's email in context.Context
const UserEmailKey = contextKey("userEmail")

// UsernameKey is the key for the authenticated user's username in context.Context
const UsernameKey = contextKey("username")

// RequestIDKey is the key for the per-request correlation ID
const RequestIDKey = contextKey("requestID")

// CollectionIDKey is the key for the collection a request is scoped to
const CollectionIDKey = contextKey("collectionID")

// OperationKey names the operation a request performs in log lines
const OperationKey = contextKey("operation")
