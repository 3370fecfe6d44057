package auth

import "context"

// UserType distinguishes customers from restaurant admins.
type UserType string

const (
	UserCustomer UserType = "customer"
	UserAdmin    UserType = "admin"
)

// Session is the identity attached to an authenticated request.
type Session struct {
	UserID   string
	UserType UserType
	// RestaurantID is set for admins only.
	RestaurantID string
}

// IsAdmin reports whether the session belongs to a restaurant admin.
func (s Session) IsAdmin() bool {
	return s.UserType == UserAdmin
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom extracts the session stored by WithSession.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
