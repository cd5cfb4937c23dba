package access

import "context"

// Caller is the identity attached to an inbound request. The zero value is
// an anonymous caller.
type Caller struct {
	ID       int64
	Username string
	Admin    bool
}

// Authenticated reports whether the caller resolved to a user account.
func (c Caller) Authenticated() bool {
	return c.ID > 0
}

type callerKey struct{}

// WithCaller stores caller on ctx.
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom returns the caller stored on ctx, or an anonymous caller.
func CallerFrom(ctx context.Context) Caller {
	caller, _ := ctx.Value(callerKey{}).(Caller)
	return caller
}
