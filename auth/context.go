package auth

import "context"

type contextKey struct{}

// NewContext returns a copy of ctx carrying c.
func NewContext(ctx context.Context, c *Controller) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the controller stored by NewContext.
func FromContext(ctx context.Context) (*Controller, bool) {
	c, ok := ctx.Value(contextKey{}).(*Controller)
	return c, ok && c != nil
}
