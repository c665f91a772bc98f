package auth

import "context"

type ctxKey struct{}

// LocalsKey is the fiber Locals key of the request Provider, templates read it from there.
const LocalsKey = "auth"

// WithProvider returns a copy of ctx carrying p.
func WithProvider(ctx context.Context, p *Provider) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the Provider of ctx.
func FromContext(ctx context.Context) (*Provider, bool) {
	p, ok := ctx.Value(ctxKey{}).(*Provider)

	return p, ok && p != nil
}

// Use returns the Provider of ctx. It panics with ErrNoProvider when there is none.
func Use(ctx context.Context) *Provider {
	p, ok := FromContext(ctx)
	if !ok {
		panic(ErrNoProvider)
	}

	return p
}
