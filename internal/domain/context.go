package domain

import "context"

type identityKey struct{}

func ContextWithIdentity(ctx context.Context, identity AccessClaims) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

func IdentityFromContext(ctx context.Context) (AccessClaims, bool) {
	if ctx == nil {
		return AccessClaims{}, false
	}
	identity, ok := ctx.Value(identityKey{}).(AccessClaims)
	return identity, ok
}
