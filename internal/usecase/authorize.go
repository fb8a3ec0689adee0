package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/domain"
)

// Gate authorizes one request at a time. It holds no per-request state, so a
// single Gate serves every route concurrently.
type Gate struct {
	Verifier   domain.CredentialVerifier
	Identities domain.IdentityStore
	Authorizer domain.Authorizer
	Policy     domain.StatusPolicy
	Logger     *slog.Logger
}

// Authorize runs the gate pipeline against an Authorization header value.
// Every failure collapses into domain.Reject; the cause is only logged.
func (g *Gate) Authorize(ctx context.Context, allowed domain.RoleSet, authorization string) domain.Decision {
	claims, err := g.evaluate(ctx, allowed, authorization)
	if err != nil {
		g.logger().LogAttrs(ctx, slog.LevelInfo, "authorization rejected",
			slog.String("event", "auth.rejected"),
			slog.String("reason", domain.RejectReason(err)),
			slog.String("allowed_roles", allowed.String()),
			slog.String("error", err.Error()),
		)
		return domain.Reject()
	}
	g.logger().LogAttrs(ctx, slog.LevelDebug, "authorization granted",
		slog.String("event", "auth.granted"),
		slog.String("subject", claims.ID),
		slog.String("role", string(claims.Role)),
	)
	return domain.Proceed(claims)
}

func (g *Gate) evaluate(ctx context.Context, allowed domain.RoleSet, authorization string) (domain.AccessClaims, error) {
	token, err := domain.ExtractBearer(authorization)
	if err != nil {
		return domain.AccessClaims{}, err
	}

	claims, err := g.verify(ctx, token)
	if err != nil {
		return domain.AccessClaims{}, err
	}

	if err := g.requireRole(claims, allowed); err != nil {
		return domain.AccessClaims{}, err
	}

	if g.Identities == nil {
		return domain.AccessClaims{}, errors.New("identity store not configured")
	}
	record, err := g.Identities.FindByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.AccessClaims{}, domain.ErrIdentityNotFound
		}
		return domain.AccessClaims{}, fmt.Errorf("%w: identity lookup: %v", domain.ErrInvalidCredential, err)
	}
	if record.Status == domain.AccountStatusBanned {
		return domain.AccessClaims{}, domain.ErrAccountBanned
	}
	if g.Policy != nil {
		ok, err := g.Policy.Eligible(ctx, record)
		if err != nil {
			return domain.AccessClaims{}, fmt.Errorf("%w: status policy: %v", domain.ErrAccountIneligible, err)
		}
		if !ok {
			return domain.AccessClaims{}, domain.ErrAccountIneligible
		}
	}
	return claims, nil
}

func (g *Gate) verify(ctx context.Context, token string) (claims domain.AccessClaims, err error) {
	if g.Verifier == nil {
		return domain.AccessClaims{}, fmt.Errorf("%w: verifier not configured", domain.ErrInvalidCredential)
	}
	defer func() {
		if r := recover(); r != nil {
			claims = domain.AccessClaims{}
			err = fmt.Errorf("%w: verifier panic: %v", domain.ErrInvalidCredential, r)
		}
	}()
	claims, err = g.Verifier.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredential) {
			return domain.AccessClaims{}, err
		}
		return domain.AccessClaims{}, fmt.Errorf("%w: %v", domain.ErrInvalidCredential, err)
	}
	return claims, nil
}

func (g *Gate) requireRole(claims domain.AccessClaims, allowed domain.RoleSet) error {
	if g.Authorizer != nil {
		if err := g.Authorizer.Require(claims, allowed); err != nil {
			if errors.Is(err, domain.ErrRoleNotPermitted) {
				return err
			}
			return fmt.Errorf("%w: %v", domain.ErrRoleNotPermitted, err)
		}
		return nil
	}
	if !allowed.Contains(claims.Role) {
		return domain.ErrRoleNotPermitted
	}
	return nil
}

func (g *Gate) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}
