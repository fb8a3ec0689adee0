package rbac

import (
	"errors"
	"testing"

	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/domain"
)

func TestAuthorizer_Codes(t *testing.T) {
	authz := NewAuthorizer()
	admins := domain.NewRoleSet(domain.RoleAdmin)

	tests := []struct {
		name    string
		claims  domain.AccessClaims
		allowed domain.RoleSet
		code    string
	}{
		{
			name:    "missing subject",
			claims:  domain.AccessClaims{Role: domain.RoleAdmin},
			allowed: admins,
			code:    CodeMissingSubject,
		},
		{
			name:    "unknown role",
			claims:  domain.AccessClaims{ID: "u1", Role: "superuser"},
			allowed: admins,
			code:    CodeUnknownRole,
		},
		{
			name:    "empty role set",
			claims:  domain.AccessClaims{ID: "u1", Role: domain.RoleAdmin},
			allowed: domain.NewRoleSet(),
			code:    CodeNoRolesAllowed,
		},
		{
			name:    "role outside set",
			claims:  domain.AccessClaims{ID: "u1", Role: domain.RoleUser},
			allowed: admins,
			code:    CodeRoleNotPermitted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := authz.Require(tt.claims, tt.allowed)
			authzErr, ok := IsAuthzError(err)
			if !ok {
				t.Fatalf("expected authz error, got %v", err)
			}
			if authzErr.Code != tt.code {
				t.Fatalf("expected %s, got %s", tt.code, authzErr.Code)
			}
			if !errors.Is(err, domain.ErrRoleNotPermitted) {
				t.Fatalf("expected error to wrap ErrRoleNotPermitted")
			}
		})
	}
}

func TestAuthorizer_Allows(t *testing.T) {
	authz := NewAuthorizer()
	claims := domain.AccessClaims{ID: "u2", Role: domain.RoleAdmin}
	if err := authz.Require(claims, domain.NewRoleSet(domain.RoleUser, domain.RoleAdmin)); err != nil {
		t.Fatalf("expected allow, got %v", err)
	}
}
