package rbac

import (
	"errors"

	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/domain"
)

const (
	CodeMissingSubject   = "MISSING_SUBJECT"
	CodeUnknownRole      = "UNKNOWN_ROLE"
	CodeNoRolesAllowed   = "NO_ROLES_ALLOWED"
	CodeRoleNotPermitted = "ROLE_NOT_PERMITTED"
)

type AuthzError struct {
	Code string
	Err  error
}

func (e *AuthzError) Error() string {
	if e == nil {
		return ""
	}
	return e.Code
}

func (e *AuthzError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Authorizer checks role membership only. It performs no I/O.
type Authorizer struct{}

func NewAuthorizer() *Authorizer {
	return &Authorizer{}
}

func (a *Authorizer) Require(claims domain.AccessClaims, allowed domain.RoleSet) error {
	if claims.ID == "" {
		return &AuthzError{Code: CodeMissingSubject, Err: domain.ErrRoleNotPermitted}
	}
	if !claims.Role.Valid() {
		return &AuthzError{Code: CodeUnknownRole, Err: domain.ErrRoleNotPermitted}
	}
	if allowed.Empty() {
		return &AuthzError{Code: CodeNoRolesAllowed, Err: domain.ErrRoleNotPermitted}
	}
	if !allowed.Contains(claims.Role) {
		return &AuthzError{Code: CodeRoleNotPermitted, Err: domain.ErrRoleNotPermitted}
	}
	return nil
}

func IsAuthzError(err error) (*AuthzError, bool) {
	var authz *AuthzError
	if errors.As(err, &authz) {
		return authz, true
	}
	return nil, false
}
