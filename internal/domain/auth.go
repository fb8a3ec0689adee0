package domain

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var knownRoles = map[Role]struct{}{
	RoleUser:  {},
	RoleAdmin: {},
}

func (r Role) Valid() bool {
	_, ok := knownRoles[r]
	return ok
}

// AccessClaims is the verified content of an access token. Only a
// CredentialVerifier produces one.
type AccessClaims struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Role    Role   `json:"role"`
	Purpose string `json:"purpose"`
}

type CredentialVerifier interface {
	Verify(ctx context.Context, token string) (AccessClaims, error)
}

// RoleSet is an immutable set of roles bound to a route at registration.
// The zero value is the empty set and admits nobody.
type RoleSet struct {
	roles map[Role]struct{}
}

// NewRoleSet keeps the known roles and silently drops anything else.
func NewRoleSet(roles ...Role) RoleSet {
	set := RoleSet{roles: make(map[Role]struct{}, len(roles))}
	for _, role := range roles {
		if role.Valid() {
			set.roles[role] = struct{}{}
		}
	}
	return set
}

// ParseRoleSet is the strict form of NewRoleSet used for configuration input.
func ParseRoleSet(values ...string) (RoleSet, error) {
	roles := make([]Role, 0, len(values))
	for _, value := range values {
		role := Role(strings.ToLower(strings.TrimSpace(value)))
		if !role.Valid() {
			return RoleSet{}, fmt.Errorf("unknown role %q", value)
		}
		roles = append(roles, role)
	}
	return NewRoleSet(roles...), nil
}

func (s RoleSet) Contains(role Role) bool {
	_, ok := s.roles[role]
	return ok
}

func (s RoleSet) Empty() bool {
	return len(s.roles) == 0
}

func (s RoleSet) Roles() []Role {
	out := make([]Role, 0, len(s.roles))
	for role := range s.roles {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s RoleSet) String() string {
	roles := s.Roles()
	parts := make([]string, len(roles))
	for i, role := range roles {
		parts[i] = string(role)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

const bearerScheme = "bearer"

// ExtractBearer returns the token from an Authorization header of the form
// "Bearer <token>". The scheme is matched case-insensitively and exactly one
// space separates it from a token that contains no whitespace.
func ExtractBearer(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingCredential
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return "", ErrMissingCredential
	}
	if token == "" || strings.ContainsAny(token, " \t\r\n") {
		return "", ErrMissingCredential
	}
	return token, nil
}

// Authorizer decides whether verified claims satisfy a route's role set.
type Authorizer interface {
	Require(claims AccessClaims, allowed RoleSet) error
}
