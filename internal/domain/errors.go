package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")

	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrRoleNotPermitted  = errors.New("role not permitted")
	ErrIdentityNotFound  = errors.New("identity not found")
	ErrAccountBanned     = errors.New("account banned")
	ErrAccountIneligible = errors.New("account ineligible")
)

// RejectReason names the internal cause of a rejection for logs only.
func RejectReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingCredential):
		return "missing_credential"
	case errors.Is(err, ErrInvalidCredential):
		return "invalid_credential"
	case errors.Is(err, ErrRoleNotPermitted):
		return "role_not_permitted"
	case errors.Is(err, ErrIdentityNotFound):
		return "identity_not_found"
	case errors.Is(err, ErrAccountBanned):
		return "account_banned"
	case errors.Is(err, ErrAccountIneligible):
		return "account_ineligible"
	default:
		return "internal"
	}
}
