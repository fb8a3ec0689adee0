package domain

// Decision is the only value that leaves the authorization gate. A rejected
// decision carries no reason.
type Decision struct {
	identity AccessClaims
	proceed  bool
}

func Proceed(identity AccessClaims) Decision {
	return Decision{identity: identity, proceed: true}
}

func Reject() Decision {
	return Decision{}
}

func (d Decision) Allowed() bool {
	return d.proceed
}

func (d Decision) Identity() (AccessClaims, bool) {
	if !d.proceed {
		return AccessClaims{}, false
	}
	return d.identity, true
}
