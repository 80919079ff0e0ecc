package domain

// Principal is the resolved identity attached to an authenticated request.
// It lives only for the duration of that request and is never cached by the
// authentication gate itself.
type Principal struct {
	ID          string
	Identifier  string
	DisplayName string
	Authorities []string
	Origin      string
}

// HasAuthority reports whether the principal carries the named authority.
func (p *Principal) HasAuthority(authority string) bool {
	for _, a := range p.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

// PrincipalFromUser builds a request principal from a resolved account.
func PrincipalFromUser(user *User, origin string) *Principal {
	return &Principal{
		ID:          user.ID,
		Identifier:  user.Email,
		DisplayName: user.Name,
		Authorities: append([]string(nil), user.Authorities...),
		Origin:      origin,
	}
}
