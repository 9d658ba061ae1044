package sessions

import "strings"

// PasswordVerifier is satisfied by every password.Hasher.
type PasswordVerifier interface {
	Verify(hashed string, password string) bool
}

// DisplayName prefers "First Last", then whichever name is set, then the email.
func (u User) DisplayName() string {
	first, last := strings.TrimSpace(u.FirstName), strings.TrimSpace(u.LastName)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	default:
		return u.Email
	}
}

// IsValidPassword checks password against the stored hash. A user without a hash never matches.
func (u User) IsValidPassword(v PasswordVerifier, password string) bool {
	if v == nil || u.HashedPassword == "" || password == "" {
		return false
	}
	return v.Verify(u.HashedPassword, password)
}
