package auth

import "time"

// Method indicates how a caller was authenticated.
type Method string

const (
	MethodJWT    Method = "jwt"
	MethodAPIKey Method = "api_key"
)

// Identity is an authenticated caller.
type Identity struct {
	// Principal is the caller's stable identifier. RecordEcho uses it as the
	// organizer key when the request carries none.
	Principal string
	Roles     []string
	Method    Method
	Claims    map[string]any
	ExpiresAt time.Time
}

// HasRole reports whether the identity carries role.
func (id *Identity) HasRole(role string) bool {
	for _, r := range id.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Expired reports whether the identity is past its expiry at now.
func (id *Identity) Expired(now time.Time) bool {
	return !id.ExpiresAt.IsZero() && now.After(id.ExpiresAt)
}
