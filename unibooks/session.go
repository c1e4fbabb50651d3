package unibooks

import (
	"strconv"

	"github.com/golang-jwt/jwt/v4"
)

// Identity is the structured form of the token's claims.
type Identity struct {
	ID        int
	FirstName string
	LastName  string
	Name      string
	Role      string
	Email     string
}

// IsLibrarian reports whether the identity carries the librarian role.
func (i Identity) IsLibrarian() bool { return i.Role == RoleLibrarian }

// identityClaims mirrors the claim names the backend puts in its tokens.
// Sub is declared as any because the backend emits it as a JSON number,
// while the JWT spec allows a string.
type identityClaims struct {
	Sub       any    `json:"sub"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
	Email     string `json:"email"`
}

// Valid satisfies jwt.Claims. Validation is intentionally a no-op, see
// DecodeIdentity.
func (identityClaims) Valid() error { return nil }

// subjectID coerces the sub claim to a positive user id.
func (c identityClaims) subjectID() (int, bool) {
	switch v := c.Sub.(type) {
	case float64:
		id := int(v)
		return id, id > 0 && v == float64(id)
	case string:
		id, err := strconv.Atoi(v)
		return id, err == nil && id > 0
	default:
		return 0, false
	}
}

// DecodeIdentity extracts the identity from a backend-issued bearer token.
//
// The token's signature and expiry are deliberately NOT verified: this
// client trusts backend-issued tokens unconditionally, since it only ever
// receives them over the login call it made itself. Missing required
// claims (sub, role) are a hard DecodeError rather than silent defaults.
func DecodeIdentity(token string) (Identity, error) {
	var claims identityClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return Identity{}, &DecodeError{Reason: err.Error()}
	}

	if claims.Sub == nil {
		return Identity{}, &DecodeError{Reason: "missing sub claim"}
	}
	userID, ok := claims.subjectID()
	if !ok {
		return Identity{}, &DecodeError{Reason: "sub claim is not a user id"}
	}
	if claims.Role == "" {
		return Identity{}, &DecodeError{Reason: "missing role claim"}
	}

	return Identity{
		ID:        userID,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Name:      claims.FirstName + " " + claims.LastName,
		Role:      claims.Role,
		Email:     claims.Email,
	}, nil
}

// Session is the ephemeral authenticated state: the bearer token plus its
// decoded identity. It lives only in memory for the process lifetime and
// is never written to durable storage.
type Session struct {
	Token    string
	Identity Identity
}

// NewSession decodes token and returns a live session. A token that
// cannot be decoded yields no session; the caller must re-authenticate.
func NewSession(token string) (*Session, error) {
	identity, err := DecodeIdentity(token)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Identity: identity}, nil
}

// Clear wipes the session in place, returning it to the unauthenticated
// state.
func (s *Session) Clear() {
	s.Token = ""
	s.Identity = Identity{}
}

// Active reports whether the session still holds a token.
func (s *Session) Active() bool { return s != nil && s.Token != "" }
