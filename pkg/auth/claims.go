package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Role distinguishes the two storefront audiences.
type Role string

const (
	RoleConsumer Role = "consumer"
	RoleVendor   Role = "vendor"
)

func (r Role) String() string { return string(r) }

func (r Role) IsValid() bool {
	return r == RoleConsumer || r == RoleVendor
}

// ParseRole normalizes a role string.
func ParseRole(value string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(value)))
	return r, r.IsValid()
}

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	AccountID string
	Role      Role
	Name      string
	JTI       string
}

// AccessTokenClaims represents the typed JWT presented by storefront clients.
// AccountID is the backend's consumer or vendor id depending on Role.
type AccessTokenClaims struct {
	AccountID string `json:"account_id"`
	Role      Role   `json:"role"`
	Name      string `json:"name,omitempty"`
	jwt.RegisteredClaims
}
