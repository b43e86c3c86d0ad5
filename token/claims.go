package token

import "github.com/golang-jwt/jwt/v5"

// Claims is the claim set carried by both access and refresh tokens:
// sub (user id), email, tenantId, plus iat/exp from RegisteredClaims.
type Claims struct {
	Email    string `json:"email"`
	TenantID string `json:"tenantId"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim.
func (c *Claims) UserID() string {
	return c.Subject
}
