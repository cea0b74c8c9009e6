package model

import "time"

const (
	RevokeReasonLogout         = "logout"
	RevokeReasonPasswordChange = "password_change"
	RevokeReasonAdmin          = "admin_revoke"
)

// RevokedToken is a denylist entry. Entries are kept until the token would
// have expired anyway; the janitor purges them after that.
type RevokedToken struct {
	JTI       string    `json:"jti"`
	UserID    string    `json:"user_id"`
	Reason    string    `json:"reason"`
	ExpiresAt time.Time `json:"expires_at"`
	RevokedAt time.Time `json:"revoked_at"`
}
