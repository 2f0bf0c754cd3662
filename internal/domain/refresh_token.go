package domain

import "time"

// RefreshToken stores the server-side record of an issued refresh token.
//
// Security notes:
// - We never store the raw token, only its SHA-256 hash (TokenHash).
// - Redemption rotates: the old record is revoked before a replacement is
//   created, so a stolen token is dead after its first legitimate use.
type RefreshToken struct {
	ID         string     `json:"id" gorm:"primaryKey;size:36"`
	UserID     string     `json:"user_id" gorm:"index;size:36;not null"`
	TokenHash  string     `json:"-" gorm:"size:64;uniqueIndex;not null"`
	DeviceInfo string     `json:"device_info,omitempty"`
	IPAddress  string     `json:"ip_address,omitempty"`
	UserAgent  string     `json:"user_agent,omitempty"`
	IsActive   bool       `json:"is_active" gorm:"index;not null;default:true"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at" gorm:"index;not null"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

func (RefreshToken) TableName() string { return "refresh_tokens" }

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
