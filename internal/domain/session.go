package domain

import "time"

// Session represents one authenticated device or browser instance. The
// SessionToken is the bearer secret presented by clients; the ID is internal
// and never disclosed. A user may hold any number of concurrent sessions.
type Session struct {
	ID           string     `json:"id" gorm:"primaryKey;size:36"`
	UserID       string     `json:"user_id" gorm:"index;size:36;not null"`
	SessionToken string     `json:"-" gorm:"size:64;uniqueIndex;not null"`
	IPAddress    string     `json:"ip_address,omitempty"`
	UserAgent    string     `json:"user_agent,omitempty"`
	DeviceInfo   string     `json:"device_info,omitempty"`
	IsActive     bool       `json:"is_active" gorm:"index;not null;default:true"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    time.Time  `json:"expires_at" gorm:"index;not null"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
}

func (Session) TableName() string { return "user_sessions" }

func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
