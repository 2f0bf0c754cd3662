package domain

import "time"

type Role string

const (
	RoleViewer  Role = "viewer"
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// roleRanks orders roles for access checks: every role implies all the
// permissions of the ranks below it.
var roleRanks = map[Role]int{
	RoleViewer:  0,
	RoleUser:    1,
	RoleManager: 2,
	RoleAdmin:   3,
}

// Rank returns the role's position in the hierarchy, or -1 for unknown roles.
func (r Role) Rank() int {
	if rank, ok := roleRanks[r]; ok {
		return rank
	}
	return -1
}

// AtLeast reports whether r grants access to an endpoint gated on min.
// Unknown roles never pass.
func (r Role) AtLeast(min Role) bool {
	rank := r.Rank()
	return rank >= 0 && rank >= min.Rank()
}

func (r Role) Valid() bool {
	return r.Rank() >= 0
}

type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusDisabled UserStatus = "disabled"
)

// User is an identity record. Accounts are never hard-deleted; deactivation
// flips Status to disabled.
type User struct {
	ID           string     `json:"id" gorm:"primaryKey;size:36"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"size:64;not null"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Role         Role       `json:"role" gorm:"size:16;not null;default:user"`
	Status       UserStatus `json:"status" gorm:"size:16;not null;default:active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

func (User) TableName() string { return "users" }

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}
