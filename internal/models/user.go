package models

import "time"

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// User is the identity/role record maintained by the profile subsystem.
// This service only reads it: the role drives notification filtering and the
// name drives display masking.
type User struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName string    `gorm:"not null" json:"first_name"`
	LastName  string    `gorm:"not null" json:"last_name"`
	Role      Role      `gorm:"not null;index" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Initials renders the masked identity shown to non-owning viewers,
// e.g. "J.D." for Jane Doe.
func (u *User) Initials() string {
	out := ""
	if u.FirstName != "" {
		out += string([]rune(u.FirstName)[0:1]) + "."
	}
	if u.LastName != "" {
		out += string([]rune(u.LastName)[0:1]) + "."
	}
	return out
}
