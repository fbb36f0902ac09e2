package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of principal roles. Authorization is expressed as a
// capability check against a role, never as ad-hoc string comparisons.
type Role string

const (
	RoleAdmin           Role = "admin"
	RoleNewsEditor      Role = "news_editor"
	RoleHR              Role = "hr"
	RoleStatistician    Role = "statistician"
	RoleLostItemSupport Role = "lost_item_support"
	RoleVisitor         Role = "visitor"
)

// Roles lists every known role in a stable order.
var Roles = []Role{RoleAdmin, RoleNewsEditor, RoleHR, RoleStatistician, RoleLostItemSupport, RoleVisitor}

// ParseRole maps s onto a known Role. Unknown values are rejected.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Roles {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// IsStaff reports whether r belongs to back-office staff.
func (r Role) IsStaff() bool { return r != RoleVisitor && r != "" }

// Account is a phone-authenticated website visitor. Phone is the natural key
// and login identity. Only accounts with Verified=true may like, comment or
// submit requests.
type Account struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Phone     string    `json:"phone"      gorm:"type:varchar(20);not null;uniqueIndex"`
	FirstName string    `json:"first_name" gorm:"type:varchar(64);not null"`
	LastName  string    `json:"last_name"  gorm:"type:varchar(64)"`
	Verified  bool      `json:"is_verified" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

// TableName returns the database table name for Account.
func (Account) TableName() string { return "accounts" }

// DisplayName joins the first and last name.
func (a Account) DisplayName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// StaffUser is a back-office user that signs in with a password.
type StaffUser struct {
	ID           string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Username     string    `json:"username"   gorm:"type:varchar(64);not null;uniqueIndex"`
	PasswordHash string    `json:"-"          gorm:"type:varchar(100);not null"`
	Role         Role      `json:"role"       gorm:"type:varchar(32);not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
}

// TableName returns the database table name for StaffUser.
func (StaffUser) TableName() string { return "staff_users" }
