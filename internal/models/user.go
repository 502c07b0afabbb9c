package models

import (
	"time"

	"github.com/uptrace/bun"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin  UserRole = "ADMIN"
	RoleStaff  UserRole = "STAFF"
	RoleViewer UserRole = "VIEWER"
)

// User is an application account stored in the identity tables.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64      `bun:"id,pk,autoincrement" json:"id"`
	Email        string     `bun:"email,notnull,unique" json:"email"`
	PasswordHash string     `bun:"password_hash,notnull" json:"-"`
	FullName     string     `bun:"full_name,notnull" json:"full_name"`
	Role         UserRole   `bun:"role,notnull" json:"role"`
	Active       bool       `bun:"active,notnull,default:true" json:"active"`
	LastLogin    *time.Time `bun:"last_login" json:"last_login,omitempty"`

	Audit
}

// RefreshToken is an opaque, rotating credential exchanged for new access
// tokens.
type RefreshToken struct {
	bun.BaseModel `bun:"table:refresh_tokens,alias:rt"`

	ID        string     `bun:"id,pk" json:"id"`
	UserID    int64      `bun:"user_id,notnull" json:"user_id"`
	Token     string     `bun:"token,notnull,unique" json:"-"`
	ExpiresAt time.Time  `bun:"expires_at,notnull" json:"expires_at"`
	CreatedAt time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	Revoked   bool       `bun:"revoked,notnull,default:false" json:"revoked"`
	RevokedAt *time.Time `bun:"revoked_at" json:"revoked_at,omitempty"`
	IPAddress string     `bun:"ip_address" json:"-"`
	UserAgent string     `bun:"user_agent" json:"-"`

	User *User `bun:"rel:belongs-to,join:user_id=id,on_delete:CASCADE" json:"-"`
}
