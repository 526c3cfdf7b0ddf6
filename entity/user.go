package entity

import "time"

const (
	RoleClient = "client"
	RoleAdmin  = "admin"
)

type User struct {
	UID          string    `json:"uid"`
	Role         string    `json:"role"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	Addresses    []string  `json:"addresses"`
	Wishlist     []string  `json:"wishlist"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Normalize fills fields that older persisted documents may omit, so
// readers never see nil slices or an empty role.
func (u *User) Normalize() {
	if u.Addresses == nil {
		u.Addresses = []string{}
	}
	if u.Wishlist == nil {
		u.Wishlist = []string{}
	}
	if u.Role == "" {
		u.Role = RoleClient
	}
}
