package models

import (
	"github.com/google/uuid"
)

// User is the caller as described by the identity provider. It is never persisted here.
type User struct {
	ID     uuid.UUID `json:"id"`
	Email  string    `json:"email"`
	Groups []Group   `json:"groups"`
}

func (u *User) GetPermissions() []Permission {
	effective := EffectivePermissions(u.Groups)
	permissions := []Permission{}
	// Keep vocabulary order so responses are stable
	for _, permission := range allPermissions {
		if _, ok := effective[permission]; ok {
			permissions = append(permissions, permission)
		}
	}
	return permissions
}

func (u *User) HasPermission(required Permission) bool {
	_, ok := EffectivePermissions(u.Groups)[required]
	return ok
}

// MissingPermission returns the first permission from required that the user lacks
func (u *User) MissingPermission(required []Permission) (Permission, bool) {
	effective := EffectivePermissions(u.Groups)
	for _, permission := range required {
		if _, ok := effective[permission]; !ok {
			return permission, true
		}
	}
	return "", false
}
