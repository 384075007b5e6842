package models

// Permission gates one specific action, e.g. "photos:delete"
type Permission string

// Group is a role group coming from the identity provider
type Group string

const (
	PermissionPhotosCreate  Permission = "photos:create"
	PermissionPhotosDelete  Permission = "photos:delete"
	PermissionPhotosShare   Permission = "photos:share"
	PermissionPhotosListAll Permission = "photos:list-all"
	PermissionAlbumsCreate  Permission = "albums:create"
	PermissionAlbumsDelete  Permission = "albums:delete"
	PermissionAlbumsShare   Permission = "albums:share"
	PermissionUsersManage   Permission = "users:manage"
	PermissionUsersDelete   Permission = "users:delete"

	GroupAdmin   Group = "admin"
	GroupPremium Group = "premium"
	GroupBasic   Group = "basic"
)

var (
	allPermissions = []Permission{
		PermissionPhotosCreate,
		PermissionPhotosDelete,
		PermissionPhotosShare,
		PermissionPhotosListAll,
		PermissionAlbumsCreate,
		PermissionAlbumsDelete,
		PermissionAlbumsShare,
		PermissionUsersManage,
		PermissionUsersDelete,
	}

	// Read-only after init, shared by all requests without locking
	groupPermissions = map[Group][]Permission{
		GroupAdmin: allPermissions,
		GroupPremium: {
			PermissionPhotosCreate,
			PermissionPhotosDelete,
			PermissionPhotosShare,
			PermissionAlbumsCreate,
			PermissionAlbumsDelete,
			PermissionAlbumsShare,
		},
		GroupBasic: {
			PermissionPhotosCreate,
			PermissionPhotosDelete,
		},
	}
)

// AllPermissions returns the closed permission vocabulary
func AllPermissions() []Permission {
	return append([]Permission(nil), allPermissions...)
}

// IsKnown reports whether p belongs to the permission vocabulary
func (p Permission) IsKnown() bool {
	for _, known := range allPermissions {
		if p == known {
			return true
		}
	}
	return false
}

// PermissionsFor returns the permissions granted by a group.
// Unknown groups grant nothing.
func PermissionsFor(group Group) []Permission {
	return append([]Permission(nil), groupPermissions[group]...)
}

// EffectivePermissions is the union of the permissions of all the given groups
func EffectivePermissions(groups []Group) map[Permission]struct{} {
	result := map[Permission]struct{}{}
	for _, group := range groups {
		for _, permission := range groupPermissions[group] {
			result[permission] = struct{}{}
		}
	}
	return result
}
