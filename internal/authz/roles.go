package authz

import "yamdb/internal/models"

type Capability int

const (
	// CapProfile: чтение/правка собственного профиля.
	CapProfile Capability = iota + 1
	// CapModerate covers editing and deleting other users' reviews and comments.
	// No route here checks it: the review and comment endpoints live outside
	// this service and read the role from the same token.
	CapModerate
	// CapManageUsers covers the /users admin endpoints.
	CapManageUsers
)

func (c Capability) String() string {
	switch c {
	case CapProfile:
		return "profile"
	case CapModerate:
		return "moderate"
	case CapManageUsers:
		return "users:manage"
	}
	return "unknown"
}

type CapabilitySet map[Capability]struct{}

func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

func set(caps ...Capability) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

var roleCapabilities = map[models.Role]CapabilitySet{
	models.RoleUser:      set(CapProfile),
	models.RoleModerator: set(CapProfile, CapModerate),
	models.RoleAdmin:     set(CapProfile, CapModerate, CapManageUsers),
}

// For returns the capabilities of a role. Superusers get everything an admin
// has regardless of role.
func For(role models.Role, superuser bool) CapabilitySet {
	if superuser {
		return roleCapabilities[models.RoleAdmin]
	}
	if caps, ok := roleCapabilities[role]; ok {
		return caps
	}
	return CapabilitySet{}
}
