package enums

import "fmt"

// MemberRole maps to the member_role_enum enum in Postgres.
type MemberRole string

const (
	MemberRoleOwner        MemberRole = "owner"
	MemberRoleAdmin        MemberRole = "admin"
	MemberRoleArtist       MemberRole = "artist"
	MemberRoleReceptionist MemberRole = "receptionist"
)

var validMemberRoles = []MemberRole{
	MemberRoleOwner,
	MemberRoleAdmin,
	MemberRoleArtist,
	MemberRoleReceptionist,
}

// IsValid reports whether the value matches the canonical member role enum.
func (r MemberRole) IsValid() bool {
	for _, candidate := range validMemberRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// CanManageStudio reports whether the role may edit studio settings and members.
func (r MemberRole) CanManageStudio() bool {
	return r == MemberRoleOwner || r == MemberRoleAdmin
}

// ParseMemberRole converts raw input into MemberRole.
func ParseMemberRole(value string) (MemberRole, error) {
	for _, candidate := range validMemberRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid member role %q", value)
}
