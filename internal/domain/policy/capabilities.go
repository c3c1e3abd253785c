package policy

import (
	"github.com/samber/lo"

	"github.com/coopec/missions-backend/internal/domain/entity"
)

// Capability predicates. Every operation guard goes through one of these
// rather than comparing roles inline at the call site.

// CanCreateMissions reports whether the user may create mission requests
func CanCreateMissions(u *entity.User) bool {
	return u != nil && u.Role != entity.RoleChauffeur
}

// CanValidateMissions reports whether the user may decide hierarchical validations
func CanValidateMissions(u *entity.User) bool {
	if u == nil {
		return false
	}
	return lo.Contains([]string{
		entity.RoleChefAgence,
		entity.RoleResponsableCopec,
		entity.RoleDG,
		entity.RoleRH,
	}, u.Role)
}

// CanVerifyJustificatifs reports whether the user may verify deposited
// justificatifs and close missions
func CanVerifyJustificatifs(u *entity.User) bool {
	return u != nil && (u.Role == entity.RoleRH || u.Role == entity.RoleAdmin)
}

// CanDisburseAdvances reports whether the user may create and pay advances
func CanDisburseAdvances(u *entity.User) bool {
	return u != nil && (u.Role == entity.RoleComptable || u.Role == entity.RoleAdmin)
}

// IsCreator reports whether the user owns the mission
func IsCreator(u *entity.User, m *entity.Mission) bool {
	return u != nil && m != nil && u.ID == m.CreatorID
}
