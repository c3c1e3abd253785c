package policy

import (
	"github.com/samber/lo"

	"github.com/coopec/missions-backend/internal/domain/entity"
)

// seesAllMissions lists the roles with organization-wide visibility
var seesAllMissions = []string{
	entity.RoleDG,
	entity.RoleRH,
	entity.RoleComptable,
	entity.RoleDirecteurFinances,
	entity.RoleAdmin,
}

// MissionVisibleTo reports whether the actor may see the mission.
// subordinateIDs is the actor's direct-report set, resolved by the caller.
func MissionVisibleTo(actor *entity.User, subordinateIDs []int64, m *entity.Mission) bool {
	if actor == nil || m == nil {
		return false
	}

	if lo.Contains(seesAllMissions, actor.Role) {
		return true
	}

	if m.CreatorID == actor.ID || lo.Contains(m.Participants, actor.ID) {
		return true
	}

	switch actor.Role {
	case entity.RoleChefAgence:
		return lo.Contains(subordinateIDs, m.CreatorID)
	case entity.RoleResponsableCopec:
		return m.EntityID != nil && actor.EntityID != nil && *m.EntityID == *actor.EntityID
	}

	return false
}

// FilterMissions returns the subset of missions visible to the actor.
// One scope function serves every listing operation.
func FilterMissions(actor *entity.User, subordinateIDs []int64, missions []*entity.Mission) []*entity.Mission {
	return lo.Filter(missions, func(m *entity.Mission, _ int) bool {
		return MissionVisibleTo(actor, subordinateIDs, m)
	})
}
