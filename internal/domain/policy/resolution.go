package policy

import "github.com/coopec/missions-backend/internal/domain/entity"

// Resolution is the result of resolving the approver for a chain level.
// FallbackSelf marks the degenerate case where no manager, responsable or
// role holder exists and the creator ends up approving their own mission;
// callers log this path so it stays visible in operations.
type Resolution struct {
	Approver     *entity.User
	FallbackSelf bool
}

// ResolveApprover picks the candidate when one exists and falls back to the
// creator otherwise
func ResolveApprover(creator, candidate *entity.User) Resolution {
	if candidate == nil || candidate.ID == creator.ID {
		return Resolution{Approver: creator, FallbackSelf: true}
	}
	return Resolution{Approver: candidate}
}
