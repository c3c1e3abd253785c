package policy

import (
	"time"

	"github.com/coopec/missions-backend/internal/domain/entity"
)

// Validation chain thresholds, in whole FCFA and days
const (
	NPlus2BudgetThreshold = 300000
	NPlus2DurationDays    = 3
	DGBudgetThreshold     = 1000000
	DGDurationDays        = 7
)

// ChainLevel describes one required approval tier of a mission
type ChainLevel struct {
	Level      string
	Ordinal    int
	DelayHours int
}

// Delay returns the decision window of the tier as a duration
func (l ChainLevel) Delay() time.Duration {
	return time.Duration(l.DelayHours) * time.Hour
}

// RequiredValidationLevels computes the approval chain for a mission from
// its budget estimate and inclusive duration. The N+1 tier is always
// required; higher tiers are added past the budget or duration thresholds.
func RequiredValidationLevels(budget int64, durationDays int) []ChainLevel {
	levels := []ChainLevel{
		{Level: entity.ValidationLevelNPlus1, Ordinal: 1, DelayHours: 24},
	}

	if budget > NPlus2BudgetThreshold || durationDays > NPlus2DurationDays {
		levels = append(levels, ChainLevel{Level: entity.ValidationLevelNPlus2, Ordinal: 2, DelayHours: 48})
	}

	if budget > DGBudgetThreshold || durationDays > DGDurationDays {
		levels = append(levels, ChainLevel{Level: entity.ValidationLevelDG, Ordinal: 3, DelayHours: 72})
	}

	return levels
}
