package policy

import (
	"testing"

	"github.com/coopec/missions-backend/internal/domain/entity"
)

func TestRequiredValidationLevels(t *testing.T) {
	tests := []struct {
		name     string
		budget   int64
		duration int
		want     []string
	}{
		{"small short mission", 50000, 1, []string{entity.ValidationLevelNPlus1}},
		{"budget above N+2 threshold", 500000, 1, []string{entity.ValidationLevelNPlus1, entity.ValidationLevelNPlus2}},
		{"duration above N+2 threshold", 100000, 4, []string{entity.ValidationLevelNPlus1, entity.ValidationLevelNPlus2}},
		{"budget above DG threshold", 2000000, 1, []string{entity.ValidationLevelNPlus1, entity.ValidationLevelNPlus2, entity.ValidationLevelDG}},
		{"long expensive mission", 2000000, 10, []string{entity.ValidationLevelNPlus1, entity.ValidationLevelNPlus2, entity.ValidationLevelDG}},
		{"duration above DG threshold only", 100000, 8, []string{entity.ValidationLevelNPlus1, entity.ValidationLevelNPlus2, entity.ValidationLevelDG}},
		{"exactly at N+2 budget threshold", 300000, 3, []string{entity.ValidationLevelNPlus1}},
		{"exactly at DG budget threshold", 1000000, 7, []string{entity.ValidationLevelNPlus1, entity.ValidationLevelNPlus2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RequiredValidationLevels(tt.budget, tt.duration)
			if len(got) != len(tt.want) {
				t.Fatalf("RequiredValidationLevels() returned %d levels, want %d", len(got), len(tt.want))
			}
			for i, level := range got {
				if level.Level != tt.want[i] {
					t.Errorf("level[%d] = %s, want %s", i, level.Level, tt.want[i])
				}
				if level.Ordinal != i+1 {
					t.Errorf("level[%d].Ordinal = %d, want %d", i, level.Ordinal, i+1)
				}
			}
		})
	}
}

func TestRequiredValidationLevels_Deadlines(t *testing.T) {
	levels := RequiredValidationLevels(2000000, 10)

	wantDelays := []int{24, 48, 72}
	for i, level := range levels {
		if level.DelayHours != wantDelays[i] {
			t.Errorf("level[%d].DelayHours = %d, want %d", i, level.DelayHours, wantDelays[i])
		}
	}
}

func TestResolveApprover(t *testing.T) {
	creator := &entity.User{ID: 1, Role: entity.RoleAgent}
	manager := &entity.User{ID: 2, Role: entity.RoleChefAgence}

	t.Run("candidate present", func(t *testing.T) {
		res := ResolveApprover(creator, manager)
		if res.FallbackSelf {
			t.Error("FallbackSelf should be false when a candidate exists")
		}
		if res.Approver.ID != manager.ID {
			t.Errorf("Approver.ID = %d, want %d", res.Approver.ID, manager.ID)
		}
	})

	t.Run("no candidate falls back to creator", func(t *testing.T) {
		res := ResolveApprover(creator, nil)
		if !res.FallbackSelf {
			t.Error("FallbackSelf should be true when no candidate exists")
		}
		if res.Approver.ID != creator.ID {
			t.Errorf("Approver.ID = %d, want %d", res.Approver.ID, creator.ID)
		}
	})

	t.Run("candidate equal to creator is still a self fallback", func(t *testing.T) {
		res := ResolveApprover(creator, creator)
		if !res.FallbackSelf {
			t.Error("FallbackSelf should be true when candidate is the creator")
		}
	})
}
