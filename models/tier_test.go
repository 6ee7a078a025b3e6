package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTierRankOrdering(t *testing.T) {
	t.Parallel()

	ladder := []string{TierAdvisor, TierSalesLeader, TierTeamLeader, TierGroupLeader, TierSupremeLeader}
	for i := 1; i < len(ladder); i++ {
		if TierRank(ladder[i-1]) >= TierRank(ladder[i]) {
			t.Fatalf("expected %s to rank below %s", ladder[i-1], ladder[i])
		}
	}
	if TierRank("broker") != 0 {
		t.Fatalf("unknown tier should rank 0")
	}
}

func TestIsValidTier(t *testing.T) {
	t.Parallel()

	for _, tier := range []string{TierAdvisor, TierSalesLeader, TierTeamLeader, TierGroupLeader, TierSupremeLeader} {
		if !IsValidTier(tier) {
			t.Fatalf("expected %s to be a valid tier", tier)
		}
	}
	if IsValidTier("") || IsValidTier("Advisor") {
		t.Fatalf("expected unknown tiers to be invalid")
	}
}

func TestDefaultTierDefinitions(t *testing.T) {
	t.Parallel()

	defaults := DefaultTierDefinitions()
	if len(defaults) != 5 {
		t.Fatalf("expected 5 default tiers, got %d", len(defaults))
	}

	cases := []struct {
		tier      string
		split     float64
		bonusRate float64
		minSales  int
		minTeam   int
	}{
		{TierAdvisor, 70, 0, 0, 0},
		{TierSalesLeader, 80, 7, 2, 0},
		{TierTeamLeader, 83, 5, 3, 3},
		{TierGroupLeader, 85, 8, 5, 8},
		{TierSupremeLeader, 85, 6, 8, 15},
	}
	for _, tc := range cases {
		def, ok := defaults[tc.tier]
		if !ok {
			t.Fatalf("missing default definition for %s", tc.tier)
		}
		if def.CommissionSplit != tc.split {
			t.Fatalf("%s split = %v, want %v", tc.tier, def.CommissionSplit, tc.split)
		}
		if def.LeadershipBonusRate != tc.bonusRate {
			t.Fatalf("%s bonus rate = %v, want %v", tc.tier, def.LeadershipBonusRate, tc.bonusRate)
		}
		if def.MinMonthlySales != tc.minSales || def.MinTeamMembers != tc.minTeam {
			t.Fatalf("%s thresholds = (%d,%d), want (%d,%d)",
				tc.tier, def.MinMonthlySales, def.MinTeamMembers, tc.minSales, tc.minTeam)
		}
		if !def.IsActive {
			t.Fatalf("default definition for %s should be active", tc.tier)
		}
	}
}

func TestValidatePromotionTarget(t *testing.T) {
	t.Parallel()

	if err := ValidatePromotionTarget(TierAdvisor, TierSalesLeader); err != nil {
		t.Fatalf("upward move rejected: %v", err)
	}
	if err := ValidatePromotionTarget(TierTeamLeader, TierTeamLeader); err != nil {
		t.Fatalf("same-tier move rejected: %v", err)
	}
	if err := ValidatePromotionTarget(TierGroupLeader, TierAdvisor); !errors.Is(err, ErrDemotionNotAllowed) {
		t.Fatalf("downward move should return ErrDemotionNotAllowed, got %v", err)
	}
	if err := ValidatePromotionTarget(TierAdvisor, "broker"); !IsValidationError(err) {
		t.Fatalf("unknown target should fail validation, got %v", err)
	}
}

func TestPromotionIgnoresEligibility(t *testing.T) {
	t.Parallel()

	// Thresholds are advisory: an agent far below the team leader
	// requirements can still be promoted to it.
	teamLeader := DefaultTierDefinitions()[TierTeamLeader]
	result := ValidateTierRequirements(&teamLeader, PerformanceMetrics{MonthlySales: 0, TeamMembers: 0})
	if result.Eligible {
		t.Fatalf("expected the metrics to miss the team leader thresholds")
	}
	if err := ValidatePromotionTarget(TierAdvisor, TierTeamLeader); err != nil {
		t.Fatalf("promotion must not consult eligibility, got %v", err)
	}
}

func TestTierHistoryFirstAssignment(t *testing.T) {
	t.Parallel()

	entry := TierHistoryEntry{
		ID:         primitive.NewObjectID(),
		AgentID:    primitive.NewObjectID(),
		NewTier:    TierAdvisor,
		PromotedBy: primitive.NewObjectID(),
		Reason:     "initial tier assignment",
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(payload), "previousTier") {
		t.Fatalf("first assignment should omit previousTier, got %s", payload)
	}

	entry.PreviousTier = TierAdvisor
	entry.NewTier = TierSalesLeader
	payload, err = json.Marshal(entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(payload), "previousTier") {
		t.Fatalf("promotion rows should carry previousTier, got %s", payload)
	}
}

func TestValidateTierRequirements(t *testing.T) {
	t.Parallel()

	defaults := DefaultTierDefinitions()
	teamLeader := defaults[TierTeamLeader]

	result := ValidateTierRequirements(&teamLeader, PerformanceMetrics{MonthlySales: 3, TeamMembers: 3})
	if !result.Eligible {
		t.Fatalf("expected eligibility at exact thresholds, missing: %v", result.MissingRequirements)
	}
	if len(result.MissingRequirements) != 0 {
		t.Fatalf("expected no missing requirements, got %v", result.MissingRequirements)
	}

	result = ValidateTierRequirements(&teamLeader, PerformanceMetrics{MonthlySales: 1, TeamMembers: 0})
	if result.Eligible {
		t.Fatalf("expected ineligibility below both thresholds")
	}
	if len(result.MissingRequirements) != 2 {
		t.Fatalf("expected both shortfalls reported, got %v", result.MissingRequirements)
	}
	joined := strings.Join(result.MissingRequirements, "; ")
	if !strings.Contains(joined, "monthly sales") || !strings.Contains(joined, "team members") {
		t.Fatalf("shortfall messages should name both requirements, got %q", joined)
	}

	result = ValidateTierRequirements(&teamLeader, PerformanceMetrics{MonthlySales: 5, TeamMembers: 2})
	if result.Eligible || len(result.MissingRequirements) != 1 {
		t.Fatalf("expected exactly the team shortfall, got %v", result.MissingRequirements)
	}
}
