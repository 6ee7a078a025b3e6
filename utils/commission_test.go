package utils

import (
	"math"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kwloft/agentpro_backend/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRound2(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   float64
		want float64
	}{
		{210.0, 210.0},
		{0.125, 0.13},
		{3.14159, 3.14},
		{99.999, 100.0},
		{1.0 / 3.0, 0.33},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); !almostEqual(got, tc.want) {
			t.Fatalf("Round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCalculateCommissionDirect(t *testing.T) {
	t.Parallel()

	breakdown, err := CalculateCommission(models.CommissionInput{
		PropertyPrice:      500000,
		CommissionRate:     2,
		RepresentationType: models.RepresentationDirect,
		AgentTier:          models.TierAdvisor,
		CompanySplit:       70,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !almostEqual(breakdown.TotalCommission, 10000) {
		t.Fatalf("total commission = %v, want 10000", breakdown.TotalCommission)
	}
	if !almostEqual(breakdown.AgentCommissionShare, 10000) {
		t.Fatalf("agent share = %v, want 10000", breakdown.AgentCommissionShare)
	}
	if !almostEqual(breakdown.CoBrokerShare, 0) {
		t.Fatalf("co-broker share = %v, want 0", breakdown.CoBrokerShare)
	}
	if !almostEqual(breakdown.AgentEarnings, 7000) {
		t.Fatalf("agent earnings = %v, want 7000", breakdown.AgentEarnings)
	}
	if !almostEqual(breakdown.CompanyShare, 3000) {
		t.Fatalf("company share = %v, want 3000", breakdown.CompanyShare)
	}
	if breakdown.LeadershipBonus != nil {
		t.Fatalf("expected no leadership bonus without an upline")
	}
	if !almostEqual(breakdown.CompanyNetShare, 3000) {
		t.Fatalf("company net share = %v, want 3000", breakdown.CompanyNetShare)
	}
}

func TestCalculateCommissionCoBroking(t *testing.T) {
	t.Parallel()

	breakdown, err := CalculateCommission(models.CommissionInput{
		PropertyPrice:      500000,
		CommissionRate:     2,
		RepresentationType: models.RepresentationCoBroking,
		AgentTier:          models.TierAdvisor,
		CompanySplit:       70,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !almostEqual(breakdown.AgentCommissionShare, 5000) {
		t.Fatalf("agent share = %v, want 5000 with default co-broker split", breakdown.AgentCommissionShare)
	}
	if !almostEqual(breakdown.CoBrokerShare, 5000) {
		t.Fatalf("co-broker share = %v, want 5000", breakdown.CoBrokerShare)
	}
	if !almostEqual(breakdown.AgentEarnings, 3500) {
		t.Fatalf("agent earnings = %v, want 3500", breakdown.AgentEarnings)
	}
	if !almostEqual(breakdown.CompanyShare, 1500) {
		t.Fatalf("company share = %v, want 1500", breakdown.CompanyShare)
	}
}

func TestCalculateCommissionCustomCoBrokerSplit(t *testing.T) {
	t.Parallel()

	coBrokerPct := 40.0
	breakdown, err := CalculateCommission(models.CommissionInput{
		PropertyPrice:      1000000,
		CommissionRate:     1,
		RepresentationType: models.RepresentationCoBroking,
		AgentTier:          models.TierSalesLeader,
		CompanySplit:       80,
		CoBrokerSplitPct:   &coBrokerPct,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !almostEqual(breakdown.AgentCommissionShare, 6000) {
		t.Fatalf("agent share = %v, want 6000", breakdown.AgentCommissionShare)
	}
	if !almostEqual(breakdown.CoBrokerShare, 4000) {
		t.Fatalf("co-broker share = %v, want 4000", breakdown.CoBrokerShare)
	}
	if !almostEqual(breakdown.AgentCommissionShare+breakdown.CoBrokerShare, breakdown.TotalCommission) {
		t.Fatalf("shares do not sum to total commission")
	}
}

func TestCalculateCommissionLeadershipBonus(t *testing.T) {
	t.Parallel()

	uplineID := primitive.NewObjectID()
	breakdown, err := CalculateCommission(models.CommissionInput{
		PropertyPrice:      500000,
		CommissionRate:     2,
		RepresentationType: models.RepresentationDirect,
		AgentTier:          models.TierAdvisor,
		CompanySplit:       70,
		Upline: &models.UplineInfo{
			UplineID:            uplineID,
			UplineTier:          models.TierSalesLeader,
			LeadershipBonusRate: 7,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if breakdown.LeadershipBonus == nil {
		t.Fatalf("expected a leadership bonus")
	}
	if !almostEqual(breakdown.LeadershipBonus.Amount, 210.00) {
		t.Fatalf("bonus amount = %v, want 210.00", breakdown.LeadershipBonus.Amount)
	}
	if breakdown.LeadershipBonus.UplineID != uplineID {
		t.Fatalf("bonus upline = %v, want %v", breakdown.LeadershipBonus.UplineID, uplineID)
	}
	if !almostEqual(breakdown.CompanyNetShare, 2790.00) {
		t.Fatalf("company net share = %v, want 2790.00", breakdown.CompanyNetShare)
	}
	// Bonus comes out of the company share, never the agent's earnings.
	if !almostEqual(breakdown.AgentEarnings, 7000) {
		t.Fatalf("agent earnings = %v, want 7000 regardless of bonus", breakdown.AgentEarnings)
	}
	if !almostEqual(breakdown.LeadershipBonus.Amount+breakdown.CompanyNetShare, breakdown.CompanyShare) {
		t.Fatalf("bonus + net share = %v, want %v",
			breakdown.LeadershipBonus.Amount+breakdown.CompanyNetShare, breakdown.CompanyShare)
	}
}

func TestCalculateCommissionZeroBonusRate(t *testing.T) {
	t.Parallel()

	breakdown, err := CalculateCommission(models.CommissionInput{
		PropertyPrice:      500000,
		CommissionRate:     2,
		RepresentationType: models.RepresentationDirect,
		AgentTier:          models.TierAdvisor,
		CompanySplit:       70,
		Upline: &models.UplineInfo{
			UplineID:            primitive.NewObjectID(),
			UplineTier:          models.TierAdvisor,
			LeadershipBonusRate: 0,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if breakdown.LeadershipBonus != nil {
		t.Fatalf("expected no bonus when the upline tier carries a zero rate")
	}
	if !almostEqual(breakdown.CompanyNetShare, breakdown.CompanyShare) {
		t.Fatalf("net share should equal company share without a bonus")
	}
}

func TestCalculateCommissionValidation(t *testing.T) {
	t.Parallel()

	badSplit := 130.0
	cases := []struct {
		name  string
		input models.CommissionInput
	}{
		{"zero price", models.CommissionInput{
			PropertyPrice: 0, CommissionRate: 2,
			RepresentationType: models.RepresentationDirect, CompanySplit: 70,
		}},
		{"negative price", models.CommissionInput{
			PropertyPrice: -1, CommissionRate: 2,
			RepresentationType: models.RepresentationDirect, CompanySplit: 70,
		}},
		{"rate over 100", models.CommissionInput{
			PropertyPrice: 500000, CommissionRate: 101,
			RepresentationType: models.RepresentationDirect, CompanySplit: 70,
		}},
		{"zero rate", models.CommissionInput{
			PropertyPrice: 500000, CommissionRate: 0,
			RepresentationType: models.RepresentationDirect, CompanySplit: 70,
		}},
		{"unknown representation", models.CommissionInput{
			PropertyPrice: 500000, CommissionRate: 2,
			RepresentationType: "dual_agency", CompanySplit: 70,
		}},
		{"zero company split", models.CommissionInput{
			PropertyPrice: 500000, CommissionRate: 2,
			RepresentationType: models.RepresentationDirect, CompanySplit: 0,
		}},
		{"co-broker split out of range", models.CommissionInput{
			PropertyPrice: 500000, CommissionRate: 2,
			RepresentationType: models.RepresentationCoBroking, CompanySplit: 70,
			CoBrokerSplitPct: &badSplit,
		}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			breakdown, err := CalculateCommission(tc.input)
			if err == nil {
				t.Fatalf("expected validation error, got breakdown %+v", breakdown)
			}
			if !models.IsValidationError(err) {
				t.Fatalf("expected a validation error, got %v", err)
			}
			if breakdown != nil {
				t.Fatalf("expected nil breakdown on validation failure")
			}
		})
	}
}

func TestCalculateCommissionIsDeterministic(t *testing.T) {
	t.Parallel()

	input := models.CommissionInput{
		PropertyPrice:      734500,
		CommissionRate:     2.5,
		RepresentationType: models.RepresentationDirect,
		AgentTier:          models.TierTeamLeader,
		CompanySplit:       83,
		Upline: &models.UplineInfo{
			UplineID:            primitive.NewObjectID(),
			UplineTier:          models.TierGroupLeader,
			LeadershipBonusRate: 8,
		},
	}

	first, err := CalculateCommission(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := CalculateCommission(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The engine carries no clock; two runs over the same input must agree
	// field for field, timestamps included.
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same input produced different breakdowns:\n%+v\n%+v", first, second)
	}
	if !first.CalculatedAt.IsZero() {
		t.Fatalf("the engine must leave CalculatedAt to the caller, got %v", first.CalculatedAt)
	}
}
