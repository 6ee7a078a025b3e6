package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Agent tier ladder, lowest to highest. The order is load-bearing: promotion
// validation compares ladder positions, never raw strings.
const (
	TierAdvisor       = "advisor"
	TierSalesLeader   = "sales_leader"
	TierTeamLeader    = "team_leader"
	TierGroupLeader   = "group_leader"
	TierSupremeLeader = "supreme_leader"
)

// tierRanks maps each tier to its position on the ladder (1 = lowest)
var tierRanks = map[string]int{
	TierAdvisor:       1,
	TierSalesLeader:   2,
	TierTeamLeader:    3,
	TierGroupLeader:   4,
	TierSupremeLeader: 5,
}

// TierRank returns the ladder position of a tier, or 0 if the tier is unknown
func TierRank(tier string) int {
	return tierRanks[tier]
}

// IsValidTier reports whether tier is one of the five known ranks
func IsValidTier(tier string) bool {
	_, ok := tierRanks[tier]
	return ok
}

// ValidatePromotionTarget checks a tier move by ladder position alone.
// Same-tier moves pass (they refresh the split); downward moves are rejected.
// Eligibility thresholds are never consulted here: they are advisory and
// leadership can promote past them.
func ValidatePromotionTarget(currentTier, newTier string) error {
	if !IsValidTier(newTier) {
		return NewValidationError("newTier", "unknown tier: "+newTier)
	}
	if TierRank(newTier) < TierRank(currentTier) {
		return ErrDemotionNotAllowed
	}
	return nil
}

// TierDefinition holds the commission split and leadership-bonus rate for one
// tier. Definitions are versioned: superseding a tier closes the old row's
// effectiveTo and inserts a new active row, so past commission calculations
// stay reproducible from the version active at calculation time.
type TierDefinition struct {
	ID                  primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	TierID              string             `json:"tierId" bson:"tierId"`
	DisplayName         string             `json:"displayName" bson:"displayName"`
	CommissionSplit     float64            `json:"commissionSplit" bson:"commissionSplit"`         // agent's share of the agent-level commission, 0-100
	LeadershipBonusRate float64            `json:"leadershipBonusRate" bson:"leadershipBonusRate"` // carved from the company share, paid to the holder's upline, 0-100
	MinMonthlySales     int                `json:"minMonthlySales" bson:"minMonthlySales"`
	MinTeamMembers      int                `json:"minTeamMembers" bson:"minTeamMembers"`
	IsActive            bool               `json:"isActive" bson:"isActive"`
	EffectiveFrom       time.Time          `json:"effectiveFrom" bson:"effectiveFrom"`
	EffectiveTo         *time.Time         `json:"effectiveTo,omitempty" bson:"effectiveTo,omitempty"`
	CreatedBy           primitive.ObjectID `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedAt           time.Time          `json:"createdAt" bson:"createdAt"`
}

// TierUpdateRequest is the admin payload for superseding a tier definition
type TierUpdateRequest struct {
	DisplayName         string  `json:"displayName"`
	CommissionSplit     float64 `json:"commissionSplit"`
	LeadershipBonusRate float64 `json:"leadershipBonusRate"`
	MinMonthlySales     int     `json:"minMonthlySales"`
	MinTeamMembers      int     `json:"minTeamMembers"`
	Reason              string  `json:"reason"`
}

// TierConfigChangeLog is the audit row written on every tier update
type TierConfigChangeLog struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	TierID    string             `json:"tierId" bson:"tierId"`
	OldValues *TierDefinition    `json:"oldValues,omitempty" bson:"oldValues,omitempty"`
	NewValues TierDefinition     `json:"newValues" bson:"newValues"`
	ChangedBy primitive.ObjectID `json:"changedBy" bson:"changedBy"`
	Reason    string             `json:"reason" bson:"reason"`
	ChangedAt time.Time          `json:"changedAt" bson:"changedAt"`
}

// TierHistoryEntry is an append-only audit row for agent tier changes.
// PreviousTier is empty for an agent's first assignment.
type TierHistoryEntry struct {
	ID           primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	AgentID      primitive.ObjectID  `json:"agentId" bson:"agentId"`
	PreviousTier string              `json:"previousTier,omitempty" bson:"previousTier,omitempty"`
	NewTier      string              `json:"newTier" bson:"newTier"`
	PromotedBy   primitive.ObjectID  `json:"promotedBy" bson:"promotedBy"`
	Reason       string              `json:"reason" bson:"reason"`
	Performance  *PerformanceMetrics `json:"performance,omitempty" bson:"performance,omitempty"`
	CreatedAt    time.Time           `json:"createdAt" bson:"createdAt"`
}

// PerformanceMetrics is the snapshot used for promotion eligibility checks
type PerformanceMetrics struct {
	MonthlySales int `json:"monthlySales" bson:"monthlySales"`
	TeamMembers  int `json:"teamMembers" bson:"teamMembers"`
}

// EligibilityResult is the advisory outcome of a requirements check. It never
// blocks a promotion by itself; callers decide whether to enforce it.
type EligibilityResult struct {
	Eligible            bool     `json:"eligible"`
	MissingRequirements []string `json:"missingRequirements,omitempty"`
}

// ValidateTierRequirements compares metrics against the target tier's
// thresholds and lists every unmet requirement.
func ValidateTierRequirements(target *TierDefinition, metrics PerformanceMetrics) EligibilityResult {
	var missing []string
	if metrics.MonthlySales < target.MinMonthlySales {
		missing = append(missing, fmt.Sprintf("requires %d monthly sales, has %d", target.MinMonthlySales, metrics.MonthlySales))
	}
	if metrics.TeamMembers < target.MinTeamMembers {
		missing = append(missing, fmt.Sprintf("requires %d team members, has %d", target.MinTeamMembers, metrics.TeamMembers))
	}
	return EligibilityResult{
		Eligible:            len(missing) == 0,
		MissingRequirements: missing,
	}
}

// DefaultTierDefinitions returns the built-in tier table used until an admin
// writes the first definition for a tier. Splits ascend with rank; bonus
// rates follow the standard agency schedule.
func DefaultTierDefinitions() map[string]TierDefinition {
	now := time.Now()
	defaults := map[string]TierDefinition{
		TierAdvisor: {
			TierID:              TierAdvisor,
			DisplayName:         "Advisor",
			CommissionSplit:     70,
			LeadershipBonusRate: 0,
			MinMonthlySales:     0,
			MinTeamMembers:      0,
		},
		TierSalesLeader: {
			TierID:              TierSalesLeader,
			DisplayName:         "Sales Leader",
			CommissionSplit:     80,
			LeadershipBonusRate: 7,
			MinMonthlySales:     2,
			MinTeamMembers:      0,
		},
		TierTeamLeader: {
			TierID:              TierTeamLeader,
			DisplayName:         "Team Leader",
			CommissionSplit:     83,
			LeadershipBonusRate: 5,
			MinMonthlySales:     3,
			MinTeamMembers:      3,
		},
		TierGroupLeader: {
			TierID:              TierGroupLeader,
			DisplayName:         "Group Leader",
			CommissionSplit:     85,
			LeadershipBonusRate: 8,
			MinMonthlySales:     5,
			MinTeamMembers:      8,
		},
		TierSupremeLeader: {
			TierID:              TierSupremeLeader,
			DisplayName:         "Supreme Leader",
			CommissionSplit:     85,
			LeadershipBonusRate: 6,
			MinMonthlySales:     8,
			MinTeamMembers:      15,
		},
	}
	for id, def := range defaults {
		def.IsActive = true
		def.EffectiveFrom = now
		def.CreatedAt = now
		defaults[id] = def
	}
	return defaults
}
