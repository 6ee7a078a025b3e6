package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Representation types for a property transaction
const (
	RepresentationDirect    = "direct"
	RepresentationCoBroking = "co_broking"
)

// DefaultCoBrokerSplit is the co-broker share percentage applied when a
// co-broking transaction does not specify one.
const DefaultCoBrokerSplit = 50.0

// CommissionInput carries everything the calculation engine needs. The
// engine itself performs no I/O; callers resolve tier and upline data first.
type CommissionInput struct {
	PropertyPrice      float64     `json:"propertyPrice"`
	CommissionRate     float64     `json:"commissionRate"`
	RepresentationType string      `json:"representationType"`
	AgentTier          string      `json:"agentTier"`
	CompanySplit       float64     `json:"companySplit"`               // agent's share of the agent-level commission, 0-100
	CoBrokerSplitPct   *float64    `json:"coBrokerSplitPct,omitempty"` // defaults to 50 when nil
	Upline             *UplineInfo `json:"upline,omitempty"`
}

// LeadershipBonusDetail itemizes the bonus carved from the company share
type LeadershipBonusDetail struct {
	UplineID   primitive.ObjectID `json:"uplineId" bson:"uplineId"`
	UplineTier string             `json:"uplineTier" bson:"uplineTier"`
	Rate       float64            `json:"rate" bson:"rate"`
	Amount     float64            `json:"amount" bson:"amount"`
}

// CommissionBreakdown is the itemized result of a commission calculation.
// All intermediate values are kept at full precision; only the bonus amount
// and the company net share are rounded to 2 decimal places.
type CommissionBreakdown struct {
	PropertyPrice        float64                `json:"propertyPrice" bson:"propertyPrice"`
	CommissionRate       float64                `json:"commissionRate" bson:"commissionRate"`
	TotalCommission      float64                `json:"totalCommission" bson:"totalCommission"`
	RepresentationType   string                 `json:"representationType" bson:"representationType"`
	AgentCommissionShare float64                `json:"agentCommissionShare" bson:"agentCommissionShare"`
	CoBrokerShare        float64                `json:"coBrokerShare" bson:"coBrokerShare"`
	AgentTier            string                 `json:"agentTier" bson:"agentTier"`
	CompanySplit         float64                `json:"companySplit" bson:"companySplit"`
	AgentEarnings        float64                `json:"agentEarnings" bson:"agentEarnings"`
	CompanyShare         float64                `json:"companyShare" bson:"companyShare"`
	LeadershipBonus      *LeadershipBonusDetail `json:"leadershipBonus,omitempty" bson:"leadershipBonus,omitempty"`
	CompanyNetShare      float64                `json:"companyNetShare" bson:"companyNetShare"`
	CalculatedAt         time.Time              `json:"calculatedAt" bson:"calculatedAt"`
}

// PropertyTransaction is the minimal transaction record that seeds a
// commission calculation and anchors the approval workflow.
type PropertyTransaction struct {
	ID                 primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	AgentID            primitive.ObjectID   `json:"agentId" bson:"agentId"`
	PropertyAddress    string               `json:"propertyAddress" bson:"propertyAddress"`
	PropertyPrice      float64              `json:"propertyPrice" bson:"propertyPrice"`
	CommissionRate     float64              `json:"commissionRate" bson:"commissionRate"`
	RepresentationType string               `json:"representationType" bson:"representationType"`
	CoBrokerSplitPct   *float64             `json:"coBrokerSplitPct,omitempty" bson:"coBrokerSplitPct,omitempty"`
	Breakdown          *CommissionBreakdown `json:"breakdown,omitempty" bson:"breakdown,omitempty"`
	Status             string               `json:"status" bson:"status"` // "open", "closed"
	ClosedAt           *time.Time           `json:"closedAt,omitempty" bson:"closedAt,omitempty"`
	CreatedAt          time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time            `json:"updatedAt" bson:"updatedAt"`
}
