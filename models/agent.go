package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Agent is a licensed real-estate agent in the five-tier hierarchy.
// CommissionSplit is a denormalized copy of the tier's split taken at
// promotion time, so later tier-table edits never change what a historic
// agent earns. RecruitedBy is the one-level upline; nil for agents who
// joined without a recruiter.
type Agent struct {
	ID                primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	UserID            primitive.ObjectID  `json:"userId" bson:"userId"`
	FullName          string              `json:"fullName" bson:"fullName"`
	Email             string              `json:"email" bson:"email"`
	PhoneNumber       string              `json:"phoneNumber" bson:"phoneNumber"`
	Image             string              `json:"image,omitempty" bson:"image,omitempty"`
	LicenseNumber     string              `json:"licenseNumber,omitempty" bson:"licenseNumber,omitempty"`
	Tier              string              `json:"tier" bson:"tier"`
	CommissionSplit   float64             `json:"commissionSplit" bson:"commissionSplit"`
	TierEffectiveDate time.Time           `json:"tierEffectiveDate" bson:"tierEffectiveDate"`
	PromotedBy        primitive.ObjectID  `json:"promotedBy,omitempty" bson:"promotedBy,omitempty"`
	RecruitedBy       *primitive.ObjectID `json:"recruitedBy,omitempty" bson:"recruitedBy,omitempty"`
	RecruitmentCode   string              `json:"recruitmentCode,omitempty" bson:"recruitmentCode,omitempty"`
	TeamID            *primitive.ObjectID `json:"teamId,omitempty" bson:"teamId,omitempty"`
	MonthlySales      int                 `json:"monthlySales" bson:"monthlySales"`
	TeamMembers       int                 `json:"teamMembers" bson:"teamMembers"`
	IsActive          bool                `json:"isActive" bson:"isActive"`
	CreatedBy         primitive.ObjectID  `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedAt         time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// CreateAgentRequest is the payload for registering a new agent
type CreateAgentRequest struct {
	FullName      string `json:"fullName" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8"`
	PhoneNumber   string `json:"phoneNumber"`
	LicenseNumber string `json:"licenseNumber"`
	RecruitedBy   string `json:"recruitedBy,omitempty"` // hex id of the recruiting agent
	TeamID        string `json:"teamId,omitempty"`
}

// PromotionRequest is the payload for a tier promotion
type PromotionRequest struct {
	NewTier     string              `json:"newTier" validate:"required"`
	Reason      string              `json:"reason" validate:"required"`
	Performance *PerformanceMetrics `json:"performance,omitempty"`
}

// PromotionResult reports a successful tier change
type PromotionResult struct {
	AgentID       primitive.ObjectID `json:"agentId"`
	PreviousTier  string             `json:"previousTier"`
	NewTier       string             `json:"newTier"`
	NewSplit      float64            `json:"newSplit"`
	EffectiveDate time.Time          `json:"effectiveDate"`
}

// UplineInfo is the resolved one-hop recruiter of an agent, carrying the
// leadership-bonus rate of the upline's current tier.
type UplineInfo struct {
	UplineID            primitive.ObjectID `json:"uplineId"`
	UplineTier          string             `json:"uplineTier"`
	LeadershipBonusRate float64            `json:"leadershipBonusRate"`
}
