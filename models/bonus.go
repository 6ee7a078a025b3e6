package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Leadership bonus payment lifecycle. Transitions move forward only:
// pending -> paid or pending -> cancelled, never reopened.
const (
	BonusStatusPending   = "pending"
	BonusStatusPaid      = "paid"
	BonusStatusCancelled = "cancelled"
)

// LeadershipBonusPayment records one payment obligation per
// (transaction, downline, upline) triple.
type LeadershipBonusPayment struct {
	ID                 primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Reference          string             `json:"reference" bson:"reference"`
	TransactionID      primitive.ObjectID `json:"transactionId" bson:"transactionId"`
	DownlineAgentID    primitive.ObjectID `json:"downlineAgentId" bson:"downlineAgentId"`
	UplineAgentID      primitive.ObjectID `json:"uplineAgentId" bson:"uplineAgentId"`
	UplineTier         string             `json:"uplineTier" bson:"uplineTier"`
	OriginalCommission float64            `json:"originalCommission" bson:"originalCommission"`
	CompanyShare       float64            `json:"companyShare" bson:"companyShare"`
	BonusRate          float64            `json:"bonusRate" bson:"bonusRate"`
	BonusAmount        float64            `json:"bonusAmount" bson:"bonusAmount"`
	Status             string             `json:"status" bson:"status"`
	CreatedAt          time.Time          `json:"createdAt" bson:"createdAt"`
	PaidAt             *time.Time         `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
}

// CanTransitionBonusStatus reports whether a bonus payment may move from one
// status to another. Only pending payments can change.
func CanTransitionBonusStatus(from, to string) bool {
	if from != BonusStatusPending {
		return false
	}
	return to == BonusStatusPaid || to == BonusStatusCancelled
}

// BonusSummary aggregates payment counts and totals per status
type BonusSummary struct {
	PendingCount  int     `json:"pendingCount" bson:"pendingCount"`
	PendingAmount float64 `json:"pendingAmount" bson:"pendingAmount"`
	PaidCount     int     `json:"paidCount" bson:"paidCount"`
	PaidAmount    float64 `json:"paidAmount" bson:"paidAmount"`
}
