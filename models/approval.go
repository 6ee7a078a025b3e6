package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Approval statuses. Review always starts at pending; requires_revision goes
// back to pending through a resubmission that updates the existing row, so
// the one-approval-per-transaction rule is never violated.
const (
	ApprovalStatusPending          = "pending"
	ApprovalStatusApproved         = "approved"
	ApprovalStatusRejected         = "rejected"
	ApprovalStatusRequiresRevision = "requires_revision"
)

// Approval priorities and their SLA response budgets in hours
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Workflow history action types
const (
	ActionSubmit   = "submit"
	ActionApprove  = "approve"
	ActionReject   = "reject"
	ActionRevise   = "revise"
	ActionEscalate = "escalate"
	ActionUpdate   = "update"
)

var slaHours = map[string]int{
	PriorityLow:    72,
	PriorityNormal: 48,
	PriorityHigh:   24,
	PriorityUrgent: 4,
}

// SLAHoursForPriority returns the response budget for a priority; unknown
// priorities fall back to the normal budget.
func SLAHoursForPriority(priority string) int {
	if h, ok := slaHours[priority]; ok {
		return h
	}
	return slaHours[PriorityNormal]
}

// DueDateForPriority computes the review due date from submission time
func DueDateForPriority(priority string, submittedAt time.Time) time.Time {
	return submittedAt.Add(time.Duration(SLAHoursForPriority(priority)) * time.Hour)
}

// IsValidPriority reports whether priority is one of the four known levels
func IsValidPriority(priority string) bool {
	_, ok := slaHours[priority]
	return ok
}

// CanTransitionApproval reports whether an approval may move between two
// statuses. Reviewer decisions are only taken from pending; a revision
// request goes back to pending through resubmission.
func CanTransitionApproval(from, to string) bool {
	switch from {
	case ApprovalStatusPending:
		return to == ApprovalStatusApproved || to == ApprovalStatusRejected || to == ApprovalStatusRequiresRevision
	case ApprovalStatusRequiresRevision:
		return to == ApprovalStatusPending
	default:
		return false
	}
}

// IsReviewerDecision reports whether a status is a legal target for a
// reviewer decision. Pending is excluded even though the transition table
// allows requires_revision -> pending: that edge belongs to the agent's
// resubmission path, which recomputes the due date and resets the request.
func IsReviewerDecision(status string) bool {
	return status == ApprovalStatusApproved ||
		status == ApprovalStatusRejected ||
		status == ApprovalStatusRequiresRevision
}

// ActionForTransition maps a status edge to its workflow action type
func ActionForTransition(from, to string) string {
	switch to {
	case ApprovalStatusApproved:
		return ActionApprove
	case ApprovalStatusRejected:
		return ActionReject
	case ApprovalStatusRequiresRevision:
		return ActionRevise
	case ApprovalStatusPending:
		if from == ApprovalStatusRequiresRevision {
			return ActionSubmit
		}
		return ActionUpdate
	default:
		return ActionUpdate
	}
}

// CommissionApproval is the per-transaction human review gate on a requested
// commission amount. Exactly one approval exists per transaction, enforced
// by a unique index on transactionId.
type CommissionApproval struct {
	ID                   primitive.ObjectID     `json:"id,omitempty" bson:"_id,omitempty"`
	TransactionID        primitive.ObjectID     `json:"transactionId" bson:"transactionId"`
	AgentID              primitive.ObjectID     `json:"agentId" bson:"agentId"`
	RequestedAmount      float64                `json:"requestedAmount" bson:"requestedAmount"`
	ApprovedAmount       *float64               `json:"approvedAmount,omitempty" bson:"approvedAmount,omitempty"`
	CommissionPercentage *float64               `json:"commissionPercentage,omitempty" bson:"commissionPercentage,omitempty"`
	Status               string                 `json:"status" bson:"status"`
	Priority             string                 `json:"priority" bson:"priority"`
	ReviewerID           *primitive.ObjectID    `json:"reviewerId,omitempty" bson:"reviewerId,omitempty"`
	ReviewerNotes        string                 `json:"reviewerNotes,omitempty" bson:"reviewerNotes,omitempty"`
	ReviewedAt           *time.Time             `json:"reviewedAt,omitempty" bson:"reviewedAt,omitempty"`
	DueDate              time.Time              `json:"dueDate" bson:"dueDate"`
	SupportingDocuments  []string               `json:"supportingDocuments,omitempty" bson:"supportingDocuments,omitempty"`
	Metadata             map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
	SubmittedAt          time.Time              `json:"submittedAt" bson:"submittedAt"`
	UpdatedAt            time.Time              `json:"updatedAt" bson:"updatedAt"`
}

// IsOverdue reports whether a still-pending approval has outlived its SLA
func (a *CommissionApproval) IsOverdue(now time.Time) bool {
	return a.Status == ApprovalStatusPending && now.After(a.DueDate)
}

// ApprovalWorkflowHistoryEntry is an immutable audit row for every workflow
// action. FromStatus is empty for the initial submission.
type ApprovalWorkflowHistoryEntry struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ApprovalID primitive.ObjectID `json:"approvalId" bson:"approvalId"`
	FromStatus string             `json:"fromStatus,omitempty" bson:"fromStatus,omitempty"`
	ToStatus   string             `json:"toStatus" bson:"toStatus"`
	ActorID    primitive.ObjectID `json:"actorId" bson:"actorId"`
	ActionType string             `json:"actionType" bson:"actionType"`
	Notes      string             `json:"notes,omitempty" bson:"notes,omitempty"`
	IPAddress  string             `json:"ipAddress,omitempty" bson:"ipAddress,omitempty"`
	UserAgent  string             `json:"userAgent,omitempty" bson:"userAgent,omitempty"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
}

// SubmitApprovalRequest is the agent payload for requesting commission review
type SubmitApprovalRequest struct {
	TransactionID        string                 `json:"transactionId" validate:"required"`
	RequestedAmount      float64                `json:"requestedAmount" validate:"required,gt=0"`
	CommissionPercentage *float64               `json:"commissionPercentage,omitempty"`
	Priority             string                 `json:"priority,omitempty"`
	SupportingDocuments  []string               `json:"supportingDocuments,omitempty"`
	Metadata             map[string]interface{} `json:"metadata,omitempty"`
}

// UpdateApprovalStatusRequest is the reviewer payload for a status decision
type UpdateApprovalStatusRequest struct {
	Status         string   `json:"status" validate:"required"`
	ApprovedAmount *float64 `json:"approvedAmount,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

// BulkApprovalRequest applies one decision to many approvals. Authorization
// and history logging happen per item; partial success is reported, not
// rolled back.
type BulkApprovalRequest struct {
	ApprovalIDs []string `json:"approvalIds" validate:"required,min=1"`
	Status      string   `json:"status" validate:"required"`
	Notes       string   `json:"notes,omitempty"`
}

// BulkApprovalResult reports how many items were actually updated
type BulkApprovalResult struct {
	RequestedCount int                  `json:"requestedCount"`
	UpdatedCount   int                  `json:"updatedCount"`
	Updated        []CommissionApproval `json:"updated"`
	Failed         map[string]string    `json:"failed,omitempty"` // approval id -> reason
}
