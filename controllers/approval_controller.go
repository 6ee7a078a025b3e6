package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kwloft/agentpro_backend/middleware"
	"github.com/kwloft/agentpro_backend/models"
	"github.com/kwloft/agentpro_backend/repositories"
	"github.com/kwloft/agentpro_backend/utils"
	"github.com/kwloft/agentpro_backend/websocket"
)

// ApprovalController runs the commission approval workflow: agents submit
// requested amounts, reviewers decide, and every action lands in an immutable
// history trail. One approval exists per transaction; a revision request is
// resubmitted into the same row.
type ApprovalController struct {
	DB     *mongo.Database
	Agents *repositories.AgentRepository
	Hub    *websocket.Hub
}

// NewApprovalController creates a new approval controller
func NewApprovalController(db *mongo.Database, agents *repositories.AgentRepository, hub *websocket.Hub) *ApprovalController {
	return &ApprovalController{DB: db, Agents: agents, Hub: hub}
}

// SubmitApproval creates an approval for a transaction, or resubmits one that
// a reviewer sent back for revision. Any other existing approval for the same
// transaction is a conflict.
func (apc *ApprovalController) SubmitApproval(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	agent := apc.callerAgent(ctx, c)
	if agent == nil {
		return nil
	}

	var req models.SubmitApprovalRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	if !models.IsValidPriority(priority) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Priority must be one of low, normal, high, urgent",
		})
	}

	txnID, err := primitive.ObjectIDFromHex(req.TransactionID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid transaction ID",
		})
	}

	var txn models.PropertyTransaction
	if err := apc.DB.Collection("transactions").FindOne(ctx, bson.M{"_id": txnID}).Decode(&txn); err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Transaction not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve transaction",
		})
	}
	if txn.AgentID != agent.ID {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Transaction belongs to another agent",
		})
	}

	now := time.Now()
	dueDate := models.DueDateForPriority(priority, now)

	var existing models.CommissionApproval
	err = apc.DB.Collection("commission_approvals").FindOne(ctx, bson.M{"transactionId": txnID}).Decode(&existing)
	switch {
	case err == mongo.ErrNoDocuments:
		approval := models.CommissionApproval{
			ID:                   primitive.NewObjectID(),
			TransactionID:        txnID,
			AgentID:              agent.ID,
			RequestedAmount:      req.RequestedAmount,
			CommissionPercentage: req.CommissionPercentage,
			Status:               models.ApprovalStatusPending,
			Priority:             priority,
			DueDate:              dueDate,
			SupportingDocuments:  req.SupportingDocuments,
			Metadata:             req.Metadata,
			SubmittedAt:          now,
			UpdatedAt:            now,
		}
		if insErr := apc.insertApprovalWithHistory(ctx, c, &approval, "", agent.UserID); insErr != nil {
			if mongo.IsDuplicateKeyError(insErr) {
				return c.JSON(http.StatusConflict, models.Response{
					Status:  http.StatusConflict,
					Message: models.ErrDuplicateApproval.Error(),
				})
			}
			c.Logger().Error("Failed to submit approval: ", insErr)
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to submit approval",
			})
		}
		apc.Hub.NotifyApprovalSubmitted(approval)
		return c.JSON(http.StatusCreated, models.Response{
			Status:  http.StatusCreated,
			Message: "Approval submitted successfully",
			Data:    approval,
		})

	case err != nil:
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to check existing approval",
		})

	case existing.Status == models.ApprovalStatusRequiresRevision:
		existing.RequestedAmount = req.RequestedAmount
		existing.CommissionPercentage = req.CommissionPercentage
		existing.Status = models.ApprovalStatusPending
		existing.Priority = priority
		existing.DueDate = dueDate
		existing.SupportingDocuments = req.SupportingDocuments
		existing.Metadata = req.Metadata
		existing.ApprovedAmount = nil
		existing.ReviewerID = nil
		existing.ReviewedAt = nil
		existing.ReviewerNotes = ""
		existing.SubmittedAt = now
		existing.UpdatedAt = now

		if updErr := apc.resubmitApprovalWithHistory(ctx, c, &existing, agent.UserID); updErr != nil {
			c.Logger().Error("Failed to resubmit approval: ", updErr)
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to resubmit approval",
			})
		}
		apc.Hub.NotifyApprovalSubmitted(existing)
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Approval resubmitted successfully",
			Data:    existing,
		})

	default:
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: models.ErrDuplicateApproval.Error(),
		})
	}
}

// GetApproval returns one approval. Agents only see their own; team leads see
// their team; admins see everything.
func (apc *ApprovalController) GetApproval(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	approval, ok := apc.loadApproval(ctx, c)
	if !ok {
		return nil
	}

	claims := middleware.GetUserFromToken(c)
	switch claims.UserType {
	case models.UserTypeAdmin:
	case models.UserTypeTeamLead:
		if !apc.reviewerCanAct(ctx, c, approval) {
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Approval is outside your team",
			})
		}
	default:
		agent := apc.callerAgent(ctx, c)
		if agent == nil {
			return nil
		}
		if agent.ID != approval.AgentID {
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Access denied",
			})
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Approval retrieved successfully",
		Data:    approval,
	})
}

// GetMyApprovals lists the calling agent's approvals, newest first
func (apc *ApprovalController) GetMyApprovals(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	agent := apc.callerAgent(ctx, c)
	if agent == nil {
		return nil
	}

	filter := bson.M{"agentId": agent.ID}
	if status := c.QueryParam("status"); status != "" {
		filter["status"] = status
	}

	approvals, err := apc.findApprovals(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve approvals",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Approvals retrieved successfully",
		Data:    approvals,
	})
}

// ListApprovals is the reviewer queue. Team leads are scoped to approvals
// from agents on their own team; admins see all.
func (apc *ApprovalController) ListApprovals(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if status := c.QueryParam("status"); status != "" {
		filter["status"] = status
	}
	if priority := c.QueryParam("priority"); priority != "" {
		filter["priority"] = priority
	}

	if !apc.applyReviewerScope(ctx, c, filter) {
		return nil
	}

	approvals, err := apc.findApprovals(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve approvals",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Approvals retrieved successfully",
		Data:    approvals,
	})
}

// GetOverdueApprovals lists pending approvals past their SLA due date. Team
// leads see their own team's overdue items, same as the main queue.
func (apc *ApprovalController) GetOverdueApprovals(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{
		"status":  models.ApprovalStatusPending,
		"dueDate": bson.M{"$lt": time.Now()},
	}
	if !apc.applyReviewerScope(ctx, c, filter) {
		return nil
	}

	approvals, err := apc.findApprovals(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve overdue approvals",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Overdue approvals retrieved successfully",
		Data:    approvals,
	})
}

// UpdateApprovalStatus applies a reviewer decision to one approval
func (apc *ApprovalController) UpdateApprovalStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.UpdateApprovalStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Status is required",
		})
	}

	approval, ok := apc.loadApproval(ctx, c)
	if !ok {
		return nil
	}

	updated, err := apc.decide(ctx, c, approval, &req)
	if err != nil {
		return apc.decisionError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Approval updated successfully",
		Data:    updated,
	})
}

// BulkUpdateApprovals applies one decision to many approvals. Each item is
// authorized, validated and logged on its own; failures do not roll back the
// successes.
func (apc *ApprovalController) BulkUpdateApprovals(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var req models.BulkApprovalRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "At least one approval ID and a status are required",
		})
	}

	result := models.BulkApprovalResult{
		RequestedCount: len(req.ApprovalIDs),
		Updated:        []models.CommissionApproval{},
		Failed:         map[string]string{},
	}

	for _, idHex := range req.ApprovalIDs {
		approvalID, err := primitive.ObjectIDFromHex(idHex)
		if err != nil {
			result.Failed[idHex] = "invalid approval ID"
			continue
		}

		var approval models.CommissionApproval
		if err := apc.DB.Collection("commission_approvals").FindOne(ctx, bson.M{"_id": approvalID}).Decode(&approval); err != nil {
			result.Failed[idHex] = "approval not found"
			continue
		}

		updated, err := apc.decide(ctx, c, &approval, &models.UpdateApprovalStatusRequest{
			Status: req.Status,
			Notes:  req.Notes,
		})
		if err != nil {
			result.Failed[idHex] = err.Error()
			continue
		}

		result.Updated = append(result.Updated, *updated)
		result.UpdatedCount++
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Bulk update processed",
		Data:    result,
	})
}

// GetApprovalHistory returns the immutable action trail of one approval
func (apc *ApprovalController) GetApprovalHistory(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	approvalID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid approval ID",
		})
	}

	opts := options.Find().SetSort(bson.M{"createdAt": 1})
	cursor, err := apc.DB.Collection("approval_workflow_history").Find(ctx, bson.M{"approvalId": approvalID}, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve approval history",
		})
	}
	defer cursor.Close(ctx)

	entries := []models.ApprovalWorkflowHistoryEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode approval history",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Approval history retrieved successfully",
		Data:    entries,
	})
}

// decide validates authorization and the status transition, then writes the
// decision and its history row in one transaction.
func (apc *ApprovalController) decide(ctx context.Context, c echo.Context, approval *models.CommissionApproval, req *models.UpdateApprovalStatusRequest) (*models.CommissionApproval, error) {
	if !apc.reviewerCanAct(ctx, c, approval) {
		return nil, models.ErrAccessDenied
	}

	// The transition table also allows requires_revision -> pending, but
	// that edge is the agent's resubmission, never a reviewer decision.
	if !models.IsReviewerDecision(req.Status) {
		return nil, models.ErrInvalidStateTransition
	}
	if !models.CanTransitionApproval(approval.Status, req.Status) {
		return nil, models.ErrInvalidStateTransition
	}

	claims := middleware.GetUserFromToken(c)
	reviewerID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, models.NewValidationError("userId", "invalid user ID in token")
	}

	now := time.Now()
	set := bson.M{
		"status":        req.Status,
		"reviewerId":    reviewerID,
		"reviewerNotes": req.Notes,
		"reviewedAt":    now,
		"updatedAt":     now,
	}
	approvedAmount := req.ApprovedAmount
	if req.Status == models.ApprovalStatusApproved {
		if approvedAmount == nil {
			approvedAmount = &approval.RequestedAmount
		}
		set["approvedAmount"] = *approvedAmount
	}

	history := models.ApprovalWorkflowHistoryEntry{
		ID:         primitive.NewObjectID(),
		ApprovalID: approval.ID,
		FromStatus: approval.Status,
		ToStatus:   req.Status,
		ActorID:    reviewerID,
		ActionType: models.ActionForTransition(approval.Status, req.Status),
		Notes:      req.Notes,
		IPAddress:  c.RealIP(),
		UserAgent:  c.Request().UserAgent(),
		CreatedAt:  now,
	}

	session, err := apc.DB.Client().StartSession()
	if err != nil {
		return nil, models.ErrPersistence
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		// Status guard in the filter: a concurrent decision loses here
		// instead of double-writing history.
		res, updErr := apc.DB.Collection("commission_approvals").UpdateOne(sc,
			bson.M{"_id": approval.ID, "status": approval.Status},
			bson.M{"$set": set},
		)
		if updErr != nil {
			return nil, updErr
		}
		if res.MatchedCount == 0 {
			return nil, models.ErrInvalidStateTransition
		}
		if _, insErr := apc.DB.Collection("approval_workflow_history").InsertOne(sc, history); insErr != nil {
			return nil, insErr
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, models.ErrInvalidStateTransition) {
			return nil, models.ErrInvalidStateTransition
		}
		return nil, models.ErrPersistence
	}

	updated := *approval
	updated.Status = req.Status
	updated.ApprovedAmount = approvedAmount
	updated.ReviewerID = &reviewerID
	updated.ReviewerNotes = req.Notes
	updated.ReviewedAt = &now
	updated.UpdatedAt = now

	go utils.NotifyApprovalDecision(apc.DB, &updated, req.Status)
	if agent, agentErr := apc.Agents.GetAgent(ctx, approval.AgentID); agentErr == nil {
		if hubErr := apc.Hub.NotifyApprovalDecision(agent.UserID, updated); hubErr != nil {
			c.Logger().Debug("Agent not connected for decision event: ", hubErr)
		}
	}

	return &updated, nil
}

func (apc *ApprovalController) decisionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrAccessDenied):
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "You are not allowed to review this approval",
		})
	case errors.Is(err, models.ErrInvalidStateTransition):
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Approval cannot move to the requested status",
		})
	case models.IsValidationError(err):
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	default:
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update approval",
		})
	}
}

// insertApprovalWithHistory writes a new approval and its submission history
// row in one transaction.
func (apc *ApprovalController) insertApprovalWithHistory(ctx context.Context, c echo.Context, approval *models.CommissionApproval, fromStatus string, actorID primitive.ObjectID) error {
	history := apc.submissionHistory(c, approval, fromStatus, actorID)

	session, err := apc.DB.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, insErr := apc.DB.Collection("commission_approvals").InsertOne(sc, approval); insErr != nil {
			return nil, insErr
		}
		if _, insErr := apc.DB.Collection("approval_workflow_history").InsertOne(sc, history); insErr != nil {
			return nil, insErr
		}
		return nil, nil
	})
	return err
}

// resubmitApprovalWithHistory moves a requires_revision approval back to
// pending in place, with its history row, in one transaction.
func (apc *ApprovalController) resubmitApprovalWithHistory(ctx context.Context, c echo.Context, approval *models.CommissionApproval, actorID primitive.ObjectID) error {
	history := apc.submissionHistory(c, approval, models.ApprovalStatusRequiresRevision, actorID)

	session, err := apc.DB.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res, updErr := apc.DB.Collection("commission_approvals").UpdateOne(sc,
			bson.M{"_id": approval.ID, "status": models.ApprovalStatusRequiresRevision},
			bson.M{"$set": bson.M{
				"requestedAmount":      approval.RequestedAmount,
				"commissionPercentage": approval.CommissionPercentage,
				"status":               models.ApprovalStatusPending,
				"priority":             approval.Priority,
				"dueDate":              approval.DueDate,
				"supportingDocuments":  approval.SupportingDocuments,
				"metadata":             approval.Metadata,
				"approvedAmount":       nil,
				"reviewerId":           nil,
				"reviewedAt":           nil,
				"reviewerNotes":        "",
				"submittedAt":          approval.SubmittedAt,
				"updatedAt":            approval.UpdatedAt,
			}},
		)
		if updErr != nil {
			return nil, updErr
		}
		if res.MatchedCount == 0 {
			return nil, models.ErrInvalidStateTransition
		}
		if _, insErr := apc.DB.Collection("approval_workflow_history").InsertOne(sc, history); insErr != nil {
			return nil, insErr
		}
		return nil, nil
	})
	return err
}

func (apc *ApprovalController) submissionHistory(c echo.Context, approval *models.CommissionApproval, fromStatus string, actorID primitive.ObjectID) models.ApprovalWorkflowHistoryEntry {
	return models.ApprovalWorkflowHistoryEntry{
		ID:         primitive.NewObjectID(),
		ApprovalID: approval.ID,
		FromStatus: fromStatus,
		ToStatus:   models.ApprovalStatusPending,
		ActorID:    actorID,
		ActionType: models.ActionSubmit,
		IPAddress:  c.RealIP(),
		UserAgent:  c.Request().UserAgent(),
		CreatedAt:  time.Now(),
	}
}

// reviewerScope narrows a queue filter to a set of agents when the caller is
// a team lead. Admin queries pass through unchanged. An empty id set for a
// team lead matches nothing, so a lead without a team sees an empty queue.
func reviewerScope(filter bson.M, userType string, teamAgentIDs []primitive.ObjectID) bson.M {
	if userType == models.UserTypeTeamLead {
		filter["agentId"] = bson.M{"$in": teamAgentIDs}
	}
	return filter
}

// applyReviewerScope resolves the caller's team and applies reviewerScope in
// place. A false return means the error response has already been written.
func (apc *ApprovalController) applyReviewerScope(ctx context.Context, c echo.Context, filter bson.M) bool {
	claims := middleware.GetUserFromToken(c)
	if claims.UserType != models.UserTypeTeamLead {
		return true
	}

	reviewer := apc.callerAgent(ctx, c)
	if reviewer == nil {
		return false
	}

	teamAgentIDs := []primitive.ObjectID{}
	if reviewer.TeamID != nil {
		ids, err := apc.teamAgentIDs(ctx, *reviewer.TeamID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to resolve team members",
			})
			return false
		}
		teamAgentIDs = ids
	}

	reviewerScope(filter, claims.UserType, teamAgentIDs)
	return true
}

// reviewerCanAct reports whether the authenticated reviewer may decide on an
// approval. Admins always can; team leads only within their own team.
func (apc *ApprovalController) reviewerCanAct(ctx context.Context, c echo.Context, approval *models.CommissionApproval) bool {
	claims := middleware.GetUserFromToken(c)
	if claims.UserType == models.UserTypeAdmin {
		return true
	}
	if claims.UserType != models.UserTypeTeamLead {
		return false
	}

	reviewerUserID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return false
	}
	reviewer, err := apc.Agents.GetAgentByUserID(ctx, reviewerUserID)
	if err != nil || reviewer.TeamID == nil {
		return false
	}
	subject, err := apc.Agents.GetAgent(ctx, approval.AgentID)
	if err != nil || subject.TeamID == nil {
		return false
	}
	return *reviewer.TeamID == *subject.TeamID
}

func (apc *ApprovalController) teamAgentIDs(ctx context.Context, teamID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cursor, err := apc.DB.Collection("agents").Find(ctx, bson.M{"teamId": teamID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

// loadApproval fetches the approval in the :id param. A false return means
// the error response has already been written.
func (apc *ApprovalController) loadApproval(ctx context.Context, c echo.Context) (*models.CommissionApproval, bool) {
	approvalID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid approval ID",
		})
		return nil, false
	}

	var approval models.CommissionApproval
	if err := apc.DB.Collection("commission_approvals").FindOne(ctx, bson.M{"_id": approvalID}).Decode(&approval); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Approval not found",
			})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve approval",
		})
		return nil, false
	}
	return &approval, true
}

func (apc *ApprovalController) findApprovals(ctx context.Context, filter bson.M) ([]models.CommissionApproval, error) {
	opts := options.Find().SetSort(bson.M{"submittedAt": -1})
	cursor, err := apc.DB.Collection("commission_approvals").Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	approvals := []models.CommissionApproval{}
	if err := cursor.All(ctx, &approvals); err != nil {
		return nil, err
	}
	return approvals, nil
}

// callerAgent resolves the agent record behind the authenticated user. A nil
// return means the error response has already been written.
func (apc *ApprovalController) callerAgent(ctx context.Context, c echo.Context) *models.Agent {
	claims := middleware.GetUserFromToken(c)
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
		return nil
	}

	agent, err := apc.Agents.GetAgentByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrAgentNotFound) {
			c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "No agent record for this user",
			})
			return nil
		}
		c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve agent",
		})
		return nil
	}
	return agent
}
