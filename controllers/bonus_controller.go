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
)

// BonusController exposes the leadership bonus ledger. Entries are written by
// transaction closing; this surface only reads them and moves pending ones to
// paid or cancelled.
type BonusController struct {
	DB     *mongo.Database
	Agents *repositories.AgentRepository
}

// NewBonusController creates a new bonus controller
func NewBonusController(db *mongo.Database, agents *repositories.AgentRepository) *BonusController {
	return &BonusController{DB: db, Agents: agents}
}

// GetMyBonuses lists bonus payments owed to the calling agent, optionally
// filtered by status, newest first.
func (bc *BonusController) GetMyBonuses(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	agent := bc.callerAgent(ctx, c)
	if agent == nil {
		return nil
	}

	filter := bson.M{"uplineAgentId": agent.ID}
	if status := c.QueryParam("status"); status != "" {
		filter["status"] = status
	}

	payments, err := bc.findBonuses(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve bonus payments",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Bonus payments retrieved successfully",
		Data:    payments,
	})
}

// GetMyBonusSummary aggregates the calling agent's pending and paid totals
func (bc *BonusController) GetMyBonusSummary(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	agent := bc.callerAgent(ctx, c)
	if agent == nil {
		return nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"uplineAgentId": agent.ID}}},
		{{Key: "$group", Value: bson.M{
			"_id":    "$status",
			"count":  bson.M{"$sum": 1},
			"amount": bson.M{"$sum": "$bonusAmount"},
		}}},
	}

	cursor, err := bc.DB.Collection("leadership_bonuses").Aggregate(ctx, pipeline)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to aggregate bonus payments",
		})
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string  `bson:"_id"`
		Count  int     `bson:"count"`
		Amount float64 `bson:"amount"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode bonus summary",
		})
	}

	summary := models.BonusSummary{}
	for _, row := range rows {
		switch row.Status {
		case models.BonusStatusPending:
			summary.PendingCount = row.Count
			summary.PendingAmount = row.Amount
		case models.BonusStatusPaid:
			summary.PaidCount = row.Count
			summary.PaidAmount = row.Amount
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Bonus summary retrieved successfully",
		Data:    summary,
	})
}

// ListBonuses lists ledger entries across all agents, optionally filtered by
// status or upline agent. Reviewer surface.
func (bc *BonusController) ListBonuses(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if status := c.QueryParam("status"); status != "" {
		filter["status"] = status
	}
	if uplineHex := c.QueryParam("uplineAgentId"); uplineHex != "" {
		uplineID, err := primitive.ObjectIDFromHex(uplineHex)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid upline agent ID",
			})
		}
		filter["uplineAgentId"] = uplineID
	}

	payments, err := bc.findBonuses(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve bonus payments",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Bonus payments retrieved successfully",
		Data:    payments,
	})
}

// MarkBonusPaid moves a pending ledger entry to paid and stamps the payment
// time. Paid and cancelled entries never change again.
func (bc *BonusController) MarkBonusPaid(c echo.Context) error {
	return bc.transitionBonus(c, models.BonusStatusPaid, "Bonus marked as paid")
}

// CancelBonus voids a pending ledger entry
func (bc *BonusController) CancelBonus(c echo.Context) error {
	return bc.transitionBonus(c, models.BonusStatusCancelled, "Bonus cancelled")
}

func (bc *BonusController) transitionBonus(c echo.Context, toStatus, successMessage string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bonusID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid bonus ID",
		})
	}

	var payment models.LeadershipBonusPayment
	if err := bc.DB.Collection("leadership_bonuses").FindOne(ctx, bson.M{"_id": bonusID}).Decode(&payment); err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Bonus payment not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve bonus payment",
		})
	}

	if !models.CanTransitionBonusStatus(payment.Status, toStatus) {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Cannot move a " + payment.Status + " bonus to " + toStatus,
		})
	}

	update := bson.M{"status": toStatus}
	now := time.Now()
	if toStatus == models.BonusStatusPaid {
		update["paidAt"] = now
	}

	// Status guard in the filter keeps concurrent transitions from both
	// succeeding.
	res, err := bc.DB.Collection("leadership_bonuses").UpdateOne(ctx,
		bson.M{"_id": bonusID, "status": models.BonusStatusPending},
		bson.M{"$set": update},
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update bonus payment",
		})
	}
	if res.ModifiedCount == 0 {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Bonus payment is no longer pending",
		})
	}

	payment.Status = toStatus
	if toStatus == models.BonusStatusPaid {
		payment.PaidAt = &now
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: successMessage,
		Data:    payment,
	})
}

func (bc *BonusController) findBonuses(ctx context.Context, filter bson.M) ([]models.LeadershipBonusPayment, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := bc.DB.Collection("leadership_bonuses").Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	payments := []models.LeadershipBonusPayment{}
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// callerAgent resolves the agent record behind the authenticated user. A nil
// return means the error response has already been written.
func (bc *BonusController) callerAgent(ctx context.Context, c echo.Context) *models.Agent {
	claims := middleware.GetUserFromToken(c)
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
		return nil
	}

	agent, err := bc.Agents.GetAgentByUserID(ctx, userID)
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
