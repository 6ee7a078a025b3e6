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

// CommissionController handles property transactions and their commission
// breakdowns. Closing a transaction is the moment the calculation engine
// runs and any leadership bonus obligation is recorded.
type CommissionController struct {
	DB     *mongo.Database
	Agents *repositories.AgentRepository
	Hub    *websocket.Hub
}

// NewCommissionController creates a new commission controller
func NewCommissionController(db *mongo.Database, agents *repositories.AgentRepository, hub *websocket.Hub) *CommissionController {
	return &CommissionController{DB: db, Agents: agents, Hub: hub}
}

// CreateTransaction records a new open property transaction for the calling
// agent. No commission math happens yet.
func (cc *CommissionController) CreateTransaction(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	agent := cc.callerAgent(ctx, c)
	if agent == nil {
		return nil
	}

	var req struct {
		PropertyAddress    string   `json:"propertyAddress" validate:"required"`
		PropertyPrice      float64  `json:"propertyPrice" validate:"required,gt=0"`
		CommissionRate     float64  `json:"commissionRate" validate:"required,gt=0,lte=100"`
		RepresentationType string   `json:"representationType" validate:"required"`
		CoBrokerSplitPct   *float64 `json:"coBrokerSplitPct,omitempty"`
	}
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
	if req.RepresentationType != models.RepresentationDirect && req.RepresentationType != models.RepresentationCoBroking {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Representation type must be direct or co_broking",
		})
	}
	if req.CoBrokerSplitPct != nil && (*req.CoBrokerSplitPct < 0 || *req.CoBrokerSplitPct > 100) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Co-broker split must be between 0 and 100",
		})
	}

	now := time.Now()
	txn := models.PropertyTransaction{
		ID:                 primitive.NewObjectID(),
		AgentID:            agent.ID,
		PropertyAddress:    req.PropertyAddress,
		PropertyPrice:      req.PropertyPrice,
		CommissionRate:     req.CommissionRate,
		RepresentationType: req.RepresentationType,
		CoBrokerSplitPct:   req.CoBrokerSplitPct,
		Status:             "open",
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if _, err := cc.DB.Collection("transactions").InsertOne(ctx, txn); err != nil {
		c.Logger().Error("Failed to insert transaction: ", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create transaction",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Transaction created successfully",
		Data:    txn,
	})
}

// GetTransaction returns one transaction. Agents only see their own;
// reviewers see everything.
func (cc *CommissionController) GetTransaction(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	txnID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid transaction ID",
		})
	}

	var txn models.PropertyTransaction
	if err := cc.DB.Collection("transactions").FindOne(ctx, bson.M{"_id": txnID}).Decode(&txn); err != nil {
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

	claims := middleware.GetUserFromToken(c)
	if claims.UserType == models.UserTypeAgent {
		agent := cc.callerAgent(ctx, c)
		if agent == nil {
			return nil
		}
		if agent.ID != txn.AgentID {
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Access denied",
			})
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Transaction retrieved successfully",
		Data:    txn,
	})
}

// GetMyTransactions lists the calling agent's transactions, newest first
func (cc *CommissionController) GetMyTransactions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	agent := cc.callerAgent(ctx, c)
	if agent == nil {
		return nil
	}

	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := cc.DB.Collection("transactions").Find(ctx, bson.M{"agentId": agent.ID}, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve transactions",
		})
	}
	defer cursor.Close(ctx)

	txns := []models.PropertyTransaction{}
	if err := cursor.All(ctx, &txns); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode transactions",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Transactions retrieved successfully",
		Data:    txns,
	})
}

// PreviewCommission runs the calculation engine against an open transaction
// without persisting anything. The result reflects the agent's current tier
// and upline, so it can differ from the eventual closing breakdown.
func (cc *CommissionController) PreviewCommission(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	txnID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid transaction ID",
		})
	}

	var txn models.PropertyTransaction
	if err := cc.DB.Collection("transactions").FindOne(ctx, bson.M{"_id": txnID}).Decode(&txn); err != nil {
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

	breakdown, err := cc.calculateForTransaction(ctx, &txn)
	if err != nil {
		if models.IsValidationError(err) {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			})
		}
		c.Logger().Error("Failed to calculate commission: ", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to calculate commission",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission calculated successfully",
		Data:    breakdown,
	})
}

// CloseTransaction finalizes a transaction: the breakdown is computed and
// stored, a leadership bonus obligation is recorded if one applies, and the
// agent's monthly sales counter is bumped. Closing twice is rejected.
func (cc *CommissionController) CloseTransaction(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	txnID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid transaction ID",
		})
	}

	var txn models.PropertyTransaction
	if err := cc.DB.Collection("transactions").FindOne(ctx, bson.M{"_id": txnID}).Decode(&txn); err != nil {
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
	if txn.Status == "closed" {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Transaction is already closed",
		})
	}

	breakdown, err := cc.calculateForTransaction(ctx, &txn)
	if err != nil {
		if models.IsValidationError(err) {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			})
		}
		c.Logger().Error("Failed to calculate commission: ", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to calculate commission",
		})
	}

	now := time.Now()
	res, err := cc.DB.Collection("transactions").UpdateOne(ctx,
		bson.M{"_id": txnID, "status": "open"},
		bson.M{"$set": bson.M{
			"breakdown": breakdown,
			"status":    "closed",
			"closedAt":  now,
			"updatedAt": now,
		}},
	)
	if err != nil {
		c.Logger().Error("Failed to close transaction: ", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to close transaction",
		})
	}
	if res.ModifiedCount == 0 {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Transaction is already closed",
		})
	}

	if breakdown.LeadershipBonus != nil {
		cc.recordLeadershipBonus(ctx, c, &txn, breakdown)
	}

	if err := cc.Agents.IncrementMonthlySales(ctx, txn.AgentID); err != nil {
		c.Logger().Error("Failed to increment monthly sales: ", err)
	}

	txn.Breakdown = breakdown
	txn.Status = "closed"
	txn.ClosedAt = &now
	txn.UpdatedAt = now

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Transaction closed successfully",
		Data:    txn,
	})
}

// calculateForTransaction assembles engine input from the transaction's
// agent, the agent's denormalized split and the resolved upline.
func (cc *CommissionController) calculateForTransaction(ctx context.Context, txn *models.PropertyTransaction) (*models.CommissionBreakdown, error) {
	agent, err := cc.Agents.GetAgent(ctx, txn.AgentID)
	if err != nil {
		return nil, err
	}

	upline, err := cc.Agents.ResolveUpline(ctx, agent.ID)
	if err != nil {
		return nil, err
	}

	breakdown, err := utils.CalculateCommission(models.CommissionInput{
		PropertyPrice:      txn.PropertyPrice,
		CommissionRate:     txn.CommissionRate,
		RepresentationType: txn.RepresentationType,
		AgentTier:          agent.Tier,
		CompanySplit:       agent.CommissionSplit,
		CoBrokerSplitPct:   txn.CoBrokerSplitPct,
		Upline:             upline,
	})
	if err != nil {
		return nil, err
	}

	// The engine has no clock; the timestamp belongs to this invocation.
	breakdown.CalculatedAt = time.Now()
	return breakdown, nil
}

// recordLeadershipBonus writes the pending ledger entry for a closed
// transaction's bonus. The unique (transaction, downline, upline) index makes
// retries idempotent; a duplicate insert is logged and swallowed.
func (cc *CommissionController) recordLeadershipBonus(ctx context.Context, c echo.Context, txn *models.PropertyTransaction, breakdown *models.CommissionBreakdown) {
	reference, err := utils.GenerateBonusReference()
	if err != nil {
		c.Logger().Error("Failed to generate bonus reference: ", err)
		return
	}

	payment := models.LeadershipBonusPayment{
		ID:                 primitive.NewObjectID(),
		Reference:          reference,
		TransactionID:      txn.ID,
		DownlineAgentID:    txn.AgentID,
		UplineAgentID:      breakdown.LeadershipBonus.UplineID,
		UplineTier:         breakdown.LeadershipBonus.UplineTier,
		OriginalCommission: breakdown.TotalCommission,
		CompanyShare:       breakdown.CompanyShare,
		BonusRate:          breakdown.LeadershipBonus.Rate,
		BonusAmount:        breakdown.LeadershipBonus.Amount,
		Status:             models.BonusStatusPending,
		CreatedAt:          time.Now(),
	}

	if _, err := cc.DB.Collection("leadership_bonuses").InsertOne(ctx, payment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.Logger().Warn("Leadership bonus already recorded for transaction ", txn.ID.Hex())
			return
		}
		c.Logger().Error("Failed to record leadership bonus: ", err)
		return
	}

	go utils.NotifyLeadershipBonus(cc.DB, &payment)

	var upline models.Agent
	if err := cc.DB.Collection("agents").FindOne(ctx, bson.M{"_id": payment.UplineAgentID}).Decode(&upline); err == nil {
		if err := cc.Hub.NotifyBonusRecorded(upline.UserID, payment); err != nil {
			c.Logger().Debug("Upline not connected for bonus event: ", err)
		}
	}
}

// callerAgent resolves the agent record behind the authenticated user. A nil
// return means the error response has already been written.
func (cc *CommissionController) callerAgent(ctx context.Context, c echo.Context) *models.Agent {
	claims := middleware.GetUserFromToken(c)
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
		return nil
	}

	agent, err := cc.Agents.GetAgentByUserID(ctx, userID)
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
