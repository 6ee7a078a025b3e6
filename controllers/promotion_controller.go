package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kwloft/agentpro_backend/middleware"
	"github.com/kwloft/agentpro_backend/models"
	"github.com/kwloft/agentpro_backend/repositories"
	"github.com/kwloft/agentpro_backend/websocket"
)

// PromotionController handles tier promotions and the surrounding advisory
// surface: eligibility checks and the per-agent tier history.
type PromotionController struct {
	Agents *repositories.AgentRepository
	Tiers  *repositories.TierRepository
	Hub    *websocket.Hub
}

// NewPromotionController creates a new promotion controller
func NewPromotionController(agents *repositories.AgentRepository, tiers *repositories.TierRepository, hub *websocket.Hub) *PromotionController {
	return &PromotionController{Agents: agents, Tiers: tiers, Hub: hub}
}

// PromoteAgent moves an agent to a higher tier. Eligibility is reported but
// does not block the promotion; leadership can override thresholds.
func (pc *PromotionController) PromoteAgent(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	claims := middleware.GetUserFromToken(c)
	promotedBy, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	agentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid agent ID",
		})
	}

	var req models.PromotionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "New tier and reason are required",
		})
	}

	result, err := pc.Agents.PromoteAgent(ctx, agentID, req.NewTier, promotedBy, req.Reason, req.Performance)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrAgentNotFound):
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Agent not found",
			})
		case errors.Is(err, models.ErrDemotionNotAllowed):
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Demotion is not allowed through promotion",
			})
		case models.IsValidationError(err):
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			})
		default:
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to promote agent",
			})
		}
	}

	if agent, agentErr := pc.Agents.GetAgent(ctx, agentID); agentErr == nil {
		if hubErr := pc.Hub.NotifyTierPromotion(agent.UserID, result); hubErr != nil {
			c.Logger().Debug("Agent not connected for promotion event: ", hubErr)
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Agent promoted successfully",
		Data:    result,
	})
}

// CheckEligibility reports whether an agent currently meets the thresholds of
// a target tier. Purely advisory.
func (pc *PromotionController) CheckEligibility(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	agentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid agent ID",
		})
	}

	targetTier := c.Param("tierId")
	if !models.IsValidTier(targetTier) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Unknown tier: " + targetTier,
		})
	}

	agent, err := pc.Agents.GetAgent(ctx, agentID)
	if err != nil {
		if errors.Is(err, models.ErrAgentNotFound) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Agent not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve agent",
		})
	}

	tierDef, err := pc.Tiers.GetActiveTier(ctx, targetTier)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve tier definition",
		})
	}

	result := models.ValidateTierRequirements(tierDef, models.PerformanceMetrics{
		MonthlySales: agent.MonthlySales,
		TeamMembers:  agent.TeamMembers,
	})

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Eligibility checked successfully",
		Data:    result,
	})
}

// GetTierHistory returns an agent's tier change audit trail
func (pc *PromotionController) GetTierHistory(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	agentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid agent ID",
		})
	}

	entries, err := pc.Agents.GetTierHistory(ctx, agentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve tier history",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Tier history retrieved successfully",
		Data:    entries,
	})
}
