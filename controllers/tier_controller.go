package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kwloft/agentpro_backend/middleware"
	"github.com/kwloft/agentpro_backend/models"
	"github.com/kwloft/agentpro_backend/repositories"
)

// TierController exposes the tier configuration store. Reads are open to any
// authenticated user; updates are admin-only and always audited.
type TierController struct {
	Tiers *repositories.TierRepository
}

// NewTierController creates a new tier controller
func NewTierController(tiers *repositories.TierRepository) *TierController {
	return &TierController{Tiers: tiers}
}

// GetAllTiers returns the active definition of every tier in ladder order
func (tc *TierController) GetAllTiers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	defs, err := tc.Tiers.GetAllActiveTiers(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve tier definitions",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Tier definitions retrieved successfully",
		Data:    defs,
	})
}

// GetTier returns the active definition of one tier
func (tc *TierController) GetTier(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	def, err := tc.Tiers.GetActiveTier(ctx, c.Param("tierId"))
	if err != nil {
		if models.IsValidationError(err) {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve tier definition",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Tier definition retrieved successfully",
		Data:    def,
	})
}

// UpdateTier supersedes a tier's active definition. The previous definition
// is closed, never edited, so historic calculations stay reproducible.
func (tc *TierController) UpdateTier(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	claims := middleware.GetUserFromToken(c)
	changedBy, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	var req models.TierUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	def, err := tc.Tiers.UpdateTier(ctx, c.Param("tierId"), req, changedBy)
	if err != nil {
		if models.IsValidationError(err) {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update tier definition",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Tier definition updated successfully",
		Data:    def,
	})
}

// GetTierChangeLog returns the audit trail of configuration changes
func (tc *TierController) GetTierChangeLog(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	entries, err := tc.Tiers.GetChangeLog(ctx, c.Param("tierId"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve change log",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Change log retrieved successfully",
		Data:    entries,
	})
}
