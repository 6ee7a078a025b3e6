package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kwloft/agentpro_backend/controllers"
	"github.com/kwloft/agentpro_backend/middleware"
	"github.com/kwloft/agentpro_backend/models"
	"github.com/kwloft/agentpro_backend/repositories"
	"github.com/kwloft/agentpro_backend/websocket"
)

// RegisterAdminRoutes sets up the back-office surface: agent onboarding,
// tier configuration, promotions, the review queue and bonus settlement.
// Everything here requires a reviewer role; tier configuration is admin-only.
func RegisterAdminRoutes(e *echo.Echo, db *mongo.Database, agents *repositories.AgentRepository, tiers *repositories.TierRepository, users *repositories.UserRepository, hub *websocket.Hub) {
	agentController := controllers.NewAgentController(db, agents, users)
	tierController := controllers.NewTierController(tiers)
	promotionController := controllers.NewPromotionController(agents, tiers, hub)
	bonusController := controllers.NewBonusController(db, agents)
	approvalController := controllers.NewApprovalController(db, agents, hub)

	// Tier configuration reads are open to any authenticated user so agents
	// can see the ladder they are climbing.
	tiersGroup := e.Group("/api/tiers")
	tiersGroup.Use(middleware.JWTMiddleware())
	tiersGroup.GET("", tierController.GetAllTiers)
	tiersGroup.GET("/:tierId", tierController.GetTier)
	tiersGroup.PUT("/:tierId", tierController.UpdateTier, middleware.RequireUserType(models.UserTypeAdmin))
	tiersGroup.GET("/:tierId/changelog", tierController.GetTierChangeLog, middleware.RequireUserType(models.UserTypeAdmin))

	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.RequireReviewer())

	admin.POST("/agents", agentController.CreateAgent)
	admin.GET("/agents/:id", agentController.GetAgent)
	admin.GET("/agents/:id/tier-history", promotionController.GetTierHistory)
	admin.GET("/agents/:id/eligibility/:tierId", promotionController.CheckEligibility)
	admin.POST("/agents/:id/promote", promotionController.PromoteAgent)

	admin.GET("/approvals", approvalController.ListApprovals)
	admin.GET("/approvals/overdue", approvalController.GetOverdueApprovals)
	admin.PUT("/approvals/bulk", approvalController.BulkUpdateApprovals)
	admin.PUT("/approvals/:id/status", approvalController.UpdateApprovalStatus)

	admin.GET("/bonuses", bonusController.ListBonuses)
	admin.PUT("/bonuses/:id/pay", bonusController.MarkBonusPaid, middleware.RequireUserType(models.UserTypeAdmin))
	admin.PUT("/bonuses/:id/cancel", bonusController.CancelBonus, middleware.RequireUserType(models.UserTypeAdmin))
}
