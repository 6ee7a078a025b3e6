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

// RegisterAgentRoutes sets up the agent-facing surface: own profile and
// downlines, transactions and commission previews, approvals and the bonus
// ledger.
func RegisterAgentRoutes(e *echo.Echo, db *mongo.Database, agents *repositories.AgentRepository, users *repositories.UserRepository, hub *websocket.Hub) {
	agentController := controllers.NewAgentController(db, agents, users)
	commissionController := controllers.NewCommissionController(db, agents, hub)
	bonusController := controllers.NewBonusController(db, agents)
	approvalController := controllers.NewApprovalController(db, agents, hub)

	g := e.Group("/api/agents")
	g.Use(middleware.JWTMiddleware())

	g.GET("/me/downlines", agentController.GetDownlines)
	g.GET("/me/recruitment-qr", agentController.GetRecruitmentQRCode)
	g.POST("/me/photo", agentController.UploadProfilePhoto)
	g.GET("/:id", agentController.GetAgent)

	txns := e.Group("/api/transactions")
	txns.Use(middleware.JWTMiddleware())
	txns.POST("", commissionController.CreateTransaction)
	txns.GET("", commissionController.GetMyTransactions)
	txns.GET("/:id", commissionController.GetTransaction)
	txns.GET("/:id/commission-preview", commissionController.PreviewCommission)
	txns.POST("/:id/close", commissionController.CloseTransaction, middleware.RequireUserType(models.UserTypeAdmin, models.UserTypeTeamLead))

	approvals := e.Group("/api/approvals")
	approvals.Use(middleware.JWTMiddleware())
	approvals.POST("", approvalController.SubmitApproval)
	approvals.GET("/mine", approvalController.GetMyApprovals)
	approvals.GET("/:id", approvalController.GetApproval)
	approvals.GET("/:id/history", approvalController.GetApprovalHistory)

	bonuses := e.Group("/api/bonuses")
	bonuses.Use(middleware.JWTMiddleware())
	bonuses.GET("/mine", bonusController.GetMyBonuses)
	bonuses.GET("/mine/summary", bonusController.GetMyBonusSummary)
}
