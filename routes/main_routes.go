package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kwloft/agentpro_backend/repositories"
	"github.com/kwloft/agentpro_backend/websocket"
)

// SetupRoutes configures all API routes by calling individual route
// registration functions
func SetupRoutes(e *echo.Echo, db *mongo.Database, hub *websocket.Hub, tiers *repositories.TierRepository) {
	agents := repositories.NewAgentRepository(db, tiers)
	users := repositories.NewUserRepository(db)

	RegisterAuthRoutes(e, db, hub)
	RegisterAgentRoutes(e, db, agents, users, hub)
	RegisterAdminRoutes(e, db, agents, tiers, users, hub)
}
