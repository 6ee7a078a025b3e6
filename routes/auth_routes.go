package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kwloft/agentpro_backend/controllers"
	"github.com/kwloft/agentpro_backend/middleware"
	"github.com/kwloft/agentpro_backend/models"
	"github.com/kwloft/agentpro_backend/websocket"
)

// RegisterAuthRoutes sets up authentication and the authenticated user surface
func RegisterAuthRoutes(e *echo.Echo, db *mongo.Database, hub *websocket.Hub) {
	authController := controllers.NewAuthController(db)

	// Public authentication routes
	e.POST("/api/auth/login", authController.Login)

	// Authenticated user routes
	auth := e.Group("/api/auth")
	auth.Use(middleware.JWTMiddleware())
	auth.GET("/me", authController.Me)
	auth.POST("/fcm-token", authController.UpdateFCMToken)

	// Live workflow event feed
	ws := e.Group("/api")
	ws.Use(middleware.JWTMiddleware())
	ws.GET("/ws", func(c echo.Context) error {
		claims := middleware.GetUserFromToken(c)
		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid user ID",
			})
		}
		return websocket.HandleWebSocket(c, hub, userID, claims.UserType)
	})
}
