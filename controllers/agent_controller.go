package controllers

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/kwloft/agentpro_backend/middleware"
	"github.com/kwloft/agentpro_backend/models"
	"github.com/kwloft/agentpro_backend/repositories"
	"github.com/kwloft/agentpro_backend/utils"
)

// AgentController handles agent records, recruitment and profile management
type AgentController struct {
	DB     *mongo.Database
	Agents *repositories.AgentRepository
	Users  *repositories.UserRepository
}

// NewAgentController creates a new agent controller
func NewAgentController(db *mongo.Database, agents *repositories.AgentRepository, users *repositories.UserRepository) *AgentController {
	return &AgentController{DB: db, Agents: agents, Users: users}
}

// CreateAgent registers a new agent, optionally under a recruiter. The
// recruiter reference must point to an existing agent; self-recruitment is
// impossible because the new agent has no id before the insert.
func (ac *AgentController) CreateAgent(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.CreateAgentRequest
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

	claims := middleware.GetUserFromToken(c)
	createdBy, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	var recruitedBy *primitive.ObjectID
	if req.RecruitedBy != "" {
		recruiterID, err := primitive.ObjectIDFromHex(req.RecruitedBy)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid recruitedBy ID format",
			})
		}
		recruitedBy = &recruiterID
	}

	var teamID *primitive.ObjectID
	if req.TeamID != "" {
		id, err := primitive.ObjectIDFromHex(req.TeamID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid teamId format",
			})
		}
		teamID = &id
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process password",
		})
	}

	now := time.Now()
	user := models.User{
		ID:        primitive.NewObjectID(),
		Email:     req.Email,
		Password:  string(hashedPassword),
		FullName:  req.FullName,
		UserType:  models.UserTypeAgent,
		IsActive:  true,
		Phone:     req.PhoneNumber,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := ac.DB.Collection("users").InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "An account with this email already exists",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create user account",
		})
	}

	recruitmentCode, err := utils.GenerateRecruitmentCode()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate recruitment code",
		})
	}

	// New agents always start on the lowest rung with its default split
	advisorDef := models.DefaultTierDefinitions()[models.TierAdvisor]
	agent := models.Agent{
		UserID:            user.ID,
		FullName:          req.FullName,
		Email:             req.Email,
		PhoneNumber:       req.PhoneNumber,
		LicenseNumber:     req.LicenseNumber,
		Tier:              models.TierAdvisor,
		CommissionSplit:   advisorDef.CommissionSplit,
		TierEffectiveDate: now,
		RecruitedBy:       recruitedBy,
		RecruitmentCode:   recruitmentCode,
		TeamID:            teamID,
		IsActive:          true,
		CreatedBy:         createdBy,
	}

	if err := ac.Agents.CreateAgent(ctx, &agent); err != nil {
		// Roll back the orphaned user account
		ac.DB.Collection("users").DeleteOne(ctx, bson.M{"_id": user.ID})

		if models.IsValidationError(err) {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create agent",
		})
	}

	// Link the user account back to its agent record
	ac.DB.Collection("users").UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"agentId": agent.ID}},
	)

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Agent created successfully",
		Data:    agent,
	})
}

// GetAgent retrieves an agent by id
func (ac *AgentController) GetAgent(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	agentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid agent ID format",
		})
	}

	agent, err := ac.Agents.GetAgent(ctx, agentID)
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

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Agent retrieved successfully",
		Data:    agent,
	})
}

// GetDownlines lists the agents directly recruited by the caller's agent
func (ac *AgentController) GetDownlines(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	agent := ac.callerAgent(ctx, c)
	if agent == nil {
		return nil
	}

	downlines, err := ac.Agents.GetDownlines(ctx, agent.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve downlines",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Downlines retrieved successfully",
		Data:    downlines,
	})
}

// GetRecruitmentQRCode returns a QR code image for the caller's recruitment
// code, base64-encoded for direct embedding.
func (ac *AgentController) GetRecruitmentQRCode(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	agent := ac.callerAgent(ctx, c)
	if agent == nil {
		return nil
	}

	content := fmt.Sprintf("https://agentpro.app/join?code=%s", agent.RecruitmentCode)
	qrCode, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}
	qrCode, err = barcode.Scale(qrCode, 300, 300)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to scale QR code",
		})
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qrCode); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to encode QR code",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Recruitment QR code generated successfully",
		Data: map[string]interface{}{
			"recruitmentCode": agent.RecruitmentCode,
			"recruitmentLink": content,
			"qrCode":          "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		},
	})
}

// UploadProfilePhoto stores a resized profile photo for the caller
func (ac *AgentController) UploadProfilePhoto(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	agent := ac.callerAgent(ctx, c)
	if agent == nil {
		return nil
	}

	file, err := c.FormFile("photo")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "photo file is required",
		})
	}

	url, err := utils.SaveProfilePhoto(file)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	if _, err := ac.DB.Collection("agents").UpdateOne(ctx,
		bson.M{"_id": agent.ID},
		bson.M{"$set": bson.M{"image": url, "updatedAt": time.Now()}},
	); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update profile photo",
		})
	}
	ac.Users.UpdateProfilePicture(agent.UserID, url)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Profile photo updated successfully",
		Data:    map[string]string{"image": url},
	})
}

// callerAgent resolves the agent record behind the authenticated user. A
// nil return means the error response has already been written.
func (ac *AgentController) callerAgent(ctx context.Context, c echo.Context) *models.Agent {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
		return nil
	}
	userObjID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
		return nil
	}

	agent, err := ac.Agents.GetAgentByUserID(ctx, userObjID)
	if err != nil {
		if errors.Is(err, models.ErrAgentNotFound) {
			c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "No agent record for this account",
			})
			return nil
		}
		c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load agent record",
		})
		return nil
	}
	return agent
}
