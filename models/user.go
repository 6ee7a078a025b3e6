// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User model. UserType is one of "admin", "team_lead" or "agent"; authorization
// checks treat it as an opaque role string resolved fresh on every call.
type User struct {
	ID             primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Email          string              `json:"email" bson:"email"`
	Password       string              `json:"password,omitempty" bson:"password"`
	FullName       string              `json:"fullName" bson:"fullName"`
	UserType       string              `json:"userType" bson:"userType"`
	IsActive       bool                `json:"isActive" bson:"isActive"`
	Phone          string              `json:"phone,omitempty" bson:"phone,omitempty"`
	AgentID        *primitive.ObjectID `json:"agentId,omitempty" bson:"agentId,omitempty"`
	ProfilePic     string              `json:"profilePic,omitempty" bson:"profilePic,omitempty"`
	FCMToken       string              `json:"fcmToken,omitempty" bson:"fcmToken,omitempty"`
	LastActivityAt time.Time           `json:"lastActivityAt" bson:"lastActivityAt"`
	CreatedAt      time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// User types understood by the authorization middleware
const (
	UserTypeAdmin    = "admin"
	UserTypeTeamLead = "team_lead"
	UserTypeAgent    = "agent"
)

// LoginRequest model
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse model
type LoginResponse struct {
	Token    string `json:"token"`
	User     User   `json:"user"`
	UserType string `json:"userType"`
}

// Response is the standard JSON envelope returned by every endpoint
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
