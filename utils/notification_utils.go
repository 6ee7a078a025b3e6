package utils

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"firebase.google.com/go/v4/messaging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/gomail.v2"

	"github.com/kwloft/agentpro_backend/config"
	"github.com/kwloft/agentpro_backend/models"
)

// SaveNotification saves an in-app notification to the database
func SaveNotification(db *mongo.Database, userID primitive.ObjectID, title, message, notifType string, data interface{}) error {
	notification := models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      notifType,
		Data:      data,
		IsRead:    false,
		CreatedAt: time.Now(),
	}

	_, err := db.Collection("notifications").InsertOne(context.Background(), notification)
	return err
}

// SendPushNotification delivers a push message to a user's registered
// device. Missing Firebase configuration or a missing FCM token is not an
// error; the in-app record is the source of truth.
func SendPushNotification(db *mongo.Database, userID primitive.ObjectID, title, message string) {
	if config.FirebaseApp == nil {
		return
	}

	var user models.User
	err := db.Collection("users").FindOne(context.Background(), bson.M{"_id": userID}).Decode(&user)
	if err != nil || user.FCMToken == "" {
		return
	}

	client, err := config.FirebaseApp.Messaging(context.Background())
	if err != nil {
		log.Printf("Warning: failed to create messaging client: %v", err)
		return
	}

	_, err = client.Send(context.Background(), &messaging.Message{
		Token: user.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  message,
		},
	})
	if err != nil {
		log.Printf("Warning: failed to send push notification to %s: %v", userID.Hex(), err)
	}
}

// SendEmail sends a plain-text email through the configured SMTP relay
func SendEmail(to, subject, body string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	if smtpHost == "" {
		return fmt.Errorf("SMTP_HOST is not configured")
	}

	smtpPort := 587
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			smtpPort = port
		}
	}

	m := gomail.NewMessage()
	m.SetHeader("From", smtpUser)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)
	return d.DialAndSend(m)
}

// NotifyApprovalDecision informs an agent that a reviewer decided on their
// commission approval, by in-app record, push and email.
func NotifyApprovalDecision(db *mongo.Database, approval *models.CommissionApproval, decision string) {
	var agent models.Agent
	err := db.Collection("agents").FindOne(context.Background(), bson.M{"_id": approval.AgentID}).Decode(&agent)
	if err != nil {
		log.Printf("Warning: failed to find agent %s for approval notification: %v", approval.AgentID.Hex(), err)
		return
	}

	title := "Commission approval " + decision
	message := fmt.Sprintf("Your commission approval for %.2f has been marked %s.", approval.RequestedAmount, decision)

	if err := SaveNotification(db, agent.UserID, title, message, "approval_decision", approval); err != nil {
		log.Printf("Warning: failed to save approval notification: %v", err)
	}
	SendPushNotification(db, agent.UserID, title, message)

	if agent.Email != "" {
		body := fmt.Sprintf("Dear %s,\n\n%s\n\nBest regards,\nBack Office", agent.FullName, message)
		if err := SendEmail(agent.Email, title, body); err != nil {
			log.Printf("Warning: failed to send approval email to %s: %v", agent.Email, err)
		}
	}
}

// NotifyLeadershipBonus informs an upline that a bonus obligation was
// recorded on a downline's closed transaction.
func NotifyLeadershipBonus(db *mongo.Database, payment *models.LeadershipBonusPayment) {
	var upline models.Agent
	err := db.Collection("agents").FindOne(context.Background(), bson.M{"_id": payment.UplineAgentID}).Decode(&upline)
	if err != nil {
		log.Printf("Warning: failed to find upline %s for bonus notification: %v", payment.UplineAgentID.Hex(), err)
		return
	}

	title := "Leadership bonus recorded"
	message := fmt.Sprintf("A leadership bonus of %.2f is pending from a downline transaction.", payment.BonusAmount)

	if err := SaveNotification(db, upline.UserID, title, message, "leadership_bonus", payment); err != nil {
		log.Printf("Warning: failed to save bonus notification: %v", err)
	}
	SendPushNotification(db, upline.UserID, title, message)
}
