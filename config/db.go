// config/db.go
package config

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectDB establishes connection to MongoDB
func ConnectDB() *mongo.Client {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = os.Getenv("MONGODB_URI")
	}

	// Only use the Docker service name as fallback in development
	if mongoURI == "" {
		env := os.Getenv("ENV")
		if env == "development" || env == "dev" {
			mongoURI = "mongodb://mongodb:27017"
		} else {
			log.Fatal("MONGO_URI or MONGODB_URI environment variable is required for production")
		}
	}

	log.Printf("Connecting to MongoDB at: %s", maskMongoURI(mongoURI))

	clientOptions := options.Client().ApplyURI(mongoURI)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Fatal("MongoDB connection error:", err)
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		log.Fatal("MongoDB ping error:", err)
	}

	log.Println("Connected to MongoDB")

	setupCollections(client)

	return client
}

// DatabaseName returns the configured database name
func DatabaseName() string {
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "agentpro"
	}
	return dbName
}

// GetCollection returns MongoDB collection
func GetCollection(client *mongo.Client, collectionName string) *mongo.Collection {
	return client.Database(DatabaseName()).Collection(collectionName)
}

// setupCollections ensures all necessary collections and indexes exist
func setupCollections(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := client.Database(DatabaseName())

	collections := []string{
		"users", "agents", "transactions",
		"tier_definitions", "tier_config_changelog", "tier_history",
		"leadership_bonuses",
		"commission_approvals", "approval_workflow_history",
		"notifications",
	}
	for _, collName := range collections {
		db.CreateCollection(ctx, collName)
	}

	// Email must be unique across user accounts
	userColl := db.Collection("users")
	emailIndexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := userColl.Indexes().CreateOne(ctx, emailIndexModel); err != nil {
		log.Printf("Error creating email index: %v", err)
	}

	// One approval per transaction is enforced here, not just in code
	approvalColl := db.Collection("commission_approvals")
	txnIndexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "transactionId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := approvalColl.Indexes().CreateOne(ctx, txnIndexModel); err != nil {
		log.Printf("Error creating transactionId index: %v", err)
	}

	agentColl := db.Collection("agents")
	agentIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "recruitedBy", Value: 1}}},
		{Keys: bson.D{{Key: "recruitmentCode", Value: 1}}, Options: options.Index().SetSparse(true)},
	}
	if _, err := agentColl.Indexes().CreateMany(ctx, agentIndexes); err != nil {
		log.Printf("Error creating agent indexes: %v", err)
	}

	bonusColl := db.Collection("leadership_bonuses")
	bonusIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "uplineAgentId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "transactionId", Value: 1}, {Key: "downlineAgentId", Value: 1}, {Key: "uplineAgentId", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := bonusColl.Indexes().CreateMany(ctx, bonusIndexes); err != nil {
		log.Printf("Error creating bonus payment indexes: %v", err)
	}

	// At most one active definition per tier. The partial filter keeps the
	// uniqueness constraint off superseded rows, and makes the insert side of
	// two concurrent first-time updates fail instead of both committing.
	tierColl := db.Collection("tier_definitions")
	tierIndexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "tierId", Value: 1}, {Key: "isActive", Value: 1}},
		Options: options.Index().SetUnique(true).
			SetPartialFilterExpression(bson.M{"isActive": true}),
	}
	if _, err := tierColl.Indexes().CreateOne(ctx, tierIndexModel); err != nil {
		log.Printf("Error creating tier definition index: %v", err)
	}

	historyColl := db.Collection("approval_workflow_history")
	historyIndexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "approvalId", Value: 1}, {Key: "createdAt", Value: 1}},
	}
	if _, err := historyColl.Indexes().CreateOne(ctx, historyIndexModel); err != nil {
		log.Printf("Error creating workflow history index: %v", err)
	}

	log.Println("Database collections and indexes setup complete")
}

// maskMongoURI masks the password in MongoDB URI for logging
func maskMongoURI(uri string) string {
	if idx := strings.Index(uri, "@"); idx > 0 {
		if colonIdx := strings.LastIndex(uri[:idx], ":"); colonIdx > 0 {
			return uri[:colonIdx+1] + "***" + uri[idx:]
		}
	}
	return uri
}
