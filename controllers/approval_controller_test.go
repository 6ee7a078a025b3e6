package controllers

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kwloft/agentpro_backend/models"
)

func TestReviewerScopeAdminPassesThrough(t *testing.T) {
	t.Parallel()

	filter := bson.M{"status": models.ApprovalStatusPending}
	reviewerScope(filter, models.UserTypeAdmin, nil)
	if _, ok := filter["agentId"]; ok {
		t.Fatalf("admin queries must not be narrowed to a team, got %v", filter)
	}
}

func TestReviewerScopeTeamLeadNarrowsToTeam(t *testing.T) {
	t.Parallel()

	teamIDs := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()}
	filter := bson.M{"status": models.ApprovalStatusPending}
	reviewerScope(filter, models.UserTypeTeamLead, teamIDs)

	clause, ok := filter["agentId"].(bson.M)
	if !ok {
		t.Fatalf("team lead query should constrain agentId, got %v", filter)
	}
	in, ok := clause["$in"].([]primitive.ObjectID)
	if !ok || len(in) != len(teamIDs) {
		t.Fatalf("agentId clause = %v, want $in over %d ids", clause, len(teamIDs))
	}
}

func TestReviewerScopeOverdueFilter(t *testing.T) {
	t.Parallel()

	// The overdue queue uses the same scoping as the main queue: a team
	// lead never sees another team's pending items through it.
	filter := bson.M{
		"status":  models.ApprovalStatusPending,
		"dueDate": bson.M{"$lt": time.Now()},
	}
	reviewerScope(filter, models.UserTypeTeamLead, []primitive.ObjectID{})

	clause, ok := filter["agentId"].(bson.M)
	if !ok {
		t.Fatalf("overdue query should constrain agentId, got %v", filter)
	}
	in, ok := clause["$in"].([]primitive.ObjectID)
	if !ok || len(in) != 0 {
		t.Fatalf("a lead without a team should match no agents, got %v", clause)
	}
	if _, ok := filter["dueDate"]; !ok {
		t.Fatalf("scoping must keep the due-date constraint, got %v", filter)
	}
}
