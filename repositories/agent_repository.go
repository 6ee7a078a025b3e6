package repositories

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kwloft/agentpro_backend/models"
)

// AgentRepository handles agent records, the one-hop upline resolution and
// the tier promotion workflow.
type AgentRepository struct {
	db    *mongo.Database
	tiers *TierRepository
}

func NewAgentRepository(db *mongo.Database, tiers *TierRepository) *AgentRepository {
	return &AgentRepository{db: db, tiers: tiers}
}

// GetAgent loads an agent by id
func (r *AgentRepository) GetAgent(ctx context.Context, agentID primitive.ObjectID) (*models.Agent, error) {
	var agent models.Agent
	err := r.db.Collection("agents").FindOne(ctx, bson.M{"_id": agentID}).Decode(&agent)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrAgentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load agent: %v", models.ErrPersistence, err)
	}
	return &agent, nil
}

// GetAgentByUserID loads the agent record linked to a user account
func (r *AgentRepository) GetAgentByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Agent, error) {
	var agent models.Agent
	err := r.db.Collection("agents").FindOne(ctx, bson.M{"userId": userID}).Decode(&agent)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrAgentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load agent: %v", models.ErrPersistence, err)
	}
	return &agent, nil
}

// CreateAgent inserts a new agent. Self-recruitment is impossible here
// because the agent id does not exist yet; the recruiter reference is
// validated against the agents collection.
func (r *AgentRepository) CreateAgent(ctx context.Context, agent *models.Agent) error {
	if agent.RecruitedBy != nil {
		if _, err := r.GetAgent(ctx, *agent.RecruitedBy); err != nil {
			if errors.Is(err, models.ErrAgentNotFound) {
				return models.NewValidationError("recruitedBy", "recruiting agent does not exist")
			}
			return err
		}
	}

	now := time.Now()
	agent.ID = primitive.NewObjectID()
	agent.CreatedAt = now
	agent.UpdatedAt = now
	if agent.Tier == "" {
		agent.Tier = models.TierAdvisor
	}

	if _, err := r.db.Collection("agents").InsertOne(ctx, agent); err != nil {
		return fmt.Errorf("%w: failed to create agent: %v", models.ErrPersistence, err)
	}

	// First tier assignment starts the audit trail. PreviousTier stays empty
	// so the row is distinguishable from a promotion.
	history := models.TierHistoryEntry{
		ID:         primitive.NewObjectID(),
		AgentID:    agent.ID,
		NewTier:    agent.Tier,
		PromotedBy: agent.CreatedBy,
		Reason:     "initial tier assignment",
		CreatedAt:  now,
	}
	if _, err := r.db.Collection("tier_history").InsertOne(ctx, history); err != nil {
		log.Printf("Warning: failed to record initial tier assignment for agent %s: %v", agent.ID.Hex(), err)
	}

	// New recruit counts toward the upline's team size. $inc keeps the
	// counter safe under concurrent recruitment.
	if agent.RecruitedBy != nil {
		_, err := r.db.Collection("agents").UpdateOne(ctx,
			bson.M{"_id": *agent.RecruitedBy},
			bson.M{"$inc": bson.M{"teamMembers": 1}},
		)
		if err != nil {
			log.Printf("Warning: failed to increment team size for upline %s: %v", agent.RecruitedBy.Hex(), err)
		}
	}
	return nil
}

// GetDownlines lists the agents directly recruited by an upline
func (r *AgentRepository) GetDownlines(ctx context.Context, uplineID primitive.ObjectID) ([]models.Agent, error) {
	cursor, err := r.db.Collection("agents").Find(ctx, bson.M{"recruitedBy": uplineID})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load downlines: %v", models.ErrPersistence, err)
	}
	defer cursor.Close(ctx)

	var downlines []models.Agent
	if err := cursor.All(ctx, &downlines); err != nil {
		return nil, fmt.Errorf("%w: failed to decode downlines: %v", models.ErrPersistence, err)
	}
	return downlines, nil
}

// ResolveUpline returns the one-level recruiter of an agent along with the
// leadership-bonus rate of the upline's current tier. The traversal is
// strictly one hop: the leadership bonus is a single-level benefit.
//
// A nil result with a nil error means no bonus applies. A dangling
// recruitedBy reference degrades to nil rather than failing the surrounding
// commission calculation.
func (r *AgentRepository) ResolveUpline(ctx context.Context, agentID primitive.ObjectID) (*models.UplineInfo, error) {
	agent, err := r.GetAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if agent.RecruitedBy == nil {
		return nil, nil
	}

	upline, err := r.GetAgent(ctx, *agent.RecruitedBy)
	if err != nil {
		if errors.Is(err, models.ErrAgentNotFound) {
			log.Printf("Warning: agent %s has dangling recruitedBy %s, treating as no upline",
				agentID.Hex(), agent.RecruitedBy.Hex())
			return nil, nil
		}
		return nil, err
	}

	tierDef, err := r.tiers.GetActiveTier(ctx, upline.Tier)
	if err != nil {
		return nil, err
	}

	return &models.UplineInfo{
		UplineID:            upline.ID,
		UplineTier:          upline.Tier,
		LeadershipBonusRate: tierDef.LeadershipBonusRate,
	}, nil
}

// PromoteAgent moves an agent up the tier ladder. Demotions are rejected
// outright: lowering a tier goes through a separate process, not this one.
// The agent update and the history entry are written in one transaction so
// neither can exist without the other.
//
// Eligibility against the target tier's thresholds is advisory and checked
// by the caller; PromoteAgent itself does not enforce it.
func (r *AgentRepository) PromoteAgent(ctx context.Context, agentID primitive.ObjectID, newTier string, promotedBy primitive.ObjectID, reason string, performance *models.PerformanceMetrics) (*models.PromotionResult, error) {
	agent, err := r.GetAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}

	if err := models.ValidatePromotionTarget(agent.Tier, newTier); err != nil {
		return nil, err
	}

	tierDef, err := r.tiers.GetActiveTier(ctx, newTier)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	history := models.TierHistoryEntry{
		ID:           primitive.NewObjectID(),
		AgentID:      agentID,
		PreviousTier: agent.Tier,
		NewTier:      newTier,
		PromotedBy:   promotedBy,
		Reason:       reason,
		Performance:  performance,
		CreatedAt:    now,
	}

	session, err := r.db.Client().StartSession()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to start session: %v", models.ErrPersistence, err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res, updErr := r.db.Collection("agents").UpdateOne(sc,
			bson.M{"_id": agentID},
			bson.M{"$set": bson.M{
				"tier":              newTier,
				"commissionSplit":   tierDef.CommissionSplit,
				"tierEffectiveDate": now,
				"promotedBy":        promotedBy,
				"updatedAt":         now,
			}},
		)
		if updErr != nil {
			return nil, updErr
		}
		if res.MatchedCount == 0 {
			return nil, models.ErrAgentNotFound
		}
		if _, insErr := r.db.Collection("tier_history").InsertOne(sc, history); insErr != nil {
			return nil, insErr
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, models.ErrAgentNotFound) {
			return nil, models.ErrAgentNotFound
		}
		return nil, fmt.Errorf("%w: promotion failed: %v", models.ErrPersistence, err)
	}

	return &models.PromotionResult{
		AgentID:       agentID,
		PreviousTier:  agent.Tier,
		NewTier:       newTier,
		NewSplit:      tierDef.CommissionSplit,
		EffectiveDate: now,
	}, nil
}

// GetTierHistory returns the append-only tier audit trail for an agent
func (r *AgentRepository) GetTierHistory(ctx context.Context, agentID primitive.ObjectID) ([]models.TierHistoryEntry, error) {
	cursor, err := r.db.Collection("tier_history").Find(ctx, bson.M{"agentId": agentID})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load tier history: %v", models.ErrPersistence, err)
	}
	defer cursor.Close(ctx)

	var entries []models.TierHistoryEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("%w: failed to decode tier history: %v", models.ErrPersistence, err)
	}
	return entries, nil
}

// IncrementMonthlySales bumps an agent's monthly sales counter atomically at
// the storage layer. Never read-modify-write this counter in application
// code; concurrent closings would lose updates.
func (r *AgentRepository) IncrementMonthlySales(ctx context.Context, agentID primitive.ObjectID) error {
	res, err := r.db.Collection("agents").UpdateOne(ctx,
		bson.M{"_id": agentID},
		bson.M{"$inc": bson.M{"monthlySales": 1}},
	)
	if err != nil {
		return fmt.Errorf("%w: failed to increment monthly sales: %v", models.ErrPersistence, err)
	}
	if res.MatchedCount == 0 {
		return models.ErrAgentNotFound
	}
	return nil
}
