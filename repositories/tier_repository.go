package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kwloft/agentpro_backend/models"
)

// tierCacheTTL keeps tier reads cheap; updateTier invalidates synchronously
// so a stale entry never outlives a config change.
const tierCacheTTL = 5 * time.Minute

// TierRepository is the tier configuration store. Reads go through a
// short-lived Redis cache; writes supersede the active definition in a
// mongo transaction and append a change-log entry.
type TierRepository struct {
	db    *mongo.Database
	cache *redis.Client
}

func NewTierRepository(db *mongo.Database, cache *redis.Client) *TierRepository {
	return &TierRepository{db: db, cache: cache}
}

func tierCacheKey(tierID string) string {
	return "tier:active:" + tierID
}

// GetActiveTier returns the currently active definition of a tier, falling
// back to the built-in default table when no row exists yet.
func (r *TierRepository) GetActiveTier(ctx context.Context, tierID string) (*models.TierDefinition, error) {
	if !models.IsValidTier(tierID) {
		return nil, models.NewValidationError("tierId", "unknown tier: "+tierID)
	}

	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, tierCacheKey(tierID)).Result(); err == nil {
			var def models.TierDefinition
			if err := json.Unmarshal([]byte(cached), &def); err == nil {
				return &def, nil
			}
		}
	}

	var def models.TierDefinition
	err := r.db.Collection("tier_definitions").FindOne(ctx, bson.M{
		"tierId":   tierID,
		"isActive": true,
	}).Decode(&def)
	if err == mongo.ErrNoDocuments {
		fallback := models.DefaultTierDefinitions()[tierID]
		def = fallback
	} else if err != nil {
		return nil, fmt.Errorf("%w: failed to load tier %s: %v", models.ErrPersistence, tierID, err)
	}

	r.cacheTier(ctx, &def)
	return &def, nil
}

// GetAllActiveTiers returns the active definition of every tier, in ladder order
func (r *TierRepository) GetAllActiveTiers(ctx context.Context) ([]models.TierDefinition, error) {
	tiers := []string{
		models.TierAdvisor,
		models.TierSalesLeader,
		models.TierTeamLeader,
		models.TierGroupLeader,
		models.TierSupremeLeader,
	}
	defs := make([]models.TierDefinition, 0, len(tiers))
	for _, id := range tiers {
		def, err := r.GetActiveTier(ctx, id)
		if err != nil {
			return nil, err
		}
		defs = append(defs, *def)
	}
	return defs, nil
}

// UpdateTier supersedes the active definition of a tier: the old row's
// effectiveTo is closed, a new active row is inserted, and a change-log
// entry capturing both versions is appended. All three writes happen in one
// mongo transaction so two concurrent updates cannot leave a broken
// effective-date chain.
func (r *TierRepository) UpdateTier(ctx context.Context, tierID string, req models.TierUpdateRequest, changedBy primitive.ObjectID) (*models.TierDefinition, error) {
	if !models.IsValidTier(tierID) {
		return nil, models.NewValidationError("tierId", "unknown tier: "+tierID)
	}
	if req.CommissionSplit < 0 || req.CommissionSplit > 100 {
		return nil, models.NewValidationError("commissionSplit", "must be between 0 and 100")
	}
	if req.LeadershipBonusRate < 0 || req.LeadershipBonusRate > 100 {
		return nil, models.NewValidationError("leadershipBonusRate", "must be between 0 and 100")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, models.NewValidationError("reason", "a change reason is required")
	}

	now := time.Now()
	newDef := models.TierDefinition{
		ID:                  primitive.NewObjectID(),
		TierID:              tierID,
		DisplayName:         req.DisplayName,
		CommissionSplit:     req.CommissionSplit,
		LeadershipBonusRate: req.LeadershipBonusRate,
		MinMonthlySales:     req.MinMonthlySales,
		MinTeamMembers:      req.MinTeamMembers,
		IsActive:            true,
		EffectiveFrom:       now,
		CreatedBy:           changedBy,
		CreatedAt:           now,
	}
	if newDef.DisplayName == "" {
		newDef.DisplayName = models.DefaultTierDefinitions()[tierID].DisplayName
	}

	session, err := r.db.Client().StartSession()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to start session: %v", models.ErrPersistence, err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		tierColl := r.db.Collection("tier_definitions")

		// Close the current active row, if any. Historic rows are never
		// mutated beyond their effectiveTo.
		var oldDef models.TierDefinition
		findErr := tierColl.FindOne(sc, bson.M{"tierId": tierID, "isActive": true}).Decode(&oldDef)
		var oldValues *models.TierDefinition
		if findErr == nil {
			oldValues = &oldDef
			_, updErr := tierColl.UpdateOne(sc,
				bson.M{"_id": oldDef.ID},
				bson.M{"$set": bson.M{"isActive": false, "effectiveTo": now}},
			)
			if updErr != nil {
				return nil, updErr
			}
		} else if findErr != mongo.ErrNoDocuments {
			return nil, findErr
		}

		if _, insErr := tierColl.InsertOne(sc, newDef); insErr != nil {
			return nil, insErr
		}

		changeLog := models.TierConfigChangeLog{
			ID:        primitive.NewObjectID(),
			TierID:    tierID,
			OldValues: oldValues,
			NewValues: newDef,
			ChangedBy: changedBy,
			Reason:    req.Reason,
			ChangedAt: now,
		}
		if _, logErr := r.db.Collection("tier_config_changelog").InsertOne(sc, changeLog); logErr != nil {
			return nil, logErr
		}

		return nil, nil
	})
	if err != nil {
		// The partial unique index on (tierId, isActive) aborts the loser of
		// two concurrent updates racing to insert the first active row.
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: tier %s was updated concurrently", models.ErrPersistence, tierID)
		}
		return nil, fmt.Errorf("%w: failed to update tier %s: %v", models.ErrPersistence, tierID, err)
	}

	r.invalidateTier(ctx, tierID)
	return &newDef, nil
}

// GetChangeLog returns the audit trail of configuration changes for a tier
func (r *TierRepository) GetChangeLog(ctx context.Context, tierID string) ([]models.TierConfigChangeLog, error) {
	cursor, err := r.db.Collection("tier_config_changelog").Find(ctx, bson.M{"tierId": tierID})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load change log: %v", models.ErrPersistence, err)
	}
	defer cursor.Close(ctx)

	var entries []models.TierConfigChangeLog
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("%w: failed to decode change log: %v", models.ErrPersistence, err)
	}
	return entries, nil
}

func (r *TierRepository) cacheTier(ctx context.Context, def *models.TierDefinition) {
	if r.cache == nil {
		return
	}
	payload, err := json.Marshal(def)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, tierCacheKey(def.TierID), payload, tierCacheTTL).Err(); err != nil {
		log.Printf("Warning: failed to cache tier %s: %v", def.TierID, err)
	}
}

func (r *TierRepository) invalidateTier(ctx context.Context, tierID string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Del(ctx, tierCacheKey(tierID)).Err(); err != nil {
		log.Printf("Warning: failed to invalidate tier cache for %s: %v", tierID, err)
	}
}
