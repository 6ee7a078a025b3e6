// utils/commission.go
package utils

import (
	"math"

	"github.com/kwloft/agentpro_backend/models"
)

// Round2 rounds a monetary value to 2 decimal places using half-up rounding
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// CalculateCommission computes the full multi-level breakdown for a closed
// transaction. It is a pure function: no I/O, no clock, no partial results.
// The caller resolves tier and upline data before invoking it and stamps
// CalculatedAt on the result; identical inputs yield identical breakdowns.
//
// Order of operations:
//  1. representation split (direct vs co-broking) over the total commission
//  2. tier split of the agent's commission share into agent earnings and
//     company share
//  3. leadership bonus carved out of the company share when the downline
//     has an upline with a non-zero bonus rate
//
// All intermediates stay at full precision; only the bonus amount and the
// company net share are rounded, so rounding error never compounds across
// the breakdown.
func CalculateCommission(input models.CommissionInput) (*models.CommissionBreakdown, error) {
	if input.PropertyPrice <= 0 {
		return nil, models.NewValidationError("propertyPrice", "must be greater than zero")
	}
	if input.CommissionRate <= 0 || input.CommissionRate > 100 {
		return nil, models.NewValidationError("commissionRate", "must be greater than 0 and at most 100")
	}
	if input.CompanySplit <= 0 || input.CompanySplit > 100 {
		return nil, models.NewValidationError("companySplit", "must be greater than 0 and at most 100")
	}

	totalCommission := input.PropertyPrice * input.CommissionRate / 100

	var agentShare, coBrokerShare float64
	switch input.RepresentationType {
	case models.RepresentationDirect:
		agentShare = totalCommission
	case models.RepresentationCoBroking:
		coBrokerPct := models.DefaultCoBrokerSplit
		if input.CoBrokerSplitPct != nil {
			coBrokerPct = *input.CoBrokerSplitPct
		}
		if coBrokerPct < 0 || coBrokerPct > 100 {
			return nil, models.NewValidationError("coBrokerSplitPct", "must be between 0 and 100")
		}
		agentShare = totalCommission * (100 - coBrokerPct) / 100
		coBrokerShare = totalCommission - agentShare
	default:
		return nil, models.NewValidationError("representationType", "must be 'direct' or 'co_broking'")
	}

	// Derive the company share by subtraction rather than recomputing it
	// independently, so the two sides always sum back to the agent share.
	agentEarnings := agentShare * input.CompanySplit / 100
	companyShare := agentShare - agentEarnings

	breakdown := &models.CommissionBreakdown{
		PropertyPrice:        input.PropertyPrice,
		CommissionRate:       input.CommissionRate,
		TotalCommission:      totalCommission,
		RepresentationType:   input.RepresentationType,
		AgentCommissionShare: agentShare,
		CoBrokerShare:        coBrokerShare,
		AgentTier:            input.AgentTier,
		CompanySplit:         input.CompanySplit,
		AgentEarnings:        agentEarnings,
		CompanyShare:         companyShare,
		CompanyNetShare:      companyShare,
	}

	if input.Upline != nil && input.Upline.LeadershipBonusRate > 0 {
		bonusAmount := Round2(companyShare * input.Upline.LeadershipBonusRate / 100)
		breakdown.LeadershipBonus = &models.LeadershipBonusDetail{
			UplineID:   input.Upline.UplineID,
			UplineTier: input.Upline.UplineTier,
			Rate:       input.Upline.LeadershipBonusRate,
			Amount:     bonusAmount,
		}
		breakdown.CompanyNetShare = Round2(companyShare - bonusAmount)
	}

	return breakdown, nil
}
