package utils

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

// RecruitmentCodePrefix marks codes handed out by agents to recruits
const RecruitmentCodePrefix = "AGT"

// GenerateRecruitmentCode generates a unique recruitment code an agent can
// share with prospective recruits.
// Format: AGT-{RANDOM} where RANDOM is 6 alphanumeric characters.
// Example: AGT-ABC123
func GenerateRecruitmentCode() (string, error) {
	// 4 random bytes give us 6 characters in base32
	randomBytes := make([]byte, 4)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return "", err
	}

	randomStr := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	randomStr = randomStr[:6]

	randomStr = strings.ToUpper(randomStr)
	randomStr = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, randomStr)

	if len(randomStr) < 6 {
		randomStr = randomStr + strings.Repeat("0", 6-len(randomStr))
	}

	return RecruitmentCodePrefix + "-" + randomStr, nil
}

// BonusReferencePrefix marks ledger references for leadership bonus payments
const BonusReferencePrefix = "LBP"

// GenerateBonusReference generates a human-readable reference for a
// leadership bonus ledger entry.
// Format: LBP-{RANDOM} where RANDOM is 8 alphanumeric characters.
func GenerateBonusReference() (string, error) {
	randomBytes := make([]byte, 5)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}

	randomStr := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	randomStr = strings.ToUpper(randomStr[:8])

	return BonusReferencePrefix + "-" + randomStr, nil
}
