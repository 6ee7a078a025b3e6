package models

import "testing"

func TestCanTransitionBonusStatus(t *testing.T) {
	t.Parallel()

	if !CanTransitionBonusStatus(BonusStatusPending, BonusStatusPaid) {
		t.Fatalf("pending -> paid should be allowed")
	}
	if !CanTransitionBonusStatus(BonusStatusPending, BonusStatusCancelled) {
		t.Fatalf("pending -> cancelled should be allowed")
	}

	denied := []struct{ from, to string }{
		{BonusStatusPaid, BonusStatusCancelled},
		{BonusStatusPaid, BonusStatusPending},
		{BonusStatusCancelled, BonusStatusPaid},
		{BonusStatusCancelled, BonusStatusPending},
		{BonusStatusPending, BonusStatusPending},
		{BonusStatusPending, "refunded"},
	}
	for _, tc := range denied {
		if CanTransitionBonusStatus(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be denied", tc.from, tc.to)
		}
	}
}
