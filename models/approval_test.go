package models

import (
	"testing"
	"time"
)

func TestSLAHoursForPriority(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		PriorityLow:    72,
		PriorityNormal: 48,
		PriorityHigh:   24,
		PriorityUrgent: 4,
	}
	for priority, want := range cases {
		if got := SLAHoursForPriority(priority); got != want {
			t.Fatalf("SLA for %s = %d, want %d", priority, got, want)
		}
	}
	if got := SLAHoursForPriority("unknown"); got != 48 {
		t.Fatalf("unknown priority should fall back to normal, got %d", got)
	}
}

func TestDueDateForPriority(t *testing.T) {
	t.Parallel()

	submitted := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	due := DueDateForPriority(PriorityUrgent, submitted)
	if want := submitted.Add(4 * time.Hour); !due.Equal(want) {
		t.Fatalf("urgent due date = %v, want %v", due, want)
	}
	due = DueDateForPriority(PriorityLow, submitted)
	if want := submitted.Add(72 * time.Hour); !due.Equal(want) {
		t.Fatalf("low due date = %v, want %v", due, want)
	}
}

func TestIsValidPriority(t *testing.T) {
	t.Parallel()

	for _, p := range []string{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent} {
		if !IsValidPriority(p) {
			t.Fatalf("expected %s to be valid", p)
		}
	}
	if IsValidPriority("") || IsValidPriority("critical") {
		t.Fatalf("expected unknown priorities to be invalid")
	}
}

func TestCanTransitionApproval(t *testing.T) {
	t.Parallel()

	allowed := []struct{ from, to string }{
		{ApprovalStatusPending, ApprovalStatusApproved},
		{ApprovalStatusPending, ApprovalStatusRejected},
		{ApprovalStatusPending, ApprovalStatusRequiresRevision},
		{ApprovalStatusRequiresRevision, ApprovalStatusPending},
	}
	for _, tc := range allowed {
		if !CanTransitionApproval(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to string }{
		{ApprovalStatusApproved, ApprovalStatusRejected},
		{ApprovalStatusApproved, ApprovalStatusPending},
		{ApprovalStatusRejected, ApprovalStatusApproved},
		{ApprovalStatusRejected, ApprovalStatusPending},
		{ApprovalStatusRequiresRevision, ApprovalStatusApproved},
		{ApprovalStatusPending, ApprovalStatusPending},
	}
	for _, tc := range denied {
		if CanTransitionApproval(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be denied", tc.from, tc.to)
		}
	}
}

func TestIsReviewerDecision(t *testing.T) {
	t.Parallel()

	for _, status := range []string{ApprovalStatusApproved, ApprovalStatusRejected, ApprovalStatusRequiresRevision} {
		if !IsReviewerDecision(status) {
			t.Fatalf("expected %s to be a reviewer decision", status)
		}
	}
	if IsReviewerDecision("") || IsReviewerDecision("escalated") {
		t.Fatalf("unknown statuses are not reviewer decisions")
	}

	// The transition table allows requires_revision -> pending for the
	// agent's resubmission, but a reviewer must never drive that edge.
	if !CanTransitionApproval(ApprovalStatusRequiresRevision, ApprovalStatusPending) {
		t.Fatalf("resubmission edge should stay open for agents")
	}
	if IsReviewerDecision(ApprovalStatusPending) {
		t.Fatalf("pending must not be a reviewer decision target")
	}
}

func TestActionForTransition(t *testing.T) {
	t.Parallel()

	if got := ActionForTransition(ApprovalStatusPending, ApprovalStatusApproved); got != ActionApprove {
		t.Fatalf("approve action = %s", got)
	}
	if got := ActionForTransition(ApprovalStatusPending, ApprovalStatusRejected); got != ActionReject {
		t.Fatalf("reject action = %s", got)
	}
	if got := ActionForTransition(ApprovalStatusPending, ApprovalStatusRequiresRevision); got != ActionRevise {
		t.Fatalf("revise action = %s", got)
	}
	if got := ActionForTransition(ApprovalStatusRequiresRevision, ApprovalStatusPending); got != ActionSubmit {
		t.Fatalf("resubmission action = %s, want %s", got, ActionSubmit)
	}
}

func TestIsOverdue(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC)
	approval := CommissionApproval{
		Status:  ApprovalStatusPending,
		DueDate: now.Add(-time.Hour),
	}
	if !approval.IsOverdue(now) {
		t.Fatalf("pending approval past its due date should be overdue")
	}

	approval.DueDate = now.Add(time.Hour)
	if approval.IsOverdue(now) {
		t.Fatalf("pending approval before its due date should not be overdue")
	}

	approval.Status = ApprovalStatusApproved
	approval.DueDate = now.Add(-time.Hour)
	if approval.IsOverdue(now) {
		t.Fatalf("decided approvals are never overdue")
	}
}
