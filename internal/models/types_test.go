package models

import (
	"testing"
	"time"
)

func TestIsTerminal(t *testing.T) {
	t.Parallel()

	for _, s := range []ClaimStatus{StatusApproved, StatusRejected} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []ClaimStatus{StatusSubmitted, StatusProcessing, StatusUnderReview} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to ClaimStatus
		want     bool
	}{
		{StatusUnderReview, StatusApproved, true},
		{StatusUnderReview, StatusRejected, true},
		{StatusProcessing, StatusApproved, true},
		{StatusProcessing, StatusUnderReview, true},
		{StatusSubmitted, StatusUnderReview, true},

		{StatusSubmitted, StatusApproved, false},
		{StatusApproved, StatusRejected, false},
		{StatusRejected, StatusUnderReview, false},
		{StatusApproved, StatusApproved, false},
		{StatusUnderReview, ClaimStatus("archived"), false},
		{StatusUnderReview, ClaimStatus(""), false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestCreatedAtTime(t *testing.T) {
	t.Parallel()

	c := Claim{CreatedAt: "2026-03-15T12:00:00Z"}
	want := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	if !c.CreatedAtTime().Equal(want) {
		t.Errorf("CreatedAtTime = %v, want %v", c.CreatedAtTime(), want)
	}

	if !(Claim{CreatedAt: "not a date"}).CreatedAtTime().IsZero() {
		t.Error("expected zero time for unparseable timestamp")
	}
	if !(Claim{}).CreatedAtTime().IsZero() {
		t.Error("expected zero time for missing timestamp")
	}
}

func TestStartDateTime(t *testing.T) {
	t.Parallel()

	p := Policy{StartDate: "2025-01-31"}
	want := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
	if !p.StartDateTime().Equal(want) {
		t.Errorf("StartDateTime = %v, want %v", p.StartDateTime(), want)
	}
	if !(Policy{}).StartDateTime().IsZero() {
		t.Error("expected zero time for missing start date")
	}
}
