package model

import "testing"

func TestStatusTransitionsAreForwardOnly(t *testing.T) {
	cases := []struct {
		from StatusKind
		to   StatusKind
		ok   bool
	}{
		{StatusBooked, StatusStarted, true},
		{StatusBooked, StatusClosed, true},
		{StatusBooked, StatusEnded, false},
		{StatusStarted, StatusEnded, true},
		{StatusStarted, StatusClosed, false},
		{StatusStarted, StatusBooked, false},
		{StatusEnded, StatusClosed, true},
		{StatusEnded, StatusStarted, false},
		{StatusClosed, StatusBooked, false},
		{StatusClosed, StatusStarted, false},
		{StatusClosed, StatusEnded, false},
	}
	for _, c := range cases {
		s := InstanceStatus{Kind: c.from}
		if got := s.CanBecome(c.to); got != c.ok {
			t.Errorf("%s -> %s = %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestRewardPercentLookup(t *testing.T) {
	inst := DungeonInstance{
		OutcomeRewards: []OutcomeReward{
			{Outcome: "VICTORY", Percent: 70},
			{Outcome: OutcomeTimeout, Percent: 10},
		},
	}
	if pct, ok := inst.RewardPercent("VICTORY"); !ok || pct != 70 {
		t.Fatalf("VICTORY -> %d/%v, want 70/true", pct, ok)
	}
	if pct, ok := inst.RewardPercent(OutcomeTimeout); !ok || pct != 10 {
		t.Fatalf("TIMEOUT -> %d/%v, want 10/true", pct, ok)
	}
	if _, ok := inst.RewardPercent("DRAW"); ok {
		t.Fatal("unknown outcome must not resolve")
	}
}
