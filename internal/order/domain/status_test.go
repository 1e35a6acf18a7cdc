package domain

import "testing"

func TestParseStatus(t *testing.T) {
	for _, s := range []Status{StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled} {
		got, ok := ParseStatus(string(s))
		if !ok || got != s {
			t.Fatalf("ParseStatus(%q) = %q, %v", s, got, ok)
		}
	}
	if _, ok := ParseStatus("Paused"); ok {
		t.Fatal("unknown status accepted")
	}
	if _, ok := ParseStatus(""); ok {
		t.Fatal("empty status accepted")
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusScheduled, StatusInProgress, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusScheduled, StatusCompleted, false},
		{StatusScheduled, StatusScheduled, false},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusInProgress, StatusScheduled, false},
		{StatusCompleted, StatusInProgress, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusScheduled, false},
		{StatusCancelled, StatusCompleted, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if StatusScheduled.IsTerminal() || StatusInProgress.IsTerminal() {
		t.Fatal("active statuses reported terminal")
	}
	if !StatusCompleted.IsTerminal() || !StatusCancelled.IsTerminal() {
		t.Fatal("terminal statuses not reported terminal")
	}
}
