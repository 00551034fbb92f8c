package orders

import "testing"

func TestTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusProcessed, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusPending, false},
		{StatusProcessed, StatusFailed, false},
		{StatusFailed, StatusProcessed, false},
		{StatusProcessed, StatusPending, false},
		{"shipped", StatusProcessed, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	if StatusPending.Terminal() {
		t.Error("pending is not terminal")
	}
	if !StatusProcessed.Terminal() || !StatusFailed.Terminal() {
		t.Error("processed and failed are terminal")
	}
	if Status("shipped").Terminal() || Status("shipped").Valid() {
		t.Error("unknown status is neither terminal nor valid")
	}
}
