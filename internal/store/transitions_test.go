package store

import "testing"

func TestValidTransition(t *testing.T) {
	cases := []struct {
		action string
		from   string
		valid  bool
	}{
		{"approve", "pending", true},
		{"approve", "approved", true},
		{"approve", "", false},
		{"reject", "pending", true},
		{"reject", "approved", false},
		{"delete", "pending", true},
		{"delete", "approved", true},
		{"delete", "rejected", false},
		{"unknown", "pending", false},
	}

	for _, tt := range cases {
		if got := ValidTransition(tt.action, tt.from); got != tt.valid {
			t.Fatalf("ValidTransition(%q, %q)=%v, want %v", tt.action, tt.from, got, tt.valid)
		}
	}
}

func TestRemovesBusiness(t *testing.T) {
	if RemovesBusiness(ActionApprove) {
		t.Fatal("approve must keep the business")
	}
	if !RemovesBusiness(ActionReject) || !RemovesBusiness(ActionDelete) {
		t.Fatal("reject and delete must remove the business")
	}
}
