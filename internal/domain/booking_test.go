package domain

import "testing"

func TestCounterDelta(t *testing.T) {
	cases := []struct {
		name      string
		oldStatus BookingStatus
		newStatus BookingStatus
		want      int
		wantErr   bool
	}{
		{"confirmed to cancelled releases a slot", BookingConfirmed, BookingCancelled, 1, false},
		{"cancelled to confirmed takes a slot", BookingCancelled, BookingConfirmed, -1, false},
		{"confirmed to completed is counter neutral", BookingConfirmed, BookingCompleted, 0, false},
		{"confirmed to confirmed is a no-op", BookingConfirmed, BookingConfirmed, 0, false},
		{"cancelled to cancelled is a no-op", BookingCancelled, BookingCancelled, 0, false},
		{"completed to completed is a no-op", BookingCompleted, BookingCompleted, 0, false},
		{"completed is terminal (to confirmed)", BookingCompleted, BookingConfirmed, 0, true},
		{"completed is terminal (to cancelled)", BookingCompleted, BookingCancelled, 0, true},
		{"cancelled cannot complete directly", BookingCancelled, BookingCompleted, 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CounterDelta(tc.oldStatus, tc.newStatus)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("CounterDelta(%s, %s): expected error, got delta %d", tc.oldStatus, tc.newStatus, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("CounterDelta(%s, %s): unexpected error: %v", tc.oldStatus, tc.newStatus, err)
			}
			if got != tc.want {
				t.Fatalf("CounterDelta(%s, %s) = %d, want %d", tc.oldStatus, tc.newStatus, got, tc.want)
			}
		})
	}
}

func TestParseBookingStatus(t *testing.T) {
	for _, valid := range []string{"Confirmed", "Completed", "Cancelled"} {
		if _, err := ParseBookingStatus(valid); err != nil {
			t.Fatalf("ParseBookingStatus(%q): unexpected error: %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "confirmed", "Pending", "CANCELLED"} {
		if _, err := ParseBookingStatus(invalid); err == nil {
			t.Fatalf("ParseBookingStatus(%q): expected error", invalid)
		}
	}
}

func TestHoldsSlot(t *testing.T) {
	if !BookingConfirmed.HoldsSlot() {
		t.Fatal("Confirmed must hold a slot")
	}
	if BookingCompleted.HoldsSlot() || BookingCancelled.HoldsSlot() {
		t.Fatal("only Confirmed holds a slot")
	}
}
