package ledger

import (
	"errors"
	"testing"
)

func TestEvent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		wantErr error
	}{
		{
			name:  "valid click",
			event: Event{ContentID: "c1", UserID: "u1", Type: EventClick, DwellTime: 12},
		},
		{
			name:  "valid anonymous view",
			event: Event{ContentID: "c1", Type: EventView},
		},
		{
			name:  "valid bounce with zero dwell",
			event: Event{ContentID: "c1", Type: EventBounce, DwellTime: 0},
		},
		{
			name:    "missing content id",
			event:   Event{Type: EventClick},
			wantErr: ErrMissingContentID,
		},
		{
			name:    "unknown event type",
			event:   Event{ContentID: "c1", Type: "HOVER"},
			wantErr: ErrInvalidEventType,
		},
		{
			name:    "empty event type",
			event:   Event{ContentID: "c1"},
			wantErr: ErrInvalidEventType,
		},
		{
			name:    "negative dwell time",
			event:   Event{ContentID: "c1", Type: EventClick, DwellTime: -1},
			wantErr: ErrNegativeDwell,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidEventType(t *testing.T) {
	for _, et := range []EventType{EventView, EventClick, EventLike, EventShare, EventBounce} {
		if !ValidEventType(et) {
			t.Errorf("ValidEventType(%q) = false, want true", et)
		}
	}
	for _, et := range []EventType{"", "view", "SCROLL"} {
		if ValidEventType(et) {
			t.Errorf("ValidEventType(%q) = true, want false", et)
		}
	}
}
