package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
)

func TestEncodeDecodeArchive(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	events := []Event{
		{ID: "ev-1", ContentID: "c1", UserID: "u1", Type: EventClick, DwellTime: 15, CreatedAt: start.Add(time.Hour)},
		{ID: "ev-2", ContentID: "c2", Type: EventBounce, DwellTime: 1, CreatedAt: start.Add(2 * time.Hour)},
	}

	data, err := EncodeArchive(start, end, events)
	if err != nil {
		t.Fatalf("EncodeArchive() error: %v", err)
	}

	archive, err := DecodeArchive(data)
	if err != nil {
		t.Fatalf("DecodeArchive() error: %v", err)
	}

	if archive.Version != archiveVersion {
		t.Errorf("Version = %d, want %d", archive.Version, archiveVersion)
	}
	if !archive.WindowStart.Equal(start) || !archive.WindowEnd.Equal(end) {
		t.Errorf("window = [%v, %v), want [%v, %v)", archive.WindowStart, archive.WindowEnd, start, end)
	}
	if len(archive.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(archive.Events))
	}
	if archive.Events[0].ID != "ev-1" || archive.Events[0].Type != EventClick {
		t.Errorf("unexpected first event: %+v", archive.Events[0])
	}
	if archive.Events[1].UserID != "" {
		t.Errorf("anonymous user id should survive the round trip empty, got %q", archive.Events[1].UserID)
	}
}

func TestEncodeArchive_Empty(t *testing.T) {
	_, err := EncodeArchive(time.Now(), time.Now(), nil)
	if !errors.Is(err, ErrEmptyArchive) {
		t.Errorf("EncodeArchive(nil) = %v, want ErrEmptyArchive", err)
	}
}

func TestDecodeArchive_Garbage(t *testing.T) {
	_, err := DecodeArchive([]byte{0xff, 0x00, 0x13})
	if !errors.Is(err, ErrInvalidArchive) {
		t.Errorf("DecodeArchive(garbage) = %v, want ErrInvalidArchive", err)
	}
}

func TestDecodeArchive_UnsupportedVersion(t *testing.T) {
	data, err := cbor.Marshal(Archive{
		Version: 99,
		Events:  []Event{{ID: "ev-1", ContentID: "c1", Type: EventView}},
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = DecodeArchive(data)
	if !errors.Is(err, ErrInvalidArchive) {
		t.Errorf("DecodeArchive(v99) = %v, want ErrInvalidArchive", err)
	}
}
