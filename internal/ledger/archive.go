package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Archive encoding errors.
var (
	ErrEmptyArchive   = errors.New("archive contains no events")
	ErrInvalidArchive = errors.New("invalid archive data")
)

// archiveVersion is bumped when the archive layout changes.
const archiveVersion = 1

// Archive is the cold-storage representation of a window of
// interaction events, encoded as CBOR for compactness. Archived
// windows are immutable, like the ledger rows they snapshot.
type Archive struct {
	Version     int       `cbor:"version"`
	WindowStart time.Time `cbor:"window_start"`
	WindowEnd   time.Time `cbor:"window_end"`
	Events      []Event   `cbor:"events"`
}

// EncodeArchive packs a window of events into a CBOR archive blob.
func EncodeArchive(start, end time.Time, events []Event) ([]byte, error) {
	if len(events) == 0 {
		return nil, ErrEmptyArchive
	}

	data, err := cbor.Marshal(Archive{
		Version:     archiveVersion,
		WindowStart: start,
		WindowEnd:   end,
		Events:      events,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode archive: %w", err)
	}
	return data, nil
}

// DecodeArchive unpacks a CBOR archive blob.
func DecodeArchive(data []byte) (*Archive, error) {
	var archive Archive
	if err := cbor.Unmarshal(data, &archive); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	if archive.Version != archiveVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidArchive, archive.Version)
	}
	return &archive, nil
}
