package world

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"

	"github.com/DavidAlphaFox/erlymud/internal/storage"
)

// Extension is the fixed suffix of room files. A room's id is its filename
// minus this extension.
const Extension = ".json"

var roomIdPattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

// Loader resolves a room id to its durable record. The Manager depends on
// this interface so tests can count or fail loads.
type Loader interface {
	Load(id string) (*Record, error)
}

// Source loads room records from `<dir>/rooms/<id>.json`. Every failure
// mode short of a valid record — missing file, broken JSON, failed
// validation, mismatched id — collapses into ErrRoomNotFound so callers
// cannot observe storage-layer detail. The underlying cause is logged.
type Source struct {
	dir string
}

func NewSource(dir string) *Source {
	return &Source{dir: dir}
}

func (s *Source) Load(id string) (*Record, error) {
	if !roomIdPattern.MatchString(id) {
		return nil, fmt.Errorf("room %q: %w", id, ErrRoomNotFound)
	}

	path := filepath.Join(s.dir, "rooms", id+Extension)

	asset, err := storage.LoadAsset[*Record](path)
	if err != nil {
		slog.Debug("room load failed", "room", id, "error", err)
		return nil, fmt.Errorf("room %q: %w", id, ErrRoomNotFound)
	}

	if err := asset.Validate(); err != nil {
		slog.Warn("room file failed validation", "room", id, "error", err)
		return nil, fmt.Errorf("room %q: %w", id, ErrRoomNotFound)
	}

	if asset.Id() != id {
		slog.Warn("room file id does not match filename", "room", id, "file_id", asset.Id())
		return nil, fmt.Errorf("room %q: %w", id, ErrRoomNotFound)
	}

	return asset.Spec, nil
}
