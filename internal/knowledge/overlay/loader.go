// internal/knowledge/overlay/loader.go
package overlay

import (
	"context"
	"errors"

	"expo-chat-workers/internal/knowledge/tree"
)

// ErrNotAvailable is returned by every loader for any failure mode:
// missing record, unreadable file, malformed content. The builder treats
// it as an empty layer; it is never surfaced past the knowledge build.
var ErrNotAvailable = errors.New("OVERLAY_NOT_AVAILABLE")

// Source tags used in logs and metrics.
const (
	SourceDatabase = "database"
	SourceJSONFile = "json-file"
	SourceCSVFile  = "csv-file"
)

// Loader produces one overlay layer. Implementations never panic; all
// failures come back as ErrNotAvailable (possibly wrapped with a cause).
type Loader interface {
	Source() string
	Load(ctx context.Context) (tree.Tree, error)
}
