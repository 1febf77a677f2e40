// internal/knowledge/builder.go
package knowledge

import (
	"context"

	"expo-chat-workers/internal/common/logger"
	"expo-chat-workers/internal/common/metrics"
	"expo-chat-workers/internal/knowledge/overlay"
	"expo-chat-workers/internal/knowledge/tree"
)

// Builder composes the knowledge tree a chat reply is resolved against:
// static baseline first, then each overlay source in precedence order
// (database, JSON file, CSV file — later layers win at matching paths).
// An unavailable source is logged and skipped; the build itself never
// fails. Safe for concurrent callers; the database loader's single-slot
// cache is the only shared mutable state underneath.
type Builder struct {
	baseline tree.Tree
	loaders  []overlay.Loader
	logger   logger.Logger
}

func NewBuilder(baseline tree.Tree, log logger.Logger, loaders ...overlay.Loader) *Builder {
	return &Builder{
		baseline: baseline,
		loaders:  loaders,
		logger:   log.With(map[string]interface{}{"component": "knowledge-builder"}),
	}
}

// Build returns the composed knowledge snapshot. Callers must treat the
// result as read-only: when every overlay source is unavailable it aliases
// the shared baseline.
func (b *Builder) Build(ctx context.Context) tree.Tree {
	composed := b.baseline

	for _, loader := range b.loaders {
		layer, err := loader.Load(ctx)
		if err != nil {
			b.logger.Warn("overlay source unavailable, skipping layer", map[string]interface{}{
				"source": loader.Source(),
				"error":  err.Error(),
			})
			metrics.OverlaySourceFailures.WithLabelValues(loader.Source()).Inc()
			continue
		}
		composed = tree.Merge(composed, layer)
	}

	metrics.KnowledgeBuilds.Inc()
	return composed
}
