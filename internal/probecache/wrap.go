package probecache

import (
	"context"
	"log/slog"

	"squeeze/internal/engine"
	"squeeze/internal/logging"
)

type cachedEngine struct {
	engine.Engine
	store  *Store
	logger *slog.Logger
}

// Wrap returns an engine that answers Probe for local files from store and
// records fresh probes into it. Cache failures are logged and fall through
// to eng. A nil store returns eng unchanged.
func Wrap(eng engine.Engine, store *Store, logger *slog.Logger) engine.Engine {
	if store == nil {
		return eng
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &cachedEngine{
		Engine: eng,
		store:  store,
		logger: logging.NewComponentLogger(logger, "probecache"),
	}
}

func (c *cachedEngine) Probe(ctx context.Context, src engine.Source) (engine.Metadata, error) {
	if src.IsURL() {
		return c.Engine.Probe(ctx, src)
	}
	key, err := KeyFor(src.Path)
	if err != nil {
		return c.Engine.Probe(ctx, src)
	}

	meta, ok, err := c.store.Get(ctx, key)
	switch {
	case err != nil:
		logging.WarnWithContext(c.logger, "probe cache read failed", "probe_cache_read_failed",
			logging.String("path", key.Path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "probing the source directly"),
		)
	case ok:
		c.logger.Debug("probe cache hit", logging.String("path", key.Path))
		return meta, nil
	}

	meta, err = c.Engine.Probe(ctx, src)
	if err != nil {
		return meta, err
	}
	if putErr := c.store.Put(ctx, key, meta); putErr != nil {
		logging.WarnWithContext(c.logger, "probe cache write failed", "probe_cache_write_failed",
			logging.String("path", key.Path),
			logging.Error(putErr),
			logging.String(logging.FieldImpact, "the next run probes this file again"),
		)
	}
	return meta, nil
}
