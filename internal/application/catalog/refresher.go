package catalog

import (
	"context"
	"time"

	"github.com/tcrawf/zebra/internal/application/ports"
	"github.com/tcrawf/zebra/internal/infrastructure/logging"
	"github.com/tcrawf/zebra/internal/infrastructure/tracing"
)

// Refresher replaces the local mirror of Zebra's reference data with a fresh
// snapshot. Refreshing is explicit: the catalog never reaches out to Zebra
// behind the user's back.
type Refresher struct {
	client ports.ZebraClientPort
	cache  ports.ReferenceCachePort
	userID int64
	logger *logging.Logger
	tracer *tracing.Tracer
}

// RefreshResult summarizes one cache refresh.
type RefreshResult struct {
	Projects    int
	Activities  int
	Roles       int
	RefreshedAt time.Time
}

// NewRefresher creates a refresher for the configured user.
func NewRefresher(client ports.ZebraClientPort, cache ports.ReferenceCachePort, userID int64, logger *logging.Logger, tracer *tracing.Tracer) *Refresher {
	if logger == nil {
		logger = logging.Default()
	}
	if tracer == nil {
		tracer = tracing.Default()
	}
	return &Refresher{
		client: client,
		cache:  cache,
		userID: userID,
		logger: logger,
		tracer: tracer,
	}
}

// Refresh fetches the remote catalog and the user record and swaps them into
// the cache. The previous snapshot stays in place when any fetch fails.
func (r *Refresher) Refresh(ctx context.Context) (RefreshResult, error) {
	ctx, span := r.tracer.Start(ctx, "catalog.refresh")
	defer span.End()

	projects, err := r.client.FetchProjects(ctx)
	if err != nil {
		tracing.RecordError(ctx, err)
		return RefreshResult{}, err
	}
	u, err := r.client.FetchUser(ctx, r.userID)
	if err != nil {
		tracing.RecordError(ctx, err)
		return RefreshResult{}, err
	}

	if err := r.cache.ReplaceProjects(ctx, projects); err != nil {
		tracing.RecordError(ctx, err)
		return RefreshResult{}, err
	}
	if err := r.cache.ReplaceUser(ctx, u); err != nil {
		tracing.RecordError(ctx, err)
		return RefreshResult{}, err
	}

	result := RefreshResult{
		Projects:    len(projects),
		Roles:       len(u.Roles),
		RefreshedAt: time.Now().UTC(),
	}
	for _, p := range projects {
		result.Activities += len(p.Activities)
	}

	logging.LogCacheRefreshed(ctx, r.logger, result.Projects, result.Activities, result.Roles)
	return result, nil
}

// LastRefreshedAt reports when the cache was last replaced, the zero time
// before the first refresh.
func (r *Refresher) LastRefreshedAt(ctx context.Context) (time.Time, error) {
	return r.cache.RefreshedAt(ctx)
}
