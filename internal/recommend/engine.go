// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/salesight/internal/cache"
	"github.com/tomtom215/salesight/internal/logging"
	"github.com/tomtom215/salesight/internal/metrics"
	"github.com/tomtom215/salesight/internal/models"
	"github.com/tomtom215/salesight/internal/recommend/algorithms"
)

type buildFunc func(ctx context.Context, p algorithms.Projection, records []models.TransactionRecord, history []int, threshold float64) (*algorithms.SimilarityMatrix, error)

// Engine serves bucketed recommendations. It is safe for concurrent use.
type Engine struct {
	cfg    Config
	data   DataSource
	sink   EventSink
	logger zerolog.Logger

	// Random source for bucket draws (protected by rngMu for concurrent access)
	rng   *rand.Rand
	rngMu sync.Mutex

	matrices *cache.LRU[*algorithms.SimilarityMatrix]
	build    buildFunc
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand replaces the bucket draw source.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithEventSink sets where recommendation events go. Without a sink events
// are discarded.
func WithEventSink(s EventSink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithClock replaces the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine reading from data.
func NewEngine(data DataSource, cfg Config, opts ...Option) (*Engine, error) {
	if data == nil {
		return nil, fmt.Errorf("data source required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	e := &Engine{
		cfg:    cfg,
		data:   data,
		logger: logging.With().Str("component", "recommend").Logger(),
		rng:    rand.New(rand.NewSource(seed)), //nolint:gosec // bucket assignment is not security sensitive
		build:  algorithms.Build,
		now:    time.Now,
	}
	if cfg.CacheSize > 0 {
		e.matrices = cache.NewLRU[*algorithms.SimilarityMatrix](cfg.CacheSize, cfg.CacheTTL)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// PurgeExpired drops similarity matrices older than CacheTTL and returns how
// many were removed.
func (e *Engine) PurgeExpired(_ context.Context) (int, error) {
	if e.matrices == nil {
		return 0, nil
	}
	n := e.matrices.CleanupExpired()
	hits, misses, size := e.matrices.Stats()
	e.logger.Debug().
		Int("purged", n).
		Int("cached", size).
		Int64("hits", hits).
		Int64("misses", misses).
		Msg("similarity cache maintenance")
	return n, nil
}

// DefaultTopN returns the configured list length.
func (e *Engine) DefaultTopN() int {
	return e.cfg.TopN
}

// Recommend returns up to topN items for userID given the items the user
// already bought. The served list is also emitted as a RecommendationEvent.
func (e *Engine) Recommend(ctx context.Context, userID string, history []int, topN int) (*Result, error) {
	if topN <= 0 {
		return nil, ErrInvalidTopN
	}
	logger := logging.Ctx(ctx).With().Str("component", "recommend").Str("user_id", userID).Logger()

	sales, err := e.data.LoadTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	var result *Result
	if len(history) == 0 {
		result = &Result{
			Items:    popular(ctx, sales, nil, topN),
			Bucket:   models.BucketPopularity,
			Strategy: StrategyPopularity,
		}
	} else {
		result, err = e.recommendSimilar(ctx, logger, sales, history, topN)
		if err != nil {
			return nil, err
		}
	}

	metrics.RecordRecommendation(result.Bucket, result.Fallback)
	e.emit(ctx, logger, userID, result)

	logger.Debug().
		Int("bucket", result.Bucket).
		Str("strategy", result.Strategy).
		Bool("fallback", result.Fallback).
		Int("returned", len(result.Items)).
		Msg("recommendation complete")
	return result, nil
}

func (e *Engine) recommendSimilar(ctx context.Context, logger zerolog.Logger, sales []models.TransactionRecord, history []int, topN int) (*Result, error) {
	coPurchases, err := e.data.LoadCoPurchases(ctx)
	if err != nil {
		return nil, fmt.Errorf("load co-purchases: %w", err)
	}

	rows, err := e.data.CoPurchaseRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("count co-purchases: %w", err)
	}

	bucket := e.drawBucket(rows)
	projection, records, err := e.projectionFor(ctx, bucket, sales, coPurchases)
	if err != nil {
		return nil, err
	}

	matrix, err := e.similarity(ctx, projection, records, history)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn().Str("projection", projection.Name()).Dur("timeout", e.cfg.BuildTimeout).
			Msg("similarity build timed out, serving popularity")
	default:
		return nil, fmt.Errorf("build %s similarity: %w", projection.Name(), err)
	}

	var items []int
	if matrix != nil && !matrix.Degenerate() {
		items = neighborsOf(matrix, history, topN)
	}
	if len(items) == 0 {
		return &Result{
			Items:    popular(ctx, sales, history, topN),
			Bucket:   bucket,
			Strategy: StrategyPopularity,
			Fallback: true,
		}, nil
	}
	return &Result{Items: items, Bucket: bucket, Strategy: projection.Name()}, nil
}

// drawBucket assigns a similarity bucket. Co-purchase similarity is only
// eligible once the co-purchase log has CoUserMinRows raw rows.
func (e *Engine) drawBucket(coPurchaseRows int) int {
	choices := 2
	if coPurchaseRows >= e.cfg.CoUserMinRows {
		choices = 3
	}
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Intn(choices) + 1
}

func (e *Engine) projectionFor(ctx context.Context, bucket int, sales, coPurchases []models.TransactionRecord) (algorithms.Projection, []models.TransactionRecord, error) {
	switch bucket {
	case models.BucketSeasonal:
		return algorithms.SeasonalProjection{}, sales, nil
	case models.BucketCategory:
		catalog, err := e.data.LoadCatalog(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("load catalog: %w", err)
		}
		return algorithms.NewCategoryProjection(catalog), sales, nil
	case models.BucketCoUser:
		return algorithms.CoUserProjection{}, coPurchases, nil
	default:
		return nil, nil, fmt.Errorf("unknown bucket %d", bucket)
	}
}

type buildResult struct {
	matrix *algorithms.SimilarityMatrix
	err    error
}

// similarity returns the cached matrix for the projection or builds it under
// BuildTimeout. The dense product cannot be interrupted, so the build runs in
// its own goroutine and is abandoned on timeout.
func (e *Engine) similarity(ctx context.Context, p algorithms.Projection, records []models.TransactionRecord, history []int) (*algorithms.SimilarityMatrix, error) {
	key := cacheKey(p.Name(), e.data.DataVersion(), history)
	if e.matrices != nil {
		if m, ok := e.matrices.Get(key); ok {
			metrics.RecordSimilarityCache(true)
			return m, nil
		}
		metrics.RecordSimilarityCache(false)
	}

	buildCtx := ctx
	if e.cfg.BuildTimeout > 0 {
		var cancel context.CancelFunc
		buildCtx, cancel = context.WithTimeout(ctx, e.cfg.BuildTimeout)
		defer cancel()
	}

	start := time.Now()
	done := make(chan buildResult, 1)
	go func() {
		m, err := e.build(buildCtx, p, records, history, e.cfg.PopularityThreshold)
		done <- buildResult{matrix: m, err: err}
	}()

	var res buildResult
	select {
	case res = <-done:
	case <-buildCtx.Done():
		return nil, buildCtx.Err()
	}
	if res.err != nil {
		return nil, res.err
	}

	metrics.RecordSimilarityBuild(p.Name(), res.matrix.Len(), time.Since(start))
	if e.matrices != nil {
		e.matrices.Add(key, res.matrix)
	}
	return res.matrix, nil
}

// neighborsOf unions the neighbors of every indexed history item.
func neighborsOf(m *algorithms.SimilarityMatrix, history []int, topN int) []int {
	lists := make([][]algorithms.Neighbor, 0, len(history))
	for _, id := range history {
		ns, ok := m.Neighbors(id, topN)
		if !ok {
			continue
		}
		lists = append(lists, ns)
	}
	return algorithms.MergeNeighbors(lists, history, topN)
}

// popular ranks sales by aggregate quantity, skipping excluded items.
func popular(ctx context.Context, sales []models.TransactionRecord, exclude []int, topN int) []int {
	p := algorithms.NewPopularity()
	if err := p.Train(ctx, sales); err != nil {
		return nil
	}
	skip := make(map[int]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	ranked := p.GetTopK(topN + len(skip))
	items := make([]int, 0, topN)
	for _, id := range ranked {
		if _, ok := skip[id]; ok {
			continue
		}
		items = append(items, id)
		if len(items) == topN {
			break
		}
	}
	return items
}

func (e *Engine) emit(ctx context.Context, logger zerolog.Logger, userID string, r *Result) {
	if e.sink == nil {
		return
	}
	ids := make([]int, len(r.Items))
	copy(ids, r.Items)
	ev := models.RecommendationEvent{
		Timestamp:      e.now(),
		UserID:         userID,
		RecommendedIDs: ids,
		BucketID:       r.Bucket,
	}
	if err := e.sink.Record(ctx, ev); err != nil {
		logger.Warn().Err(err).Int("bucket", r.Bucket).Msg("failed to record recommendation event")
	}
}

// cacheKey identifies a matrix by projection, data version and the sorted,
// de-duplicated history that shaped its qualifying set.
func cacheKey(projection, version string, history []int) string {
	ids := make([]int, len(history))
	copy(ids, history)
	sort.Ints(ids)

	var b strings.Builder
	b.WriteString(projection)
	b.WriteByte('|')
	b.WriteString(version)
	b.WriteByte('|')
	for i, id := range ids {
		if i > 0 && ids[i-1] == id {
			continue
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(id))
	}
	return b.String()
}
