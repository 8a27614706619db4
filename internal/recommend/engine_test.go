// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package recommend

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/salesight/internal/models"
	"github.com/tomtom215/salesight/internal/recommend/algorithms"
)

// mockDataSource implements DataSource for testing.
type mockDataSource struct {
	mu          sync.Mutex
	sales       []models.TransactionRecord
	coPurchases []models.TransactionRecord
	// rawRows overrides the co-purchase row count when positive.
	rawRows     int
	catalog     []models.CatalogEntry
	version     string
	salesErr    error
	catalogErr  error
}

func (m *mockDataSource) LoadTransactions(context.Context) ([]models.TransactionRecord, error) {
	return m.sales, m.salesErr
}

func (m *mockDataSource) LoadCoPurchases(context.Context) ([]models.TransactionRecord, error) {
	return m.coPurchases, nil
}

func (m *mockDataSource) CoPurchaseRows(context.Context) (int, error) {
	if m.rawRows > 0 {
		return m.rawRows, nil
	}
	return len(m.coPurchases), nil
}

func (m *mockDataSource) LoadCatalog(context.Context) ([]models.CatalogEntry, error) {
	return m.catalog, m.catalogErr
}

func (m *mockDataSource) DataVersion() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}

func (m *mockDataSource) setVersion(v string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.version = v
}

// mockSink implements EventSink for testing.
type mockSink struct {
	mu     sync.Mutex
	events []models.RecommendationEvent
	err    error
}

func (m *mockSink) Record(_ context.Context, ev models.RecommendationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *mockSink) recorded() []models.RecommendationEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.RecommendationEvent(nil), m.events...)
}

// fixedSource makes every Int31 draw return k, so rand.Intn(n) returns k % n
// for n = 3 and k & 1 for n = 2.
type fixedSource int64

func (f fixedSource) Int63() int64 { return int64(f) << 32 }
func (fixedSource) Seed(int64)     {}

// bucketRand forces the draw to bucket b (1, 2 or 3).
func bucketRand(b int) *rand.Rand {
	return rand.New(fixedSource(b - 1))
}

func sale(item int, month time.Month, qty int) models.TransactionRecord {
	return models.TransactionRecord{
		ItemID:    item,
		Date:      time.Date(2021, month, 1, 0, 0, 0, 0, time.UTC),
		UnitPrice: 10,
		Quantity:  qty,
	}
}

func purchase(user string, item, qty int) models.TransactionRecord {
	r := sale(item, time.January, qty)
	r.UserID = user
	return r
}

// fixture: items 1..3 sell 60 units each, item 4 sells 10.
// Seasonal rows (Jan, Feb, Mar): 1=(60,0,0) 2=(30,30,0) 3=(0,60,0) 4=(0,0,10).
// Categories: 1 and 2 in 10, 3 in 20, 4 not catalogued.
func newFixture() *mockDataSource {
	ds := &mockDataSource{
		sales: []models.TransactionRecord{
			sale(1, time.January, 60),
			sale(2, time.January, 30),
			sale(2, time.February, 30),
			sale(3, time.February, 60),
			sale(4, time.March, 10),
		},
		catalog: []models.CatalogEntry{
			{ItemID: 1, CategoryID: 10, Name: "a"},
			{ItemID: 2, CategoryID: 10, Name: "b"},
			{ItemID: 3, CategoryID: 20, Name: "c"},
		},
		version: "v1",
	}
	return ds
}

// withCoPurchases adds ten co-purchase rows: users a and b share item 2,
// user c buys item 5 six times.
func withCoPurchases(ds *mockDataSource) *mockDataSource {
	ds.coPurchases = []models.TransactionRecord{
		purchase("a", 1, 60),
		purchase("a", 2, 30),
		purchase("b", 2, 30),
		purchase("b", 3, 60),
	}
	for i := 0; i < 6; i++ {
		ds.coPurchases = append(ds.coPurchases, purchase("c", 5, 1))
	}
	return ds
}

// withReturns drops the last n co-purchases as a load would drop returned
// rows, while the raw log still holds them.
func withReturns(ds *mockDataSource, n int) *mockDataSource {
	ds.rawRows = len(ds.coPurchases)
	ds.coPurchases = ds.coPurchases[:len(ds.coPurchases)-n]
	return ds
}

func newTestEngine(t *testing.T, ds DataSource, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(ds, DefaultConfig(), opts...)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func TestNewEngine(t *testing.T) {
	if _, err := NewEngine(nil, DefaultConfig()); err == nil {
		t.Error("expected error for nil data source")
	}

	cfg := DefaultConfig()
	cfg.TopN = 0
	if _, err := NewEngine(newFixture(), cfg); err == nil {
		t.Error("expected error for invalid config")
	}

	e := newTestEngine(t, newFixture())
	if e.DefaultTopN() != 10 {
		t.Errorf("DefaultTopN() = %d, want 10", e.DefaultTopN())
	}
}

func TestEngine_Recommend_InvalidTopN(t *testing.T) {
	e := newTestEngine(t, newFixture())
	for _, n := range []int{0, -3} {
		if _, err := e.Recommend(context.Background(), "u", nil, n); !errors.Is(err, ErrInvalidTopN) {
			t.Errorf("topN %d: error = %v, want ErrInvalidTopN", n, err)
		}
	}
}

func TestEngine_Recommend_SingleItemScenario(t *testing.T) {
	ds := &mockDataSource{sales: []models.TransactionRecord{sale(1, time.January, 60)}}
	sink := &mockSink{}
	e := newTestEngine(t, ds, WithEventSink(sink))

	res, err := e.Recommend(context.Background(), "42", nil, 5)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.Items, []int{1}) {
		t.Errorf("Items = %v, want [1]", res.Items)
	}
	if res.Bucket != models.BucketPopularity || res.Strategy != StrategyPopularity {
		t.Errorf("bucket/strategy = %d/%s", res.Bucket, res.Strategy)
	}
}

func TestEngine_Recommend_EmptyHistoryIsPopularity(t *testing.T) {
	ds := newFixture()
	ds.sales = append(ds.sales, sale(5, time.April, 100), sale(6, time.April, 60))
	e := newTestEngine(t, ds)

	res, err := e.Recommend(context.Background(), "u", nil, 4)
	if err != nil {
		t.Fatal(err)
	}
	// totals: 5=100, 1=2=3=6=60 (ties by id), 4=10
	want := []int{5, 1, 2, 3}
	if !reflect.DeepEqual(res.Items, want) {
		t.Errorf("Items = %v, want %v", res.Items, want)
	}

	totals := map[int]int{}
	for _, r := range ds.sales {
		totals[r.ItemID] += r.Quantity
	}
	for i := 1; i < len(res.Items); i++ {
		if totals[res.Items[i]] > totals[res.Items[i-1]] {
			t.Errorf("popularity order violated at %d: %v", i, res.Items)
		}
	}
}

func TestEngine_Recommend_Buckets(t *testing.T) {
	tests := []struct {
		name     string
		bucket   int
		history  []int
		topN     int
		want     []int
		strategy string
		fallback bool
	}{
		{"seasonal single history", 1, []int{1}, 2, []int{2, 3}, algorithms.ProjectionSeasonal, false},
		{"seasonal union excludes history", 1, []int{1, 3}, 5, []int{2}, algorithms.ProjectionSeasonal, false},
		{"seasonal unpopular history item qualifies", 1, []int{4}, 2, []int{1, 2}, algorithms.ProjectionSeasonal, false},
		{"category", 2, []int{1}, 1, []int{2}, algorithms.ProjectionCategory, false},
		{"category uncatalogued history falls back", 2, []int{4}, 2, []int{1, 2}, StrategyPopularity, true},
		{"couser", 3, []int{1}, 2, []int{2, 3}, algorithms.ProjectionCoUser, false},
		{"unknown history falls back", 1, []int{99}, 3, []int{1, 2, 3}, StrategyPopularity, true},
		{"category skips uncatalogued history item", 2, []int{4, 1}, 2, []int{2, 3}, algorithms.ProjectionCategory, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &mockSink{}
			e := newTestEngine(t, withCoPurchases(newFixture()), WithRand(bucketRand(tt.bucket)), WithEventSink(sink))

			res, err := e.Recommend(context.Background(), "u1", tt.history, tt.topN)
			if err != nil {
				t.Fatal(err)
			}
			if res.Bucket != tt.bucket {
				t.Errorf("Bucket = %d, want %d", res.Bucket, tt.bucket)
			}
			if !reflect.DeepEqual(res.Items, tt.want) {
				t.Errorf("Items = %v, want %v", res.Items, tt.want)
			}
			if res.Strategy != tt.strategy || res.Fallback != tt.fallback {
				t.Errorf("strategy/fallback = %s/%v, want %s/%v", res.Strategy, res.Fallback, tt.strategy, tt.fallback)
			}

			events := sink.recorded()
			if len(events) != 1 {
				t.Fatalf("recorded %d events, want 1", len(events))
			}
			if events[0].BucketID != tt.bucket || events[0].UserID != "u1" || !reflect.DeepEqual(events[0].RecommendedIDs, tt.want) {
				t.Errorf("event = %+v", events[0])
			}
		})
	}
}

func TestEngine_Recommend_FallbackExcludesHistory(t *testing.T) {
	e := newTestEngine(t, newFixture(), WithRand(bucketRand(2)))

	// Item 4 is not catalogued, so category similarity yields nothing.
	res, err := e.Recommend(context.Background(), "u", []int{4, 2}, 10)
	if err != nil {
		t.Fatal(err)
	}
	// Item 2 is catalogued: its neighbors are 1 (1.0) and 3 (0).
	if !reflect.DeepEqual(res.Items, []int{1, 3}) {
		t.Errorf("Items = %v, want [1 3]", res.Items)
	}

	e = newTestEngine(t, newFixture(), WithRand(bucketRand(1)))
	res, err = e.Recommend(context.Background(), "u", []int{99, 1}, 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range res.Items {
		if id == 1 || id == 99 {
			t.Errorf("history item %d recommended: %v", id, res.Items)
		}
	}
}

func TestEngine_Recommend_BucketDrawRange(t *testing.T) {
	tests := []struct {
		name        string
		ds          *mockDataSource
		allowCoUser bool
	}{
		{"few co-purchase rows", newFixture(), false},
		{"enough co-purchase rows", withCoPurchases(newFixture()), true},
		{"returns count toward co-purchase rows", withReturns(withCoPurchases(newFixture()), 2), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, tt.ds, WithRand(rand.New(rand.NewSource(7))))
			seen := map[int]int{}
			for i := 0; i < 300; i++ {
				res, err := e.Recommend(context.Background(), "u", []int{1}, 3)
				if err != nil {
					t.Fatal(err)
				}
				seen[res.Bucket]++
			}
			if seen[0] != 0 {
				t.Errorf("bucket 0 drawn for a user with history: %v", seen)
			}
			if seen[1] == 0 || seen[2] == 0 {
				t.Errorf("buckets 1 and 2 should both be drawn: %v", seen)
			}
			if got := seen[3] > 0; got != tt.allowCoUser {
				t.Errorf("bucket 3 drawn = %v, want %v (%v)", got, tt.allowCoUser, seen)
			}
		})
	}
}

func TestEngine_Recommend_NonEmptyHistoryProperty(t *testing.T) {
	e := newTestEngine(t, withCoPurchases(newFixture()), WithRand(rand.New(rand.NewSource(3))))
	histories := [][]int{{1}, {2}, {3}, {4}, {1, 2}, {2, 3, 4}, {5}, {1, 2, 3, 4}, {42}}

	for _, h := range histories {
		for topN := 1; topN <= 4; topN++ {
			res, err := e.Recommend(context.Background(), "u", h, topN)
			if err != nil {
				t.Fatal(err)
			}
			if len(res.Items) > topN {
				t.Errorf("history %v topN %d: %d items", h, topN, len(res.Items))
			}
			for _, id := range res.Items {
				for _, hid := range h {
					if id == hid {
						t.Errorf("history %v: item %d recommended", h, id)
					}
				}
			}
		}
	}
}

func TestEngine_Recommend_CacheFollowsDataVersion(t *testing.T) {
	ds := newFixture()
	e := newTestEngine(t, ds, WithRand(bucketRand(1)))
	ctx := context.Background()

	if _, err := e.Recommend(ctx, "u", []int{1}, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Recommend(ctx, "u", []int{1, 1}, 2); err != nil {
		t.Fatal(err)
	}
	hits, misses, size := e.matrices.Stats()
	if hits != 1 || misses != 1 || size != 1 {
		t.Errorf("Stats() = (%d, %d, %d), want (1, 1, 1)", hits, misses, size)
	}

	ds.setVersion("v2")
	if _, err := e.Recommend(ctx, "u", []int{1}, 2); err != nil {
		t.Fatal(err)
	}
	if _, _, size = e.matrices.Stats(); size != 2 {
		t.Errorf("cache size = %d after data change, want 2", size)
	}
}

func TestEngine_Recommend_BuildTimeoutFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BuildTimeout = 20 * time.Millisecond
	e, err := NewEngine(newFixture(), cfg, WithRand(bucketRand(1)))
	if err != nil {
		t.Fatal(err)
	}
	release := make(chan struct{})
	defer close(release)
	e.build = func(ctx context.Context, _ algorithms.Projection, _ []models.TransactionRecord, _ []int, _ float64) (*algorithms.SimilarityMatrix, error) {
		<-release
		return nil, errors.New("abandoned")
	}

	res, err := e.Recommend(context.Background(), "u", []int{1}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Fallback || res.Bucket != 1 || !reflect.DeepEqual(res.Items, []int{2, 3}) {
		t.Errorf("Result = %+v, want popularity fallback [2 3] in bucket 1", res)
	}
}

func TestEngine_Recommend_CancelledContext(t *testing.T) {
	e := newTestEngine(t, newFixture(), WithRand(bucketRand(1)))
	e.build = func(ctx context.Context, _ algorithms.Projection, _ []models.TransactionRecord, _ []int, _ float64) (*algorithms.SimilarityMatrix, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Recommend(ctx, "u", []int{1}, 2); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestEngine_Recommend_DataErrors(t *testing.T) {
	boom := errors.New("bad csv")

	ds := newFixture()
	ds.salesErr = boom
	e := newTestEngine(t, ds)
	if _, err := e.Recommend(context.Background(), "u", nil, 3); !errors.Is(err, boom) {
		t.Errorf("sales error = %v, want wrapped %v", err, boom)
	}

	ds = newFixture()
	ds.catalogErr = boom
	e = newTestEngine(t, ds, WithRand(bucketRand(2)))
	if _, err := e.Recommend(context.Background(), "u", []int{1}, 3); !errors.Is(err, boom) {
		t.Errorf("catalog error = %v, want wrapped %v", err, boom)
	}
}

func TestEngine_Recommend_SinkFailureIsNotFatal(t *testing.T) {
	sink := &mockSink{err: errors.New("queue full")}
	e := newTestEngine(t, newFixture(), WithEventSink(sink))

	res, err := e.Recommend(context.Background(), "u", nil, 2)
	if err != nil {
		t.Fatalf("Recommend() error = %v, sink failures must not propagate", err)
	}
	if len(res.Items) != 2 {
		t.Errorf("Items = %v", res.Items)
	}
}

func TestEngine_Recommend_EventTimestamp(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	sink := &mockSink{}
	e := newTestEngine(t, newFixture(), WithEventSink(sink), WithClock(func() time.Time { return at }))

	if _, err := e.Recommend(context.Background(), "7", nil, 1); err != nil {
		t.Fatal(err)
	}
	events := sink.recorded()
	if len(events) != 1 || !events[0].Timestamp.Equal(at) || events[0].BucketID != 0 {
		t.Errorf("events = %+v", events)
	}
}

func TestEngine_Recommend_Concurrent(t *testing.T) {
	sink := &mockSink{}
	e := newTestEngine(t, withCoPurchases(newFixture()), WithEventSink(sink))

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				history := []int{1 + (g+i)%4}
				if _, err := e.Recommend(context.Background(), "u", history, 3); err != nil {
					t.Error(err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	if got := len(sink.recorded()); got != 80 {
		t.Errorf("recorded %d events, want 80", got)
	}
}

func TestCacheKey(t *testing.T) {
	a := cacheKey("seasonal", "v1", []int{3, 1, 3})
	b := cacheKey("seasonal", "v1", []int{1, 3})
	if a != b || a != "seasonal|v1|1,3" {
		t.Errorf("cacheKey = %q and %q, want both seasonal|v1|1,3", a, b)
	}
	if cacheKey("category", "v1", []int{1, 3}) == b {
		t.Error("projection must be part of the key")
	}
}

func TestEngine_PurgeExpired(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheTTL = 10 * time.Millisecond
	e, err := NewEngine(newFixture(), cfg, WithRand(bucketRand(1)))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := e.Recommend(ctx, "u", []int{1}, 2); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)

	n, err := e.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired() error = %v", err)
	}
	if n != 1 {
		t.Errorf("PurgeExpired() = %d, want 1", n)
	}
	if _, _, size := e.matrices.Stats(); size != 0 {
		t.Errorf("cache size = %d after purge, want 0", size)
	}
}

func TestEngine_PurgeExpired_NoCache(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheSize = 0
	e, err := NewEngine(newFixture(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if n, err := e.PurgeExpired(context.Background()); n != 0 || err != nil {
		t.Errorf("PurgeExpired() = (%d, %v), want (0, nil)", n, err)
	}
}
