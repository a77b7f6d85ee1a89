package store_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/openparks/corral/internal/dynamofake"
	"github.com/openparks/corral/schema"
	"github.com/openparks/corral/store"
)

// seedCounter installs a sequence record with the given counter values.
func seedCounter(client *dynamofake.Client, table, scope string, counters map[string]int64) {
	values := make(map[string]types.AttributeValue, len(counters))
	for sub, n := range counters {
		values[sub] = &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)}
	}
	client.Seed(table, map[string]types.AttributeValue{
		"pk":       &types.AttributeValueMemberS{Value: scope},
		"sk":       &types.AttributeValueMemberS{Value: "counter"},
		"counters": &types.AttributeValueMemberM{Value: values},
	})
}

func TestNextID_SeedsOnFirstUse(t *testing.T) {
	s, client := newTestStore(store.DefaultConfig())
	ctx := context.Background()
	scope := "facility::bcparks_1"

	id, err := s.NextID(ctx, scope, "campground", schema.FacilityTypes)
	if err != nil {
		t.Fatalf("first NextID: %v", err)
	}
	if id != 1 {
		t.Errorf("expected first id 1, got %d", id)
	}

	// Every listed sub-scope got seeded.
	raw := client.Item(s.Config().Table, scope, "counter")
	if raw == nil {
		t.Fatal("counter record missing")
	}
	counters := raw["counters"].(*types.AttributeValueMemberM).Value
	for _, sub := range schema.FacilityTypes {
		if _, ok := counters[sub]; !ok {
			t.Errorf("sub-scope %q not seeded", sub)
		}
	}

	id, err = s.NextID(ctx, scope, "campground", schema.FacilityTypes)
	if err != nil {
		t.Fatalf("second NextID: %v", err)
	}
	if id != 2 {
		t.Errorf("expected second id 2, got %d", id)
	}
}

func TestNextID_IndependentSubScopes(t *testing.T) {
	s, _ := newTestStore(store.DefaultConfig())
	ctx := context.Background()
	scope := "facility::bcparks_1"

	for i := int64(1); i <= 3; i++ {
		id, err := s.NextID(ctx, scope, "campground", schema.FacilityTypes)
		if err != nil {
			t.Fatal(err)
		}
		if id != i {
			t.Errorf("campground: expected %d, got %d", i, id)
		}
	}

	id, err := s.NextID(ctx, scope, "trail", schema.FacilityTypes)
	if err != nil {
		t.Fatal(err)
	}
	if id != 1 {
		t.Errorf("trail sequence should start at 1, got %d", id)
	}
}

func TestNextID_LostRaceSignalsConflict(t *testing.T) {
	s, client := newTestStore(store.DefaultConfig())
	ctx := context.Background()
	scope := "facility::bcparks_1"
	seedCounter(client, s.Config().Table, scope, map[string]int64{"campground": 5})

	// A competing allocator bumps the counter between our read and our
	// compare-and-swap.
	raced := false
	client.BeforeUpdate = func() {
		if raced {
			return
		}
		raced = true
		seedCounter(client, s.Config().Table, scope, map[string]int64{"campground": 6})
	}

	_, err := s.NextID(ctx, scope, "campground", nil)
	if !errors.Is(err, store.ErrAllocationConflict) {
		t.Fatalf("expected ErrAllocationConflict, got %v", err)
	}

	// The next attempt sees the new value and succeeds.
	client.BeforeUpdate = nil
	id, err := s.NextID(ctx, scope, "campground", nil)
	if err != nil {
		t.Fatal(err)
	}
	if id != 7 {
		t.Errorf("expected 7 after losing the race at 6, got %d", id)
	}
}

func TestNextID_NoGaps(t *testing.T) {
	s, _ := newTestStore(store.DefaultConfig())
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 8; i++ {
		id, err := s.NextID(ctx, "geozone::bcparks_2", "zone", nil)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	for i, id := range ids {
		if id != int64(i+1) {
			t.Fatalf("expected gapless sequence, got %v", ids)
		}
	}
}

// TestConcurrentCreatesWithRetry covers the full create path: two callers
// race for identifiers under the same partition, and both must land with
// consecutive sort keys.
func TestConcurrentCreatesWithRetry(t *testing.T) {
	cfg := store.DefaultConfig()
	cfg.MaxAttempts = 5
	cfg.RetryBase = time.Millisecond
	s, client := newTestStore(cfg)
	ctx := context.Background()

	pk := "facility::bcparks_1"
	seedCounter(client, s.Config().Table, pk, map[string]int64{"campground": 5})

	create := func(displayName string) (store.Key, error) {
		var created store.Key
		err := s.Retryer().Do(ctx, func(ctx context.Context) error {
			id, err := s.NextID(ctx, pk, "campground", schema.FacilityTypes)
			if err != nil {
				return err
			}
			created = store.Key{PK: pk, SK: "campground::" + strconv.FormatInt(id, 10)}
			intents, err := store.Compile(schema.FacilityCreate, store.OpCreate, store.Record{
				Key: created,
				Attributes: map[string]any{
					"displayName":  displayName,
					"facilityType": "campground",
				},
			})
			if err != nil {
				return err
			}
			_, err = s.Commit(ctx, intents)
			return err
		})
		return created, err
	}

	var wg sync.WaitGroup
	results := make([]store.Key, 2)
	errs := make([]error, 2)
	for i, name := range []string{"Site A", "Site B"} {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			results[i], errs[i] = create(name)
		}(i, name)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("create %d failed: %v", i, err)
		}
	}

	got := map[string]bool{results[0].SK: true, results[1].SK: true}
	if !got["campground::6"] || !got["campground::7"] {
		t.Errorf("expected sort keys campground::6 and campground::7, got %v", results)
	}
	for _, key := range results {
		if client.Item(s.Config().Table, key.PK, key.SK) == nil {
			t.Errorf("record %v not committed", key)
		}
	}
}
