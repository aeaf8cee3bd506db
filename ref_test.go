package docref_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docref "github.com/docref/docref.go"
	"github.com/docref/docref.go/pkg/models"
	"github.com/docref/docref.go/pkg/store"
	"github.com/docref/docref.go/pkg/store/memstore"
)

type Planet struct {
	Name string `cbor:"name"`
}

type Country struct {
	Name   string             `cbor:"name"`
	Planet docref.Ref[Planet] `cbor:"planet"`
}

// countingDriver wraps a driver and counts lookups, so tests can assert
// exactly how often a resolution reached the store.
type countingDriver struct {
	store.Driver
	finds   int
	queries int
}

func (d *countingDriver) FindByID(ctx context.Context, id models.RecordID) ([]byte, error) {
	d.finds++
	return d.Driver.FindByID(ctx, id)
}

func (d *countingDriver) QueryByField(ctx context.Context, table, field string, value []byte) ([][]byte, error) {
	d.queries++
	return d.Driver.QueryByField(ctx, table, field, value)
}

func newCountingDB(t *testing.T) (*docref.DB, *countingDriver) {
	t.Helper()
	driver := &countingDriver{Driver: memstore.New()}
	return docref.New(driver), driver
}

func TestResolve_emptyReference(t *testing.T) {
	ctx := context.Background()
	db, driver := newCountingDB(t)

	var ref docref.Ref[Planet]
	got, err := ref.Resolve(ctx, db)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 0, driver.finds, "empty reference must not touch the store")
	assert.Nil(t, ref.ID())
}

func TestResolve_cachesAfterFirstLookup(t *testing.T) {
	ctx := context.Background()
	db, driver := newCountingDB(t)

	earth := models.NewRecordID("planet", "earth")
	_, err := docref.Create[struct{}](ctx, db, earth, Planet{Name: "Earth"})
	require.NoError(t, err)

	ref := docref.NewRef[Planet](earth)

	first, err := ref.Resolve(ctx, db)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "Earth", first.Name)
	assert.Equal(t, 1, driver.finds)

	second, err := ref.Resolve(ctx, db)
	require.NoError(t, err)
	assert.Same(t, first, second, "repeated resolves must return the cached target")
	assert.Equal(t, 1, driver.finds, "cached resolve must not touch the store")
	assert.True(t, ref.IsResolved())
}

func TestResolve_staleAfterTargetDeleted(t *testing.T) {
	ctx := context.Background()
	db, driver := newCountingDB(t)

	earth := models.NewRecordID("planet", "earth")
	_, err := docref.Create[struct{}](ctx, db, earth, Planet{Name: "Earth"})
	require.NoError(t, err)

	ref := docref.NewRef[Planet](earth)
	cached, err := ref.Resolve(ctx, db)
	require.NoError(t, err)
	require.NotNil(t, cached)

	require.NoError(t, docref.Delete(ctx, db, earth))

	// The cache is never silently refreshed: the stale snapshot stays
	// until the reference is reassigned.
	got, err := ref.Resolve(ctx, db)
	require.NoError(t, err)
	assert.Same(t, cached, got)
	assert.Equal(t, 1, driver.finds)
}

func TestResolve_notFoundIsNotCached(t *testing.T) {
	ctx := context.Background()
	db, driver := newCountingDB(t)

	// The uk record references planet:earth before any such planet
	// exists.
	earth := models.NewRecordID("planet", "earth")
	uk := Country{Name: "UK", Planet: docref.NewRef[Planet](earth)}

	got, err := uk.Planet.Resolve(ctx, db)
	require.NoError(t, err)
	assert.Nil(t, got, "missing target resolves to empty, not an error")
	assert.Equal(t, 1, driver.finds)

	// The target appears later; the earlier miss must not have been
	// cached as a negative result.
	_, err = docref.Create[struct{}](ctx, db, earth, Planet{Name: "Earth"})
	require.NoError(t, err)

	got, err = uk.Planet.Resolve(ctx, db)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Earth", got.Name)
	assert.Equal(t, 2, driver.finds)

	_, err = uk.Planet.Resolve(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 2, driver.finds, "third resolve must come from the cache")

	// Reassigning the reference points the next resolve at the new id.
	mars := models.NewRecordID("planet", "mars")
	uk.Planet.Set(&mars)
	got, err = uk.Planet.Resolve(ctx, db)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 3, driver.finds)
}

func TestSet_invalidatesCache(t *testing.T) {
	ctx := context.Background()
	db, driver := newCountingDB(t)

	earth := models.NewRecordID("planet", "earth")
	_, err := docref.Create[struct{}](ctx, db, earth, Planet{Name: "Earth"})
	require.NoError(t, err)

	ref := docref.NewRef[Planet](earth)
	_, err = ref.Resolve(ctx, db)
	require.NoError(t, err)
	require.Equal(t, 1, driver.finds)

	// Setting the same id again still drops the cache.
	ref.Set(&earth)
	assert.False(t, ref.IsResolved())

	_, err = ref.Resolve(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 2, driver.finds, "resolve after Set must go back to the store")

	// Clearing the id empties the reference without store access.
	ref.Set(nil)
	got, err := ref.Resolve(ctx, db)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 2, driver.finds)
}

func TestResolve_typeMismatch(t *testing.T) {
	ctx := context.Background()
	db, driver := newCountingDB(t)

	// A document whose planet field holds a plain string instead of a
	// record id.
	ukID := models.NewRecordID("country", "uk")
	_, err := docref.Create[struct{}](ctx, db, ukID, map[string]any{
		"name":   "UK",
		"planet": "earth",
	})
	require.NoError(t, err)

	uk, err := docref.Select[Country](ctx, db, ukID)
	require.NoError(t, err, "decoding must not fail; the mismatch surfaces at resolution")

	before := driver.finds
	got, err := uk.Planet.Resolve(ctx, db)
	assert.Nil(t, got)
	require.Error(t, err)
	assert.ErrorIs(t, err, docref.ErrTypeMismatch)
	assert.NotErrorIs(t, err, store.ErrNotFound, "mismatch must be distinguishable from absence")
	assert.Equal(t, before, driver.finds, "an uninterpretable id must not reach the store")
}

type unavailableDriver struct {
	store.Driver
}

func (d unavailableDriver) FindByID(ctx context.Context, id models.RecordID) ([]byte, error) {
	return nil, store.ErrUnavailable
}

func TestResolve_storeUnavailable(t *testing.T) {
	ctx := context.Background()
	db := docref.New(unavailableDriver{Driver: memstore.New()})

	ref := docref.NewRef[Planet](models.NewRecordID("planet", "earth"))
	got, err := ref.Resolve(ctx, db)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.False(t, ref.IsResolved(), "a failed resolve must not populate the cache")
}

func TestRef_persistsAsRecordID(t *testing.T) {
	ctx := context.Background()
	db, driver := newCountingDB(t)

	earth := models.NewRecordID("planet", "earth")
	_, err := docref.Create[struct{}](ctx, db, earth, Planet{Name: "Earth"})
	require.NoError(t, err)

	ukID := models.NewRecordID("country", "uk")
	_, err = docref.Create[struct{}](ctx, db, ukID, Country{
		Name:   "UK",
		Planet: docref.NewRef[Planet](earth),
	})
	require.NoError(t, err)

	// A record loaded from the store carries the reference id but an
	// empty cache.
	uk, err := docref.Select[Country](ctx, db, ukID)
	require.NoError(t, err)
	require.NotNil(t, uk.Planet.ID())
	assert.Equal(t, "planet:earth", uk.Planet.ID().String())
	assert.False(t, uk.Planet.IsResolved())

	before := driver.finds
	got, err := uk.Planet.Resolve(ctx, db)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Earth", got.Name)
	assert.Equal(t, before+1, driver.finds)
}

func TestSelectByRef_ignoresCaches(t *testing.T) {
	ctx := context.Background()
	db, driver := newCountingDB(t)

	earth := models.NewRecordID("planet", "earth")
	mars := models.NewRecordID("planet", "mars")
	_, err := docref.Create[struct{}](ctx, db, earth, Planet{Name: "Earth"})
	require.NoError(t, err)
	_, err = docref.Create[struct{}](ctx, db, mars, Planet{Name: "Mars"})
	require.NoError(t, err)

	countries := map[string]models.RecordID{
		"uk":      earth,
		"france":  earth,
		"olympus": mars,
	}
	for name, planet := range countries {
		id := models.NewRecordID("country", name)
		_, err := docref.Create[struct{}](ctx, db, id, Country{
			Name:   name,
			Planet: docref.NewRef[Planet](planet),
		})
		require.NoError(t, err)
	}

	got, err := docref.SelectByRef[Country](ctx, db, "country", "planet", earth)
	require.NoError(t, err)
	require.Len(t, got, 2)
	names := []string{got[0].Name, got[1].Name}
	assert.ElementsMatch(t, []string{"uk", "france"}, names)
	assert.Equal(t, 1, driver.queries)

	// Resolving references beforehand must not change what the query
	// returns or whether it reaches the store.
	uk := got[0]
	_, err = uk.Planet.Resolve(ctx, db)
	require.NoError(t, err)

	again, err := docref.SelectByRef[Country](ctx, db, "country", "planet", earth)
	require.NoError(t, err)
	assert.Len(t, again, 2)
	assert.Equal(t, 2, driver.queries, "SelectByRef always consults the store")
}
