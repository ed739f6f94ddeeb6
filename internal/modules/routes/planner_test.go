package routes

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeGeocoder resolves addresses from a fixed table; unknown addresses
// report no match.
type fakeGeocoder struct {
	points map[string]orb.Point
}

func (f *fakeGeocoder) Resolve(ctx context.Context, address string) (orb.Point, bool, error) {
	pt, ok := f.points[address]
	return pt, ok, nil
}

func TestSuggestOrderChainsNearestNeighbor(t *testing.T) {
	repo := newFakeRouteRepo()
	seedStops(t, repo, "r1", "a", "b", "c")
	// Current order a, b, c, but b is twice as far from a as c is.
	repo.addresses["cust-a"] = "1 Start Rd"
	repo.addresses["cust-b"] = "2 Far Ave"
	repo.addresses["cust-c"] = "3 Near St"
	geocoder := &fakeGeocoder{points: map[string]orb.Point{
		"1 Start Rd": {0, 0},
		"2 Far Ave":  {0, 2},
		"3 Near St":  {0, 1},
	}}

	planner := NewPlanner(repo, geocoder, zap.NewNop())
	got, err := planner.SuggestOrder(context.Background(), "r1")
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].StopID)
	assert.Equal(t, "c", got[1].StopID)
	assert.Equal(t, "b", got[2].StopID)
	for i, s := range got {
		assert.Equal(t, i+1, s.SuggestedOrder)
	}
	// The suggestion is advisory; the committed order is untouched.
	stops, err := repo.ListStops(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, orderOf(stops))
}

func TestSuggestOrderKeepsUnlocatedStopsAtTail(t *testing.T) {
	repo := newFakeRouteRepo()
	seedStops(t, repo, "r1", "a", "b", "c")
	repo.addresses["cust-a"] = "1 Start Rd"
	repo.addresses["cust-c"] = "3 Near St"
	// cust-b has no address on file; cust-c's address does not geocode.
	geocoder := &fakeGeocoder{points: map[string]orb.Point{
		"1 Start Rd": {0, 0},
	}}

	planner := NewPlanner(repo, geocoder, zap.NewNop())
	got, err := planner.SuggestOrder(context.Background(), "r1")
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].StopID)
	assert.Equal(t, "b", got[1].StopID)
	assert.Equal(t, "c", got[2].StopID)
}

func TestSuggestOrderEmptyRoute(t *testing.T) {
	repo := newFakeRouteRepo()
	planner := NewPlanner(repo, &fakeGeocoder{}, zap.NewNop())

	got, err := planner.SuggestOrder(context.Background(), "r1")
	require.NoError(t, err)
	assert.Empty(t, got)
}
