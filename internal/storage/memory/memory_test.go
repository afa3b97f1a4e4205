package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citypulse/client/pkg/core"
)

func TestCreateAndGet(t *testing.T) {
	b := New()
	b.now = func() time.Time { return time.Date(2026, 3, 14, 18, 30, 5, 123456000, time.UTC) }
	require.NoError(t, b.Init())
	ctx := context.Background()

	loc, err := b.CreateShare(ctx, core.ShareRequest{
		Name:      "Jazz Night",
		Type:      core.CategoryEvent,
		Latitude:  core.NewCoordinate(37.8),
		Longitude: core.NewCoordinate(-122.4),
		Date:      "Friday",
		Website:   "https://example.com/jazz",
	})
	require.NoError(t, err)
	assert.Len(t, loc.ID, 8)
	assert.Equal(t, "Friday", loc.Date)
	assert.Equal(t, "https://example.com/jazz", loc.Website)
	assert.Equal(t, "2026-03-14 18:30:05.123456", loc.SharedAt)

	got, err := b.GetShare(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, loc, got)
	assert.NoError(t, b.Close())
}

func TestGetShare_Unknown(t *testing.T) {
	_, err := New().GetShare(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrLookupMiss)
}

func TestShareIDs_Order(t *testing.T) {
	b := New()
	ctx := context.Background()

	var want []string
	for _, name := range []string{"a", "b", "c"} {
		loc, err := b.CreateShare(ctx, core.ShareRequest{Name: name})
		require.NoError(t, err)
		want = append(want, loc.ID)
	}

	ids, err := b.ShareIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, ids)

	ids[0] = "mutated"
	again, _ := b.ShareIDs(ctx)
	assert.Equal(t, want, again)
}

func TestShareIDs_Empty(t *testing.T) {
	ids, err := New().ShareIDs(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}
