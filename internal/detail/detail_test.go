package detail

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/citypulse/client/internal/api"
	"github.com/citypulse/client/internal/eventloop/eventlooptest"
	"github.com/citypulse/client/internal/ui"
	"github.com/citypulse/client/internal/view"
	"github.com/citypulse/client/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type records map[string]core.DetailRecord

func (r records) Lookup(id string) (core.DetailRecord, bool) {
	rec, ok := r[id]
	return rec, ok
}

type fakeInsights struct {
	calls []core.InsightsRequest
	text  string
	err   error
}

func (f *fakeInsights) Insights(ctx context.Context, r core.InsightsRequest) (string, error) {
	f.calls = append(f.calls, r)
	return f.text, f.err
}

type fakeSharer struct {
	shared []core.DetailRecord
}

func (f *fakeSharer) Share(rec core.DetailRecord) {
	f.shared = append(f.shared, rec)
}

var jazz = core.DetailRecord{
	ID:          "event_01H_0",
	Category:    core.CategoryEvent,
	Name:        "Jazz Night",
	Description: "Live jazz",
	Date:        "Friday",
	Time:        "8pm",
	Address:     "1 Marina Blvd",
}

type harness struct {
	s       *Session
	sched   *eventlooptest.Scheduler
	ins     *fakeInsights
	sharer  *fakeSharer
	surface *ui.Recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		sched:   eventlooptest.New(),
		ins:     &fakeInsights{text: "**Arrive early**"},
		sharer:  &fakeSharer{},
		surface: ui.NewRecorder(),
	}
	h.s = New(Deps{
		Scheduler: h.sched,
		Records:   records{jazz.ID: jazz, "restaurant_01H_0": {ID: "restaurant_01H_0", Category: core.CategoryRestaurant, Name: "Taqueria"}},
		Insights:  h.ins,
		Sharer:    h.sharer,
		Surface:   h.surface,
	})
	return h
}

func TestOpen_ShowsModal(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.s.Open(jazz.ID))

	require.NotNil(t, h.surface.Modal)
	assert.Equal(t, "🎵 Jazz Night", h.surface.Modal.Title)
	assert.Equal(t, core.InsightsNotFetched, h.s.Insights().State)
	assert.Equal(t, ui.ButtonState{Label: LabelGetInsights}, h.surface.Button(ui.ButtonInsights))
	cur, ok := h.s.Current()
	require.True(t, ok)
	assert.Equal(t, jazz.ID, cur.ID)
}

func TestOpen_UnknownIDIsNoop(t *testing.T) {
	h := newHarness(t)

	err := h.s.Open("event_gone_3")

	assert.ErrorIs(t, err, core.ErrLookupMiss)
	assert.Nil(t, h.surface.Modal)
	_, ok := h.s.Current()
	assert.False(t, ok)
}

func TestFetchInsights_Success(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.s.Open(jazz.ID))

	require.NoError(t, h.s.FetchInsights())
	assert.Equal(t, core.InsightsLoading, h.s.Insights().State)
	assert.True(t, h.surface.Button(ui.ButtonInsights).Loading)

	h.sched.ResolveAll()

	assert.Equal(t, core.InsightsReady, h.s.Insights().State)
	assert.Equal(t, `<p class="text-dark"><strong>Arrive early</strong></p>`, h.s.Insights().HTML)
	assert.Equal(t, ui.ButtonState{Label: LabelRefreshInsights}, h.surface.Button(ui.ButtonInsights))
	require.Len(t, h.ins.calls, 1)
	assert.Equal(t, core.InsightsRequest{
		Name:        "Jazz Night",
		Category:    core.CategoryEvent,
		Description: "Live jazz",
		Address:     "1 Marina Blvd",
	}, h.ins.calls[0])
}

func TestFetchInsights_OneInFlight(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.s.Open(jazz.ID))

	require.NoError(t, h.s.FetchInsights())
	require.NoError(t, h.s.FetchInsights())

	assert.Equal(t, 1, h.sched.Pending())
}

func TestFetchInsights_NetworkFailureRetryable(t *testing.T) {
	h := newHarness(t)
	h.ins.err = fmt.Errorf("request failed: %w", core.ErrNetworkFailure)
	require.NoError(t, h.s.Open(jazz.ID))

	require.NoError(t, h.s.FetchInsights())
	h.sched.ResolveAll()

	assert.Equal(t, core.InsightsFailed, h.s.Insights().State)
	assert.Equal(t, MsgInsightsFailed, h.s.Insights().Error)
	assert.Equal(t, ui.ButtonState{Label: LabelTryAgain}, h.surface.Button(ui.ButtonInsights))

	h.ins.err = nil
	require.NoError(t, h.s.FetchInsights())
	h.sched.ResolveAll()
	assert.Equal(t, core.InsightsReady, h.s.Insights().State)
}

func TestFetchInsights_Rejected(t *testing.T) {
	h := newHarness(t)
	h.ins.err = fmt.Errorf("insights: %w", api.ErrRejected)
	require.NoError(t, h.s.Open(jazz.ID))

	require.NoError(t, h.s.FetchInsights())
	h.sched.ResolveAll()

	assert.Equal(t, MsgInsightsUnavailable, h.s.Insights().Error)
}

func TestFetchInsights_ReopenDiscardsResponse(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.s.Open(jazz.ID))
	require.NoError(t, h.s.FetchInsights())

	require.NoError(t, h.s.Open("restaurant_01H_0"))
	h.sched.ResolveAll()

	assert.Equal(t, core.InsightsNotFetched, h.s.Insights().State)
	assert.False(t, h.s.Busy())

	// the reopened modal can fetch straight away
	require.NoError(t, h.s.FetchInsights())
	assert.Equal(t, 1, h.sched.Pending())
}

func TestFetchInsights_ReopenSameRecordResets(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.s.Open(jazz.ID))
	require.NoError(t, h.s.FetchInsights())
	h.sched.ResolveAll()
	require.Equal(t, core.InsightsReady, h.s.Insights().State)

	require.NoError(t, h.s.Open(jazz.ID))

	assert.Equal(t, core.InsightsNotFetched, h.s.Insights().State)
}

func TestNoRecord(t *testing.T) {
	h := newHarness(t)

	assert.True(t, errors.Is(h.s.FetchInsights(), ErrNoRecord))
	assert.True(t, errors.Is(h.s.Share(), ErrNoRecord))
	_, err := h.s.Directions(view.PlatformDesktop)
	assert.ErrorIs(t, err, ErrNoRecord)

	require.NoError(t, h.s.Open(jazz.ID))
	h.s.Close()
	assert.ErrorIs(t, h.s.FetchInsights(), ErrNoRecord)
}

func TestDirectionsAndShare(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.s.Open(jazz.ID))

	d, err := h.s.Directions(view.PlatformIOS)
	require.NoError(t, err)
	assert.Equal(t, "maps://maps.apple.com/?daddr=1%20Marina%20Blvd", d.Native)

	require.NoError(t, h.s.Share())
	require.Len(t, h.sharer.shared, 1)
	assert.Equal(t, jazz.ID, h.sharer.shared[0].ID)
}
