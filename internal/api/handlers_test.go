// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/cargomap/internal/cache"
	"github.com/tomtom215/cargomap/internal/focus"
	"github.com/tomtom215/cargomap/internal/geo"
	"github.com/tomtom215/cargomap/internal/models"
	"github.com/tomtom215/cargomap/internal/refresh"
	"github.com/tomtom215/cargomap/internal/upstream"
)

// fakeCache serves snap. When snap is nil, ReadOrRefresh commits refreshed
// if set, standing in for a successful synchronous refresh.
type fakeCache struct {
	snap      *cache.Snapshot
	refreshed *cache.Snapshot
	status    cache.Status
}

func (f *fakeCache) Read(context.Context) (*cache.Snapshot, error) {
	if f.snap == nil {
		return nil, cache.ErrEmptyCache
	}
	return f.snap, nil
}

func (f *fakeCache) ReadOrRefresh(ctx context.Context) (*cache.Snapshot, error) {
	if f.snap == nil && f.refreshed != nil {
		f.snap = f.refreshed
	}
	return f.Read(ctx)
}

func (f *fakeCache) Status(context.Context) cache.Status { return f.status }

type fakeRefresh struct {
	res  cache.Result
	err  error
	next time.Time
}

func (f *fakeRefresh) TriggerRefresh(context.Context) (cache.Result, error) { return f.res, f.err }
func (f *fakeRefresh) NextRefresh() time.Time                             { return f.next }
func (f *fakeRefresh) Interval() time.Duration                            { return time.Hour }

type fakeUpstream struct {
	all    []models.ContainerRecord
	rec    *models.ContainerRecord
	err    error
	number string
}

func (f *fakeUpstream) FetchAll(context.Context) ([]models.ContainerRecord, error) {
	return f.all, f.err
}

func (f *fakeUpstream) FetchByNumber(_ context.Context, number string) (*models.ContainerRecord, error) {
	f.number = number
	return f.rec, f.err
}

func (f *fakeUpstream) State() string { return "closed" }

type countingJourneys struct {
	computed int
}

func (c *countingJourneys) GetOrCompute(_ string, _ int64, compute func() geo.Journey) geo.Journey {
	c.computed++
	return compute()
}

func fp(f float64) *float64 { return &f }

func testRecord(id int64, number string) models.ContainerRecord {
	return models.ContainerRecord{
		ID:       id,
		Metadata: models.ContainerMetadata{Number: number, SealineName: "MSC"},
	}
}

// pacificRecord crosses the antimeridian on a single sea leg with a live
// position mid-ocean.
func pacificRecord() models.ContainerRecord {
	rec := testRecord(7, "MSCU1234565")
	rec.RouteData = models.RouteData{
		RouteInfo: []models.RouteLeg{{
			Type:          models.LegCategorySea,
			TransportType: models.TransportVessel,
			From:          models.RouteLocation{Name: "Busan", Lat: fp(10), Lng: fp(170)},
			To:            models.RouteLocation{Name: "Long Beach", Lat: fp(10), Lng: fp(-170)},
			PathObjects: []models.PathPoint{
				{Lat: fp(10), Lng: fp(170)},
				{Lat: fp(10), Lng: fp(-170)},
			},
		}},
		Pin: &models.PathPoint{Lat: fp(10), Lng: fp(175)},
	}
	return rec
}

func snapshotOf(records ...models.ContainerRecord) *cache.Snapshot {
	return &cache.Snapshot{Containers: records, Generation: "gen-1", WrittenAt: time.Now()}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func serve(t *testing.T, h *Handler, method, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	NewRouter(h, &ChiMiddlewareConfig{RateLimitDisabled: true}).Setup().ServeHTTP(rec, httptest.NewRequest(method, target, nil))

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func TestListContainers(t *testing.T) {
	t.Parallel()

	t.Run("serves snapshot", func(t *testing.T) {
		t.Parallel()
		h := NewHandler(Deps{Cache: &fakeCache{snap: snapshotOf(testRecord(1, "A1"), testRecord(2, "B2"))}})

		rec, env := serve(t, h, http.MethodGet, "/api/v1/containers")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, env.Success)
		require.NotNil(t, env.Meta.Count)
		assert.Equal(t, 2, *env.Meta.Count)
		assert.Equal(t, "gen-1", env.Meta.Generation)

		var records []models.ContainerRecord
		require.NoError(t, json.Unmarshal(env.Data, &records))
		assert.Equal(t, "B2", records[1].Metadata.Number)
	})

	t.Run("empty cache is data unavailable", func(t *testing.T) {
		t.Parallel()
		h := NewHandler(Deps{Cache: &fakeCache{}})

		rec, env := serve(t, h, http.MethodGet, "/api/v1/containers")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, ErrCodeDataUnavailable, env.Error.Code)
	})

	t.Run("empty cache refreshes from upstream", func(t *testing.T) {
		t.Parallel()
		h := NewHandler(Deps{Cache: &fakeCache{refreshed: snapshotOf(testRecord(5, "E5"))}})

		rec, env := serve(t, h, http.MethodGet, "/api/v1/containers")
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, env.Meta.Count)
		assert.Equal(t, 1, *env.Meta.Count)
	})

	t.Run("empty cache with a real store and healthy upstream", func(t *testing.T) {
		t.Parallel()
		store, err := cache.NewFileStore(t.TempDir())
		require.NoError(t, err)
		fetch := cache.FetcherFunc(func(context.Context) ([]models.ContainerRecord, error) {
			return []models.ContainerRecord{testRecord(1, "A1"), testRecord(2, "B2")}, nil
		})
		h := NewHandler(Deps{Cache: cache.New(store, fetch, cache.Options{})})

		rec, env := serve(t, h, http.MethodGet, "/api/v1/containers")
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, env.Meta.Count)
		assert.Equal(t, 2, *env.Meta.Count)

		rec, _ = serve(t, h, http.MethodGet, "/api/v1/containers/2")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("zero containers is not an error", func(t *testing.T) {
		t.Parallel()
		h := NewHandler(Deps{Cache: &fakeCache{snap: snapshotOf()}})

		rec, env := serve(t, h, http.MethodGet, "/api/v1/containers")
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, env.Meta.Count)
		assert.Zero(t, *env.Meta.Count)
	})
}

func TestGetContainer(t *testing.T) {
	t.Parallel()

	h := NewHandler(Deps{Cache: &fakeCache{snap: snapshotOf(testRecord(3, "C3"), testRecord(9, "D9"))}})

	tests := []struct {
		path   string
		status int
		code   string
	}{
		{"/api/v1/containers/9", http.StatusOK, ""},
		{"/api/v1/containers/4", http.StatusNotFound, ErrCodeNotFound},
		{"/api/v1/containers/abc", http.StatusBadRequest, ErrCodeBadRequest},
		{"/api/v1/containers/-1", http.StatusBadRequest, ErrCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			rec, env := serve(t, h, http.MethodGet, tt.path)
			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.code, env.Error.Code)
				return
			}
			var got models.ContainerRecord
			require.NoError(t, json.Unmarshal(env.Data, &got))
			assert.Equal(t, "D9", got.Metadata.Number)
		})
	}
}

func TestGetContainerRoute(t *testing.T) {
	t.Parallel()

	journeys := &countingJourneys{}
	h := NewHandler(Deps{
		Cache:    &fakeCache{snap: snapshotOf(testRecord(1, "A1"), pacificRecord())},
		Journeys: journeys,
	})

	rec, env := serve(t, h, http.MethodGet, "/api/v1/containers/7/route")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, journeys.computed)

	var view RouteView
	require.NoError(t, json.Unmarshal(env.Data, &view))

	assert.Equal(t, int64(7), view.ContainerID)
	require.Len(t, view.Projection.Lines, 1)
	require.Len(t, view.Projection.Lines[0], 2)
	assert.InDelta(t, 190.0, view.Projection.Lines[0][1].Lon, 1e-9, "second vertex is unwrapped across the antimeridian")

	require.Len(t, view.Legs, 1)
	assert.Equal(t, "Busan", view.Legs[0].From)
	assert.Equal(t, models.RouteColor(0), view.Legs[0].Style.Color)
	assert.Equal(t, models.TransportVessel.Details().Label, view.Legs[0].Transport.Label)

	require.NotNil(t, view.Pin)
	assert.Equal(t, 0, view.Pin.LegIndex)
	assert.Equal(t, models.TransportVessel.Details().Icon, view.Pin.Icon)
}

func TestGetContainerRoute_NoPin(t *testing.T) {
	t.Parallel()

	r := pacificRecord()
	r.RouteData.Pin = nil
	h := NewHandler(Deps{Cache: &fakeCache{snap: snapshotOf(r)}})

	rec, env := serve(t, h, http.MethodGet, "/api/v1/containers/7/route")
	require.Equal(t, http.StatusOK, rec.Code)

	var view RouteView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Nil(t, view.Pin)
	assert.Len(t, view.Legs, 1)
}

func TestLookupContainer(t *testing.T) {
	t.Parallel()

	found := testRecord(11, "MSCU1234565")

	tests := []struct {
		name     string
		query    string
		upstream *fakeUpstream
		status   int
		code     string
	}{
		{"found", "?number=MSCU1234565", &fakeUpstream{rec: &found}, http.StatusOK, ""},
		{"missing number", "", &fakeUpstream{}, http.StatusBadRequest, ErrCodeValidationFailed},
		{"invalid characters", "?number=MSCU%3B1234", &fakeUpstream{}, http.StatusBadRequest, ErrCodeValidationFailed},
		{"not found upstream", "?number=MSCU0000000", &fakeUpstream{err: upstream.ErrContainerNotFound}, http.StatusNotFound, ErrCodeNotFound},
		{"upstream failure", "?number=MSCU0000000", &fakeUpstream{err: &upstream.StatusError{Code: 500}}, http.StatusBadGateway, ErrCodeExternalServiceFail},
		{"breaker open", "?number=MSCU0000000", &fakeUpstream{err: gobreaker.ErrOpenState}, http.StatusServiceUnavailable, ErrCodeServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewHandler(Deps{Cache: &fakeCache{}, Upstream: tt.upstream})

			rec, env := serve(t, h, http.MethodGet, "/api/v1/container"+tt.query)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.code != "" {
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.code, env.Error.Code)
				return
			}
			assert.Equal(t, "MSCU1234565", tt.upstream.number)
		})
	}
}

func TestLookupContainer_TrimsNumber(t *testing.T) {
	t.Parallel()

	found := testRecord(11, "MSCU1234565")
	up := &fakeUpstream{rec: &found}
	h := NewHandler(Deps{Cache: &fakeCache{}, Upstream: up})

	rec, _ := serve(t, h, http.MethodGet, "/api/v1/container?number=%20MSCU1234565%20")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MSCU1234565", up.number)
}

func TestListUpstreamContainers(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		h := NewHandler(Deps{Cache: &fakeCache{}, Upstream: &fakeUpstream{all: []models.ContainerRecord{testRecord(1, "A1")}}})
		rec, env := serve(t, h, http.MethodGet, "/api/v1/upstream/containers")
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, env.Meta.Count)
		assert.Equal(t, 1, *env.Meta.Count)
	})

	t.Run("failure", func(t *testing.T) {
		t.Parallel()
		h := NewHandler(Deps{Cache: &fakeCache{}, Upstream: &fakeUpstream{err: errors.New("dial tcp: refused")}})
		rec, _ := serve(t, h, http.MethodGet, "/api/v1/upstream/containers")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("not configured", func(t *testing.T) {
		t.Parallel()
		h := NewHandler(Deps{Cache: &fakeCache{}})
		rec, _ := serve(t, h, http.MethodGet, "/api/v1/upstream/containers")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestRefreshContainers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		res    cache.Result
		err    error
		status int
		code   string
	}{
		{"success", cache.Result{Success: true, Count: 4}, nil, http.StatusOK, ""},
		{"in progress", cache.Result{}, refresh.ErrRefreshInProgress, http.StatusConflict, ErrCodeConflict},
		{"empty payload", cache.Result{}, cache.ErrEmptyPayload, http.StatusUnprocessableEntity, ErrCodeEmptyPayload},
		{"upstream down", cache.Result{}, fmt.Errorf("%w: boom", cache.ErrUpstreamUnavailable), http.StatusBadGateway, ErrCodeExternalServiceFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewHandler(Deps{Cache: &fakeCache{}, Refresh: &fakeRefresh{res: tt.res, err: tt.err}})

			rec, env := serve(t, h, http.MethodPost, "/api/v1/containers/refresh")
			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.code, env.Error.Code)
				return
			}
			var body RefreshResponse
			require.NoError(t, json.Unmarshal(env.Data, &body))
			assert.Equal(t, 4, body.Count)
		})
	}
}

func TestRefreshContainers_GetNotAllowed(t *testing.T) {
	t.Parallel()

	h := NewHandler(Deps{Cache: &fakeCache{}, Refresh: &fakeRefresh{}})
	rec, _ := serve(t, h, http.MethodGet, "/api/v1/containers/refresh")
	// "refresh" is matched as an {id} and rejected as non-numeric.
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCacheStatus(t *testing.T) {
	t.Parallel()

	next := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	h := NewHandler(Deps{
		Cache:   &fakeCache{status: cache.Status{State: cache.StateValidWithError, RecordCount: 3, LastError: "upstream unavailable"}},
		Refresh: &fakeRefresh{next: next},
	})

	rec, env := serve(t, h, http.MethodGet, "/api/v1/cache/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body CacheStatusResponse
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, cache.StateValidWithError, body.State)
	assert.Equal(t, 3, body.RecordCount)
	require.NotNil(t, body.NextRefresh)
	assert.True(t, next.Equal(*body.NextRefresh))
	assert.Equal(t, "1h0m0s", body.RefreshInterval)
}

type fakeFocus struct {
	state focus.State
	ok    bool
	err   error
}

func (f *fakeFocus) Current(context.Context) (focus.State, bool, error) { return f.state, f.ok, f.err }
func (f *fakeFocus) Epoch() time.Time                                  { return time.Unix(0, 0) }
func (f *fakeFocus) Interval() time.Duration                           { return 4 * time.Second }

func TestFocus(t *testing.T) {
	t.Parallel()

	snap := snapshotOf(testRecord(1, "A1"), testRecord(2, "B2"))

	tests := []struct {
		name       string
		query      string
		focusClock FocusClock
		cache      *fakeCache
		status     int
		wantID     int64
		wantPhase  focus.Phase
	}{
		{"explicit step", "?step=4", nil, &fakeCache{snap: snap}, http.StatusOK, 2, ""},
		{"negative step wraps", "?step=-1", nil, &fakeCache{snap: snap}, http.StatusOK, 2, ""},
		{"bad step", "?step=x", nil, &fakeCache{snap: snap}, http.StatusBadRequest, 0, ""},
		{"empty cache", "?step=0", nil, &fakeCache{}, http.StatusServiceUnavailable, 0, ""},
		{"no containers", "?step=0", nil, &fakeCache{snap: snapshotOf()}, http.StatusNotFound, 0, ""},
		{"wall clock", "", &fakeFocus{state: focus.State{ContainerID: 1, Phase: focus.PhasePin}, ok: true}, &fakeCache{}, http.StatusOK, 1, focus.PhasePin},
		{"wall clock without snapshot", "", &fakeFocus{err: cache.ErrEmptyCache}, &fakeCache{}, http.StatusServiceUnavailable, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewHandler(Deps{Cache: tt.cache, Focus: tt.focusClock})

			rec, env := serve(t, h, http.MethodGet, "/api/v1/focus"+tt.query)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status != http.StatusOK {
				return
			}
			var body FocusResponse
			require.NoError(t, json.Unmarshal(env.Data, &body))
			assert.Equal(t, tt.wantID, body.ContainerID)
			if tt.wantPhase != "" {
				assert.Equal(t, tt.wantPhase, body.Phase)
			}
			assert.Equal(t, int64(4000), body.IntervalMs)
		})
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	t.Run("live", func(t *testing.T) {
		t.Parallel()
		h := NewHandler(Deps{Cache: &fakeCache{}})
		rec, env := serve(t, h, http.MethodGet, "/api/v1/health/live")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, env.Success)
	})

	tests := []struct {
		name   string
		status cache.Status
		want   int
	}{
		{"empty", cache.Status{State: cache.StateEmpty}, http.StatusServiceUnavailable},
		{"refreshing first time", cache.Status{State: cache.StateRefreshing}, http.StatusServiceUnavailable},
		{"valid", cache.Status{State: cache.StateValid, RecordCount: 2, Generation: "g"}, http.StatusOK},
		{"stale but valid", cache.Status{State: cache.StateValidWithError, RecordCount: 2, Generation: "g"}, http.StatusOK},
		{"valid and empty", cache.Status{State: cache.StateValid, Generation: "g"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewHandler(Deps{Cache: &fakeCache{status: tt.status}, Upstream: &fakeUpstream{}})
			rec, env := serve(t, h, http.MethodGet, "/api/v1/health/ready")
			assert.Equal(t, tt.want, rec.Code)

			var body ReadinessStatus
			require.NoError(t, json.Unmarshal(env.Data, &body))
			assert.Equal(t, tt.want == http.StatusOK, body.Ready)
			assert.Equal(t, "closed", body.Breaker)
		})
	}
}
