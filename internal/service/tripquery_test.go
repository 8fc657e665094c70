package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tripline/internal/api"
)

// partitionServer answers each partition query by dataname, so one partition
// can fail while the others succeed.
func partitionServer(t *testing.T, answers map[string]string) *api.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		dataname, _ := body["dataname"].(string)
		answer, ok := answers[dataname]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if answer == "fail" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"partition unavailable"}`))
			return
		}
		_, _ = w.Write([]byte(answer))
	}))
	t.Cleanup(srv.Close)
	return api.New(srv.URL, 2*time.Second)
}

func TestPartitionFailureIsIsolated(t *testing.T) {
	t.Parallel()

	client := partitionServer(t, map[string]string{
		"getInitiatedTrips":          "fail",
		"getInProgressTrips":         `{"data":[{"trip_id":1,"origin_name":"A","destination_name":"B"}]}`,
		"getTripsWithClosingRequest": `{"data":[]}`,
		"getCompletedTrips":          `{"data":[{"trip_id":2,"origin_name":"C","destination_name":"D"}]}`,
	})
	q := NewTripQueries(client)

	ctx := context.Background()
	for _, s := range api.Statuses() {
		q.Refresh(ctx, s)
	}

	require.Equal(t, PartitionFailed, q.Snapshot(api.StatusInitiated).State)
	require.Error(t, q.Snapshot(api.StatusInitiated).Err)
	require.Equal(t, PartitionReady, q.Snapshot(api.StatusInProgress).State)
	require.Equal(t, PartitionReady, q.Snapshot(api.StatusClosingRequested).State)
	require.Equal(t, PartitionReady, q.Snapshot(api.StatusDelivered).State)

	// a retry that fails again still leaves the other three untouched
	before := map[api.TripStatus]TripSnapshot{
		api.StatusInProgress:       q.Snapshot(api.StatusInProgress),
		api.StatusClosingRequested: q.Snapshot(api.StatusClosingRequested),
		api.StatusDelivered:        q.Snapshot(api.StatusDelivered),
	}
	q.Refresh(ctx, api.StatusInitiated)
	require.Equal(t, PartitionFailed, q.Snapshot(api.StatusInitiated).State)
	for s, snap := range before {
		require.Equal(t, snap, q.Snapshot(s), s)
	}
}

func TestEmptyListIsReadyNotPending(t *testing.T) {
	t.Parallel()

	client := partitionServer(t, map[string]string{
		"getTripsWithClosingRequest": `{"data":null}`,
	})
	q := NewTripQueries(client)

	require.Equal(t, PartitionPending, q.Snapshot(api.StatusClosingRequested).State)

	snap := q.Refresh(context.Background(), api.StatusClosingRequested)
	require.Equal(t, PartitionReady, snap.State)
	require.NotNil(t, snap.Trips)
	require.Empty(t, snap.Trips)
}

func TestStaleCompletionIsDiscarded(t *testing.T) {
	t.Parallel()

	q := NewTripQueries(nil) // fencing alone, no fetches issued

	old := []api.Trip{{TripID: "old"}}
	fresh := []api.Trip{{TripID: "fresh"}}

	gen1 := q.StartRefresh(api.StatusInProgress)
	gen2 := q.StartRefresh(api.StatusInProgress)
	require.Greater(t, gen2, gen1)

	// the newer request resolves first
	require.True(t, q.FinishRefresh(api.StatusInProgress, gen2, fresh, nil))
	require.Equal(t, PartitionReady, q.Snapshot(api.StatusInProgress).State)
	require.Equal(t, fresh, q.Snapshot(api.StatusInProgress).Trips)

	// the older one resolves late and must not overwrite
	require.False(t, q.FinishRefresh(api.StatusInProgress, gen1, old, nil))
	require.Equal(t, fresh, q.Snapshot(api.StatusInProgress).Trips)

	// a stale failure must not flip a ready partition either
	require.False(t, q.FinishRefresh(api.StatusInProgress, gen1, nil, &api.Error{Kind: api.KindNetwork}))
	require.Equal(t, PartitionReady, q.Snapshot(api.StatusInProgress).State)
}

func TestRefreshKeepsLastGoodListWhilePending(t *testing.T) {
	t.Parallel()

	q := NewTripQueries(nil)

	gen := q.StartRefresh(api.StatusDelivered)
	require.True(t, q.FinishRefresh(api.StatusDelivered, gen, []api.Trip{{TripID: "42"}}, nil))

	q.StartRefresh(api.StatusDelivered)
	snap := q.Snapshot(api.StatusDelivered)
	require.Equal(t, PartitionPending, snap.State)
	require.Len(t, snap.Trips, 1) // previous result stays visible during the refetch
}
