package service

import (
	"context"
	"sync"

	"tripline/internal/api"
)

// PartitionState is the tri-state status of one partition snapshot.
type PartitionState int

const (
	PartitionPending PartitionState = iota
	PartitionReady
	PartitionFailed
)

// TripSnapshot is the observable state of one partition. Trips retains the
// last good list while a refresh is pending, so a failed retry does not blank
// an already-rendered screen. Ready with an empty list means the backend
// really has no trips there, not "not yet loaded".
type TripSnapshot struct {
	Trips []api.Trip
	State PartitionState
	Err   error
	Gen   uint64
}

type partition struct {
	gen  uint64
	snap TripSnapshot
}

// TripQueries caches the four lifecycle partitions independently. Each
// partition refreshes on demand only; a fetch for one never touches another.
// Stale in-flight results are fenced out by generation token.
type TripQueries struct {
	client *api.Client

	mu    sync.Mutex
	parts map[api.TripStatus]*partition
}

// NewTripQueries returns a query layer with every partition pending.
func NewTripQueries(client *api.Client) *TripQueries {
	parts := make(map[api.TripStatus]*partition, 4)
	for _, s := range api.Statuses() {
		parts[s] = &partition{snap: TripSnapshot{State: PartitionPending}}
	}
	return &TripQueries{client: client, parts: parts}
}

// Snapshot returns the current state of one partition.
func (q *TripQueries) Snapshot(status api.TripStatus) TripSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.parts[status].snap
}

// StartRefresh marks the partition pending and returns the fencing token for
// the new request. Any in-flight request with an older token is superseded.
func (q *TripQueries) StartRefresh(status api.TripStatus) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	p := q.parts[status]
	p.gen++
	p.snap.State = PartitionPending
	p.snap.Err = nil
	p.snap.Gen = p.gen
	return p.gen
}

// FinishRefresh applies a fetch result. A result whose token no longer
// matches the most recently started request is discarded; the displayed list
// always reflects the newest initiated request, even when completions arrive
// out of order. Returns whether the result was applied.
func (q *TripQueries) FinishRefresh(status api.TripStatus, gen uint64, trips []api.Trip, err error) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	p := q.parts[status]
	if gen != p.gen {
		return false
	}
	if err != nil {
		p.snap.State = PartitionFailed
		p.snap.Err = err
		return true
	}
	if trips == nil {
		trips = []api.Trip{}
	}
	p.snap.Trips = trips
	p.snap.State = PartitionReady
	p.snap.Err = nil
	return true
}

// Refresh is the start-fetch-finish path used for user retries and for
// invalidation after a successful mutation.
func (q *TripQueries) Refresh(ctx context.Context, status api.TripStatus) TripSnapshot {
	gen := q.StartRefresh(status)
	trips, err := q.client.TripsByStatus(ctx, status)
	q.FinishRefresh(status, gen, trips, err)
	return q.Snapshot(status)
}
