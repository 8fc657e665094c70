package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tripline/internal/api"
)

// AssignPhase is the coordinator's lifecycle for a single submission.
// Succeeded and Failed are terminal for that submission only; a fresh Submit
// re-enters Submitting from either.
type AssignPhase int

const (
	AssignIdle AssignPhase = iota
	AssignSubmitting
	AssignSucceeded
	AssignFailed
)

// AssignErrorKind classifies a failed submission for display.
type AssignErrorKind int

const (
	// AssignRejected: the backend rejected the command for a generic reason.
	AssignRejected AssignErrorKind = iota
	// AssignDriverConflict: the driver is already active on another trip.
	// An expected business conflict, not a defect.
	AssignDriverConflict
	// AssignNetwork: no response from the backend.
	AssignNetwork
)

// driverConflictMessage is the exact backend wording for the one known
// conflict case.
const driverConflictMessage = "Driver is currently assigned to another active trip"

// DriverConflictAdvice is the actionable message shown for that conflict.
const DriverConflictAdvice = "The selected driver is already assigned to another trip. Please choose a different driver."

const assignDefaultMessage = "An unexpected error occurred."

// AssignError is a classified submission failure.
type AssignError struct {
	Kind    AssignErrorKind
	Message string
}

func (e *AssignError) Error() string { return e.Message }

// ErrSubmitInFlight rejects a Submit issued while another is still
// Submitting. The first submission is unaffected and no request goes out.
var ErrSubmitInFlight = errors.New("an assignment is already being submitted")

// Option is an {id, label} pair for a selection list.
type Option struct {
	ID    api.ID
	Label string
}

// Assigner coordinates driver-to-trip assignment: option loading, the single
// submission in flight, and conflict classification.
type Assigner struct {
	client *api.Client

	mu      sync.Mutex
	phase   AssignPhase
	lastErr *AssignError
}

func NewAssigner(client *api.Client) *Assigner {
	return &Assigner{client: client}
}

// Phase reports the coordinator state.
func (a *Assigner) Phase() AssignPhase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phase
}

// LastError returns the classified failure of the most recent submission,
// nil unless the phase is AssignFailed.
func (a *Assigner) LastError() *AssignError {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// LoadDrivers fetches all known drivers as selection options. Drivers already
// active on a trip are intentionally not filtered out; the backend enforces
// the uniqueness constraint at submission time.
func (a *Assigner) LoadDrivers(ctx context.Context) ([]Option, error) {
	drivers, err := a.client.TruckDrivers(ctx)
	if err != nil {
		return nil, err
	}
	opts := make([]Option, 0, len(drivers))
	for _, d := range drivers {
		opts = append(opts, Option{ID: d.DriverID, Label: d.DriverName})
	}
	return opts, nil
}

// LoadTrips fetches the trips owned by userID as selection options, labelled
// by route for disambiguation.
func (a *Assigner) LoadTrips(ctx context.Context, userID string) ([]Option, error) {
	trips, err := a.client.TripsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	opts := make([]Option, 0, len(trips))
	for _, t := range trips {
		opts = append(opts, Option{
			ID:    t.TripID,
			Label: fmt.Sprintf("Trip %s - %s to %s", t.ID, t.LoadingPoint, t.OffloadingPoint),
		})
	}
	return opts, nil
}

// Submit sends the assignment command. Exactly one submission may be in
// flight; a re-entrant call returns ErrSubmitInFlight without touching the
// network. On failure the returned error is an *AssignError.
func (a *Assigner) Submit(ctx context.Context, tripID, driverID api.ID, fuelling bool, userID string) error {
	a.mu.Lock()
	if a.phase == AssignSubmitting {
		a.mu.Unlock()
		return ErrSubmitInFlight
	}
	a.phase = AssignSubmitting
	a.lastErr = nil
	a.mu.Unlock()

	err := a.client.AssignDriver(ctx, api.Assignment{
		TripID:   tripID,
		DriverID: driverID,
		Fuelling: fuelling,
		UserID:   userID,
	})

	a.mu.Lock()
	defer a.mu.Unlock()
	if err == nil {
		a.phase = AssignSucceeded
		return nil
	}
	a.lastErr = classifyAssignError(err)
	a.phase = AssignFailed
	return a.lastErr
}

func classifyAssignError(err error) *AssignError {
	apiErr, ok := api.AsError(err)
	if !ok {
		return &AssignError{Kind: AssignRejected, Message: assignDefaultMessage}
	}
	switch {
	case apiErr.Kind == api.KindNetwork:
		return &AssignError{Kind: AssignNetwork, Message: api.NetworkErrMessage}
	case apiErr.Message == driverConflictMessage:
		return &AssignError{Kind: AssignDriverConflict, Message: DriverConflictAdvice}
	case apiErr.Message != "":
		return &AssignError{Kind: AssignRejected, Message: apiErr.Message}
	default:
		return &AssignError{Kind: AssignRejected, Message: assignDefaultMessage}
	}
}
