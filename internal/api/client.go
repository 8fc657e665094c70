package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// endpointPath is the single command endpoint; the operation is selected by
// the dataname field of the request body. The exported methods hide that
// encoding behind one function per operation.
const endpointPath = "/trip/trip.php"

// Client talks to the trip backend.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the backend at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// envelope is the shared response shape: data for list queries, message for
// mutations and rejections.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// TruckDrivers fetches all known drivers. No filtering of already-assigned
// drivers happens here or anywhere client-side; the server rejects conflicts
// at assignment time.
func (c *Client) TruckDrivers(ctx context.Context) ([]TruckDriver, error) {
	env, err := c.dispatch(ctx, map[string]any{"dataname": "getTruckDrivers"})
	if err != nil {
		return nil, err
	}
	return decodeList[TruckDriver](env.Data), nil
}

// TripsForUser fetches the trips owned by userID.
func (c *Client) TripsForUser(ctx context.Context, userID string) ([]UserTrip, error) {
	env, err := c.dispatch(ctx, map[string]any{
		"dataname": "getTrips",
		"user_id":  userID,
	})
	if err != nil {
		return nil, err
	}
	return decodeList[UserTrip](env.Data), nil
}

// TripsByStatus fetches one lifecycle partition. Each partition is an
// independent snapshot; the four are not guaranteed mutually consistent.
func (c *Client) TripsByStatus(ctx context.Context, status TripStatus) ([]Trip, error) {
	env, err := c.dispatch(ctx, map[string]any{"dataname": status.dataname()})
	if err != nil {
		return nil, err
	}
	return decodeList[Trip](env.Data), nil
}

// AssignDriver submits a driver-to-trip assignment. A 2xx answer is the only
// success condition; the caller classifies rejection messages.
func (c *Client) AssignDriver(ctx context.Context, a Assignment) error {
	fuelling := "0"
	if a.Fuelling {
		fuelling = "1"
	}
	_, err := c.dispatch(ctx, map[string]any{
		"dataname":        "assignTruckDriverToTrip",
		"trip_id":         a.TripID,
		"truck_driver_id": a.DriverID,
		"fuelling":        fuelling,
		"user_id":         a.UserID,
	})
	return err
}

// ConfirmOffloading submits the terminal offloading confirmation. Not known
// to be idempotent server-side, so it is never retried automatically.
func (c *Client) ConfirmOffloading(ctx context.Context, oc OffloadingConfirmation) error {
	_, err := c.dispatch(ctx, map[string]any{
		"dataname":       "customerOffloadingPoint",
		"trip_id":        oc.TripID,
		"offloading_qty": oc.Quantity,
		"remarks":        oc.Remarks,
		"customer_id":    oc.CustomerID,
	})
	return err
}

// dispatch posts one command body and converts every failure into an *Error.
func (c *Client) dispatch(ctx context.Context, body map[string]any) (*envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpointPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: NetworkErrMessage}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))

	var env envelope
	_ = json.Unmarshal(raw, &env) // tolerate malformed bodies; taxonomy below decides

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Kind: KindRejected, Message: env.Message, Status: resp.StatusCode}
	}
	return &env, nil
}

// decodeList normalizes the data field to a slice. A null, absent, or
// non-list payload yields an empty list rather than a type error.
func decodeList[T any](data json.RawMessage) []T {
	out := []T{}
	if len(data) == 0 {
		return out
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return []T{}
	}
	return out
}
