package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 2*time.Second)
}

func TestDispatchSelectsOperationByDataname(t *testing.T) {
	t.Parallel()

	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/trip/trip.php", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NotEmpty(t, r.Header.Get("X-Request-ID"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	_, err := c.TripsByStatus(context.Background(), StatusClosingRequested)
	require.NoError(t, err)
	require.Equal(t, "getTripsWithClosingRequest", got["dataname"])

	_, err = c.TripsForUser(context.Background(), "fma1000")
	require.NoError(t, err)
	require.Equal(t, "getTrips", got["dataname"])
	require.Equal(t, "fma1000", got["user_id"])
}

func TestTripsByStatusDecodesRows(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[
			{"trip_id":101,"origin_name":"Apapa","destination_name":"Ibadan","start_date":"2026-08-01","end_date":"2026-08-03"},
			{"trip_id":"TR-9","origin_name":"Kano","destination_name":"Jos","start_date":"2026-08-02","end_date":"2026-08-05"}
		]}`))
	})

	trips, err := c.TripsByStatus(context.Background(), StatusInitiated)
	require.NoError(t, err)
	require.Len(t, trips, 2)
	// numeric and string identifiers both decode to opaque tokens
	require.Equal(t, ID("101"), trips[0].TripID)
	require.Equal(t, ID("TR-9"), trips[1].TripID)
	require.Equal(t, "Apapa", trips[0].OriginName)
}

func TestNullDataNormalizesToEmptyList(t *testing.T) {
	t.Parallel()

	for _, body := range []string{`{"data":null}`, `{}`, `{"data":{"oops":true}}`} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})
		trips, err := c.TripsByStatus(context.Background(), StatusDelivered)
		require.NoError(t, err, body)
		require.NotNil(t, trips, body)
		require.Empty(t, trips, body)
	}
}

func TestRejectionCarriesServerMessage(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"Driver is currently assigned to another active trip"}`))
	})

	err := c.AssignDriver(context.Background(), Assignment{TripID: "1", DriverID: "7", UserID: "fma1000"})
	require.Error(t, err)
	apiErr, ok := AsError(err)
	require.True(t, ok)
	require.Equal(t, KindRejected, apiErr.Kind)
	require.Equal(t, http.StatusConflict, apiErr.Status)
	require.Equal(t, "Driver is currently assigned to another active trip", apiErr.Message)
}

func TestRejectionWithoutMessageKeepsEmpty(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := c.ConfirmOffloading(context.Background(), OffloadingConfirmation{TripID: "1", Quantity: 12, Remarks: "ok", CustomerID: "c1"})
	require.Error(t, err)
	apiErr, ok := AsError(err)
	require.True(t, ok)
	require.Equal(t, KindRejected, apiErr.Kind)
	require.Empty(t, apiErr.Message) // screens choose their own fallback wording
	require.Equal(t, "request rejected (status 500)", err.Error())
}

func TestTransportFailureIsNetworkKind(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	c := New(srv.URL, time.Second)
	_, err := c.TruckDrivers(context.Background())
	require.Error(t, err)
	apiErr, ok := AsError(err)
	require.True(t, ok)
	require.Equal(t, KindNetwork, apiErr.Kind)
	require.Equal(t, NetworkErrMessage, apiErr.Message)
}

func TestAssignmentEncodesFuellingFlag(t *testing.T) {
	t.Parallel()

	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	})

	require.NoError(t, c.AssignDriver(context.Background(), Assignment{TripID: "5", DriverID: "11", Fuelling: true, UserID: "fma1000"}))
	require.Equal(t, "assignTruckDriverToTrip", got["dataname"])
	require.Equal(t, "1", got["fuelling"])
	require.Equal(t, "5", got["trip_id"])
	require.Equal(t, "11", got["truck_driver_id"])

	require.NoError(t, c.AssignDriver(context.Background(), Assignment{TripID: "5", DriverID: "11", Fuelling: false, UserID: "fma1000"}))
	require.Equal(t, "0", got["fuelling"])
}
