package api

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ID is an opaque backend identifier. The API serves some identifiers as
// JSON strings and others as bare numbers; both decode to the same token
// and comparisons are by equality only.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*id = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*id = ID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(id))), nil
}

func (id ID) String() string { return string(id) }

// TripStatus names one of the four lifecycle partitions.
type TripStatus string

const (
	StatusInitiated        TripStatus = "initiated"
	StatusInProgress       TripStatus = "inProgress"
	StatusClosingRequested TripStatus = "closingRequested"
	StatusDelivered        TripStatus = "delivered"
)

// Statuses lists the partitions in display order.
func Statuses() []TripStatus {
	return []TripStatus{StatusInitiated, StatusInProgress, StatusClosingRequested, StatusDelivered}
}

// dataname returns the backend discriminant for the partition query.
func (s TripStatus) dataname() string {
	switch s {
	case StatusInProgress:
		return "getInProgressTrips"
	case StatusClosingRequested:
		return "getTripsWithClosingRequest"
	case StatusDelivered:
		return "getCompletedTrips"
	default:
		return "getInitiatedTrips"
	}
}

// Title is the human label used for tab headers.
func (s TripStatus) Title() string {
	switch s {
	case StatusInProgress:
		return "In-Progress Trips"
	case StatusClosingRequested:
		return "Close Trip Requests"
	case StatusDelivered:
		return "Delivered Trips"
	default:
		return "Initiated Trips"
	}
}

// Trip is a row from a partition query.
type Trip struct {
	TripID          ID     `json:"trip_id"`
	OriginName      string `json:"origin_name"`
	DestinationName string `json:"destination_name"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
}

// TruckDriver is a row from getTruckDrivers.
type TruckDriver struct {
	DriverID   ID     `json:"truck_driver_id"`
	DriverName string `json:"driver_name"`
}

// UserTrip is a row from the user-scoped getTrips query. The backend keeps a
// display id separate from the trip identifier used on mutations.
type UserTrip struct {
	ID              ID     `json:"id"`
	TripID          ID     `json:"trip_id"`
	LoadingPoint    string `json:"loading_point"`
	OffloadingPoint string `json:"offloading_point"`
}

// Assignment is the transient command submitted by assignTruckDriverToTrip.
// It has no lifecycle of its own; the server owns the resulting state.
type Assignment struct {
	TripID   ID
	DriverID ID
	Fuelling bool
	UserID   string
}

// OffloadingConfirmation is the terminal-state command for a trip. Submitting
// it transitions the trip to Delivered server-side.
type OffloadingConfirmation struct {
	TripID     ID
	Quantity   float64
	Remarks    string
	CustomerID string
}
