package service

import (
	"context"
	"math"
	"strconv"
	"strings"

	"tripline/internal/api"
)

// Field keys for offloading form validation errors.
const (
	FieldOffloadingQty = "offloading_qty"
	FieldRemarks       = "remarks"
)

const (
	msgQuantityRequired = "Loading Quantity is required"
	msgRemarkRequired   = "Remark is required"
	offloadFailedMsg    = "Request Failed, Try Again"
)

// Offloading validates and submits the terminal offloading confirmation.
type Offloading struct {
	client *api.Client
}

func NewOffloading(client *api.Client) *Offloading {
	return &Offloading{client: client}
}

// ValidateOffloading checks the raw form input and collects every violation,
// keyed by field, so all inline errors can render at once. An empty map means
// the input is valid.
func ValidateOffloading(rawQuantity, rawRemarks string) map[string]string {
	fieldErrs := map[string]string{}

	qty, err := strconv.ParseFloat(strings.TrimSpace(rawQuantity), 64)
	if err != nil || math.IsNaN(qty) || qty < 1 {
		fieldErrs[FieldOffloadingQty] = msgQuantityRequired
	}
	if strings.TrimSpace(rawRemarks) == "" {
		fieldErrs[FieldRemarks] = msgRemarkRequired
	}
	return fieldErrs
}

// ValidateAndSubmit builds the confirmation command from raw input and
// submits it. When validation fails the field errors come back and nothing
// touches the network. A non-nil error is always user-presentable: the
// server message when one exists, a fixed fallback otherwise. The call is
// safely re-invokable by the caller but never retried automatically.
func (o *Offloading) ValidateAndSubmit(ctx context.Context, tripID api.ID, rawQuantity, rawRemarks, customerID string) (map[string]string, error) {
	fieldErrs := ValidateOffloading(rawQuantity, rawRemarks)
	if len(fieldErrs) > 0 {
		return fieldErrs, nil
	}

	qty, _ := strconv.ParseFloat(strings.TrimSpace(rawQuantity), 64)
	err := o.client.ConfirmOffloading(ctx, api.OffloadingConfirmation{
		TripID:     tripID,
		Quantity:   qty,
		Remarks:    strings.TrimSpace(rawRemarks),
		CustomerID: customerID,
	})
	if err == nil {
		return nil, nil
	}
	if apiErr, ok := api.AsError(err); ok && apiErr.Kind == api.KindRejected && apiErr.Message != "" {
		return nil, &OffloadError{Message: apiErr.Message}
	}
	return nil, &OffloadError{Message: offloadFailedMsg}
}

// OffloadError is a failed submission with display-ready text.
type OffloadError struct {
	Message string
}

func (e *OffloadError) Error() string { return e.Message }
