package api

// ErrorResponse is the JSON body returned for failed submissions.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status string `json:"status"`
}

// DeliveryHeader reports the outcome of an optional email delivery on a
// successful render. Delivery failure never fails the download.
const DeliveryHeader = "X-Email-Delivery"

const (
	DeliverySent         = "sent"
	DeliveryFailed       = "failed"
	DeliveryUnconfigured = "unconfigured"
)
