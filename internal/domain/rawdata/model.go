package rawdata

import "time"

// Payload is one raw upstream document as fetched, kept for observability
// and replay. Only the latest document per endpoint is retained; this is
// not a historical warehouse.
type Payload struct {
	Endpoint    string
	PayloadJSON string
	PayloadHash string
	FetchedAt   time.Time
}
