package id

import "github.com/google/uuid"

// New returns a batch identifier used in logs, spans and the X-Batch-ID header.
func New() string {
	return uuid.NewString()
}
