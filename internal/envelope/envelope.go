// Package envelope builds the uniform success/error wrapper returned by
// every endpoint. The two variants are mutually exclusive: a success
// envelope carries a payload and no error, an error envelope the reverse.
package envelope

import (
	"time"

	"github.com/menezmethod/salute/internal/apierror"
	"github.com/menezmethod/salute/internal/version"
)

// Status values for the envelope's discriminator field.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metadata accompanies every envelope, success or error.
type Metadata struct {
	Timestamp        string  `json:"timestamp"`
	RequestID        string  `json:"requestId,omitempty"`
	Version          string  `json:"version"`
	ProcessingTimeMs float64 `json:"processingTimeMs"`
}

// Envelope is the wire shape of every API response.
type Envelope struct {
	Status   string          `json:"status"`
	Payload  any             `json:"payload,omitempty"`
	Error    *apierror.Error `json:"error,omitempty"`
	Metadata Metadata        `json:"metadata"`
}

// NewMetadata stamps metadata for a request that started at the given time.
func NewMetadata(requestID string, start time.Time) Metadata {
	return Metadata{
		Timestamp:        time.Now().UTC().Format(time.RFC3339Nano),
		RequestID:        requestID,
		Version:          version.Version,
		ProcessingTimeMs: float64(time.Since(start).Microseconds()) / 1000.0,
	}
}

// Success wraps a payload in a success envelope.
func Success(payload any, md Metadata) Envelope {
	return Envelope{Status: StatusSuccess, Payload: payload, Metadata: md}
}

// Failure wraps an error in an error envelope.
func Failure(err *apierror.Error, md Metadata) Envelope {
	return Envelope{Status: StatusError, Error: err, Metadata: md}
}
