// Package v1 holds the JSON bodies returned by the conversion API.
package v1

// ConversionResponse is returned by /romannumeral and /arabicnumeral. Input echoes
// the query parameter exactly as received.
type ConversionResponse struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

const (
	HealthStatusOK = "OK"

	// TimestampFormat matches the millisecond ISO-8601 form used in health responses.
	TimestampFormat = "2006-01-02T15:04:05.000Z07:00"
)
