package protocol

import "routegeo/internal/model"

// Message types.
const (
	TypeDecode = "decode" // request
	TypeResult = "result" // response carrying points
	TypeError  = "error"  // response carrying an error message
)

// Request asks a decode worker to decode one polyline.
type Request struct {
	Type      string  `json:"type"`
	ID        string  `json:"id"`
	Encoded   string  `json:"encoded"`
	Simplify  *bool   `json:"simplify,omitempty"`
	Tolerance float64 `json:"tolerance,omitempty"`
}

// Options returns the decode options carried by the request.
func (r *Request) Options() model.DecodeOptions {
	return model.DecodeOptions{Simplify: r.Simplify, Tolerance: r.Tolerance}
}

// Response is a worker's reply, matched to its request by ID only.
type Response struct {
	Type   string           `json:"type"`
	ID     string           `json:"id"`
	Points []model.GeoPoint `json:"points"`
	Error  string           `json:"error,omitempty"`
}
