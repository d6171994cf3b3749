// Package protocol defines the decode request/response envelope shared by the
// in-process decode worker and the WebSocket endpoint. Requests and responses
// are correlated by ID; nothing else about ordering is guaranteed.
package protocol

import (
	"encoding/json"
	"fmt"
	"io"
)

// Validate checks the request envelope.
func (r *Request) Validate() error {
	if r.Type != TypeDecode {
		return fmt.Errorf("unsupported request type: %q", r.Type)
	}
	if r.ID == "" {
		return fmt.Errorf("request missing required field: id")
	}
	if r.Tolerance < 0 {
		return fmt.Errorf("tolerance must be >= 0")
	}
	return nil
}

// Validate checks the response envelope. A response that fails validation
// is malformed and rejects the request it names.
func (r *Response) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("response missing required field: id")
	}
	switch r.Type {
	case TypeResult:
		return nil
	case TypeError:
		if r.Error == "" {
			return fmt.Errorf("response has type=error but no error message")
		}
		return nil
	default:
		return fmt.Errorf("invalid response type: %q (must be %q or %q)", r.Type, TypeResult, TypeError)
	}
}

// EncodeRequest validates req and writes it to w as JSON.
func EncodeRequest(w io.Writer, req *Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if err := json.NewEncoder(w).Encode(req); err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return nil
}

// DecodeRequest reads one request from r.
func DecodeRequest(r io.Reader) (*Request, error) {
	var req Request
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

// EncodeResponse validates resp and writes it to w as JSON.
func EncodeResponse(w io.Writer, resp *Response) error {
	if err := resp.Validate(); err != nil {
		return err
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	return nil
}

// DecodeResponse reads one response from r.
func DecodeResponse(r io.Reader) (*Response, error) {
	var resp Response
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if err := resp.Validate(); err != nil {
		return nil, err
	}
	return &resp, nil
}
