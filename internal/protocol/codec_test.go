package protocol

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routegeo/internal/model"
)

func TestEncodeRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     *Request
		wantErr bool
		checkFn func(t *testing.T, output string)
	}{
		{
			name: "valid decode request",
			req:  &Request{Type: TypeDecode, ID: "req-1", Encoded: "_p~iF~ps|U"},
			checkFn: func(t *testing.T, output string) {
				assert.Contains(t, output, `"type":"decode"`)
				assert.Contains(t, output, `"id":"req-1"`)
				assert.Contains(t, output, `"encoded":"_p~iF~ps|U"`)
				assert.NotContains(t, output, `"simplify"`)
			},
		},
		{
			name: "options carried",
			req:  &Request{Type: TypeDecode, ID: "req-2", Simplify: model.Bool(false), Tolerance: 0.001},
			checkFn: func(t *testing.T, output string) {
				assert.Contains(t, output, `"simplify":false`)
				assert.Contains(t, output, `"tolerance":0.001`)
			},
		},
		{name: "missing id", req: &Request{Type: TypeDecode}, wantErr: true},
		{name: "unknown type", req: &Request{Type: "encode", ID: "x"}, wantErr: true},
		{name: "negative tolerance", req: &Request{Type: TypeDecode, ID: "x", Tolerance: -1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := EncodeRequest(&buf, tt.req)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.checkFn != nil {
				tt.checkFn(t, buf.String())
			}
		})
	}
}

func TestDecodeRequestStrict(t *testing.T) {
	_, err := DecodeRequest(strings.NewReader(`{"type":"decode","id":"a","encoded":"??","extra":1}`))
	assert.Error(t, err)

	req, err := DecodeRequest(strings.NewReader(`{"type":"decode","id":"a","encoded":"??"}`))
	require.NoError(t, err)
	assert.Equal(t, "??", req.Encoded)
	assert.True(t, req.Options().ShouldSimplify())
}

func TestDecodeResponse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"result", `{"type":"result","id":"a","points":[{"lat":1,"lng":2}]}`, false},
		{"empty result", `{"type":"result","id":"a"}`, false},
		{"error with message", `{"type":"error","id":"a","error":"boom"}`, false},
		{"error without message", `{"type":"error","id":"a"}`, true},
		{"missing id", `{"type":"result"}`, true},
		{"unknown type", `{"type":"progress","id":"a"}`, true},
		{"not json", `nope`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeResponse(strings.NewReader(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEncodeResponse(t *testing.T) {
	var buf bytes.Buffer
	resp := &Response{Type: TypeResult, ID: "a", Points: []model.GeoPoint{{Lat: 1, Lng: 2}}}
	require.NoError(t, EncodeResponse(&buf, resp))
	got, err := DecodeResponse(&buf)
	require.NoError(t, err)
	assert.Equal(t, resp, got)

	assert.Error(t, EncodeResponse(&buf, &Response{Type: TypeError, ID: "a"}))
}

func TestEncodeResponseEmptyPoints(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeResponse(&buf, &Response{Type: TypeResult, ID: "a", Points: []model.GeoPoint{}}))
	assert.Contains(t, buf.String(), `"points":[]`)

	got, err := DecodeResponse(&buf)
	require.NoError(t, err)
	assert.NotNil(t, got.Points)
	assert.Empty(t, got.Points)
}
