// Package cache stores decoded routes keyed by their encoded form.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"routegeo/internal/model"
)

// Cache holds decoded point sequences. Get reports a miss with ok=false and
// a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (points []model.GeoPoint, ok bool, err error)
	Set(ctx context.Context, key string, points []model.GeoPoint) error
	// Backend names the implementation for metrics labels.
	Backend() string
}

// Key derives the cache key for encoded decoded with opts.
func Key(encoded string, opts model.DecodeOptions) string {
	h := sha256.New()
	h.Write([]byte(encoded))
	h.Write([]byte{0})
	if opts.ShouldSimplify() {
		h.Write([]byte("s:" + strconv.FormatFloat(opts.Tolerance, 'g', -1, 64)))
	} else {
		h.Write([]byte("raw"))
	}
	return "polyline:" + hex.EncodeToString(h.Sum(nil))[:32]
}
