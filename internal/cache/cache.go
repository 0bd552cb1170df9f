package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/trialgraph/trialgraph/internal/model"
)

// Cache defines the interface for memoizing inference results.
type Cache interface {
	Get(key string) (model.InferenceResult, bool)
	Set(key string, value model.InferenceResult, ttl time.Duration)
	Clear()
}

// Key generates a cache key from normalized description text.
func Key(text string) string {
	hash := sha256.Sum256([]byte(text))
	return "trialgraph:v1:" + hex.EncodeToString(hash[:])
}
