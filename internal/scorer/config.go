package scorer

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// ConfigHash returns a SHA-256 hash of the scoring config for reproducibility.
func ConfigHash(cfg any) string {
	data, err := json.Marshal(cfg)
	if err != nil {
		return ""
	}
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:16]) // 32 hex chars
}

// Hash returns the ConfigHash of the engine's weights. Score runs record it
// so results can be traced to the weights that produced them.
func (e *Engine) Hash() string {
	return ConfigHash(e.weights)
}
