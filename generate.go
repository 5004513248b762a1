package pp

import (
	"errors"
	"fmt"
)

// maxPrealloc bounds the capacity reserved up front for a batch.
const maxPrealloc = 1024

// GenerateNewTokens makes exactly n construction attempts and returns the
// tokens that succeeded, in attempt order. Attempts that map to the identity
// are logged and skipped, so fewer than n tokens may be returned. Any other
// failure aborts the batch.
func (c *Client) GenerateNewTokens(n int) ([]Token, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative token count %d", ErrEncoding, n)
	}

	tokens := make([]Token, 0, min(n, maxPrealloc))
	for i := 0; i < n; i++ {
		token, err := c.newToken()
		if errors.Is(err, ErrDegenerateMapping) {
			params := c.settings.Params()
			c.logger.Warn("skipping token that mapped to the identity point",
				"attempt", i,
				"version", c.cfg.Version(),
				"curve", params.Curve,
				"hash", params.Hash,
				"method", params.Method,
				"error", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}
