package pp

import (
	"errors"

	"github.com/cloudflare/pp-go/curves"
)

var (
	// ErrConfig is returned when no configuration is active or the requested
	// version is not one of the known protocol versions.
	ErrConfig = errors.New("no active configuration")

	// ErrDegenerateMapping is returned when a token's data hashes to the
	// identity point. GenerateNewTokens skips such attempts.
	ErrDegenerateMapping = curves.ErrDegenerateMapping

	// ErrInvalidScalar is returned for zero or undecodable blinding scalars.
	ErrInvalidScalar = errors.New("invalid blinding scalar")

	// ErrEncoding is returned for malformed inputs to the encoders.
	ErrEncoding = errors.New("invalid encoding")
)
