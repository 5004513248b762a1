package pp

import (
	"fmt"

	"github.com/cloudflare/pp-go/curves"
)

// TokenLength is the length in bytes of the random data of every token.
const TokenLength = 32

// Config is the immutable protocol configuration shared by every operation
// of a Client. The zero Config is not usable.
type Config struct {
	version       int
	settings      curves.Settings
	sendH2CParams bool
	tokenLength   int
}

// NewConfig returns the configuration registered for a protocol version.
func NewConfig(version int) (Config, error) {
	var s curves.Settings
	switch version {
	case 1:
		s = curves.P256(curves.Increment)
	case 2:
		s = curves.P256(curves.SWU)
	case 3:
		s = curves.P384(curves.SWU)
	default:
		return Config{}, fmt.Errorf("%w: unknown version %d", ErrConfig, version)
	}

	return Config{
		version:       version,
		settings:      s,
		sendH2CParams: true,
		tokenLength:   TokenLength,
	}, nil
}

func (c Config) Version() int {
	return c.version
}

// Settings returns the active curve settings.
func (c Config) Settings() (curves.Settings, error) {
	if c.settings.IsZero() {
		return curves.Settings{}, ErrConfig
	}
	return c.settings, nil
}

// SendH2CParams reports whether redemption headers carry the hash-to-curve
// parameters.
func (c Config) SendH2CParams() bool {
	return c.sendH2CParams
}

func (c Config) TokenLength() int {
	return c.tokenLength
}

// WithSendH2CParams returns a copy of c with the parameter toggle set to send.
func (c Config) WithSendH2CParams(send bool) Config {
	c.sendH2CParams = send
	return c
}

// WithMethod returns a copy of c using hash-to-curve method m.
func (c Config) WithMethod(m curves.Method) Config {
	if !c.settings.IsZero() {
		c.settings = c.settings.WithMethod(m)
	}
	return c
}
