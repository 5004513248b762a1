package pp

import (
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/cloudflare/circl/group"
	"github.com/cloudflare/pp-go/curves"
)

// blindSeedLength is the amount of randomness hashed into a blinding
// scalar; the surplus over the scalar length keeps the reduction unbiased.
const blindSeedLength = 64

var blindDST = []byte("privacy-pass-client-blind")

// Client builds, blinds and redeems tokens for a single Config.
type Client struct {
	cfg      Config
	settings curves.Settings
	logger   *slog.Logger

	randMu sync.Mutex
	rand   io.Reader

	// newToken is the per-attempt constructor used by GenerateNewTokens.
	newToken func() (Token, error)
}

// NewClient returns a Client drawing randomness from rnd and reporting
// skipped tokens to logger. Nil arguments fall back to crypto/rand and
// slog.Default.
func NewClient(cfg Config, rnd io.Reader, logger *slog.Logger) (*Client, error) {
	s, err := cfg.Settings()
	if err != nil {
		return nil, err
	}
	if rnd == nil {
		rnd = rand.Reader
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		cfg:      cfg,
		settings: s,
		logger:   logger,
		rand:     rnd,
	}
	c.newToken = c.CreateBlindToken
	return c, nil
}

func (c *Client) Config() Config {
	return c.cfg
}

// read fills every buffer from the random source under a single lock so
// concurrent callers never observe the same output.
func (c *Client) read(bufs ...[]byte) error {
	c.randMu.Lock()
	defer c.randMu.Unlock()
	for _, buf := range bufs {
		if _, err := io.ReadFull(c.rand, buf); err != nil {
			return fmt.Errorf("reading randomness: %w", err)
		}
	}
	return nil
}

// CreateBlindToken samples fresh token data and a blinding scalar, and maps
// the data onto the curve. ErrDegenerateMapping is returned when the data
// maps to the identity.
func (c *Client) CreateBlindToken() (Token, error) {
	data := make([]byte, c.cfg.TokenLength())
	seed := make([]byte, blindSeedLength)
	if err := c.read(data, seed); err != nil {
		return Token{}, err
	}

	blind := c.settings.Group.HashToScalar(seed, blindDST)
	if isZeroScalar(blind) {
		return Token{}, ErrInvalidScalar
	}

	point, err := c.settings.HashToCurve(data)
	if err != nil {
		return Token{}, err
	}

	return Token{
		Data:  data,
		Blind: blind,
		Point: point,
	}, nil
}

// ownToken returns token with its scalar and point decoded into the
// client's group. Tokens built under another curve fail with ErrConfig.
func (c *Client) ownToken(token Token) (Token, error) {
	if token.Blind == nil {
		return Token{}, ErrInvalidScalar
	}
	if token.Point == nil {
		return Token{}, fmt.Errorf("%w: missing point", ErrEncoding)
	}

	blind, err := scalarOf(c.settings, token.Blind)
	if err != nil {
		return Token{}, err
	}
	point, err := elementOf(c.settings, token.Point)
	if err != nil {
		return Token{}, err
	}
	token.Blind = blind
	token.Point = point
	return token, nil
}

// scalarOf re-decodes k as a scalar of s.Group.
func scalarOf(s curves.Settings, k group.Scalar) (group.Scalar, error) {
	enc, err := k.MarshalBinary()
	if err != nil || len(enc) != int(s.Group.Params().ScalarLength) {
		return nil, fmt.Errorf("%w: blind is not a %s scalar", ErrConfig, s.Name)
	}
	out := s.Group.NewScalar()
	if err := out.UnmarshalBinary(enc); err != nil {
		return nil, fmt.Errorf("%w: blind is not a %s scalar", ErrConfig, s.Name)
	}
	return out, nil
}

// elementOf re-decodes P as an element of s.Group.
func elementOf(s curves.Settings, P group.Element) (group.Element, error) {
	enc, err := P.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	out := s.Group.NewElement()
	if err := out.UnmarshalBinary(enc); err != nil {
		return nil, fmt.Errorf("%w: point is not on %s", ErrConfig, s.Name)
	}
	return out, nil
}

// BlindPoint returns blind*point, the element sent to the issuer.
func BlindPoint(blind group.Scalar, point group.Element) (group.Element, error) {
	if err := checkPair(blind, point); err != nil {
		return nil, err
	}
	return point.Copy().Mul(point, blind), nil
}

// UnblindPoint returns blind^-1 * point.
func UnblindPoint(blind group.Scalar, point group.Element) (group.Element, error) {
	if err := checkPair(blind, point); err != nil {
		return nil, err
	}
	inv := blind.Copy().Inv(blind)
	return point.Copy().Mul(point, inv), nil
}

func isZeroScalar(k group.Scalar) bool {
	zero := k.Copy()
	zero.Sub(k, k)
	return k.IsEqual(zero)
}

func checkScalar(k group.Scalar) error {
	if k == nil || isZeroScalar(k) {
		return ErrInvalidScalar
	}
	return nil
}

// checkPair rejects a zero scalar, the identity, and a scalar and point
// whose field sizes show they come from different curves.
func checkPair(k group.Scalar, P group.Element) error {
	if err := checkScalar(k); err != nil {
		return err
	}
	if err := checkPoint(P); err != nil {
		return err
	}
	scalarEnc, err := k.MarshalBinary()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScalar, err)
	}
	pointEnc, err := P.MarshalBinaryCompress()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	if len(pointEnc)-1 != len(scalarEnc) {
		return fmt.Errorf("%w: scalar and point belong to different curves", ErrConfig)
	}
	return nil
}

func checkPoint(P group.Element) error {
	if P == nil {
		return fmt.Errorf("%w: missing point", ErrEncoding)
	}
	if P.IsIdentity() {
		return fmt.Errorf("%w: identity point", ErrEncoding)
	}
	return nil
}
