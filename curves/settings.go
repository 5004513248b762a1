package curves

import (
	"crypto"
	"crypto/elliptic"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/group"
)

var (
	ErrUnsupportedCurve  = errors.New("unsupported curve parameters")
	ErrUnsupportedMethod = errors.New("unsupported hash-to-curve method")
	ErrDegenerateMapping = errors.New("hash-to-curve produced the identity point")
)

// Method selects how HashToCurve maps bytes onto the curve.
type Method uint8

const (
	Increment Method = iota + 1
	SWU
)

func (m Method) String() string {
	switch m {
	case Increment:
		return "increment"
	case SWU:
		return "swu"
	default:
		return fmt.Sprintf("Method(%d)", uint8(m))
	}
}

// ParseMethod is the inverse of Method.String.
func ParseMethod(name string) (Method, error) {
	switch name {
	case "increment":
		return Increment, nil
	case "swu":
		return SWU, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedMethod, name)
	}
}

// CurveParams names the curve, hash and method used for hash-to-curve. It is
// sent alongside a redemption so that a verifier can pick the same mapping.
type CurveParams struct {
	Curve  string `json:"curve"`
	Hash   string `json:"hash"`
	Method string `json:"method"`
}

// Settings is the immutable description of an elliptic curve group together
// with its designated hash function and hash-to-curve method.
type Settings struct {
	Name     string
	HashName string
	Group    group.Group
	Hash     crypto.Hash
	Method   Method

	// field parameters for the SWU map; circl does not expose them
	curve elliptic.Curve
	seed  []byte
}

func P256(m Method) Settings {
	return Settings{
		Name:     "p256",
		HashName: "sha256",
		Group:    group.P256,
		Hash:     crypto.SHA256,
		Method:   m,
		curve:    elliptic.P256(),
		seed:     []byte("1.2.840.10045.3.1.7 point generation seed"),
	}
}

func P384(m Method) Settings {
	return Settings{
		Name:     "p384",
		HashName: "sha384",
		Group:    group.P384,
		Hash:     crypto.SHA384,
		Method:   m,
		curve:    elliptic.P384(),
		seed:     []byte("1.3.132.0.34 point generation seed"),
	}
}

// WithMethod returns a copy of s using method m.
func (s Settings) WithMethod(m Method) Settings {
	s.Method = m
	return s
}

// Params reports the curve, hash and method names of s.
func (s Settings) Params() CurveParams {
	return CurveParams{
		Curve:  s.Name,
		Hash:   s.HashName,
		Method: s.Method.String(),
	}
}

// IsZero reports whether s was never populated.
func (s Settings) IsZero() bool {
	return s.Group == nil
}

// Settings resolves the named parameters to concrete curve settings.
func (p CurveParams) Settings() (Settings, error) {
	m, err := ParseMethod(p.Method)
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	switch p.Curve {
	case "p256":
		s = P256(m)
	case "p384":
		s = P384(m)
	default:
		return Settings{}, fmt.Errorf("%w, curve: %v, hash: %v, method: %s",
			ErrUnsupportedCurve, p.Curve, p.Hash, p.Method)
	}
	if s.HashName != p.Hash {
		return Settings{}, fmt.Errorf("%w, curve: %v, hash: %v, method: %s",
			ErrUnsupportedCurve, p.Curve, p.Hash, p.Method)
	}
	return s, nil
}

func (s Settings) fieldByteLength() int {
	return int(s.Group.Params().CompressedElementLength) - 1
}
