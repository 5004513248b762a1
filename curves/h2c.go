package curves

import (
	"fmt"
	"math/big"

	"github.com/cloudflare/circl/group"
)

// incrementIterations bounds the number of candidate x-coordinates tried by
// the increment method before it gives up.
const incrementIterations = 20

// HashToCurve deterministically maps data to a point of s.Group using
// s.Method. A mapping that ends in the identity element is reported as
// ErrDegenerateMapping, whichever method produced it.
func (s Settings) HashToCurve(data []byte) (group.Element, error) {
	if s.IsZero() {
		return nil, ErrUnsupportedCurve
	}

	var (
		P   group.Element
		err error
	)
	switch s.Method {
	case Increment:
		P = s.hashAndIncrement(data)
	case SWU:
		P, err = s.mapSWU(s.hashToBaseField(data))
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedMethod, s.Method)
	}
	if err != nil {
		return nil, err
	}
	if P.IsIdentity() {
		return nil, ErrDegenerateMapping
	}
	return P, nil
}

// hashAndIncrement treats H(seed || data || ctr) as a candidate x-coordinate
// and returns the first one that decompresses to a curve point. The identity
// is returned once the iteration budget is exhausted.
func (s Settings) hashAndIncrement(data []byte) group.Element {
	byteLen := s.fieldByteLength()
	h := s.Hash.New()
	enc := make([]byte, 1+byteLen)
	for ctr := 0; ctr < incrementIterations; ctr++ {
		h.Reset()
		h.Write(s.seed)
		h.Write(data)
		h.Write([]byte{byte(ctr)})
		sum := h.Sum(nil)

		enc[0] = 0x02
		copy(enc[1:], sum[:byteLen])
		P := s.Group.NewElement()
		if err := P.UnmarshalBinary(enc); err == nil {
			return P
		}
	}
	return s.Group.Identity()
}

// hashToBaseField hashes seed || data into an element of the base field.
func (s Settings) hashToBaseField(data []byte) *big.Int {
	h := s.Hash.New()
	h.Write(s.seed)
	h.Write(data)
	sum := h.Sum(nil)

	t := new(big.Int).SetBytes(sum[:s.fieldByteLength()])
	return t.Mod(t, s.curve.Params().P)
}

// mapSWU is the simplified SWU encoding of Brier et al., "Efficient
// Indifferentiable Hashing into Ordinary Elliptic Curves", for curves with
// a = -3 and p = 3 mod 4. Inputs t in {0, 1, -1} map to the identity.
func (s Settings) mapSWU(t *big.Int) (group.Element, error) {
	params := s.curve.Params()
	p := params.P
	a := new(big.Int).Sub(p, big.NewInt(3))
	b := params.B

	// u = -t^2
	u := new(big.Int).Mul(t, t)
	u.Neg(u).Mod(u, p)

	// t0 = 1/(u^2 + u)
	t0 := new(big.Int).Mul(u, u)
	t0.Add(t0, u).Mod(t0, p)
	if t0.Sign() == 0 {
		return s.Group.Identity(), nil
	}
	t0.ModInverse(t0, p)

	// x = (-b/a) * (1 + t0)
	x := new(big.Int).ModInverse(a, p)
	x.Mul(x, b).Neg(x).Mod(x, p)
	x.Mul(x, new(big.Int).Add(big.NewInt(1), t0)).Mod(x, p)

	// y = g(x)^((p+1)/4) where g(x) = x^3 + ax + b
	g := s.weierstrass(x)
	exp := new(big.Int).Add(p, big.NewInt(1))
	exp.Rsh(exp, 2)
	y := new(big.Int).Exp(g, exp, p)

	// g(x) is not a square: move to x' = u*x, y' = t^3*y
	if new(big.Int).Mod(new(big.Int).Mul(y, y), p).Cmp(g) != 0 {
		x.Mul(x, u).Mod(x, p)
		y.Mul(y, u).Neg(y).Mod(y, p)
		y.Mul(y, t).Mod(y, p)
	}

	return s.pointFromAffine(x, y)
}

func (s Settings) weierstrass(x *big.Int) *big.Int {
	params := s.curve.Params()
	p := params.P
	g := new(big.Int).Mul(x, x)
	g.Sub(g, big.NewInt(3)).Mul(g, x)
	g.Add(g, params.B)
	return g.Mod(g, p)
}

// pointFromAffine loads (x, y) into s.Group through its SEC1 uncompressed
// encoding, which also checks that the point lies on the curve.
func (s Settings) pointFromAffine(x, y *big.Int) (group.Element, error) {
	byteLen := s.fieldByteLength()
	enc := make([]byte, 1+2*byteLen)
	enc[0] = 0x04
	x.FillBytes(enc[1 : 1+byteLen])
	y.FillBytes(enc[1+byteLen:])

	P := s.Group.NewElement()
	if err := P.UnmarshalBinary(enc); err != nil {
		return nil, fmt.Errorf("swu produced an invalid point: %w", err)
	}
	return P, nil
}
