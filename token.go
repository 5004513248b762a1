package pp

import (
	"fmt"

	"github.com/cloudflare/circl/group"
	"github.com/cloudflare/pp-go/curves"
	"golang.org/x/crypto/cryptobyte"
)

// Token is a client-held token. Before issuance Point is the hash-to-curve
// image of Data; ApplySignedPoints replaces it with the issuer's signature
// over Blind*Point.
type Token struct {
	Data  []byte
	Blind group.Scalar
	Point group.Element
}

// struct {
//     uint8 data<1..2^8-1>;
//     uint8 blind<1..2^8-1>;
//     uint8 point<1..2^8-1>;   // SEC1 compressed
// } Token;

func (t Token) Marshal() ([]byte, error) {
	if t.Blind == nil || t.Point == nil {
		return nil, fmt.Errorf("%w: incomplete token", ErrEncoding)
	}
	blindEnc, err := t.Blind.MarshalBinary()
	if err != nil {
		return nil, err
	}
	pointEnc, err := t.Point.MarshalBinaryCompress()
	if err != nil {
		return nil, err
	}

	b := cryptobyte.NewBuilder(nil)
	b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(t.Data)
	})
	b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(blindEnc)
	})
	b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(pointEnc)
	})
	out, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return out, nil
}

func UnmarshalToken(s curves.Settings, data []byte) (Token, error) {
	if s.IsZero() {
		return Token{}, ErrConfig
	}

	str := cryptobyte.String(data)
	var tokenData, blindEnc, pointEnc cryptobyte.String
	if !str.ReadUint8LengthPrefixed(&tokenData) ||
		!str.ReadUint8LengthPrefixed(&blindEnc) ||
		!str.ReadUint8LengthPrefixed(&pointEnc) ||
		!str.Empty() {
		return Token{}, fmt.Errorf("%w: invalid Token encoding", ErrEncoding)
	}

	if len(blindEnc) != int(s.Group.Params().ScalarLength) {
		return Token{}, fmt.Errorf("%w: blind is %d bytes", ErrInvalidScalar, len(blindEnc))
	}
	blind := s.Group.NewScalar()
	if err := blind.UnmarshalBinary(blindEnc); err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrInvalidScalar, err)
	}
	if isZeroScalar(blind) {
		return Token{}, ErrInvalidScalar
	}
	point := s.Group.NewElement()
	if err := point.UnmarshalBinary(pointEnc); err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	if point.IsIdentity() {
		return Token{}, fmt.Errorf("%w: identity point", ErrEncoding)
	}

	return Token{
		Data:  append([]byte{}, tokenData...),
		Blind: blind,
		Point: point,
	}, nil
}
