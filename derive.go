package pp

import (
	"crypto/hmac"
	"fmt"

	"github.com/cloudflare/circl/group"
	"github.com/cloudflare/pp-go/curves"
)

var deriveKeyTag = []byte("hash_derive_key")

// DeriveKey derives the redemption key shared with the verifier from the
// unblinded point and the token data:
//
//	HMAC_H("hash_derive_key", data || SEC1-uncompressed(point))
func DeriveKey(s curves.Settings, point group.Element, data []byte) ([]byte, error) {
	if s.IsZero() {
		return nil, ErrConfig
	}
	if err := checkPoint(point); err != nil {
		return nil, err
	}
	point, err := elementOf(s, point)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty token data", ErrEncoding)
	}

	pointEnc, err := point.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	mac := hmac.New(s.Hash.New, deriveKeyTag)
	mac.Write(data)
	mac.Write(pointEnc)
	return mac.Sum(nil), nil
}
