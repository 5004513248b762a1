package pp

import (
	"crypto/hmac"
	"encoding/hex"
	"fmt"

	"github.com/cloudflare/pp-go/curves"
	"golang.org/x/crypto/cryptobyte"
)

var requestBindingTag = []byte("hash_request_binding")

// CreateRequestBinding computes the hex encoded MAC that ties a redemption
// to its request. Each field is length prefixed so that distinct field
// lists never produce the same MAC input:
//
//	HMAC_H(key, "hash_request_binding" || len(f_0) || f_0 || ... )
func CreateRequestBinding(s curves.Settings, key []byte, fields [][]byte) (string, error) {
	if s.IsZero() {
		return "", ErrConfig
	}
	if len(key) == 0 {
		return "", fmt.Errorf("%w: empty binding key", ErrEncoding)
	}
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: nothing to bind", ErrEncoding)
	}

	b := cryptobyte.NewBuilder(nil)
	b.AddBytes(requestBindingTag)
	for _, field := range fields {
		if field == nil {
			return "", fmt.Errorf("%w: missing binding field", ErrEncoding)
		}
		field := field
		b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
			b.AddBytes(field)
		})
	}
	msg, err := b.Bytes()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	mac := hmac.New(s.Hash.New, key)
	mac.Write(msg)
	return hex.EncodeToString(mac.Sum(nil)), nil
}
