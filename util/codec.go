package util

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"testing"
)

// /////
// Infallible Serialize / Deserialize
func fatalOnError(t *testing.T, err error, msg string) {
	if err != nil {
		realMsg := fmt.Sprintf("%s: %v", msg, err)
		if t != nil {
			t.Fatal(realMsg)
		} else {
			panic(realMsg)
		}
	}
}

func MustUnhex(t *testing.T, h string) []byte {
	out, err := hex.DecodeString(h)
	fatalOnError(t, err, "Unhex failed")
	return out
}

func MustHex(d []byte) string {
	return hex.EncodeToString(d)
}

func MustUnbase64(t *testing.T, s string) []byte {
	out, err := base64.StdEncoding.DecodeString(s)
	fatalOnError(t, err, "Unbase64 failed")
	return out
}

type binaryMarshaler interface {
	MarshalBinary() ([]byte, error)
}

// MustMarshal returns the binary encoding of v, panicking on failure.
func MustMarshal(v binaryMarshaler) []byte {
	enc, err := v.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return enc
}
