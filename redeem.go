package pp

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// RequestType tags the wrapper sent to the issuer or verifier.
type RequestType string

const (
	IssueRequest  RequestType = "Issue"
	RedeemRequest RequestType = "Redeem"
)

// { type : (Issue|Redeem), contents : list of base64 or hex strings }
type tokenRequest struct {
	Type     RequestType `json:"type"`
	Contents []string    `json:"contents"`
}

func (r tokenRequest) encode() (string, error) {
	enc, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return base64.StdEncoding.EncodeToString(enc), nil
}

// BuildRedeemHeader returns the header value presenting token for a request
// to host and path:
//
//	base64({"type": "Redeem", "contents": [base64(data), binding, base64(h2cParams)?]})
//
// The hash-to-curve parameters are appended only when the Config sends them.
// Nothing is returned unless every step succeeds.
func (c *Client) BuildRedeemHeader(token Token, host, path string) (string, error) {
	if host == "" {
		return "", fmt.Errorf("%w: empty host", ErrEncoding)
	}
	if len(token.Data) != c.cfg.TokenLength() {
		return "", fmt.Errorf("%w: token data is %d bytes, want %d",
			ErrEncoding, len(token.Data), c.cfg.TokenLength())
	}

	token, err := c.ownToken(token)
	if err != nil {
		return "", err
	}

	sharedPoint, err := UnblindPoint(token.Blind, token.Point)
	if err != nil {
		return "", err
	}
	key, err := DeriveKey(c.settings, sharedPoint, token.Data)
	if err != nil {
		return "", err
	}
	binding, err := CreateRequestBinding(c.settings, key, [][]byte{[]byte(host), []byte(path)})
	if err != nil {
		return "", err
	}

	contents := []string{
		base64.StdEncoding.EncodeToString(token.Data),
		binding,
	}
	if c.cfg.SendH2CParams() {
		params, err := json.Marshal(c.settings.Params())
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrEncoding, err)
		}
		contents = append(contents, base64.StdEncoding.EncodeToString(params))
	}

	return tokenRequest{Type: RedeemRequest, Contents: contents}.encode()
}
