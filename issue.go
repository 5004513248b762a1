package pp

import (
	"encoding/base64"
	"fmt"
)

// BuildIssueRequest blinds every token and wraps the compressed blinded
// points into an issuance request:
//
//	base64({"type": "Issue", "contents": [base64(blind*point), ...]})
func (c *Client) BuildIssueRequest(tokens []Token) (string, error) {
	if len(tokens) == 0 {
		return "", fmt.Errorf("%w: no tokens to issue", ErrEncoding)
	}

	contents := make([]string, len(tokens))
	for i, token := range tokens {
		token, err := c.ownToken(token)
		if err != nil {
			return "", fmt.Errorf("token %d: %w", i, err)
		}
		blinded, err := BlindPoint(token.Blind, token.Point)
		if err != nil {
			return "", err
		}
		enc, err := blinded.MarshalBinaryCompress()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrEncoding, err)
		}
		contents[i] = base64.StdEncoding.EncodeToString(enc)
	}

	return tokenRequest{Type: IssueRequest, Contents: contents}.encode()
}

// ApplySignedPoints stores the issuer's SEC1 encoded signed points into the
// tokens they were issued for. The i-th point belongs to the i-th token of
// the issue request. No token is modified unless every point decodes.
func (c *Client) ApplySignedPoints(tokens []Token, points [][]byte) error {
	if len(points) != len(tokens) {
		return fmt.Errorf("%w: got %d signed points for %d tokens",
			ErrEncoding, len(points), len(tokens))
	}

	decoded := make([]Token, len(tokens))
	for i, enc := range points {
		token, err := c.ownToken(tokens[i])
		if err != nil {
			return fmt.Errorf("token %d: %w", i, err)
		}

		P := c.settings.Group.NewElement()
		if err := P.UnmarshalBinary(enc); err != nil {
			return fmt.Errorf("%w: signed point %d: %v", ErrEncoding, i, err)
		}
		if P.IsIdentity() {
			return fmt.Errorf("%w: signed point %d is the identity", ErrEncoding, i)
		}
		decoded[i] = token
		decoded[i].Point = P
	}
	copy(tokens, decoded)
	return nil
}
