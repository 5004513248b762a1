package pp

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/cloudflare/pp-go/curves"
	"github.com/cloudflare/pp-go/util"
)

const (
	outputRedemptionTestVectorEnvironmentKey = "REDEMPTION_TEST_VECTORS_OUT"
	inputRedemptionTestVectorEnvironmentKey  = "REDEMPTION_TEST_VECTORS_IN"

	// known-answer vectors computed outside this package
	defaultRedemptionTestVectorFile = "testdata/redemption_vectors.json"
)

// /////
// Redemption header test vector
type rawRedemptionTestVector struct {
	Version       int    `json:"version"`
	Method        string `json:"method"`
	SendH2CParams bool   `json:"send_h2c_params"`
	Data          string `json:"data"`
	Blind         string `json:"blind"`
	Point         string `json:"point"`
	Host          string `json:"host"`
	Path          string `json:"path"`
	Header        string `json:"header"`
}

type RedemptionTestVector struct {
	t             *testing.T
	version       int
	method        curves.Method
	sendH2CParams bool
	token         []byte
	host          string
	path          string
	header        string
}

type RedemptionTestVectorArray struct {
	t       *testing.T
	vectors []RedemptionTestVector
}

func (tva RedemptionTestVectorArray) MarshalJSON() ([]byte, error) {
	return json.Marshal(tva.vectors)
}

func (tva *RedemptionTestVectorArray) UnmarshalJSON(data []byte) error {
	err := json.Unmarshal(data, &tva.vectors)
	if err != nil {
		return err
	}

	for i := range tva.vectors {
		tva.vectors[i].t = tva.t
	}
	return nil
}

func (etv RedemptionTestVector) config() Config {
	cfg, err := NewConfig(etv.version)
	if err != nil {
		panic(err)
	}
	return cfg.WithMethod(etv.method).WithSendH2CParams(etv.sendH2CParams)
}

func (etv RedemptionTestVector) MarshalJSON() ([]byte, error) {
	s, err := etv.config().Settings()
	if err != nil {
		return nil, err
	}
	token, err := UnmarshalToken(s, etv.token)
	if err != nil {
		return nil, err
	}
	pointEnc, err := token.Point.MarshalBinaryCompress()
	if err != nil {
		return nil, err
	}

	return json.Marshal(rawRedemptionTestVector{
		Version:       etv.version,
		Method:        etv.method.String(),
		SendH2CParams: etv.sendH2CParams,
		Data:          util.MustHex(token.Data),
		Blind:         util.MustHex(util.MustMarshal(token.Blind)),
		Point:         util.MustHex(pointEnc),
		Host:          etv.host,
		Path:          etv.path,
		Header:        etv.header,
	})
}

func (etv *RedemptionTestVector) UnmarshalJSON(data []byte) error {
	raw := rawRedemptionTestVector{}
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}

	etv.version = raw.Version
	etv.method, err = curves.ParseMethod(raw.Method)
	if err != nil {
		return err
	}
	etv.sendH2CParams = raw.SendH2CParams
	etv.host = raw.Host
	etv.path = raw.Path
	etv.header = raw.Header

	s, err := etv.config().Settings()
	if err != nil {
		return err
	}
	blind := s.Group.NewScalar()
	if err := blind.UnmarshalBinary(util.MustUnhex(nil, raw.Blind)); err != nil {
		return err
	}
	point := s.Group.NewElement()
	if err := point.UnmarshalBinary(util.MustUnhex(nil, raw.Point)); err != nil {
		return err
	}
	etv.token, err = Token{
		Data:  util.MustUnhex(nil, raw.Data),
		Blind: blind,
		Point: point,
	}.Marshal()
	return err
}

func generateRedemptionTestVector(t *testing.T, version int, method curves.Method, sendH2CParams bool) RedemptionTestVector {
	cfg, err := NewConfig(version)
	if err != nil {
		t.Fatal(err)
	}
	cfg = cfg.WithMethod(method).WithSendH2CParams(sendH2CParams)

	client, err := NewClient(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	token, err := client.CreateBlindToken()
	if err != nil {
		t.Fatal(err)
	}
	header, err := client.BuildRedeemHeader(token, "issuer.example", "/resource")
	if err != nil {
		t.Fatal(err)
	}
	tokenEnc, err := token.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	return RedemptionTestVector{
		t:             t,
		version:       version,
		method:        method,
		sendH2CParams: sendH2CParams,
		token:         tokenEnc,
		host:          "issuer.example",
		path:          "/resource",
		header:        header,
	}
}

func verifyRedemptionTestVector(t *testing.T, vector RedemptionTestVector) {
	client, err := NewClient(vector.config(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	token, err := UnmarshalToken(client.settings, vector.token)
	if err != nil {
		t.Fatal(err)
	}

	// vectors hold tokens as created, before issuance
	point, err := client.settings.HashToCurve(token.Data)
	if err != nil {
		t.Fatal(err)
	}
	if !point.IsEqual(token.Point) {
		t.Fatalf("Hash-to-curve mismatch for %v", client.settings.Params())
	}

	header, err := client.BuildRedeemHeader(token, vector.host, vector.path)
	if err != nil {
		t.Fatal(err)
	}
	if header != vector.header {
		t.Fatalf("Redemption header mismatch for %v host %q path %q", client.settings.Params(), vector.host, vector.path)
	}
}

func verifyRedemptionTestVectors(t *testing.T, encoded []byte) {
	vectors := RedemptionTestVectorArray{t: t}
	err := json.Unmarshal(encoded, &vectors)
	if err != nil {
		t.Fatalf("Error decoding test vector string: %v", err)
	}

	for _, vector := range vectors.vectors {
		verifyRedemptionTestVector(t, vector)
	}
}

func TestVectorGenerateRedemption(t *testing.T) {
	vectors := make([]RedemptionTestVector, 0)
	vectors = append(vectors, generateRedemptionTestVector(t, 1, curves.Increment, true))
	vectors = append(vectors, generateRedemptionTestVector(t, 1, curves.Increment, false))
	vectors = append(vectors, generateRedemptionTestVector(t, 2, curves.SWU, true))
	vectors = append(vectors, generateRedemptionTestVector(t, 3, curves.SWU, true))

	// Encode the test vectors
	encoded, err := json.Marshal(vectors)
	if err != nil {
		t.Fatalf("Error producing test vectors: %v", err)
	}

	// Verify that we process them correctly
	verifyRedemptionTestVectors(t, encoded)

	var outputFile string
	if outputFile = os.Getenv(outputRedemptionTestVectorEnvironmentKey); len(outputFile) > 0 {
		err := os.WriteFile(outputFile, encoded, 0644)
		if err != nil {
			t.Fatalf("Error writing test vectors: %v", err)
		}
	}
}

func TestVectorVerifyRedemption(t *testing.T) {
	inputFile := defaultRedemptionTestVectorFile
	if override := os.Getenv(inputRedemptionTestVectorEnvironmentKey); len(override) > 0 {
		inputFile = override
	}

	encoded, err := os.ReadFile(inputFile)
	if err != nil {
		t.Fatalf("Failed reading test vectors: %v", err)
	}

	verifyRedemptionTestVectors(t, encoded)
}
