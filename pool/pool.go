// Package pool keeps issued tokens until they are redeemed.
package pool

import (
	"errors"
	"fmt"
	"sync"

	pp "github.com/cloudflare/pp-go"
	"github.com/cloudflare/pp-go/curves"
	"github.com/cloudflare/pp-go/quicwire"
	"golang.org/x/crypto/cryptobyte"
)

var ErrEmpty = errors.New("token pool is empty")

// Store holds tokens for later redemption. Pop removes the token it returns,
// so every token is redeemed at most once.
type Store interface {
	Add(tokens ...pp.Token)
	Pop() (pp.Token, error)
	Len() int
}

// MemoryStore is a Store that keeps tokens in memory, oldest first.
type MemoryStore struct {
	mu     sync.Mutex
	tokens []pp.Token
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Add(tokens ...pp.Token) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = append(m.tokens, tokens...)
}

func (m *MemoryStore) Pop() (pp.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.tokens) == 0 {
		return pp.Token{}, ErrEmpty
	}
	token := m.tokens[0]
	m.tokens[0] = pp.Token{}
	m.tokens = m.tokens[1:]
	return token, nil
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

// Snapshot returns a copy of the stored tokens, oldest first.
func (m *MemoryStore) Snapshot() []pp.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]pp.Token{}, m.tokens...)
}

// struct {
//     uint16 version;
//     uint8  method;
//     varint count;
//     opaque token<0..2^16-1>[count];
// } TokenPool;

// Marshal encodes tokens created under cfg. The configuration version and
// hash-to-curve method are recorded so that Unmarshal can refuse to load the
// pool under a different configuration.
func Marshal(cfg pp.Config, tokens []pp.Token) ([]byte, error) {
	s, err := cfg.Settings()
	if err != nil {
		return nil, err
	}

	b := cryptobyte.NewBuilder(nil)
	b.AddUint16(uint16(cfg.Version()))
	b.AddUint8(uint8(s.Method))
	b.AddBytes(quicwire.AppendVarint(nil, uint64(len(tokens))))
	for i, token := range tokens {
		enc, err := token.Marshal()
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", i, err)
		}
		b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
			b.AddBytes(enc)
		})
	}
	return b.Bytes()
}

func Unmarshal(cfg pp.Config, data []byte) ([]pp.Token, error) {
	s, err := cfg.Settings()
	if err != nil {
		return nil, err
	}

	str := cryptobyte.String(data)
	var (
		version uint16
		method  uint8
	)
	if !str.ReadUint16(&version) || !str.ReadUint8(&method) {
		return nil, fmt.Errorf("%w: invalid token pool header", pp.ErrEncoding)
	}
	if int(version) != cfg.Version() || curves.Method(method) != s.Method {
		return nil, fmt.Errorf("%w: pool was created by version %d with %v, configured version %d with %v",
			pp.ErrConfig, version, curves.Method(method), cfg.Version(), s.Method)
	}

	count, offset := quicwire.ConsumeVarint(str)
	if offset == 0 {
		return nil, fmt.Errorf("%w: invalid token count", pp.ErrEncoding)
	}
	str.Skip(offset)
	if count > uint64(len(str)) {
		return nil, fmt.Errorf("%w: token count %d exceeds input", pp.ErrEncoding, count)
	}
	tokens := make([]pp.Token, 0, count)
	for i := uint64(0); i < count; i++ {
		var enc cryptobyte.String
		if !str.ReadUint16LengthPrefixed(&enc) {
			return nil, fmt.Errorf("%w: invalid token list encoding", pp.ErrEncoding)
		}
		token, err := pp.UnmarshalToken(s, enc)
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", i, err)
		}
		tokens = append(tokens, token)
	}
	if !str.Empty() {
		return nil, fmt.Errorf("%w: trailing data after token list", pp.ErrEncoding)
	}
	return tokens, nil
}
