package pool

import (
	"errors"
	"sync"
	"testing"

	pp "github.com/cloudflare/pp-go"
	"github.com/cloudflare/pp-go/curves"
	"github.com/stretchr/testify/require"
)

func newTokens(t *testing.T, version, n int) (*pp.Client, []pp.Token) {
	cfg, err := pp.NewConfig(version)
	require.NoError(t, err)
	client, err := pp.NewClient(cfg, nil, nil)
	require.NoError(t, err)
	tokens, err := client.GenerateNewTokens(n)
	require.NoError(t, err)
	require.Len(t, tokens, n)
	return client, tokens
}

func TestMemoryStoreOrder(t *testing.T) {
	_, tokens := newTokens(t, 1, 3)

	store := NewMemoryStore()
	store.Add(tokens...)
	require.Equal(t, 3, store.Len())

	for i := range tokens {
		token, err := store.Pop()
		require.NoError(t, err)
		require.Equal(t, tokens[i].Data, token.Data)
	}
	require.Zero(t, store.Len())

	_, err := store.Pop()
	require.True(t, errors.Is(err, ErrEmpty))
}

func TestMemoryStoreConcurrentPop(t *testing.T) {
	_, tokens := newTokens(t, 2, 16)
	store := NewMemoryStore()
	store.Add(tokens...)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]bool)
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := store.Pop()
			if err != nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			seen[string(token.Data)] = true
		}()
	}
	wg.Wait()

	// every token is handed out exactly once
	require.Len(t, seen, len(tokens))
	require.Zero(t, store.Len())
}

func TestPoolEncoding(t *testing.T) {
	client, tokens := newTokens(t, 3, 3)
	cfg := client.Config()

	enc, err := Marshal(cfg, tokens)
	require.NoError(t, err)
	decoded, err := Unmarshal(cfg, enc)
	require.NoError(t, err)
	require.Len(t, decoded, len(tokens))
	for i := range tokens {
		require.Equal(t, tokens[i].Data, decoded[i].Data)
		require.True(t, tokens[i].Blind.IsEqual(decoded[i].Blind))
		require.True(t, tokens[i].Point.IsEqual(decoded[i].Point))
	}

	empty, err := Marshal(cfg, nil)
	require.NoError(t, err)
	decoded, err = Unmarshal(cfg, empty)
	require.NoError(t, err)
	require.Empty(t, decoded)
}

func TestPoolEncodingMalformed(t *testing.T) {
	client, tokens := newTokens(t, 1, 2)
	cfg := client.Config()
	enc, err := Marshal(cfg, tokens)
	require.NoError(t, err)

	for _, bad := range [][]byte{
		nil,
		enc[:len(enc)-1],
		append(append([]byte{}, enc...), 0x00),
		{0x00, 0x01},
		{0x00, 0x01, 0x01, 0x3f},
	} {
		_, err := Unmarshal(cfg, bad)
		require.True(t, errors.Is(err, pp.ErrEncoding))
	}
}

func TestPoolRejectsOtherConfig(t *testing.T) {
	client, tokens := newTokens(t, 1, 2)
	enc, err := Marshal(client.Config(), tokens)
	require.NoError(t, err)

	swu, err := pp.NewConfig(2)
	require.NoError(t, err)
	p384, err := pp.NewConfig(3)
	require.NoError(t, err)

	for _, cfg := range []pp.Config{
		swu,
		p384,
		client.Config().WithMethod(curves.SWU),
	} {
		_, err := Unmarshal(cfg, enc)
		require.True(t, errors.Is(err, pp.ErrConfig), "version %d", cfg.Version())
	}

	// the H2C parameter toggle does not change how tokens are built
	decoded, err := Unmarshal(client.Config().WithSendH2CParams(false), enc)
	require.NoError(t, err)
	require.Len(t, decoded, 2)

	_, err = Unmarshal(pp.Config{}, enc)
	require.True(t, errors.Is(err, pp.ErrConfig))
	_, err = Marshal(pp.Config{}, tokens)
	require.True(t, errors.Is(err, pp.ErrConfig))
}
