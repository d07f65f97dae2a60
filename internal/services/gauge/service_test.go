package gauge

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	gaugeAddr = common.HexToAddress("0x0000000000000000000000000000000000009a09")
	owner     = common.HexToAddress("0x0000000000000000000000000000000000000abc")
	minter    = common.HexToAddress("0x00000000000000000000000000000000000001f1")
)

// fakeProber accepts only the selectors in supported
type fakeProber struct {
	mu        sync.Mutex
	supported [][]byte
	transport error
	calls     int
}

func (p *fakeProber) EstimateCall(ctx context.Context, from, to common.Address, data []byte) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.transport != nil {
		return 0, p.transport
	}
	for _, sel := range p.supported {
		if bytes.Equal(sel, data[:4]) {
			return 50_000, nil
		}
	}
	return 0, errors.New("execution reverted")
}

func selector(method string) []byte {
	return gaugeABI.Methods[method].ID
}

func TestCapabilityResolution(t *testing.T) {
	tests := []struct {
		name      string
		supported [][]byte
		want      ClaimCapability
	}{
		{"receiver", [][]byte{selector(methodClaimWithReceiver), selector(methodClaimPlain)}, ClaimWithReceiver},
		{"plain", [][]byte{selector(methodClaimPlain)}, ClaimPlain},
		{"minter only", nil, ClaimMinterOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&fakeProber{supported: tt.supported}, minter)
			got, err := svc.Capability(context.Background(), gaugeAddr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCapabilityIsCached(t *testing.T) {
	prober := &fakeProber{supported: [][]byte{selector(methodClaimPlain)}}
	svc := NewService(prober, minter)

	for i := 0; i < 3; i++ {
		_, err := svc.Capability(context.Background(), gaugeAddr)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, prober.calls)
}

func TestTransportErrorIsNotCached(t *testing.T) {
	prober := &fakeProber{transport: errors.New("connection refused")}
	svc := NewService(prober, minter)

	_, err := svc.Capability(context.Background(), gaugeAddr)
	assert.ErrorIs(t, err, ErrProbeFailed)

	prober.transport = nil
	got, err := svc.Capability(context.Background(), gaugeAddr)
	require.NoError(t, err)
	assert.Equal(t, ClaimMinterOnly, got)
}

func TestClaimCall(t *testing.T) {
	svc := NewService(&fakeProber{supported: [][]byte{selector(methodClaimWithReceiver)}}, minter)
	call, err := svc.Claim(context.Background(), gaugeAddr, owner)
	require.NoError(t, err)
	assert.Equal(t, gaugeAddr, call.To)
	assert.Equal(t, selector(methodClaimWithReceiver), []byte(call.Data[:4]))
	assert.Len(t, call.Data, 4+2*32)

	svc = NewService(&fakeProber{}, minter)
	call, err = svc.Claim(context.Background(), gaugeAddr, owner)
	require.NoError(t, err)
	assert.Equal(t, minter, call.To)
	assert.Equal(t, "minter_only", call.Capability)
	assert.Equal(t, selector(methodMint), []byte(call.Data[:4]))
}
