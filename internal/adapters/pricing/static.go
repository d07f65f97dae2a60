package pricing

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// StaticProvider serves fixed USD rates, used for configured pins
type StaticProvider struct {
	mu    sync.RWMutex
	rates map[common.Address]float64
}

func NewStaticProvider(rates map[common.Address]float64) *StaticProvider {
	p := &StaticProvider{rates: make(map[common.Address]float64, len(rates))}
	for k, v := range rates {
		p.rates[k] = v
	}
	return p
}

func (p *StaticProvider) Set(token common.Address, rate float64) {
	p.mu.Lock()
	p.rates[token] = rate
	p.mu.Unlock()
}

func (p *StaticProvider) USDRate(ctx context.Context, token common.Address) (float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.rates[token]
	if !ok {
		return 0, ErrNoPrice
	}
	return r, nil
}

func (p *StaticProvider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.rates)
}
