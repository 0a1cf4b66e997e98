package roomstore

import (
	"context"
	"math/rand"
	"sync"
)

const (
	codeLength   = 4
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// CodeGenerator draws 4-letter join codes, one uniform letter at a time,
// retrying until the code is not held by a live room. With 26^4 possible
// codes and small live-room counts, retries are cheap and uncapped.
type CodeGenerator struct {
	store Store
	mu    sync.Mutex
	r     *rand.Rand
}

func NewCodeGenerator(store Store, src rand.Source) *CodeGenerator {
	return &CodeGenerator{store: store, r: rand.New(src)}
}

func (g *CodeGenerator) Generate(ctx context.Context) (string, error) {
	for {
		code := g.randomCode()
		_, err := g.store.GetRoom(ctx, code)
		if err == ErrRoomNotFound {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
}

func (g *CodeGenerator) randomCode() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[g.r.Intn(len(codeAlphabet))]
	}
	return string(b)
}
