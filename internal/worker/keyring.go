package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vultisig/aptos-capability/internal/aptos"
)

var ErrUnknownSource = errors.New("no key for source account")

// Keyring holds the source accounts this worker may sign for.
type Keyring struct {
	mu      sync.RWMutex
	signers map[aptos.AccountAddress]aptos.Signer
}

func NewKeyring(signers ...aptos.Signer) *Keyring {
	k := &Keyring{signers: make(map[aptos.AccountAddress]aptos.Signer, len(signers))}
	for _, s := range signers {
		k.Add(s)
	}
	return k
}

func (k *Keyring) Add(s aptos.Signer) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.signers[s.Address()] = s
}

func (k *Keyring) Signer(addr aptos.AccountAddress) (aptos.Signer, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	s, ok := k.signers[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, addr)
	}
	return s, nil
}

func (k *Keyring) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.signers)
}

// accountLocks serializes work per account; entries are dropped when unused.
type accountLocks struct {
	mu    sync.Mutex
	locks map[aptos.AccountAddress]*accountLock
}

type accountLock struct {
	sem  chan struct{}
	refs int
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[aptos.AccountAddress]*accountLock)}
}

// lock waits for addr until ctx ends and returns the matching unlock.
func (l *accountLocks) lock(ctx context.Context, addr aptos.AccountAddress) (func(), error) {
	l.mu.Lock()
	al, ok := l.locks[addr]
	if !ok {
		al = &accountLock{sem: make(chan struct{}, 1)}
		l.locks[addr] = al
	}
	al.refs++
	l.mu.Unlock()

	select {
	case al.sem <- struct{}{}:
		return func() {
			<-al.sem
			l.release(addr, al)
		}, nil
	case <-ctx.Done():
		l.release(addr, al)
		return nil, ctx.Err()
	}
}

func (l *accountLocks) release(addr aptos.AccountAddress, al *accountLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	al.refs--
	if al.refs == 0 {
		delete(l.locks, addr)
	}
}
