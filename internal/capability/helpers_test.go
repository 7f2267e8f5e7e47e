package capability

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vultisig/aptos-capability/internal/aptos"
)

type fakeLedger struct {
	mu        sync.Mutex
	chainID   uint8
	sequences map[aptos.AccountAddress]uint64
	chainErr  error
	seqErr    error
	seqCalls  int
}

func newFakeLedger(chainID uint8) *fakeLedger {
	return &fakeLedger{
		chainID:   chainID,
		sequences: map[aptos.AccountAddress]uint64{},
	}
}

func (l *fakeLedger) GetChainID(context.Context) (uint8, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.chainErr != nil {
		return 0, l.chainErr
	}
	return l.chainID, nil
}

func (l *fakeLedger) GetAccountSequenceNumber(_ context.Context, addr aptos.AccountAddress) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seqCalls++
	if l.seqErr != nil {
		return 0, l.seqErr
	}
	seq, ok := l.sequences[addr]
	if !ok {
		return 0, aptos.ErrAccountNotFound
	}
	return seq, nil
}

func (l *fakeLedger) setSequence(addr aptos.AccountAddress, seq uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sequences[addr] = seq
}

type fakeSubmitter struct {
	mu       sync.Mutex
	payloads []aptos.EntryFunction
	senders  []aptos.AccountAddress
	err      error
	result   aptos.TransactionResult
}

func (s *fakeSubmitter) SubmitAndConfirm(_ context.Context, signer aptos.Signer, payload aptos.EntryFunction) (aptos.TransactionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, payload)
	s.senders = append(s.senders, signer.Address())
	if s.err != nil {
		return aptos.TransactionResult{}, s.err
	}
	res := s.result
	if res.Hash == "" {
		res = aptos.TransactionResult{Hash: "0xabc", Version: 1, Success: true, VMStatus: "Executed successfully"}
	}
	return res, nil
}

type recordedOffer struct {
	kind    string
	success bool
}

type fakeMetrics struct {
	mu     sync.Mutex
	offers []recordedOffer
	stages []string
}

func (m *fakeMetrics) RecordOffer(kind string, success bool, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offers = append(m.offers, recordedOffer{kind: kind, success: success})
}

func (m *fakeMetrics) RecordStageError(_ string, stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages = append(m.stages, stage)
}

type failingSigner struct {
	*aptos.Account
	err error
	sig []byte
}

func (f failingSigner) Sign([]byte) ([]byte, error) {
	return f.sig, f.err
}

func testAccount(t *testing.T, seedByte byte) *aptos.Account {
	t.Helper()
	acc, err := aptos.NewAccount(ed25519.NewKeyFromSeed(bytes.Repeat([]byte{seedByte}, ed25519.SeedSize)))
	require.NoError(t, err)
	return acc
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
