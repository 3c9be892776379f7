// Package memory provides in-memory ledger stores for tests and for running
// without PostgreSQL configured.
package memory

import (
	"context"
	"sync"

	"tokengate/internal/ledger/ports"
	"tokengate/internal/token"
	"tokengate/pkg/platform/sentinel"
)

// Store implements all three ledger store interfaces behind one mutex, which
// makes the cap check and writes trivially atomic.
type Store struct {
	mu        sync.RWMutex
	creations map[string][]*token.CreationRecord // keyed by creator id
	fraudLogs []*token.FraudLog
	wallets   map[string]*token.WalletIdentity
}

var (
	_ ports.CreationStore = (*Store)(nil)
	_ ports.FraudLogStore = (*Store)(nil)
	_ ports.WalletStore   = (*Store)(nil)
)

func New() *Store {
	return &Store{
		creations: make(map[string][]*token.CreationRecord),
		wallets:   make(map[string]*token.WalletIdentity),
	}
}

func (s *Store) CountByCreator(_ context.Context, creatorID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.creations[creatorID]), nil
}

func (s *Store) CreateWithinCap(_ context.Context, record *token.CreationRecord, fraudLog *token.FraudLog, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.creations[record.CreatorID]) >= limit {
		return sentinel.ErrLimitExceeded
	}

	rec := *record
	log := *fraudLog
	s.creations[record.CreatorID] = append(s.creations[record.CreatorID], &rec)
	s.fraudLogs = append(s.fraudLogs, &log)
	return nil
}

func (s *Store) Append(_ context.Context, fraudLog *token.FraudLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := *fraudLog
	s.fraudLogs = append(s.fraudLogs, &log)
	return nil
}

func (s *Store) RecentByWallet(_ context.Context, walletAddress string, limit int) ([]*token.FraudLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*token.FraudLog
	for i := len(s.fraudLogs) - 1; i >= 0 && len(out) < limit; i-- {
		if s.fraudLogs[i].WalletAddress == walletAddress {
			log := *s.fraudLogs[i]
			out = append(out, &log)
		}
	}
	return out, nil
}

func (s *Store) Upsert(_ context.Context, identity *token.WalletIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := *identity
	s.wallets[identity.WalletAddress] = &id
	return nil
}

func (s *Store) Get(_ context.Context, walletAddress string) (*token.WalletIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.wallets[walletAddress]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	id := *identity
	return &id, nil
}
