// Package postgres persists the creation ledger in PostgreSQL. Stores here
// are pure I/O; business thresholds live in the ledger service.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"tokengate/internal/ledger/ports"
	"tokengate/internal/token"
	"tokengate/pkg/platform/sentinel"
)

//go:embed schema.sql
var schema string

// Store implements the three ledger store interfaces over one *sql.DB.
type Store struct {
	db *sql.DB
}

var (
	_ ports.CreationStore = (*Store)(nil)
	_ ports.FraudLogStore = (*Store)(nil)
	_ ports.WalletStore   = (*Store)(nil)
)

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema applies the embedded schema. Statements are idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply ledger schema: %w", err)
	}
	return nil
}

func (s *Store) CountByCreator(ctx context.Context, creatorID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM creation_records WHERE creator_id = $1`,
		creatorID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count creations: %w", err)
	}
	return count, nil
}

// CreateWithinCap serializes racing creators on a per-creator advisory lock,
// then re-checks the count and writes the record plus fraud log in the same
// transaction. The lock is released at commit/rollback, so the loser of a
// race at limit-1 observes the winner's row and fails with zero writes.
func (s *Store) CreateWithinCap(ctx context.Context, record *token.CreationRecord, fraudLog *token.FraudLog, limit int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin creation tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1))`,
		record.CreatorID,
	); err != nil {
		return fmt.Errorf("lock creator: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM creation_records WHERE creator_id = $1`,
		record.CreatorID,
	).Scan(&count); err != nil {
		return fmt.Errorf("count creations: %w", err)
	}
	if count >= limit {
		return sentinel.ErrLimitExceeded
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO creation_records (token_id, creator_id, name, symbol, fraud_score, is_verified, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.TokenID,
		record.CreatorID,
		record.Name,
		record.Symbol,
		record.FraudScore,
		record.IsVerified,
		record.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert creation record: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO fraud_logs (wallet_address, token_name, similarity_score, spam_score, is_suspicious, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		fraudLog.WalletAddress,
		fraudLog.TokenName,
		fraudLog.SimilarityScore,
		fraudLog.SpamScore,
		fraudLog.IsSuspicious,
		fraudLog.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert fraud log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit creation tx: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, fraudLog *token.FraudLog) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fraud_logs (wallet_address, token_name, similarity_score, spam_score, is_suspicious, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		fraudLog.WalletAddress,
		fraudLog.TokenName,
		fraudLog.SimilarityScore,
		fraudLog.SpamScore,
		fraudLog.IsSuspicious,
		fraudLog.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append fraud log: %w", err)
	}
	return nil
}

func (s *Store) RecentByWallet(ctx context.Context, walletAddress string, limit int) ([]*token.FraudLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT wallet_address, token_name, similarity_score, spam_score, is_suspicious, created_at
		 FROM fraud_logs
		 WHERE wallet_address = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		walletAddress, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query fraud logs: %w", err)
	}
	defer rows.Close()

	var out []*token.FraudLog
	for rows.Next() {
		var l token.FraudLog
		if err := rows.Scan(
			&l.WalletAddress,
			&l.TokenName,
			&l.SimilarityScore,
			&l.SpamScore,
			&l.IsSuspicious,
			&l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan fraud log: %w", err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

func (s *Store) Upsert(ctx context.Context, identity *token.WalletIdentity) error {
	perSource, err := json.Marshal(identity.PerSourceVerified)
	if err != nil {
		return fmt.Errorf("marshal per-source map: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO wallet_identities (wallet_address, per_source_verified, verification_score, is_verified_strict, last_verified_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (wallet_address) DO UPDATE SET
			per_source_verified = EXCLUDED.per_source_verified,
			verification_score = EXCLUDED.verification_score,
			is_verified_strict = EXCLUDED.is_verified_strict,
			last_verified_at = EXCLUDED.last_verified_at`,
		identity.WalletAddress,
		perSource,
		identity.VerificationScore,
		identity.IsVerifiedStrict,
		identity.LastVerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert wallet identity: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, walletAddress string) (*token.WalletIdentity, error) {
	var (
		identity  token.WalletIdentity
		perSource []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT wallet_address, per_source_verified, verification_score, is_verified_strict, last_verified_at
		 FROM wallet_identities
		 WHERE wallet_address = $1`,
		walletAddress,
	).Scan(
		&identity.WalletAddress,
		&perSource,
		&identity.VerificationScore,
		&identity.IsVerifiedStrict,
		&identity.LastVerifiedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get wallet identity: %w", err)
	}

	if err := json.Unmarshal(perSource, &identity.PerSourceVerified); err != nil {
		return nil, fmt.Errorf("unmarshal per-source map: %w", err)
	}
	return &identity, nil
}
