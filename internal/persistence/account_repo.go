package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shardwell/worldcore/internal/external"
)

// AccountRepo is the durable-store adapter for external.AccountProvider.
// Grounded on the teacher's persist.AccountRepo load/create/ban shape;
// password verification itself is the login collaborator's concern per
// spec.md §6.3, so unlike the teacher this repo never sees a raw
// password — Create and LookupByUsername deal only in the account row.
type AccountRepo struct {
	db *DB
}

func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) LookupByUsername(ctx context.Context, username string) (external.Account, error) {
	var a external.Account
	err := r.db.Pool.QueryRow(ctx,
		`SELECT account_id, username FROM accounts WHERE username = $1`, username,
	).Scan(&a.ID, &a.Username)
	if errors.Is(err, pgx.ErrNoRows) {
		return external.Account{}, fmt.Errorf("account %q not found", username)
	}
	if err != nil {
		return external.Account{}, fmt.Errorf("lookup account: %w", err)
	}
	return a, nil
}

func (r *AccountRepo) Create(ctx context.Context, username string) (external.Account, error) {
	a := external.Account{Username: username}
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO accounts (username, password_hash) VALUES ($1, '') RETURNING account_id`,
		username,
	).Scan(&a.ID)
	if err != nil {
		return external.Account{}, fmt.Errorf("create account: %w", err)
	}
	return a, nil
}

func (r *AccountRepo) MarkLoginTime(ctx context.Context, accountID int64, at time.Time) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE accounts SET last_login = $2 WHERE account_id = $1`, accountID, at)
	if err != nil {
		return fmt.Errorf("mark login time: %w", err)
	}
	return nil
}

func (r *AccountRepo) CheckBan(ctx context.Context, accountID int64) (external.BanStatus, error) {
	var status external.BanStatus
	var expiry *time.Time
	err := r.db.Pool.QueryRow(ctx,
		`SELECT banned, ban_expiry FROM accounts WHERE account_id = $1`, accountID,
	).Scan(&status.Banned, &expiry)
	if errors.Is(err, pgx.ErrNoRows) {
		return external.BanStatus{}, fmt.Errorf("account %d not found", accountID)
	}
	if err != nil {
		return external.BanStatus{}, fmt.Errorf("check ban: %w", err)
	}
	if expiry != nil {
		status.Until = *expiry
	}
	return status, nil
}
