// Package external defines the port interfaces the core consumes from
// its collaborators (spec.md §6.3) — account/character providers, the
// session store, the tier-1 cache, and JWT verification — plus concrete
// adapters over Redis and golang-jwt. Game definitions are loaded by
// internal/data, not through a port here.
package external

import (
	"context"
	"time"
)

// BanStatus is the result of an account ban check.
type BanStatus struct {
	Banned bool
	Until  time.Time
}

// Account is the immutable-during-session account record the login
// collaborator owns.
type Account struct {
	ID       int64
	Username string
}

// AccountProvider is the login collaborator's surface. Password hashing
// is entirely its concern — the core never sees plaintext credentials.
type AccountProvider interface {
	LookupByUsername(ctx context.Context, username string) (Account, error)
	Create(ctx context.Context, username string) (Account, error)
	MarkLoginTime(ctx context.Context, accountID int64, at time.Time) error
	CheckBan(ctx context.Context, accountID int64) (BanStatus, error)
}

// CharacterSummary is the list-view record returned by ListByAccount.
type CharacterSummary struct {
	CharacterID int64
	Name        string
	ClassID     int32
	Level       int32
}

// CharacterSnapshot is the full persisted state of one character, as
// written by the tier-2 write-back flush.
type CharacterSnapshot struct {
	CharacterID int64
	AccountID   int64
	Name        string
	ClassID     int32
	Level       int32
	XP          int64
	HP, MaxHP   int32
	MP, MaxMP   int32
	STR, STA, DEX, INT int32
	UnspentPoints      int32
	PositionX, PositionY, PositionZ float64
	Gold      int64
	PlaytimeS int64
}

// CharacterProvider is the character-management collaborator's surface.
type CharacterProvider interface {
	ListByAccount(ctx context.Context, accountID int64) ([]CharacterSummary, error)
	Load(ctx context.Context, characterID, accountID int64) (CharacterSnapshot, error)
	Create(ctx context.Context, accountID int64, name string, classID int32) (CharacterSnapshot, error)
	Save(ctx context.Context, snap CharacterSnapshot) error
	SoftDelete(ctx context.Context, characterID, accountID int64) error
}

// SessionRecord is what the session store persists per live session.
type SessionRecord struct {
	AccountID   int64
	CharacterID int64
	HMACSecret  []byte
	CreatedAt   time.Time
}

// SessionStore is the shared (Redis-backed) session table external
// processes can also observe — distinct from the in-process token map
// used for hot-path UDP lookups.
type SessionStore interface {
	Put(ctx context.Context, sessionID string, rec SessionRecord, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (SessionRecord, error)
	Del(ctx context.Context, sessionID string) error
	ReverseAccountToSession(ctx context.Context, accountID int64) (string, bool, error)
	// CompareAndSetFlushing atomically claims or releases the re-login
	// gate for accountID, used to hold the reverse lookup during a
	// disconnect/zone-change force-flush.
	CompareAndSetFlushing(ctx context.Context, accountID int64, want bool) (swapped bool, err error)
}

// DurableCache is the tier-1 write-back cache: per-character hash plus a
// companion dirty marker, per spec.md §4.10.
type DurableCache interface {
	WriteCharacterHash(ctx context.Context, characterID int64, fields map[string]any) error
	MarkDirty(ctx context.Context, characterID int64) error
	ScanDirty(ctx context.Context) ([]int64, error)
	ReadCharacterHash(ctx context.Context, characterID int64) (map[string]string, error)
	ClearDirty(ctx context.Context, characterID int64) error
}

// Claims is the verified payload of a login JWT.
type Claims struct {
	AccountID int64
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// JWTVerifier verifies a login-issued JWT and extracts its claims.
type JWTVerifier interface {
	Verify(tokenString string) (Claims, error)
}
