package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/shardwell/worldcore/internal/external"
)

// CharacterRepo is the durable-store half of external.CharacterProvider,
// the tier-2 sink the write-back cache flushes into. Grounded on the
// teacher's persist.CharacterRepo column-list query shape, adapted from
// L1J's flat stat block to spec.md §6.4's character record.
type CharacterRepo struct {
	db *DB
}

func NewCharacterRepo(db *DB) *CharacterRepo {
	return &CharacterRepo{db: db}
}

func (r *CharacterRepo) ListByAccount(ctx context.Context, accountID int64) ([]external.CharacterSummary, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT character_id, name, class_id, level FROM characters
		 WHERE account_id = $1 AND NOT soft_deleted ORDER BY character_id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	var out []external.CharacterSummary
	for rows.Next() {
		var c external.CharacterSummary
		if err := rows.Scan(&c.CharacterID, &c.Name, &c.ClassID, &c.Level); err != nil {
			return nil, fmt.Errorf("scan character summary: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CharacterRepo) Load(ctx context.Context, characterID, accountID int64) (external.CharacterSnapshot, error) {
	var s external.CharacterSnapshot
	err := r.db.Pool.QueryRow(ctx,
		`SELECT character_id, account_id, name, class_id, level, xp,
		        hp, max_hp, mp, max_mp, str, sta, dex, int_stat, unspent_points,
		        position_x, position_y, position_z, gold, playtime_s
		 FROM characters WHERE character_id = $1 AND account_id = $2 AND NOT soft_deleted`,
		characterID, accountID,
	).Scan(
		&s.CharacterID, &s.AccountID, &s.Name, &s.ClassID, &s.Level, &s.XP,
		&s.HP, &s.MaxHP, &s.MP, &s.MaxMP, &s.STR, &s.STA, &s.DEX, &s.INT, &s.UnspentPoints,
		&s.PositionX, &s.PositionY, &s.PositionZ, &s.Gold, &s.PlaytimeS,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return external.CharacterSnapshot{}, fmt.Errorf("character %d not found for account %d", characterID, accountID)
	}
	if err != nil {
		return external.CharacterSnapshot{}, fmt.Errorf("load character: %w", err)
	}
	return s, nil
}

func (r *CharacterRepo) Create(ctx context.Context, accountID int64, name string, classID int32) (external.CharacterSnapshot, error) {
	s := external.CharacterSnapshot{
		AccountID: accountID, Name: name, ClassID: classID, Level: 1,
		HP: 100, MaxHP: 100, MP: 50, MaxMP: 50,
	}
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO characters (account_id, name, class_id, level, hp, max_hp, mp, max_mp)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING character_id`,
		accountID, name, classID, s.Level, s.HP, s.MaxHP, s.MP, s.MaxMP,
	).Scan(&s.CharacterID)
	if err != nil {
		return external.CharacterSnapshot{}, fmt.Errorf("create character: %w", err)
	}
	return s, nil
}

func (r *CharacterRepo) Save(ctx context.Context, snap external.CharacterSnapshot) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE characters SET
		   level = $2, xp = $3, hp = $4, max_hp = $5, mp = $6, max_mp = $7,
		   str = $8, sta = $9, dex = $10, int_stat = $11, unspent_points = $12,
		   position_x = $13, position_y = $14, position_z = $15, gold = $16,
		   updated_at = now()
		 WHERE character_id = $1`,
		snap.CharacterID, snap.Level, snap.XP, snap.HP, snap.MaxHP, snap.MP, snap.MaxMP,
		snap.STR, snap.STA, snap.DEX, snap.INT, snap.UnspentPoints,
		snap.PositionX, snap.PositionY, snap.PositionZ, snap.Gold,
	)
	if err != nil {
		return fmt.Errorf("save character: %w", err)
	}
	return nil
}

func (r *CharacterRepo) SoftDelete(ctx context.Context, characterID, accountID int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE characters SET soft_deleted = TRUE WHERE character_id = $1 AND account_id = $2`,
		characterID, accountID,
	)
	if err != nil {
		return fmt.Errorf("soft delete character: %w", err)
	}
	return nil
}
