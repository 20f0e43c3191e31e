package persistence

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/shardwell/worldcore/internal/external"
	"github.com/shardwell/worldcore/internal/world"
)

// WriteBack drives the two write-back cadences of spec.md §4.10: RAM ->
// cache on every dirty player each cycle, and cache -> durable store by
// scanning dirty markers.
type WriteBack struct {
	cache external.DurableCache
	chars external.CharacterProvider
	log   *zap.Logger
}

func NewWriteBack(cache external.DurableCache, chars external.CharacterProvider, log *zap.Logger) *WriteBack {
	return &WriteBack{cache: cache, chars: chars, log: log}
}

// FlushDirtyToCache writes every dirty player's mutable fields to the
// tier-1 cache and clears the in-process dirty flag. Called on the
// ram-to-cache cadence (default 60s).
func (w *WriteBack) FlushDirtyToCache(ctx context.Context, players []*world.Player) {
	for _, p := range players {
		if !p.Dirty {
			continue
		}
		fields := characterFields(p)
		if err := w.cache.WriteCharacterHash(ctx, p.CharacterID, fields); err != nil {
			w.log.Error("write character hash", zap.Int64("character_id", p.CharacterID), zap.Error(err))
			continue
		}
		if err := w.cache.MarkDirty(ctx, p.CharacterID); err != nil {
			w.log.Error("mark dirty", zap.Int64("character_id", p.CharacterID), zap.Error(err))
			continue
		}
		p.Dirty = false
	}
}

// FlushCacheToStore enumerates dirty marker keys, reads each character
// hash, writes it through to the durable store, and clears the marker on
// success. Individual failures are logged and left for the next cycle
// (never block the tick). Called on the cache-to-store cadence (default
// 5 min).
func (w *WriteBack) FlushCacheToStore(ctx context.Context) {
	ids, err := w.cache.ScanDirty(ctx)
	if err != nil {
		w.log.Error("scan dirty markers", zap.Error(err))
		return
	}
	for _, id := range ids {
		fields, err := w.cache.ReadCharacterHash(ctx, id)
		if err != nil {
			w.log.Error("read character hash", zap.Int64("character_id", id), zap.Error(err))
			continue
		}
		snap, err := hashToSnapshot(id, fields)
		if err != nil {
			w.log.Error("decode character hash", zap.Int64("character_id", id), zap.Error(err))
			continue
		}
		if err := w.chars.Save(ctx, snap); err != nil {
			w.log.Error("save character snapshot", zap.Int64("character_id", id), zap.Error(err))
			continue
		}
		if err := w.cache.ClearDirty(ctx, id); err != nil {
			w.log.Error("clear dirty marker", zap.Int64("character_id", id), zap.Error(err))
		}
	}
}

// ForceFlush writes a single character's state through both tiers
// synchronously — used on disconnect, per spec.md §4.10.
// Callers hold the account's reverse-lookup lock until this returns.
func (w *WriteBack) ForceFlush(ctx context.Context, p *world.Player) error {
	fields := characterFields(p)
	if err := w.cache.WriteCharacterHash(ctx, p.CharacterID, fields); err != nil {
		return fmt.Errorf("force flush cache write: %w", err)
	}
	snap, err := hashToSnapshot(p.CharacterID, stringifyFields(fields))
	if err != nil {
		return fmt.Errorf("force flush decode: %w", err)
	}
	snap.AccountID = p.AccountID
	if err := w.chars.Save(ctx, snap); err != nil {
		// Durable store unavailable: degrade to cache-only. The dirty
		// marker lets a later cache-to-store cycle retry the durable
		// write. The caller's re-login lock is not kept past the caller's
		// return; it is not held until the store recovers.
		if mErr := w.cache.MarkDirty(ctx, p.CharacterID); mErr != nil {
			w.log.Error("mark dirty after degraded force-flush", zap.Error(mErr))
		}
		return fmt.Errorf("force flush durable write degraded to cache-only: %w", err)
	}
	return w.cache.ClearDirty(ctx, p.CharacterID)
}

func characterFields(p *world.Player) map[string]any {
	return map[string]any{
		"hp": p.HP, "max_hp": p.MaxHP,
		"mp": p.MP, "max_mp": p.MaxMP,
		"xp": p.XP, "level": p.Level,
		"str": p.Stats.STR, "sta": p.Stats.STA, "dex": p.Stats.DEX, "int_stat": p.Stats.INT,
		"unspent_points": p.Stats.UnspentPoints,
		"position_x":     p.Position.X, "position_y": p.Position.Y, "position_z": p.Position.Z,
		"gold": p.Gold,
	}
}

func stringifyFields(fields map[string]any) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = fmt.Sprint(v)
	}
	return out
}

func hashToSnapshot(characterID int64, fields map[string]string) (external.CharacterSnapshot, error) {
	var snap external.CharacterSnapshot
	snap.CharacterID = characterID

	intVal := func(key string) (int64, error) {
		v, ok := fields[key]
		if !ok {
			return 0, nil
		}
		return strconv.ParseInt(v, 10, 64)
	}
	floatVal := func(key string) (float64, error) {
		v, ok := fields[key]
		if !ok {
			return 0, nil
		}
		return strconv.ParseFloat(v, 64)
	}

	hp, _ := intVal("hp")
	maxHP, _ := intVal("max_hp")
	mp, _ := intVal("mp")
	maxMP, _ := intVal("max_mp")
	xp, _ := intVal("xp")
	level, _ := intVal("level")
	str, _ := intVal("str")
	sta, _ := intVal("sta")
	dex, _ := intVal("dex")
	intStat, _ := intVal("int_stat")
	unspent, _ := intVal("unspent_points")
	gold, _ := intVal("gold")
	px, _ := floatVal("position_x")
	py, _ := floatVal("position_y")
	pz, _ := floatVal("position_z")

	snap.HP, snap.MaxHP = int32(hp), int32(maxHP)
	snap.MP, snap.MaxMP = int32(mp), int32(maxMP)
	snap.XP = xp
	snap.Level = int32(level)
	snap.STR, snap.STA, snap.DEX, snap.INT = int32(str), int32(sta), int32(dex), int32(intStat)
	snap.UnspentPoints = int32(unspent)
	snap.Gold = gold
	snap.PositionX, snap.PositionY, snap.PositionZ = px, py, pz
	return snap, nil
}

// FlushCadence pairs a duration with the function it drives, used by
// main to wire the two write-back tickers.
type FlushCadence struct {
	Interval time.Duration
	Run      func(ctx context.Context)
}
