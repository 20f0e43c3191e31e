package game

import (
	"context"
	"encoding/binary"
	"time"

	"go.uber.org/zap"

	"github.com/shardwell/worldcore/internal/errs"
	"github.com/shardwell/worldcore/internal/netio"
	"github.com/shardwell/worldcore/internal/queue"
	"github.com/shardwell/worldcore/internal/session"
	"github.com/shardwell/worldcore/internal/world"
)

// handleLogin verifies the client's JWT, mints a session (spec.md §3),
// and binds it to the raw TCP connection the frame arrived on. Pre-auth
// frames carry AccountID 0, so the TCP session is resolved by SessionID
// instead of the usual account lookup.
func (s *InputSystem) handleLogin(pkt queue.Packet) {
	deps := s.deps
	tcpSess, ok := deps.TCPSession(pkt.SessionID)
	if !ok {
		return
	}

	claims, err := deps.JWT.Verify(string(pkt.Payload))
	if err != nil {
		deps.Log.Debug("login jwt rejected", zap.Uint64("session", pkt.SessionID), zap.Error(err))
		replyDirect(tcpSess, ErrorEvent{Code: uint16(errs.CodeUnauthenticated)})
		return
	}

	authSess, err := session.NewSession(claims.AccountID, pkt.SessionID, tcpSess.RemoteIP())
	if err != nil {
		deps.Log.Error("mint session", zap.Error(err))
		return
	}
	if err := deps.Sessions.Login(authSess); err != nil {
		deps.Log.Debug("login rejected, account busy", zap.Int64("account", claims.AccountID))
		replyDirect(tcpSess, ErrorEvent{Code: uint16(errs.CodeMultiLoginDenied)})
		return
	}

	tcpSess.AccountID = claims.AccountID
	tcpSess.SetState(netio.StateAuthenticated)
	replyDirect(tcpSess, LoginAckEvent{Token: authSess.Token, Secret: authSess.HMACSecret})
}

// handleRegister creates a new account row ahead of the JWT-issuing login
// collaborator's own onboarding flow (spec.md §6.3): this core only ever
// owns the account record, never a password, so password hashing/
// verification stays entirely outside it.
func (s *InputSystem) handleRegister(pkt queue.Packet) {
	if len(pkt.Payload) < 2 {
		return
	}
	nameLen := int(binary.BigEndian.Uint16(pkt.Payload[0:2]))
	if len(pkt.Payload) < 2+nameLen {
		return
	}
	username := string(pkt.Payload[2 : 2+nameLen])

	deps := s.deps
	tcpSess, ok := deps.TCPSession(pkt.SessionID)
	if !ok {
		return
	}
	if _, err := deps.Accounts.LookupByUsername(context.Background(), username); err == nil {
		replyDirect(tcpSess, ErrorEvent{Code: uint16(errs.CodeServerError)})
		return
	}
	acct, err := deps.Accounts.Create(context.Background(), username)
	if err != nil {
		deps.Log.Debug("account create failed", zap.String("username", username), zap.Error(err))
		replyDirect(tcpSess, ErrorEvent{Code: uint16(errs.CodeServerError)})
		return
	}
	replyDirect(tcpSess, RegisterAckEvent{AccountID: acct.ID})
}

func (s *InputSystem) handleCharacterList(pkt queue.Packet) {
	deps := s.deps
	tcpSess, ok := deps.TCPSession(pkt.SessionID)
	if !ok || tcpSess.AccountID == 0 {
		return
	}
	summaries, err := deps.Characters.ListByAccount(context.Background(), tcpSess.AccountID)
	if err != nil {
		deps.Log.Error("list characters", zap.Int64("account", tcpSess.AccountID), zap.Error(err))
		return
	}
	entries := make([]CharacterSummaryEntry, 0, len(summaries))
	for _, c := range summaries {
		entries = append(entries, CharacterSummaryEntry{CharacterID: c.CharacterID, Name: c.Name, ClassID: c.ClassID, Level: c.Level})
	}
	replyDirect(tcpSess, CharacterListEvent{Characters: entries})
}

func (s *InputSystem) handleCharacterSelect(pkt queue.Packet) {
	if len(pkt.Payload) < 8 {
		return
	}
	characterID := int64(binary.BigEndian.Uint64(pkt.Payload[0:8]))

	deps := s.deps
	tcpSess, ok := deps.TCPSession(pkt.SessionID)
	if !ok || tcpSess.AccountID == 0 {
		return
	}
	snap, err := deps.Characters.Load(context.Background(), characterID, tcpSess.AccountID)
	if err != nil {
		deps.Log.Debug("character select failed", zap.Int64("character", characterID), zap.Error(err))
		replyDirect(tcpSess, ErrorEvent{Code: uint16(errs.CodeCharacterNotOwned)})
		return
	}
	deps.pendingCharacter[tcpSess.AccountID] = snap
}

func (s *InputSystem) handleCharacterCreate(pkt queue.Packet) {
	if len(pkt.Payload) < 2 {
		return
	}
	nameLen := int(binary.BigEndian.Uint16(pkt.Payload[0:2]))
	if len(pkt.Payload) < 2+nameLen+4 {
		return
	}
	name := string(pkt.Payload[2 : 2+nameLen])
	classID := int32(binary.BigEndian.Uint32(pkt.Payload[2+nameLen : 2+nameLen+4]))

	deps := s.deps
	tcpSess, ok := deps.TCPSession(pkt.SessionID)
	if !ok || tcpSess.AccountID == 0 {
		return
	}
	if _, err := deps.Characters.Create(context.Background(), tcpSess.AccountID, name, classID); err != nil {
		deps.Log.Debug("character create failed", zap.String("name", name), zap.Error(err))
		replyDirect(tcpSess, ErrorEvent{Code: uint16(errs.CodeServerError)})
	}
}

func (s *InputSystem) handleCharacterDelete(pkt queue.Packet) {
	if len(pkt.Payload) < 8 {
		return
	}
	characterID := int64(binary.BigEndian.Uint64(pkt.Payload[0:8]))

	deps := s.deps
	tcpSess, ok := deps.TCPSession(pkt.SessionID)
	if !ok || tcpSess.AccountID == 0 {
		return
	}
	if err := deps.Characters.SoftDelete(context.Background(), characterID, tcpSess.AccountID); err != nil {
		deps.Log.Debug("character delete failed", zap.Int64("character", characterID), zap.Error(err))
		replyDirect(tcpSess, ErrorEvent{Code: uint16(errs.CodeServerError)})
	}
}

// handleEnterWorld places the character selected by the prior
// OpCharacterSel into the world, the Phase 0 step that turns an
// authenticated connection into a live player entity (spec.md §4.2).
func (s *InputSystem) handleEnterWorld(pkt queue.Packet, now time.Time) {
	deps := s.deps
	tcpSess, ok := deps.TCPSession(pkt.SessionID)
	if !ok || tcpSess.AccountID == 0 {
		return
	}
	snap, ok := deps.pendingCharacter[tcpSess.AccountID]
	if !ok {
		return
	}
	delete(deps.pendingCharacter, tcpSess.AccountID)

	id := deps.State.NextPlayerID()
	p := world.NewPlayer(id, snap.CharacterID, tcpSess.AccountID, snap.Name, "")
	p.HP, p.MaxHP = snap.HP, snap.MaxHP
	p.MP, p.MaxMP = snap.MP, snap.MaxMP
	p.Level = snap.Level
	p.XP = snap.XP
	p.Gold = snap.Gold
	p.Stats = world.Stats{STR: snap.STR, STA: snap.STA, DEX: snap.DEX, INT: snap.INT, UnspentPoints: snap.UnspentPoints}
	if snap.PositionX != 0 || snap.PositionY != 0 || snap.PositionZ != 0 {
		p.Position = world.Vec3{X: snap.PositionX, Y: snap.PositionY, Z: snap.PositionZ}
	} else if zone, ok := deps.State.Zone(deps.StartZoneID); ok {
		p.Position = zone.Def.DefaultSpawn
	}

	ch, err := deps.State.PlacePlayer(p, deps.StartZoneID)
	if err != nil {
		deps.Log.Error("place player", zap.Int64("character", snap.CharacterID), zap.Error(err))
		return
	}

	deps.RegisterPlayer(tcpSess.AccountID, id)
	deps.SetPlayerSink(id, tcpSess)
	tcpSess.SetState(netio.StateInWorld)

	deps.Broadcast.Unicast(p, ZoneDataEvent{
		EntityID: uint64(id), ZoneID: p.ZoneID,
		X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z,
		HP: p.HP, MaxHP: p.MaxHP, MP: p.MP, MaxMP: p.MaxMP,
		Level: p.Level, XP: p.XP, Gold: p.Gold,
		STR: p.Stats.STR, STA: p.Stats.STA, DEX: p.Stats.DEX, INT: p.Stats.INT,
		UnspentPoints: p.Stats.UnspentPoints,
	})
	deps.Broadcast.BroadcastSpawn(ch, p.Position.X, p.Position.Z, EntitySpawnEvent{
		EntityID: uint64(id), IsPlayer: true, Name: p.Name,
		X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z,
	})
}

// handleDisconnect implements the force-flush path of spec.md §4.10/§4.2:
// the account's reverse-lookup slot is held for the duration of a
// synchronous write-through, denying a racing re-login (testable
// property 11) until it completes.
func (s *InputSystem) handleDisconnect(sessionID uint64) {
	deps := s.deps
	tcpSess, ok := deps.UnregisterTCPSession(sessionID)
	if !ok || tcpSess.AccountID == 0 {
		return
	}
	accountID := tcpSess.AccountID
	deps.Sessions.BeginForceFlush(accountID)
	defer deps.Sessions.EndForceFlush(accountID)

	p, ch, ok := deps.PlayerByAccount(accountID)
	if !ok {
		return
	}
	if err := deps.WriteBack.ForceFlush(context.Background(), p); err != nil {
		deps.Log.Warn("force flush on disconnect degraded", zap.Int64("account", accountID), zap.Error(err))
	}
	deps.Broadcast.BroadcastDespawn(ch, p.Position.X, p.Position.Z, EntityDespawnEvent{EntityID: uint64(p.ID)})
	deps.State.RemovePlayer(p.ID)
	deps.ClearPlayerSink(p.ID)
	deps.UnregisterPlayer(accountID)
}

// replyDirect stages and immediately flushes a single reply on a raw TCP
// session with no world.Player yet — the pre-EnterWorld account/
// character-select handshake, which broadcast.Service's player-keyed
// staging can't address.
func replyDirect(sess *netio.Session, evt any) {
	op, payload, err := Encode(evt)
	if err != nil {
		return
	}
	if err := sess.Stage(op, payload); err != nil {
		return
	}
	_ = sess.Flush()
}
