package belote

import (
	"go.uber.org/zap"
)

// Join attaches a connection to a seat: an existing seat for a known player,
// a new seat while fewer than 4 are taken, or a bot seat taken over in
// place. Anyone else is a spectator.
func (g *Game) Join(req JoinRequest) {
	g.do("join", req.ConnID, func() error { return g.joinLocked(req) })
}

func (g *Game) joinLocked(req JoinRequest) error {
	if req.ConnID == "" || req.PlayerID == "" {
		return ErrUnknownConnection
	}
	name := normalizeName(req.Name, req.PlayerID)

	if p := g.playerByIDLocked(req.PlayerID); p != nil {
		g.attachLocked(p, req.ConnID)
		if p.Bot {
			p.Bot = false
			if p.humanName != "" {
				p.Name = p.humanName
			}
			delete(g.brains, p.ID)
			g.log.Info("player reclaimed seat from bot", zap.String("player", p.ID), zap.Int("seat", p.seat))
		}
		if req.Avatar != "" {
			p.Avatar = req.Avatar
		}
		if req.HasRating {
			p.Rating, p.HasRating = req.Rating, true
		}
		g.emitLocked(UpdateRoster)
		g.scheduleBotLocked()
		return nil
	}

	if len(g.players) < NumSeats {
		p := &Player{
			ID:        req.PlayerID,
			Name:      name,
			Avatar:    req.Avatar,
			Rating:    req.Rating,
			HasRating: req.HasRating,
			seat:      len(g.players),
			humanName: name,
		}
		g.players = append(g.players, p)
		g.attachLocked(p, req.ConnID)
		g.log.Info("player seated", zap.String("player", p.ID), zap.Int("seat", p.seat))
		g.emitLocked(UpdateRoster)
		return nil
	}

	for _, p := range g.players {
		if !p.Bot {
			continue
		}
		old := p.ID
		g.renamePlayerLocked(old, req.PlayerID)
		delete(g.brains, old)
		p.Bot = false
		p.Name, p.humanName = name, name
		p.Avatar = req.Avatar
		p.Rating, p.HasRating = req.Rating, req.HasRating
		g.attachLocked(p, req.ConnID)
		g.log.Info("player took over bot seat",
			zap.String("player", p.ID), zap.String("bot", old), zap.Int("seat", p.seat))
		g.emitLocked(UpdateRoster)
		g.scheduleBotLocked()
		return nil
	}

	g.log.Debug("spectator joined", zap.String("conn", req.ConnID), zap.String("player", req.PlayerID))
	return nil
}

func (g *Game) attachLocked(p *Player, connID string) {
	if prev, ok := g.conns[connID]; ok && prev != p.ID {
		if other := g.playerByIDLocked(prev); other != nil {
			other.ConnID = ""
			other.DisconnectedAt = g.now()
		}
	}
	if p.ConnID != "" && p.ConnID != connID {
		delete(g.conns, p.ConnID)
	}
	p.ConnID = connID
	p.DisconnectedAt = timeZero
	g.conns[connID] = p.ID
}

// renamePlayerLocked moves every per-player record from one id to another.
func (g *Game) renamePlayerLocked(from, to string) {
	if p := g.playerByIDLocked(from); p != nil {
		p.ID = to
	}
	for conn, id := range g.conns {
		if id == from {
			g.conns[conn] = to
		}
	}
	if hand, ok := g.hands[from]; ok {
		g.hands[to] = hand
		delete(g.hands, from)
	}
	for i := range g.trick {
		if g.trick[i].PlayerID == from {
			g.trick[i].PlayerID = to
		}
	}
	if g.lastTrick != nil {
		if g.lastTrick.WinnerID == from {
			g.lastTrick.WinnerID = to
		}
		for i := range g.lastTrick.Plays {
			if g.lastTrick.Plays[i].PlayerID == from {
				g.lastTrick.Plays[i].PlayerID = to
			}
		}
	}
	for i, id := range g.ready {
		if id == from {
			g.ready[i] = to
		}
	}
	for i := range g.history {
		if g.history[i].PlayerID == from {
			g.history[i].PlayerID = to
		}
	}
	if v, ok := g.declared[from]; ok {
		g.declared[to] = v
		delete(g.declared, from)
	}
	if v, ok := g.pending[from]; ok {
		g.pending[to] = v
		delete(g.pending, from)
	}
	if v, ok := g.candidates[from]; ok {
		g.candidates[to] = v
		delete(g.candidates, from)
	}
	if g.announceResult != nil {
		for i := range g.announceResult.Declared {
			if g.announceResult.Declared[i].PlayerID == from {
				g.announceResult.Declared[i].PlayerID = to
			}
		}
	}
}

// Leave marks the seat's connection absent. The seat is kept.
func (g *Game) Leave(connID string) {
	g.do("leave", connID, func() error { return g.leaveLocked(connID) })
}

func (g *Game) leaveLocked(connID string) error {
	p := g.playerByConnLocked(connID)
	if p == nil {
		return ErrUnknownConnection
	}
	delete(g.conns, connID)
	p.ConnID = ""
	p.DisconnectedAt = g.now()
	g.log.Info("player disconnected", zap.String("player", p.ID), zap.Int("seat", p.seat))
	g.emitLocked(UpdateRoster)
	g.maybeStartNextRoundLocked()
	return nil
}

// ExplicitLeave vacates the seat in the lobby and behaves like Leave otherwise.
func (g *Game) ExplicitLeave(connID string) {
	g.do("explicit_leave", connID, func() error {
		if g.phase != PhaseLobby {
			return g.leaveLocked(connID)
		}
		p := g.playerByConnLocked(connID)
		if p == nil {
			return ErrUnknownConnection
		}
		g.removeSeatLocked(p.seat)
		g.log.Info("player left lobby", zap.String("player", p.ID))
		g.emitLocked(UpdateRoster)
		return nil
	})
}

func (g *Game) removeSeatLocked(seat int) {
	p := g.playerAtLocked(seat)
	if p == nil {
		return
	}
	if p.ConnID != "" {
		delete(g.conns, p.ConnID)
	}
	delete(g.hands, p.ID)
	delete(g.brains, p.ID)
	g.players = append(g.players[:seat], g.players[seat+1:]...)
	g.reseatLocked()
}

// convertToBotLocked hands a timed-out human seat to a bot, keeping its id so
// the player can reclaim it.
func (g *Game) convertToBotLocked(p *Player) {
	p.humanName = p.Name
	p.Bot = true
	p.Name = "Bot (was " + p.humanName + ")"
	p.DisconnectedAt = timeZero
	g.brains[p.ID] = g.bots.NewBrain()
	g.log.Info("seat handed to bot", zap.String("player", p.ID), zap.Int("seat", p.seat))
}

func (g *Game) fillBotsLocked() {
	taken := make(map[string]bool, NumSeats)
	for _, p := range g.players {
		taken[p.Name] = true
	}
	for len(g.players) < NumSeats {
		inst := g.bots.Spawn(taken)
		taken[inst.Persona.Name] = true
		p := &Player{
			ID:     inst.PlayerID,
			Name:   inst.Persona.Name,
			Avatar: inst.Persona.AvatarKey,
			Bot:    true,
			Rating: g.cfg.DefaultRating,
			seat:   len(g.players),
		}
		g.players = append(g.players, p)
		g.brains[p.ID] = inst.Brain
	}
}

// resetToLobbyLocked clears the game and vacates bot seats.
func (g *Game) resetToLobbyLocked() {
	g.epoch++
	g.clearRoundLocked()
	g.phase = PhaseLobby
	g.scores = Scores{}
	g.winner = TeamNone
	g.settlement = nil
	humans := g.players[:0]
	for _, p := range g.players {
		if p.Bot {
			delete(g.brains, p.ID)
			continue
		}
		humans = append(humans, p)
	}
	g.players = humans
	g.reseatLocked()
}

// FullReset returns the table to the lobby, dropping bots and every
// disconnected human.
func (g *Game) FullReset() {
	g.do("full_reset", "", func() error {
		g.resetToLobbyLocked()
		kept := g.players[:0]
		for _, p := range g.players {
			if p.Connected() {
				kept = append(kept, p)
			}
		}
		g.players = kept
		g.reseatLocked()
		g.log.Info("table reset")
		g.emitLocked(UpdateReset)
		return nil
	})
}
