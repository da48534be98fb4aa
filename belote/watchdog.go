package belote

import (
	"time"

	"go.uber.org/zap"
)

// Sweep is the periodic health check. It hands timed-out humans to bots,
// resets a table nobody human is left at, and pushes a stalled bot turn.
func (g *Game) Sweep() {
	g.do("sweep", "", func() error {
		g.sweepLocked(g.now())
		return nil
	})
}

func (g *Game) sweepLocked(now time.Time) {
	if g.resolving || g.stage != StageNone {
		return
	}

	changed := false
	humans := 0
	for i := 0; i < len(g.players); {
		p := g.players[i]
		if p.Bot {
			i++
			continue
		}
		if !p.Connected() && !p.DisconnectedAt.IsZero() && now.Sub(p.DisconnectedAt) > g.cfg.DisconnectTimeout {
			changed = true
			if g.phase == PhaseLobby {
				g.log.Info("removing timed-out lobby seat", zap.String("player", p.ID))
				g.removeSeatLocked(i)
				continue
			}
			g.convertToBotLocked(p)
			i++
			continue
		}
		humans++
		i++
	}

	if humans == 0 && g.phase != PhaseLobby {
		g.log.Info("no humans left, resetting table")
		g.resetToLobbyLocked()
		g.emitLocked(UpdateReset)
		return
	}
	if changed {
		g.emitLocked(UpdateRoster)
		g.maybeStartNextRoundLocked()
		g.scheduleBotLocked()
	}
	g.checkStalledLocked(now)
}

func (g *Game) checkStalledLocked(now time.Time) {
	if g.phase != PhaseBidding && g.phase != PhasePlaying {
		return
	}
	p := g.playerAtLocked(g.turn)
	if p == nil || !p.Bot || !g.hasConnectedHumanLocked() {
		return
	}
	if now.Sub(g.lastProgress) <= g.cfg.StallThreshold {
		return
	}
	g.log.Warn("bot turn stalled, forcing action",
		zap.String("bot", p.Name), zap.Duration("idle", now.Sub(g.lastProgress)))
	g.botActLocked(g.turn, g.actionSeq)
}
