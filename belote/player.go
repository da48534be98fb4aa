package belote

import "time"

type Player struct {
	ID     string // persistent id, stable across reconnects and bot takeover
	ConnID string // "" when no connection is attached
	Name   string
	Avatar string
	Bot    bool

	DisconnectedAt time.Time // zero when connected or bot
	Rating         int
	HasRating      bool

	seat      int
	humanName string // display name before a bot took over the seat
}

func (p *Player) Seat() int       { return p.seat }
func (p *Player) Team() Team      { return TeamOfSeat(p.seat) }
func (p *Player) Connected() bool { return p.ConnID != "" }

// JoinRequest carries the identity a connection presents when it joins.
type JoinRequest struct {
	ConnID    string
	Name      string
	PlayerID  string
	Avatar    string
	Rating    int
	HasRating bool
}

func normalizeName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	if r := []rune(name); len(r) > 24 {
		return string(r[:24])
	}
	return name
}
