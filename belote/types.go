package belote

import (
	"fmt"

	"belote-lite/card"
)

const (
	NumSeats       = 4
	HandSize       = 8
	LastTrickBonus = 10
	InvalidSeat    = -1
)

// Phase 游戏阶段
type Phase byte

const (
	PhaseLobby        Phase = 0
	PhaseDealing      Phase = 1
	PhaseBidding      Phase = 2
	PhasePlaying      Phase = 3
	PhaseRoundSummary Phase = 4
	PhaseGameOver     Phase = 5
)

var PhaseDictionary = map[Phase]string{
	PhaseLobby:        "lobby",
	PhaseDealing:      "dealing",
	PhaseBidding:      "bidding",
	PhasePlaying:      "playing",
	PhaseRoundSummary: "round_summary",
	PhaseGameOver:     "game_over",
}

func (p Phase) String() string {
	if s, ok := PhaseDictionary[p]; ok {
		return s
	}
	return fmt.Sprintf("phase(%d)", byte(p))
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// DealStage is the sub-state of PhaseDealing. Each stage is committed and
// published before the next one is scheduled.
type DealStage byte

const (
	StageNone         DealStage = 0
	StageShuffled     DealStage = 1 // deck shuffled, hands empty
	StageThreeDealt   DealStage = 2 // 3 cards each
	StageFiveDealt    DealStage = 3 // 5 cards each, sorted
	StageDistributing DealStage = 4 // contract taken, remaining cards pending
)

var DealStageDictionary = map[DealStage]string{
	StageNone:         "",
	StageShuffled:     "dealing_stage1",
	StageThreeDealt:   "dealing_stage2",
	StageFiveDealt:    "dealing_stage3",
	StageDistributing: "dealing_stage4",
}

func (s DealStage) String() string { return DealStageDictionary[s] }

func (s DealStage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// BidAction 叫牌动作
type BidAction byte

const (
	BidNone BidAction = 0
	BidPass BidAction = 1
	BidTake BidAction = 2
)

var BidActionDictionary = map[BidAction]string{
	BidNone: "",
	BidPass: "pass",
	BidTake: "take",
}

func (a BidAction) String() string { return BidActionDictionary[a] }

func (a BidAction) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func ParseBidAction(raw string) (BidAction, error) {
	switch raw {
	case "pass":
		return BidPass, nil
	case "take":
		return BidTake, nil
	}
	return BidNone, fmt.Errorf("invalid bid action: %q", raw)
}

// Team is fixed by seat parity: seats 0 and 2 play for Team1.
type Team byte

const (
	TeamNone Team = 0
	Team1    Team = 1
	Team2    Team = 2
)

func TeamOfSeat(seat int) Team {
	if seat < 0 {
		return TeamNone
	}
	if seat%2 == 0 {
		return Team1
	}
	return Team2
}

func (t Team) Other() Team {
	switch t {
	case Team1:
		return Team2
	case Team2:
		return Team1
	}
	return TeamNone
}

func (t Team) String() string {
	switch t {
	case Team1:
		return "team1"
	case Team2:
		return "team2"
	}
	return ""
}

func (t Team) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

type Scores struct {
	Team1 int `json:"team1"`
	Team2 int `json:"team2"`
}

func (s *Scores) Add(t Team, points int) {
	switch t {
	case Team1:
		s.Team1 += points
	case Team2:
		s.Team2 += points
	}
}

func (s Scores) Of(t Team) int {
	switch t {
	case Team1:
		return s.Team1
	case Team2:
		return s.Team2
	}
	return 0
}

// Play is one card laid on the table.
type Play struct {
	PlayerID string    `json:"playerId"`
	Card     card.Card `json:"card"`
}

type TrickRecord struct {
	WinnerID string `json:"winnerId"`
	Plays    []Play `json:"cards"`
}

type BidRecord struct {
	PlayerID string    `json:"playerId"`
	Name     string    `json:"username"`
	Action   BidAction `json:"action"`
	Suit     card.Suit `json:"suit,omitempty"`
}

// UpdateKind tags what changed in an Update.
type UpdateKind byte

const (
	UpdateRoster UpdateKind = iota + 1
	UpdateDeal
	UpdateBid
	UpdatePhase
	UpdateCardPlayed
	UpdateTrickResolved
	UpdateAnnouncement
	UpdateRoundEnd
	UpdateGameOver
	UpdateReady
	UpdateReset
)

var UpdateKindDictionary = map[UpdateKind]string{
	UpdateRoster:        "roster",
	UpdateDeal:          "deal",
	UpdateBid:           "bid",
	UpdatePhase:         "phase",
	UpdateCardPlayed:    "card_played",
	UpdateTrickResolved: "trick_resolved",
	UpdateAnnouncement:  "announcement",
	UpdateRoundEnd:      "round_end",
	UpdateGameOver:      "game_over",
	UpdateReady:         "ready",
	UpdateReset:         "reset",
}

func (k UpdateKind) String() string { return UpdateKindDictionary[k] }

// Update is published after every state mutation. It carries no state:
// subscribers read the projection they need through Game.Snapshot.
type Update struct {
	Seq   uint64
	Kind  UpdateKind
	Phase Phase
}
