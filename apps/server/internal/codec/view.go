package codec

import (
	"belote-lite/belote"
	"belote-lite/card"
)

// PlayerView is one seat as every client sees it.
type PlayerView struct {
	ID        string      `json:"id"`
	Name      string      `json:"username"`
	Avatar    string      `json:"avatar,omitempty"`
	Seat      int         `json:"seat"`
	Team      belote.Team `json:"team"`
	Bot       bool        `json:"isBot"`
	Connected bool        `json:"connected"`
	Rating    *int        `json:"rating,omitempty"`
	CardCount int         `json:"cardCount"`
}

// PublicState is the part of the table visible to everyone in the room.
type PublicState struct {
	RoomID int              `json:"roomId"`
	Phase  belote.Phase     `json:"phase"`
	Stage  belote.DealStage `json:"dealingStage,omitempty"`

	Players []PlayerView `json:"players"`

	DealerSeat   int                `json:"dealerSeat"`
	TurnSeat     int                `json:"turnSeat"`
	TurnPlayerID string             `json:"currentTurn,omitempty"`
	TakerSeat    int                `json:"takerSeat"`
	BiddingRound int                `json:"biddingRound,omitempty"`
	TurnedCard   *card.Card         `json:"turnedCard,omitempty"`
	Trump        card.Suit          `json:"trump,omitempty"`
	BidHistory   []belote.BidRecord `json:"bidHistory"`

	Trick        []belote.Play       `json:"currentTrick"`
	LastTrick    *belote.TrickRecord `json:"lastTrick,omitempty"`
	TricksPlayed int                 `json:"tricksPlayed"`
	Resolving    bool                `json:"resolving"`

	Declared      map[string]bool            `json:"declared,omitempty"`
	Announcements *belote.AnnouncementResult `json:"announcements,omitempty"`

	Scores        belote.Scores  `json:"scores"`
	CurrentScores belote.Scores  `json:"currentRoundScores"`
	RoundSummary  *belote.Scores `json:"roundSummary,omitempty"`
	ReadyPlayers  []string       `json:"readyPlayers"`

	Winner     belote.Team        `json:"winner,omitempty"`
	Settlement *belote.Settlement `json:"settlement,omitempty"`

	DeckRemaining int    `json:"deckRemaining"`
	UpdateSeq     uint64 `json:"seq"`
}

// View is what one connection receives in a game-update.
type View struct {
	PlayerID             string                `json:"playerId,omitempty"`
	PublicState          PublicState           `json:"publicState"`
	PrivateHand          []card.Card           `json:"privateHand"`
	PrivateAnnouncements []belote.Announcement `json:"privateAnnouncements"`
}

// BuildView projects a snapshot for one viewer. Only a seated human gets
// their own hand and announcement candidates.
func BuildView(roomID int, snap belote.Snapshot, viewerID string) View {
	ps := PublicState{
		RoomID:        roomID,
		Phase:         snap.Phase,
		Stage:         snap.Stage,
		DealerSeat:    snap.DealerSeat,
		TurnSeat:      snap.TurnSeat,
		TakerSeat:     snap.TakerSeat,
		BiddingRound:  snap.BiddingRound,
		Trump:         snap.Trump,
		BidHistory:    nonNil(snap.BidHistory),
		Trick:         nonNil(snap.Trick),
		LastTrick:     snap.LastTrick,
		TricksPlayed:  snap.TricksPlayed,
		Resolving:     snap.Resolving,
		Declared:      snap.Declared,
		Announcements: snap.Announcements,
		Scores:        snap.Scores,
		CurrentScores: snap.CurrentScores,
		RoundSummary:  snap.RoundSummary,
		ReadyPlayers:  nonNil(snap.ReadyPlayers),
		Winner:        snap.Winner,
		Settlement:    snap.Settlement,
		DeckRemaining: snap.DeckRemaining,
		UpdateSeq:     snap.UpdateSeq,
	}
	if snap.TurnedCard.Valid() {
		tc := snap.TurnedCard
		ps.TurnedCard = &tc
	}

	view := View{
		PrivateHand:          []card.Card{},
		PrivateAnnouncements: []belote.Announcement{},
	}
	seated := false
	for _, p := range snap.Players {
		pv := PlayerView{
			ID:        p.ID,
			Name:      p.Name,
			Avatar:    p.Avatar,
			Seat:      p.Seat,
			Team:      p.Team,
			Bot:       p.Bot,
			Connected: p.Connected,
			CardCount: p.HandCount,
		}
		if p.HasRating && !p.Bot {
			r := p.Rating
			pv.Rating = &r
		}
		if p.Seat == snap.TurnSeat {
			ps.TurnPlayerID = p.ID
		}
		if viewerID != "" && p.ID == viewerID && !p.Bot {
			seated = true
		}
		ps.Players = append(ps.Players, pv)
	}
	if ps.Players == nil {
		ps.Players = []PlayerView{}
	}
	view.PublicState = ps

	if seated {
		view.PlayerID = viewerID
		view.PrivateHand = append(view.PrivateHand, snap.Hands[viewerID]...)
		view.PrivateAnnouncements = append(view.PrivateAnnouncements, snap.Candidates[viewerID]...)
	}
	return view
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
