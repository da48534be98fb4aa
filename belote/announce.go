package belote

import (
	"belote-lite/card"
)

// AnnouncementType 宣告类型, ordered by tier
type AnnouncementType byte

const (
	AnnounceNone   AnnouncementType = 0
	AnnounceTierce AnnouncementType = 1 // 3-card run
	AnnounceQuarte AnnouncementType = 2 // 4-card run
	AnnounceQuinte AnnouncementType = 3 // 5+ card run
	AnnounceSquare AnnouncementType = 4 // four of a kind
)

var AnnouncementTypeDictionary = map[AnnouncementType]string{
	AnnounceNone:   "",
	AnnounceTierce: "tierce",
	AnnounceQuarte: "quarte",
	AnnounceQuinte: "quinte",
	AnnounceSquare: "square",
}

func (t AnnouncementType) String() string { return AnnouncementTypeDictionary[t] }

func (t AnnouncementType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

type Announcement struct {
	Type   AnnouncementType `json:"type"`
	Cards  []card.Card      `json:"cards"`
	Height card.Rank        `json:"height"`         // top card of a run, rank of a square
	Suit   card.Suit        `json:"suit,omitempty"` // runs only
	Points int              `json:"points"`
}

// DeclaredAnnouncement is an adjudicated announcement made public.
type DeclaredAnnouncement struct {
	PlayerID     string       `json:"playerId"`
	Team         Team         `json:"team"`
	Announcement Announcement `json:"announcement"`
}

type AnnouncementResult struct {
	Winner   Team                   `json:"winner,omitempty"` // TeamNone when nobody declared or a tie voided everything
	Points   int                    `json:"points"`
	Declared []DeclaredAnnouncement `json:"declared"`
}

var squarePoints = map[card.Rank]int{
	card.Jack:  200,
	card.Nine:  150,
	card.Ace:   100,
	card.Ten:   100,
	card.King:  100,
	card.Queen: 100,
}

func runAnnouncement(length int) (AnnouncementType, int) {
	switch {
	case length >= 5:
		return AnnounceQuinte, 100
	case length == 4:
		return AnnounceQuarte, 50
	case length == 3:
		return AnnounceTierce, 20
	}
	return AnnounceNone, 0
}

// EvaluateAnnouncements lists the squares and runs held in an 8-card hand.
// Squares come first in rank order, then runs by suit.
func EvaluateAnnouncements(hand []card.Card) []Announcement {
	var out []Announcement

	byRank := make(map[card.Rank][]card.Card, len(card.Ranks))
	held := make(map[card.Card]bool, len(hand))
	for _, c := range hand {
		byRank[c.Rank()] = append(byRank[c.Rank()], c)
		held[c] = true
	}
	for _, r := range card.Ranks {
		pts, ok := squarePoints[r]
		if !ok || len(byRank[r]) != 4 {
			continue
		}
		out = append(out, Announcement{
			Type:   AnnounceSquare,
			Cards:  append([]card.Card(nil), byRank[r]...),
			Height: r,
			Points: pts,
		})
	}

	for _, s := range card.Suits {
		var run []card.Card
		flush := func() {
			if t, pts := runAnnouncement(len(run)); t != AnnounceNone {
				out = append(out, Announcement{
					Type:   t,
					Cards:  run,
					Height: run[len(run)-1].Rank(),
					Suit:   s,
					Points: pts,
				})
			}
			run = nil
		}
		for _, r := range card.Ranks {
			c := card.New(s, r)
			if held[c] {
				run = append(run, c)
				continue
			}
			flush()
		}
		flush()
	}
	return out
}

// heightOf ranks squares by trump strength (J, 9, A, 10, K, Q) and runs by
// their top card in natural order.
func heightOf(a Announcement) int {
	if a.Type == AnnounceSquare {
		return card.New(card.Heart, a.Height).Order(true)
	}
	return int(a.Height)
}

// compareAnnouncements orders by tier, then height, then trump membership.
func compareAnnouncements(a, b Announcement, trump card.Suit) int {
	if a.Type != b.Type {
		if a.Type > b.Type {
			return 1
		}
		return -1
	}
	if ha, hb := heightOf(a), heightOf(b); ha != hb {
		if ha > hb {
			return 1
		}
		return -1
	}
	at := a.Type != AnnounceSquare && trump != card.SuitNone && a.Suit == trump
	bt := b.Type != AnnounceSquare && trump != card.SuitNone && b.Suit == trump
	switch {
	case at && !bt:
		return 1
	case bt && !at:
		return -1
	}
	return 0
}

// BestAnnouncement returns the strongest announcement of the list.
func BestAnnouncement(list []Announcement, trump card.Suit) (Announcement, bool) {
	if len(list) == 0 {
		return Announcement{}, false
	}
	best := list[0]
	for _, a := range list[1:] {
		if compareAnnouncements(a, best, trump) > 0 {
			best = a
		}
	}
	return best, true
}

// Adjudicate picks the team whose best announcement is strictly higher and
// returns the sum of all its announcements. A true tie voids both sides.
func Adjudicate(team1, team2 []Announcement, trump card.Suit) (Team, int) {
	best1, ok1 := BestAnnouncement(team1, trump)
	best2, ok2 := BestAnnouncement(team2, trump)
	var winner Team
	switch {
	case !ok1 && !ok2:
		return TeamNone, 0
	case ok1 && !ok2:
		winner = Team1
	case ok2 && !ok1:
		winner = Team2
	default:
		switch compareAnnouncements(best1, best2, trump) {
		case 1:
			winner = Team1
		case -1:
			winner = Team2
		default:
			return TeamNone, 0
		}
	}
	list := team1
	if winner == Team2 {
		list = team2
	}
	total := 0
	for _, a := range list {
		total += a.Points
	}
	return winner, total
}
