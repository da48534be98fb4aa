package belote

import (
	"testing"

	"belote-lite/card"
)

func TestEvaluateAnnouncementsSquares(t *testing.T) {
	hand := []card.Card{
		card.CardHeartJ, card.CardDiamondJ, card.CardClubJ, card.CardSpadeJ,
		card.CardHeart8, card.CardDiamond8, card.CardClub8, card.CardSpade8,
	}
	got := EvaluateAnnouncements(hand)
	if len(got) != 1 {
		t.Fatalf("expected only the jack square, got %+v", got)
	}
	if got[0].Type != AnnounceSquare || got[0].Height != card.Jack || got[0].Points != 200 {
		t.Fatalf("unexpected square: %+v", got[0])
	}

	nines := []card.Card{card.CardHeart9, card.CardDiamond9, card.CardClub9, card.CardSpade9}
	if got := EvaluateAnnouncements(nines); len(got) != 1 || got[0].Points != 150 {
		t.Fatalf("expected nine square worth 150, got %+v", got)
	}
	kings := []card.Card{card.CardHeartK, card.CardDiamondK, card.CardClubK, card.CardSpadeK}
	if got := EvaluateAnnouncements(kings); len(got) != 1 || got[0].Points != 100 {
		t.Fatalf("expected king square worth 100, got %+v", got)
	}
}

func TestEvaluateAnnouncementsRuns(t *testing.T) {
	hand := []card.Card{
		card.CardHeart7, card.CardHeart8, card.CardHeart9, card.CardHeartT,
		card.CardSpadeQ, card.CardSpadeK, card.CardSpadeA,
		card.CardClub7,
	}
	got := EvaluateAnnouncements(hand)
	if len(got) != 2 {
		t.Fatalf("expected 2 runs, got %+v", got)
	}
	if got[0].Type != AnnounceQuarte || got[0].Suit != card.Heart || got[0].Height != card.Ten || got[0].Points != 50 {
		t.Fatalf("unexpected heart run: %+v", got[0])
	}
	if got[1].Type != AnnounceTierce || got[1].Suit != card.Spade || got[1].Height != card.Ace || got[1].Points != 20 {
		t.Fatalf("unexpected spade run: %+v", got[1])
	}

	six := []card.Card{
		card.CardDiamond8, card.CardDiamond9, card.CardDiamondT,
		card.CardDiamondJ, card.CardDiamondQ, card.CardDiamondK,
	}
	got = EvaluateAnnouncements(six)
	if len(got) != 1 || got[0].Type != AnnounceQuinte || got[0].Points != 100 || len(got[0].Cards) != 6 {
		t.Fatalf("expected a 6-card quinte worth 100, got %+v", got)
	}

	broken := []card.Card{card.CardHeart7, card.CardHeart8, card.CardHeartT, card.CardHeartJ}
	if got := EvaluateAnnouncements(broken); len(got) != 0 {
		t.Fatalf("expected no run across a gap, got %+v", got)
	}
}

func run(s card.Suit, top card.Rank, t AnnouncementType, pts int) Announcement {
	return Announcement{Type: t, Height: top, Suit: s, Points: pts}
}

func TestAdjudicate(t *testing.T) {
	tierceHighA := run(card.Heart, card.Ace, AnnounceTierce, 20)
	tierceHighK := run(card.Spade, card.King, AnnounceTierce, 20)
	quarte := run(card.Diamond, card.Ten, AnnounceQuarte, 50)
	squareQ := Announcement{Type: AnnounceSquare, Height: card.Queen, Points: 100}
	squareA := Announcement{Type: AnnounceSquare, Height: card.Ace, Points: 100}

	cases := []struct {
		name       string
		t1, t2     []Announcement
		trump      card.Suit
		wantTeam   Team
		wantPoints int
	}{
		{"nobody", nil, nil, card.Club, TeamNone, 0},
		{"uncontested", []Announcement{tierceHighK}, nil, card.Club, Team1, 20},
		{"tier beats height", []Announcement{tierceHighA}, []Announcement{quarte}, card.Club, Team2, 50},
		{"best announcement decides", []Announcement{tierceHighA, quarte}, []Announcement{tierceHighK}, card.Club, Team1, 70},
		{"square over quinte", []Announcement{run(card.Club, card.Ace, AnnounceQuinte, 100)}, []Announcement{squareQ}, card.Club, Team2, 100},
		{"square height uses trump order", []Announcement{squareQ}, []Announcement{squareA}, card.Club, Team2, 100},
		{"trump breaks height tie", []Announcement{run(card.Heart, card.King, AnnounceTierce, 20)}, []Announcement{tierceHighK}, card.Spade, Team2, 20},
		{"true tie voids", []Announcement{run(card.Heart, card.King, AnnounceTierce, 20)}, []Announcement{tierceHighK}, card.Club, TeamNone, 0},
	}
	for _, tc := range cases {
		team, pts := Adjudicate(tc.t1, tc.t2, tc.trump)
		if team != tc.wantTeam || pts != tc.wantPoints {
			t.Fatalf("%s: expected %v/%d, got %v/%d", tc.name, tc.wantTeam, tc.wantPoints, team, pts)
		}
	}
}
