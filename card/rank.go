package card

import (
	"fmt"
	"strings"
)

// Rank uses the natural sequence 7 < 8 < 9 < 10 < J < Q < K < A, which is the
// order runs are detected in. Trick strength uses Card.Order instead.
type Rank byte

const (
	RankNone Rank = iota
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// Ranks lists the eight ranks in natural sequence order.
var Ranks = []Rank{Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}

var rankNames = [...]string{"", "7", "8", "9", "10", "J", "Q", "K", "A"}

// 点数表 (index = Rank)
var (
	plainValues = [...]int{0, 0, 0, 0, 10, 2, 3, 4, 11}
	trumpValues = [...]int{0, 0, 0, 14, 10, 20, 3, 4, 11}

	// 1 = weakest, 8 = strongest
	plainOrder = [...]int{0, 1, 2, 3, 7, 4, 5, 6, 8}
	trumpOrder = [...]int{0, 1, 2, 7, 5, 8, 3, 4, 6}
)

func (r Rank) String() string {
	if !r.Valid() {
		return "?"
	}
	return rankNames[r]
}

func (r Rank) Valid() bool { return r >= Seven && r <= Ace }

func (r Rank) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return []byte{}, nil
	}
	return []byte(rankNames[r]), nil
}

func (r *Rank) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*r = RankNone
		return nil
	}
	parsed, err := ParseRank(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func ParseRank(raw string) (Rank, error) {
	switch strings.ToUpper(raw) {
	case "7":
		return Seven, nil
	case "8":
		return Eight, nil
	case "9":
		return Nine, nil
	case "10", "T":
		return Ten, nil
	case "J":
		return Jack, nil
	case "Q":
		return Queen, nil
	case "K":
		return King, nil
	case "A":
		return Ace, nil
	}
	return RankNone, fmt.Errorf("invalid rank: %q", raw)
}
