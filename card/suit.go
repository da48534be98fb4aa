package card

import "fmt"

type Suit byte

const (
	SuitNone Suit = iota
	Heart         // ♥
	Diamond       // ♦
	Club          // ♣
	Spade         // ♠
)

// Suits lists the four playable suits in deck order.
var Suits = []Suit{Heart, Diamond, Club, Spade}

// String returns the single-letter code used in card ids ("H", "D", "C", "S").
func (s Suit) String() string {
	switch s {
	case Heart:
		return "H"
	case Diamond:
		return "D"
	case Club:
		return "C"
	case Spade:
		return "S"
	}
	return ""
}

func (s Suit) Valid() bool { return s >= Heart && s <= Spade }

// ParseSuit accepts a suit letter in either case. The empty string parses to SuitNone.
func ParseSuit(raw string) (Suit, error) {
	switch raw {
	case "":
		return SuitNone, nil
	case "H", "h":
		return Heart, nil
	case "D", "d":
		return Diamond, nil
	case "C", "c":
		return Club, nil
	case "S", "s":
		return Spade, nil
	}
	return SuitNone, fmt.Errorf("invalid suit: %q", raw)
}

func (s Suit) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Suit) UnmarshalText(text []byte) error {
	parsed, err := ParseSuit(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
