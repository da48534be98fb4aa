package card

import (
	"encoding/json"
	"fmt"
)

// Card 牌枚举
//
// 编码规则:
// - 高4位: 花色 (1:Heart, 2:Diamond, 3:Club, 4:Spade)
// - 低4位: 点数 (1:7, 2:8, 3:9, 4:10, 5:J, 6:Q, 7:K, 8:A)
type Card byte

func New(s Suit, r Rank) Card {
	return Card(byte(s)<<4 | byte(r))
}

func (c Card) Suit() Suit { return Suit(c >> 4) }

func (c Card) Rank() Rank { return Rank(c & 0x0F) }

func (c Card) Valid() bool {
	return c.Suit().Valid() && c.Rank().Valid()
}

// ID is the rank followed by the suit letter, e.g. "10H" or "JS".
func (c Card) ID() string {
	if !c.Valid() {
		return ""
	}
	return c.Rank().String() + c.Suit().String()
}

func (c Card) String() string {
	if c == CardInvalid {
		return "Invalid"
	}
	return c.ID()
}

func (c Card) IsTrump(trump Suit) bool {
	return trump != SuitNone && c.Suit() == trump
}

// Value returns the card points, which depend on whether its suit is trump.
func (c Card) Value(isTrump bool) int {
	if !c.Valid() {
		return 0
	}
	if isTrump {
		return trumpValues[c.Rank()]
	}
	return plainValues[c.Rank()]
}

// Order returns the trick strength of the card, higher wins.
func (c Card) Order(isTrump bool) int {
	if !c.Valid() {
		return 0
	}
	if isTrump {
		return trumpOrder[c.Rank()]
	}
	return plainOrder[c.Rank()]
}

// Parse converts a card id such as "10H", "Js" or "TD" into a Card.
func Parse(id string) (Card, error) {
	if len(id) < 2 {
		return CardInvalid, fmt.Errorf("invalid card id: %q", id)
	}
	suit, err := ParseSuit(id[len(id)-1:])
	if err != nil || suit == SuitNone {
		return CardInvalid, fmt.Errorf("invalid card id: %q", id)
	}
	rank, err := ParseRank(id[:len(id)-1])
	if err != nil {
		return CardInvalid, fmt.Errorf("invalid card id: %q", id)
	}
	return New(suit, rank), nil
}

type cardJSON struct {
	ID   string `json:"id"`
	Suit Suit   `json:"suit"`
	Rank string `json:"rank"`
}

func (c Card) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(cardJSON{ID: c.ID(), Suit: c.Suit(), Rank: c.Rank().String()})
}

// UnmarshalJSON accepts either a bare id string or an object with id or suit+rank.
func (c *Card) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = CardInvalid
		return nil
	}
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		parsed, err := Parse(id)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}
	var raw cardJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.ID != "" {
		parsed, err := Parse(raw.ID)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}
	rank, err := ParseRank(raw.Rank)
	if err != nil {
		return err
	}
	if !raw.Suit.Valid() {
		return fmt.Errorf("invalid card suit")
	}
	*c = New(raw.Suit, rank)
	return nil
}
