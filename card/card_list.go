package card

import (
	"math/rand"
	"sort"
)

type CardList []Card

func (ds *CardList) Init(cards []Card) {
	*ds = make([]Card, len(cards))
	copy(*ds, cards)
}

// Count 获取总牌数
func (ds CardList) Count() int {
	return len(ds)
}

func (ds CardList) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(ds), func(i, j int) {
		ds[i], ds[j] = ds[j], ds[i]
	})
}

func (ds *CardList) Add(cards ...Card) {
	*ds = append(*ds, cards...)
}

// PopCards takes size cards from the top of the list.
func (ds *CardList) PopCards(size int) ([]Card, bool) {
	if size > ds.Count() {
		return nil, false
	}
	cards := make([]Card, size)
	copy(cards, (*ds)[:size])
	*ds = (*ds)[size:]
	return cards, true
}

func (ds *CardList) PopCard() Card {
	cards, ok := ds.PopCards(1)
	if !ok {
		return CardInvalid
	}
	return cards[0]
}

func (ds CardList) IndexOf(c Card) int {
	for i, cur := range ds {
		if cur == c {
			return i
		}
	}
	return -1
}

func (ds CardList) Contains(c Card) bool { return ds.IndexOf(c) >= 0 }

// Remove deletes the first occurrence of c, keeping the order of the rest.
func (ds *CardList) Remove(c Card) bool {
	idx := ds.IndexOf(c)
	if idx < 0 {
		return false
	}
	*ds = append((*ds)[:idx], (*ds)[idx+1:]...)
	return true
}

func (ds CardList) Clone() CardList {
	if ds == nil {
		return nil
	}
	out := make(CardList, len(ds))
	copy(out, ds)
	return out
}

// displaySuitOrder alternates colours: ♥ ♠ ♦ ♣.
var displaySuitOrder = map[Suit]int{Heart: 0, Spade: 1, Diamond: 2, Club: 3}

// Sort orders the hand for display: trump suit first when set, then the fixed
// suit precedence, then trick strength descending inside each suit.
func (ds CardList) Sort(trump Suit) {
	suitKey := func(s Suit) int {
		if trump != SuitNone && s == trump {
			return -1
		}
		return displaySuitOrder[s]
	}
	sort.SliceStable(ds, func(i, j int) bool {
		a, b := ds[i], ds[j]
		if a.Suit() != b.Suit() {
			return suitKey(a.Suit()) < suitKey(b.Suit())
		}
		isTrump := a.IsTrump(trump)
		return a.Order(isTrump) > b.Order(isTrump)
	})
}
