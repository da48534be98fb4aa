package card

// NewDeck returns the 32 cards in suit then rank order, unshuffled.
func NewDeck() CardList {
	deck := make(CardList, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			deck = append(deck, New(s, r))
		}
	}
	return deck
}
