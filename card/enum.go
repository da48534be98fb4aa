package card

const CardInvalid Card = 0

// Heart 红心
const (
	CardHeart7 Card = iota + 0x11
	CardHeart8
	CardHeart9
	CardHeartT
	CardHeartJ
	CardHeartQ
	CardHeartK
	CardHeartA
)

// Diamond 方块
const (
	CardDiamond7 Card = iota + 0x21
	CardDiamond8
	CardDiamond9
	CardDiamondT
	CardDiamondJ
	CardDiamondQ
	CardDiamondK
	CardDiamondA
)

// Club 梅花
const (
	CardClub7 Card = iota + 0x31
	CardClub8
	CardClub9
	CardClubT
	CardClubJ
	CardClubQ
	CardClubK
	CardClubA
)

// Spade 黑桃
const (
	CardSpade7 Card = iota + 0x41
	CardSpade8
	CardSpade9
	CardSpadeT
	CardSpadeJ
	CardSpadeQ
	CardSpadeK
	CardSpadeA
)

// DeckSize is the number of cards in a belote deck.
const DeckSize = 32
