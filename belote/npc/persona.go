package npc

// PersonalityProfile defines the tunable parameters for a RuleBrain.
type PersonalityProfile struct {
	TakeFirstRound  float64 `json:"takeFirstRound"`  // chance to take the turned suit
	TakeSecondRound float64 `json:"takeSecondRound"` // chance to name another suit
	Declare         float64 `json:"declare"`         // chance to announce held melds
}

// DefaultProfile matches the house bot: rare takes, always declares.
var DefaultProfile = PersonalityProfile{
	TakeFirstRound:  0.2,
	TakeSecondRound: 0.1,
	Declare:         1.0,
}

// Persona defines a named bot character.
type Persona struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Tagline   string             `json:"tagline"`
	AvatarKey string             `json:"avatarKey"`
	Brain     PersonalityProfile `json:"brain"`
}
