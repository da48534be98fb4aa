package belote

import (
	"fmt"
	"time"

	"belote-lite/belote/npc"
	"belote-lite/card"

	"go.uber.org/zap"
)

type Config struct {
	// Deal pacing
	DealFirstDelay  time.Duration // shuffled -> 3 cards each
	DealSecondDelay time.Duration // 3 -> 5 cards each
	RevealDelay     time.Duration // 5 cards -> turned card, bidding opens
	DistributeDelay time.Duration // take -> remaining cards

	// Pause before a complete trick is resolved
	TrickPause    time.Duration
	BotTrickPause time.Duration

	// Bot think time, uniformly drawn from [BotThinkMin, BotThinkMax]
	BotThinkMin time.Duration
	BotThinkMax time.Duration

	// Watchdog
	StallThreshold    time.Duration
	DisconnectTimeout time.Duration

	TargetScore   int
	RatingK       int
	DefaultRating int

	// RNG seed (0 => time-based)
	Seed int64

	// Deterministic controls for tests
	ForcedDealer *int
	DeckOverride []card.Card // dealt top first instead of a shuffled deck

	Scheduler Scheduler
	Clock     func() time.Time
	Logger    *zap.Logger
	OnUpdate  func(Update)
	Recorder  Recorder
	Personas  *npc.PersonaRegistry
}

func DefaultConfig() Config {
	return Config{
		DealFirstDelay:    1 * time.Second,
		DealSecondDelay:   2 * time.Second,
		RevealDelay:       2 * time.Second,
		DistributeDelay:   1 * time.Second,
		TrickPause:        2500 * time.Millisecond,
		BotTrickPause:     1 * time.Second,
		BotThinkMin:       1 * time.Second,
		BotThinkMax:       2500 * time.Millisecond,
		StallThreshold:    10 * time.Second,
		DisconnectTimeout: 2 * time.Minute,
		TargetScore:       501,
		RatingK:           32,
		DefaultRating:     100,
	}
}

func (c Config) validate() error {
	delays := []time.Duration{
		c.DealFirstDelay, c.DealSecondDelay, c.RevealDelay, c.DistributeDelay,
		c.TrickPause, c.BotTrickPause, c.BotThinkMin, c.BotThinkMax,
	}
	for _, d := range delays {
		if d < 0 {
			return fmt.Errorf("delays must be >= 0")
		}
	}
	if c.BotThinkMax < c.BotThinkMin {
		return fmt.Errorf("BotThinkMax must be >= BotThinkMin")
	}
	if c.StallThreshold <= 0 || c.DisconnectTimeout <= 0 {
		return fmt.Errorf("watchdog timeouts must be > 0")
	}
	if c.TargetScore <= 0 {
		return fmt.Errorf("TargetScore must be > 0")
	}
	if c.RatingK <= 0 {
		return fmt.Errorf("RatingK must be > 0")
	}
	if c.DefaultRating < 0 {
		return fmt.Errorf("DefaultRating must be >= 0")
	}
	if c.ForcedDealer != nil && (*c.ForcedDealer < 0 || *c.ForcedDealer >= NumSeats) {
		return fmt.Errorf("ForcedDealer must be in [0,%d)", NumSeats)
	}
	if c.DeckOverride != nil {
		if len(c.DeckOverride) != card.DeckSize {
			return fmt.Errorf("DeckOverride must hold %d cards", card.DeckSize)
		}
		seen := make(map[card.Card]bool, card.DeckSize)
		for _, cc := range c.DeckOverride {
			if !cc.Valid() || seen[cc] {
				return fmt.Errorf("DeckOverride has invalid or duplicate card %v", cc)
			}
			seen[cc] = true
		}
	}
	return nil
}
