package belote

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder persists finished games. Calls are made off the table goroutine
// and their errors are only logged.
type Recorder interface {
	CreateGame(ctx context.Context, gameID string, scores Scores, winner Team) error
	AddParticipant(ctx context.Context, gameID, userID string, team Team, ratingBefore, ratingChange int) error
	UpdateRating(ctx context.Context, userID string, newRating int) error
}

type Participant struct {
	UserID       string `json:"userId"`
	Team         Team   `json:"team"`
	RatingBefore int    `json:"ratingBefore"`
	RatingChange int    `json:"ratingChange"`
}

type Settlement struct {
	GameID       string        `json:"gameId"`
	Scores       Scores        `json:"scores"`
	Winner       Team          `json:"winner"`
	Participants []Participant `json:"participants"`
	FinishedAt   time.Time     `json:"finishedAt"`
}

const recordTimeout = 10 * time.Second

// settleLocked computes rating changes from team averages. Bots and unrated
// guests count at DefaultRating; only rated humans become participants.
func (g *Game) settleLocked() {
	var sum [3]int
	for _, p := range g.players {
		r := g.cfg.DefaultRating
		if !p.Bot && p.HasRating {
			r = p.Rating
		}
		sum[p.Team()] += r
	}
	avg1 := float64(sum[Team1]) / 2
	avg2 := float64(sum[Team2]) / 2
	delta := map[Team]int{
		Team1: TeamRatingDelta(avg1, avg2, g.winner == Team1, g.cfg.RatingK),
		Team2: TeamRatingDelta(avg2, avg1, g.winner == Team2, g.cfg.RatingK),
	}

	s := Settlement{
		GameID:     uuid.NewString(),
		Scores:     g.scores,
		Winner:     g.winner,
		FinishedAt: g.now(),
	}
	for _, p := range g.players {
		if p.Bot || !p.HasRating {
			continue
		}
		before := p.Rating
		after := ApplyRating(before, delta[p.Team()])
		p.Rating = after
		s.Participants = append(s.Participants, Participant{
			UserID:       p.ID,
			Team:         p.Team(),
			RatingBefore: before,
			RatingChange: after - before,
		})
	}
	g.settlement = &s
	g.settleQueue = append(g.settleQueue, s)
}

func (g *Game) dispatchSettlement(s Settlement) {
	rec := g.cfg.Recorder
	if rec == nil {
		return
	}
	log := g.log.With(zap.String("game", s.GameID))
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("recording game panicked", zap.Any("panic", r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if err := rec.CreateGame(ctx, s.GameID, s.Scores, s.Winner); err != nil {
			log.Error("record game failed", zap.Error(err))
			return
		}
		for _, p := range s.Participants {
			if err := rec.AddParticipant(ctx, s.GameID, p.UserID, p.Team, p.RatingBefore, p.RatingChange); err != nil {
				log.Error("record participant failed", zap.String("user", p.UserID), zap.Error(err))
				continue
			}
			if err := rec.UpdateRating(ctx, p.UserID, p.RatingBefore+p.RatingChange); err != nil {
				log.Error("update rating failed", zap.String("user", p.UserID), zap.Error(err))
			}
		}
		log.Info("game recorded", zap.Int("participants", len(s.Participants)))
	}()
}
