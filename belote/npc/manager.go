package npc

import (
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Instance is a freshly spawned bot seat.
type Instance struct {
	PlayerID string
	Persona  *Persona
	Brain    Brain
}

type ManagerConfig struct {
	ThinkMin time.Duration
	ThinkMax time.Duration
	Seed     int64
}

// Manager hands out bot identities and brains and paces their decisions.
type Manager struct {
	registry *PersonaRegistry
	cfg      ManagerConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewManager creates a bot manager with the given persona registry.
func NewManager(registry *PersonaRegistry, cfg ManagerConfig) *Manager {
	if registry == nil {
		registry = MustDefaultRegistry()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Manager{
		registry: registry,
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Spawn picks a persona whose name is not in taken and gives it a fresh id.
// When every persona is taken the name gets a numeric suffix.
func (m *Manager) Spawn(taken map[string]bool) Instance {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.registry.All()
	var free []*Persona
	for _, p := range all {
		if !taken[p.Name] {
			free = append(free, p)
		}
	}
	var persona *Persona
	switch {
	case len(free) > 0:
		persona = free[m.rng.Intn(len(free))]
	case len(all) > 0:
		base := all[m.rng.Intn(len(all))]
		clone := *base
		for i := 2; ; i++ {
			clone.Name = base.Name + " " + strconv.Itoa(i)
			if !taken[clone.Name] {
				break
			}
		}
		persona = &clone
	default:
		persona = &Persona{ID: "default", Name: "Bot", Brain: DefaultProfile}
	}
	return Instance{
		PlayerID: "bot_" + uuid.NewString(),
		Persona:  persona,
		Brain:    NewRuleBrain(persona, m.rng.Int63()),
	}
}

// NewBrain builds a brain for a seat a disconnected human left to a bot.
func (m *Manager) NewBrain() Brain {
	m.mu.Lock()
	defer m.mu.Unlock()
	return NewRuleBrain(nil, m.rng.Int63())
}

// ThinkDelay draws a decision delay uniformly from [ThinkMin, ThinkMax].
func (m *Manager) ThinkDelay() time.Duration {
	span := m.cfg.ThinkMax - m.cfg.ThinkMin
	if span <= 0 {
		return m.cfg.ThinkMin
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.ThinkMin + time.Duration(m.rng.Int63n(int64(span)+1))
}
