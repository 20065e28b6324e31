package shotload

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
)

var teams = []string{"ATL", "BOS", "CHI", "DEN", "LAL", "MIA", "NYK", "PHX", "SAS", "TOR"} //nolint:gochecknoglobals // fixed pool

// profile is a synthetic player's shooting tendency.
type profile struct {
	name  string
	team  string
	touch float64 // make probability at the rim
	decay float64 // probability lost per foot
	three float64 // share of attempts beyond the arc
}

// Generate returns ShotsPerPlayer shots for each of Players synthetic players.
// The same seed always yields the same players and shots.
func Generate(cfg *Config) []Shot {
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // synthetic data
	profiles := make([]profile, cfg.Players)
	for i := range profiles {
		profiles[i] = newProfile(rng, i)
	}

	shots := make([]Shot, 0, cfg.Players*cfg.ShotsPerPlayer)
	for _, p := range profiles {
		for range cfg.ShotsPerPlayer {
			shots = append(shots, p.shoot(rng))
		}
	}
	// Interleave players so every upload batch touches several of them.
	rng.Shuffle(len(shots), func(i, j int) { shots[i], shots[j] = shots[j], shots[i] })
	return shots
}

// Players returns the distinct player names in shots, in first-seen order.
func Players(shots []Shot) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range shots {
		if _, ok := seen[s.Player]; ok {
			continue
		}
		seen[s.Player] = struct{}{}
		out = append(out, s.Player)
	}
	return out
}

func newProfile(rng *rand.Rand, i int) profile {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		id = uuid.New()
	}
	return profile{
		name:  fmt.Sprintf("Player %s", id.String()[:8]),
		team:  teams[i%len(teams)],
		touch: 0.45 + rng.Float64()*0.3,
		decay: 0.008 + rng.Float64()*0.01,
		three: 0.15 + rng.Float64()*0.35,
	}
}

func (p profile) shoot(rng *rand.Rand) Shot {
	var d float64
	if rng.Float64() < p.three {
		d = threePointLine + rng.Float64()*(maxDistance-threePointLine)
	} else {
		d = rng.Float64() * threePointLine
	}
	angle := rng.Float64() * math.Pi
	shotType := 2
	if d >= threePointLine {
		shotType = 3
	}
	prob := math.Max(0.05, p.touch-p.decay*d)
	return Shot{
		Player:   p.name,
		Team:     p.team,
		ShotX:    math.Round(d*math.Cos(angle)*10) / 10,
		ShotY:    math.Round(d*math.Sin(angle)*10) / 10,
		Distance: math.Round(d*10) / 10,
		ShotType: shotType,
		Made:     rng.Float64() < prob,
	}
}
