package tm

import (
	"fmt"
	"math"
	"strings"

	"github.com/2beens/gymprogram/internal/gymstats/program"
)

const (
	StrategyOneRoundingUnit         = "one_rounding_unit"
	StrategyRoundingUnitPerExtraRep = "rounding_unit_per_extra_rep"
)

// StepInput is what a step strategy sees when an AMRAP target was met.
type StepInput struct {
	Reps        int
	AmrapTarget int
	RoundingKg  float64
	MaxDeltaKg  float64
}

// StepStrategy returns the TM increase for a met AMRAP target.
type StepStrategy func(in StepInput) float64

// StepStrategyByName resolves a configured strategy, empty means the default.
func StepStrategyByName(name string) (StepStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategyOneRoundingUnit:
		return OneRoundingUnit, nil
	case StrategyRoundingUnitPerExtraRep:
		return RoundingUnitPerExtraRep, nil
	default:
		return nil, fmt.Errorf("unknown auto adjust strategy: %s", name)
	}
}

func OneRoundingUnit(in StepInput) float64 {
	return roundingOrDefault(in.RoundingKg)
}

// RoundingUnitPerExtraRep adds one rounding unit for hitting the target and
// one more per rep above it, never more than the guardrail allows.
func RoundingUnitPerExtraRep(in StepInput) float64 {
	rounding := roundingOrDefault(in.RoundingKg)
	extra := in.Reps - in.AmrapTarget
	if extra < 0 {
		extra = 0
	}
	step := float64(extra+1) * rounding

	maxDelta := in.MaxDeltaKg
	if maxDelta <= 0 {
		maxDelta = DefaultMaxDeltaKg
	}
	if step > maxDelta {
		step = math.Floor(maxDelta/rounding) * rounding
	}
	return round3(step)
}

func roundingOrDefault(roundingKg float64) float64 {
	if roundingKg <= 0 {
		return program.DefaultRoundingKg
	}
	return roundingKg
}
