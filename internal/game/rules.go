package game

import (
	"fmt"
	"strings"
)

// Rules selects between the table variants.
type Rules struct {
	Variant               string
	StartChips            int
	RequireFullTable      bool // all four seats filled before the first roll
	GracePeriod           bool // zero-chip seats get one pass in Danger before elimination
	MaxStealPerWild       int
	TripleWildReward      bool // three Wilds offer take-the-pot or three steals
	TwoPlayerShortCircuit bool // with two left, an acting seat on zero chips loses at once
}

const (
	VariantClassic = "classic"
	VariantDealer  = "dealer"
)

func Classic() Rules {
	return Rules{
		Variant:               VariantClassic,
		StartChips:            3,
		RequireFullTable:      true,
		GracePeriod:           true,
		MaxStealPerWild:       1,
		TripleWildReward:      true,
		TwoPlayerShortCircuit: true,
	}
}

func Dealer() Rules {
	r := Classic()
	r.Variant = VariantDealer
	r.StartChips = 5
	r.MaxStealPerWild = 3
	return r
}

// RulesFor returns the preset for a variant name; blank means classic.
func RulesFor(variant string) (Rules, error) {
	switch strings.ToLower(strings.TrimSpace(variant)) {
	case "", VariantClassic:
		return Classic(), nil
	case VariantDealer:
		return Dealer(), nil
	}
	return Rules{}, fmt.Errorf("%w: %q", ErrUnknownVariant, variant)
}

func (r Rules) normalized() Rules {
	if r.StartChips <= 0 {
		r.StartChips = 3
	}
	if r.MaxStealPerWild <= 0 {
		r.MaxStealPerWild = 1
	}
	if r.Variant == "" {
		r.Variant = VariantClassic
	}
	return r
}
