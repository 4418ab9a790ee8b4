package station

import "math"

// Normalization bounds for scoring. Power contribution is capped so a
// 350 kW site does not dwarf every other criterion; prices are normalized
// over the realistic retail span.
const (
	scorePowerCapKW   = 350.0
	scorePriceFloorPH = 20.0
	scorePriceCeilPH  = 60.0
)

// Weights controls the power/price mix of the station score. The planner
// derives weights from the charging strategy: price-heavy for few long
// stops, power-heavy for many short ones.
type Weights struct {
	// Power is the weight of the normalized power contribution.
	Power float64

	// Price is the weight of the normalized (inverted) price contribution.
	Price float64

	// BrandBonus multiplies the score for recognized fast-charging brands.
	// Must be >= 1; 1 disables the bonus.
	BrandBonus float64
}

// Score ranks a resolved station for the given weights. Higher is better.
//
// The base is a weighted sum of normalized power (favoring higher kW,
// capped) and normalized price (favoring lower price). Recognized brands
// get a multiplicative bonus. The result is then scaled by an availability
// factor in [0.5, 1.0]: zero-availability stations are strongly penalized
// but never excluded, since availability counts are often stale.
func Score(r Resolved, w Weights) float64 {
	powerScore := math.Min(r.Station.PowerKW, scorePowerCapKW) / scorePowerCapKW

	priceScore := (scorePriceCeilPH - r.PricePerKWh) / (scorePriceCeilPH - scorePriceFloorPH)
	priceScore = math.Max(0, math.Min(1, priceScore))

	score := w.Power*powerScore + w.Price*priceScore

	if r.Station.FastBrand && w.BrandBonus > 1 {
		score *= w.BrandBonus
	}

	availabilityFactor := 0.5 + 0.5*r.Availability
	return score * availabilityFactor
}

// SelectInRange returns the best station whose route offset lies in
// (fromKm, toKm]. Station quality is traded against progress: the score is
// scaled by how much of the span the stop covers, so a marginally better
// station early in the span cannot beat a comparable one near the far edge
// and inflate the stop count. The second return is false when no candidate
// is in range; the caller decides whether that makes the trip infeasible.
func SelectInRange(candidates []Resolved, fromKm, toKm float64, w Weights) (Resolved, bool) {
	var (
		best      Resolved
		bestScore = math.Inf(-1)
		found     bool
	)

	span := toKm - fromKm
	for _, c := range candidates {
		offset := c.Station.RouteOffsetKm
		if offset <= fromKm || offset > toKm {
			continue
		}

		s := Score(c, w)
		if span > 0 {
			progress := (offset - fromKm) / span
			s *= 0.5 + 0.5*progress
		}

		if s > bestScore {
			best = c
			bestScore = s
			found = true
		}
	}

	return best, found
}
