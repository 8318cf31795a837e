package system

import (
	"math"

	"github.com/jakecoffman/cp"
)

// CoverSamples is the number of radial samples a cover search takes.
const CoverSamples = 16

// FindCover samples points on a circle of radius around origin and keeps the
// ones that are farther from threat than origin and hidden from it by an
// obstruction on mask. The kept point nearest origin wins, the earliest
// sample on ties. found is false, with a zero point, when nothing qualifies.
func FindCover(sp Spatial, origin, threat cp.Vector, radius float64, samples int, mask uint) (cp.Vector, bool) {
	if sp == nil || !(radius > 0) || samples <= 0 {
		return cp.Vector{}, false
	}

	current := origin.Distance(threat)
	best := math.MaxFloat64
	var point cp.Vector
	found := false
	for i := 0; i < samples; i++ {
		angle := 2 * math.Pi * float64(i) / float64(samples)
		sample := origin.Add(cp.ForAngle(angle).Mult(radius))
		if sample.Distance(threat) <= current {
			continue
		}
		if clear, _ := sp.LineOfSight(sample, threat, mask); clear {
			continue
		}
		if d := sample.DistanceSq(origin); d < best {
			best = d
			point = sample
			found = true
		}
	}
	return point, found
}
