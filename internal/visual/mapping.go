package visual

import "math"

// applyMapping remaps a normalised t (already in [0, 1] after the invert
// flag, if any, has been applied) through the requested curve (spec
// §4.7). exponent is the curve's shape parameter: the power for
// MappingExponent, and the steepness for MappingLogistic (a logistic
// curve centred on t=0.5).
func applyMapping(kind MappingKind, t float64, exponent float64) float64 {
	switch kind {
	case MappingExponent:
		if exponent == 0 {
			exponent = 1
		}
		return math.Pow(clamp01(t), exponent)
	case MappingLogistic:
		k := exponent
		if k == 0 {
			k = 10
		}
		return 1 / (1 + math.Exp(-k*(t-0.5)))
	default:
		return clamp01(t)
	}
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// normalise maps v from [min, max] to [0, 1], applying invert (spec §4.7:
// "if invert, map x ↦ (max - x) + min") before scaling. A zero-width range
// normalises everything to 0.
func normalise(v, min, max float64, invert bool) float64 {
	if invert {
		v = (max - v) + min
	}
	if max <= min {
		return 0
	}
	return clamp01((v - min) / (max - min))
}
