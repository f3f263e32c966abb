package galaxy

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// HyperGalaxy scales a dataset's noise in the regions where a galaxy's light
// dominates, so that a poor fit to one bright galaxy cannot drive the whole
// likelihood.
type HyperGalaxy struct {
	// ContributionFactor softens the contribution map in faint regions.
	ContributionFactor float64
	NoiseFactor        float64
	NoisePower         float64
}

// ContributionMap returns the fraction of the model light each pixel owes to
// this galaxy, normalised so the largest value is one.
func (h *HyperGalaxy) ContributionMap(hyperModelImage, hyperGalaxyImage []float64) []float64 {
	if len(hyperModelImage) != len(hyperGalaxyImage) {
		panic("Hyper model and galaxy images have different lengths.")
	}
	out := make([]float64, len(hyperGalaxyImage))
	for i := range out {
		out[i] = hyperGalaxyImage[i] / (hyperModelImage[i] + h.ContributionFactor)
	}
	if m := floats.Max(out); m > 0 {
		floats.Scale(1/m, out)
	}
	return out
}

// HyperNoiseMap returns the noise added to each pixel,
// NoiseFactor * (noise * contribution)^NoisePower.
func (h *HyperGalaxy) HyperNoiseMap(noiseMap, contributionMap []float64) []float64 {
	if len(noiseMap) != len(contributionMap) {
		panic("Noise and contribution maps have different lengths.")
	}
	out := make([]float64, len(noiseMap))
	for i := range out {
		out[i] = h.NoiseFactor * math.Pow(noiseMap[i]*contributionMap[i], h.NoisePower)
	}
	return out
}

// Pixelization is the source-plane discretisation used to reconstruct a
// galaxy's light. Reconstruction happens outside this module; galaxies only
// carry the choice.
type Pixelization struct {
	Kind  string
	Shape [2]int
}

// Regularization is the smoothness prior paired with a Pixelization.
type Regularization struct {
	Kind        string
	Coefficient float64
}
