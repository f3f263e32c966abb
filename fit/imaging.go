/*
package fit compares the images and visibilities predicted by a lens model
with observed data.

A fit evaluates the model on the dataset's grid, blurs whatever light has
not already been convolved with the PSF, solves for the amplitudes of any
linear light profiles and reduces the result to a chi-squared and a
Gaussian log likelihood. The log likelihood is what an external sampler
consumes.

Every fit is counted and timed with Prometheus and traced with
OpenTelemetry.
*/
package fit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/floats"

	"github.com/phil-mansfield/lensfish/galaxy"
	"github.com/phil-mansfield/lensfish/geom"
	"github.com/phil-mansfield/lensfish/logging"
	"github.com/phil-mansfield/lensfish/plane"
	"github.com/phil-mansfield/lensfish/profiles"
)

// ErrShape is returned when dataset components have inconsistent shapes.
var ErrShape = errors.New("inconsistent dataset shapes")

// Imaging is an observed image with its noise map and PSF. Image and
// NoiseMap are native (rows, cols) arrays matching the mask's shape; the
// mask's sub size sets how finely the model is evaluated.
type Imaging struct {
	Mask     *geom.Mask
	Image    [][]float64
	NoiseMap [][]float64
	// PSF may be nil, in which case nothing is blurred.
	PSF *Kernel

	grid *geom.Grid // unmasked pixel centres
	full *geom.Grid // every pixel, sub-gridded, for blurring
}

// NewImaging checks the shapes of an imaging dataset.
func NewImaging(
	image, noiseMap [][]float64, psf *Kernel, mask *geom.Mask,
) (*Imaging, error) {
	if err := checkNative("image", image, mask.Shape); err != nil {
		return nil, err
	} else if err := checkNative("noise map", noiseMap, mask.Shape); err != nil {
		return nil, err
	}

	d := &Imaging{
		Mask: mask, Image: image, NoiseMap: noiseMap, PSF: psf,
		grid: geom.NewGrid(mask.WithSubSize(1)),
		full: geom.NewGrid(mask.Full()),
	}
	if d.grid.Pixels() == 0 {
		return nil, fmt.Errorf("Every pixel of the imaging mask is masked.")
	}
	for i, sigma := range d.slim(noiseMap) {
		if !(sigma > 0) {
			p := d.grid.Pixel(i)
			return nil, fmt.Errorf("The noise map is %g at unmasked pixel "+
				"(%d, %d), but must be positive.", sigma, p[0], p[1])
		}
	}
	return d, nil
}

func checkNative(name string, x [][]float64, shape [2]int) error {
	if len(x) != shape[0] {
		return fmt.Errorf("The %s has %d rows, but the mask has %d: %w",
			name, len(x), shape[0], ErrShape)
	}
	for i := range x {
		if len(x[i]) != shape[1] {
			return fmt.Errorf("Row %d of the %s has %d columns, but the mask has %d: %w",
				i, name, len(x[i]), shape[1], ErrShape)
		}
	}
	return nil
}

// Grid returns the grid of unmasked pixel centres, the order in which fit
// results are stored.
func (d *Imaging) Grid() *geom.Grid { return d.grid }

// slim returns the unmasked pixels of a native array in slim order.
func (d *Imaging) slim(native [][]float64) []float64 {
	out := make([]float64, d.grid.Pixels())
	for i := range out {
		p := d.grid.Pixel(i)
		out[i] = native[p[0]][p[1]]
	}
	return out
}

// blurred bins sub-gridded images evaluated on the full grid, convolves
// the non-operated light with the PSF and returns the unmasked pixels.
// Either image may be nil.
func (d *Imaging) blurred(notOperated, operated []float64) []float64 {
	shape := d.Mask.Shape
	var native [][]float64
	if notOperated != nil {
		native = geom.NewArray(notOperated, d.full).Binned().Native(0)
		if d.PSF != nil {
			native = d.PSF.Convolve(native)
		}
	} else {
		native = make([][]float64, shape[0])
		for i := range native {
			native[i] = make([]float64, shape[1])
		}
	}
	if operated != nil {
		op := geom.NewArray(operated, d.full).Binned().Native(0)
		for i := range native {
			floats.Add(native[i], op[i])
		}
	}
	return d.slim(native)
}

// ImagingFit holds the result of fitting an Imaging dataset. All slices
// are in the slim order of the dataset's Grid.
type ImagingFit struct {
	Grid *geom.Grid

	// Data and NoiseMap include any hyper sky and noise scaling.
	Data       []float64
	NoiseMap   []float64
	ModelImage []float64

	Residuals           []float64
	NormalizedResiduals []float64
	ChiSquaredMap       []float64

	ChiSquared         float64
	NoiseNormalization float64
	LogLikelihood      float64

	// Amplitudes of the tracer's linear light profiles, in plane, galaxy
	// and profile order.
	Amplitudes []float64
}

// Native returns a slim fit quantity as a native image with masked pixels
// set to zero.
func (f *ImagingFit) Native(slim []float64) [][]float64 {
	return geom.NewArray(slim, f.Grid).Native(0)
}

// FitImaging fits a tracer's model image to an imaging dataset.
func FitImaging(
	ctx context.Context, d *Imaging, tr *plane.Tracer, opts ...Option,
) (*ImagingFit, error) {
	ctx, span := tracer.Start(ctx, "fit.FitImaging",
		trace.WithAttributes(
			attribute.Int("pixels", d.grid.Pixels()),
			attribute.Int("sub_size", d.Mask.SubSize),
			attribute.Int("planes", len(tr.Planes)),
		),
	)
	defer span.End()

	start := time.Now()
	f, err := fitImaging(ctx, d, tr, loadOptions(opts))
	fitDuration.WithLabelValues(datasetImaging).Observe(time.Since(start).Seconds())
	if err != nil {
		fitTotal.WithLabelValues(datasetImaging, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "imaging fit failed")
		return nil, err
	}
	fitTotal.WithLabelValues(datasetImaging, "success").Inc()

	span.SetAttributes(
		attribute.Float64("chi_squared", f.ChiSquared),
		attribute.Float64("log_likelihood", f.LogLikelihood),
	)
	logging.L().Debug("fit.imaging",
		"pixels", len(f.Data), "linear", len(f.Amplitudes),
		"chi_squared", f.ChiSquared, "log_likelihood", f.LogLikelihood,
		"elapsed", time.Since(start))
	return f, nil
}

func fitImaging(
	ctx context.Context, d *Imaging, tr *plane.Tracer, o *options,
) (*ImagingFit, error) {
	traced, err := tr.TraceGrids(ctx, d.full.Coords)
	if err != nil {
		return nil, err
	}

	notOp := make([]float64, d.full.Len())
	op := make([]float64, d.full.Len())
	for j, p := range tr.Planes {
		floats.Add(notOp, p.Image(traced[j], galaxy.NotOperatedOnly))
		floats.Add(op, p.Image(traced[j], galaxy.OperatedOnly))
	}

	f := &ImagingFit{Grid: d.grid, ModelImage: d.blurred(notOp, op)}
	f.Data = d.slim(d.Image)
	if o.sky != nil {
		f.Data = o.sky.Apply(f.Data)
	}
	f.NoiseMap, err = scaledNoise(d.slim(d.NoiseMap), tr, o)
	if err != nil {
		return nil, err
	}

	columns := [][]float64{}
	for _, lt := range linearTerms(tr) {
		img := lt.profile.Image(traced[lt.plane])
		if profiles.IsOperated(lt.profile) {
			columns = append(columns, d.blurred(nil, img))
		} else {
			columns = append(columns, d.blurred(img, nil))
		}
	}
	fitLinearParameters.Observe(float64(len(columns)))
	if len(columns) > 0 {
		residual := make([]float64, len(f.Data))
		floats.SubTo(residual, f.Data, f.ModelImage)
		f.Amplitudes, err = solveAmplitudes(columns, residual, f.NoiseMap)
		if err != nil {
			return nil, err
		}
		for j, col := range columns {
			floats.AddScaled(f.ModelImage, f.Amplitudes[j], col)
		}
	}

	f.Residuals, f.NormalizedResiduals, f.ChiSquaredMap,
		f.ChiSquared, f.NoiseNormalization =
		figureOfMerit(f.Data, f.ModelImage, f.NoiseMap)
	f.LogLikelihood = -0.5 * (f.ChiSquared + f.NoiseNormalization)
	return f, nil
}

// scaledNoise applies the background noise and the hyper noise of every
// galaxy with a hyper calibration. Hyper noise is computed from the
// unscaled noise map.
func scaledNoise(noise []float64, tr *plane.Tracer, o *options) ([]float64, error) {
	out := append([]float64{}, noise...)
	if o.background != nil {
		out = o.background.Apply(noise)
	}
	if !o.hyperGalaxies {
		return out, nil
	}

	for _, p := range tr.Planes {
		for _, g := range p.Galaxies {
			if g.HyperGalaxy == nil || g.HyperModelImage == nil || g.HyperGalaxyImage == nil {
				continue
			}
			if len(g.HyperModelImage) != len(noise) ||
				len(g.HyperGalaxyImage) != len(noise) {
				return nil, fmt.Errorf("The hyper images have %d and %d "+
					"pixels, but the dataset has %d: %w", len(g.HyperModelImage),
					len(g.HyperGalaxyImage), len(noise), ErrShape)
			}
		}
		if hyper := p.HyperNoiseMap(noise); hyper != nil {
			floats.Add(out, hyper)
		}
	}
	return out, nil
}

// figureOfMerit computes the residual maps, chi-squared and noise
// normalization of a model.
func figureOfMerit(data, model, noise []float64) (
	residuals, normalized, chi2Map []float64, chi2, noiseNorm float64,
) {
	n := len(data)
	residuals = make([]float64, n)
	floats.SubTo(residuals, data, model)
	normalized = make([]float64, n)
	floats.DivTo(normalized, residuals, noise)
	chi2Map = make([]float64, n)
	floats.MulTo(chi2Map, normalized, normalized)

	for _, sigma := range noise {
		noiseNorm += math.Log(2 * math.Pi * sigma * sigma)
	}
	return residuals, normalized, chi2Map, floats.Sum(chi2Map), noiseNorm
}

type linearTerm struct {
	profile profiles.LightProfile
	plane   int
}

// linearTerms lists the linear light profiles of a tracer in plane, galaxy
// and profile order.
func linearTerms(tr *plane.Tracer) []linearTerm {
	out := []linearTerm{}
	for j, p := range tr.Planes {
		for _, g := range p.Galaxies {
			for _, lp := range g.LinearLightProfiles() {
				out = append(out, linearTerm{lp, j})
			}
		}
	}
	return out
}
