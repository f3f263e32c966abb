package fit

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/floats"

	"github.com/phil-mansfield/lensfish/cosmo"
	"github.com/phil-mansfield/lensfish/galaxy"
	"github.com/phil-mansfield/lensfish/geom"
	"github.com/phil-mansfield/lensfish/logging"
	"github.com/phil-mansfield/lensfish/plane"
)

// Transformer computes visibilities from real-space images with a direct
// Fourier transform.
type Transformer struct {
	// UV holds the (u, v) baselines in wavelengths.
	UV [][2]float64
}

// Visibilities returns sum_p image[p] exp(-2 pi i (u x_p + v y_p)) for
// every baseline, where coords are in arc-seconds.
func (t *Transformer) Visibilities(image []float64, coords []geom.Vec2) []complex128 {
	if len(image) != len(coords) {
		panic("Length of image does not match coordinates.")
	}
	out := make([]complex128, len(t.UV))
	for k, uv := range t.UV {
		re, im := 0.0, 0.0
		for p, c := range coords {
			if image[p] == 0 {
				continue
			}
			y, x := c[0]/cosmo.ArcsecPerRadian, c[1]/cosmo.ArcsecPerRadian
			sin, cos := math.Sincos(-2 * math.Pi * (uv[0]*x + uv[1]*y))
			re += image[p] * cos
			im += image[p] * sin
		}
		out[k] = complex(re, im)
	}
	return out
}

// Interferometer is a set of observed visibilities. The model image is
// evaluated on the unmasked pixels of Mask, at its sub size, and binned
// before being transformed.
type Interferometer struct {
	Mask         *geom.Mask
	Visibilities []complex128
	// NoiseMap holds the real and imaginary noise of each visibility.
	NoiseMap    []complex128
	Transformer *Transformer

	grid *geom.Grid
}

// NewInterferometer checks the shapes of an interferometer dataset.
func NewInterferometer(
	visibilities, noiseMap []complex128, uv [][2]float64, mask *geom.Mask,
) (*Interferometer, error) {
	n := len(visibilities)
	if n == 0 {
		return nil, fmt.Errorf("The interferometer dataset has no visibilities.")
	} else if len(noiseMap) != n || len(uv) != n {
		return nil, fmt.Errorf("The dataset has %d visibilities, %d noise values and %d "+
			"baselines: %w", n, len(noiseMap), len(uv), ErrShape)
	}
	for i, sigma := range noiseMap {
		if !(real(sigma) > 0) || !(imag(sigma) > 0) {
			return nil, fmt.Errorf("The noise of visibility %d is %v, but "+
				"both components must be positive.", i, sigma)
		}
	}

	d := &Interferometer{
		Mask: mask, Visibilities: visibilities, NoiseMap: noiseMap,
		Transformer: &Transformer{UV: uv},
		grid:        geom.NewGrid(mask),
	}
	if d.grid.Len() == 0 {
		return nil, fmt.Errorf("Every pixel of the real-space mask is masked.")
	}
	return d, nil
}

// InterferometerFit holds the result of fitting an Interferometer dataset.
// Complex maps hold the real and imaginary parts separately.
type InterferometerFit struct {
	// ModelImage is the binned real-space model image.
	ModelImage []float64

	Visibilities        []complex128
	NoiseMap            []complex128
	ModelVisibilities   []complex128
	Residuals           []complex128
	NormalizedResiduals []complex128
	ChiSquaredMap       []complex128

	ChiSquared         float64
	NoiseNormalization float64
	LogLikelihood      float64

	Amplitudes []float64
}

// FitInterferometer fits a tracer's model visibilities to an
// interferometer dataset.
func FitInterferometer(
	ctx context.Context, d *Interferometer, tr *plane.Tracer, opts ...Option,
) (*InterferometerFit, error) {
	ctx, span := tracer.Start(ctx, "fit.FitInterferometer",
		trace.WithAttributes(
			attribute.Int("visibilities", len(d.Visibilities)),
			attribute.Int("pixels", d.grid.Pixels()),
			attribute.Int("planes", len(tr.Planes)),
		),
	)
	defer span.End()

	start := time.Now()
	f, err := fitInterferometer(ctx, d, tr, loadOptions(opts))
	fitDuration.WithLabelValues(datasetInterferometer).Observe(time.Since(start).Seconds())
	if err != nil {
		fitTotal.WithLabelValues(datasetInterferometer, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "interferometer fit failed")
		return nil, err
	}
	fitTotal.WithLabelValues(datasetInterferometer, "success").Inc()

	span.SetAttributes(attribute.Float64("log_likelihood", f.LogLikelihood))
	logging.L().Debug("fit.interferometer",
		"visibilities", len(f.Visibilities), "linear", len(f.Amplitudes),
		"chi_squared", f.ChiSquared, "log_likelihood", f.LogLikelihood,
		"elapsed", time.Since(start))
	return f, nil
}

func fitInterferometer(
	ctx context.Context, d *Interferometer, tr *plane.Tracer, o *options,
) (*InterferometerFit, error) {
	traced, err := tr.TraceGrids(ctx, d.grid.Coords)
	if err != nil {
		return nil, err
	}
	centres := d.grid.Binned().Coords

	image := make([]float64, d.grid.Len())
	for j, p := range tr.Planes {
		floats.Add(image, p.Image(traced[j], galaxy.AllProfiles))
	}
	binned := geom.NewArray(image, d.grid).Binned().Slim

	f := &InterferometerFit{
		ModelImage:        binned,
		Visibilities:      d.Visibilities,
		NoiseMap:          d.NoiseMap,
		ModelVisibilities: d.Transformer.Visibilities(binned, centres),
	}
	if o.background != nil {
		noise := make([]complex128, len(d.NoiseMap))
		s := o.background.NoiseScale
		for i, n := range d.NoiseMap {
			noise[i] = n + complex(s, s)
		}
		f.NoiseMap = noise
	}

	terms := linearTerms(tr)
	fitLinearParameters.Observe(float64(len(terms)))
	if len(terms) > 0 {
		images := make([][]float64, len(terms))
		columns := make([][]float64, len(terms))
		for j, lt := range terms {
			img := lt.profile.Image(traced[lt.plane])
			images[j] = geom.NewArray(img, d.grid).Binned().Slim
			columns[j] = realify(d.Transformer.Visibilities(images[j], centres))
		}
		residual := realify(f.Visibilities)
		floats.Sub(residual, realify(f.ModelVisibilities))

		f.Amplitudes, err = solveAmplitudes(columns, residual, realify(f.NoiseMap))
		if err != nil {
			return nil, err
		}
		model := realify(f.ModelVisibilities)
		for j := range columns {
			floats.AddScaled(model, f.Amplitudes[j], columns[j])
			floats.AddScaled(f.ModelImage, f.Amplitudes[j], images[j])
		}
		f.ModelVisibilities = complexify(model)
	}

	res, norm, chi2, chi2Sum, noiseNorm := figureOfMerit(
		realify(f.Visibilities), realify(f.ModelVisibilities), realify(f.NoiseMap),
	)
	f.Residuals, f.NormalizedResiduals = complexify(res), complexify(norm)
	f.ChiSquaredMap = complexify(chi2)
	f.ChiSquared, f.NoiseNormalization = chi2Sum, noiseNorm
	f.LogLikelihood = -0.5 * (f.ChiSquared + f.NoiseNormalization)
	return f, nil
}

// realify lays out the real parts of v followed by its imaginary parts.
func realify(v []complex128) []float64 {
	n := len(v)
	out := make([]float64, 2*n)
	for i, c := range v {
		out[i], out[n+i] = real(c), imag(c)
	}
	return out
}

// complexify inverts realify.
func complexify(x []float64) []complex128 {
	n := len(x) / 2
	out := make([]complex128, n)
	for i := range out {
		out[i] = complex(x[i], x[n+i])
	}
	return out
}
