package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/phil-mansfield/lensfish/config"
	"github.com/phil-mansfield/lensfish/cosmo"
	"github.com/phil-mansfield/lensfish/galaxy"
	"github.com/phil-mansfield/lensfish/geom"
	"github.com/phil-mansfield/lensfish/lensing"
	"github.com/phil-mansfield/lensfish/logging"
	"github.com/phil-mansfield/lensfish/plane"
)

// GridFlags describe the image-plane grid a model is evaluated on.
type GridFlags struct {
	Shape      []int
	PixelScale float64
	SubSize    int
}

func (f GridFlags) validate() error {
	if len(f.Shape) != 2 || f.Shape[0] <= 0 || f.Shape[1] <= 0 {
		return fmt.Errorf("The grid shape %v must be two positive integers.",
			f.Shape)
	} else if !(f.PixelScale > 0) {
		return fmt.Errorf("The pixel scale %g must be positive.", f.PixelScale)
	} else if f.SubSize <= 0 {
		return fmt.Errorf("The sub size %d must be positive.", f.SubSize)
	}
	return nil
}

func (f GridFlags) shape() [2]int { return [2]int{f.Shape[0], f.Shape[1]} }

// Summary holds the quantities derived from evaluating a model on a grid.
type Summary struct {
	RunID     string
	Galaxies  []string
	Redshifts []float64

	// TotalFlux is the adaptively sub-gridded image summed over the grid
	// and multiplied by the pixel area.
	TotalFlux float64
	// MaxSubSize is the largest sub size any pixel of the image needed.
	MaxSubSize int

	MaxConvergence  float64
	MeanConvergence float64

	TangentialCurves, RadialCurves int

	// DeflectionResidual is the mean distance between the lens plane's
	// deflections and the numerical gradient of its potential. HasLens is
	// false when no plane in front of the source has mass.
	HasLens            bool
	DeflectionResidual float64

	// HasEinstein is false when the model has no tangential critical curve
	// on the grid or no lens and source pair.
	HasEinstein    bool
	EinsteinRadius float64
	EinsteinMass   float64
	UnitLength     cosmo.UnitLength
	UnitMass       cosmo.UnitMass
}

func evaluateCmd(g *globals) *cobra.Command {
	var modelFile string
	grid := GridFlags{}

	c := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a model on a grid and print derived quantities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := grid.validate(); err != nil {
				return err
			}
			s, err := g.settings()
			if err != nil {
				return err
			}
			m, err := config.LoadModel(modelFile, s)
			if err != nil {
				return err
			}

			sum, err := Evaluate(cmd.Context(), s, m, grid)
			if err != nil {
				return err
			}
			return sum.Write(cmd.OutOrStdout())
		},
	}

	c.Flags().StringVarP(&modelFile, "model", "m", "", "YAML model file (required)")
	c.Flags().IntSliceVar(&grid.Shape, "shape", []int{100, 100}, "grid shape: rows,cols")
	c.Flags().Float64Var(&grid.PixelScale, "pixel-scale", 0.05, "pixel scale in arc-seconds")
	c.Flags().IntVar(&grid.SubSize, "sub-size", 2, "sub-gridding factor for lensing quantities")
	_ = c.MarkFlagRequired("model")
	return c
}

// Evaluate traces a model through a grid and computes its summary.
func Evaluate(
	ctx context.Context, s *config.Settings, m *config.Model, grid GridFlags,
) (*Summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := grid.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	sum := &Summary{RunID: uuid.New().String(), Galaxies: m.Names}
	sum.UnitLength, sum.UnitMass = s.Units()
	log := logging.L().With("run_id", sum.RunID)

	tr, err := plane.NewTracer(m.Galaxies, cosmo.Planck15(), s.Parallel)
	if err != nil {
		return nil, err
	}
	sum.Redshifts = tr.Redshifts()
	log.Info("evaluate.start", "galaxies", len(m.Galaxies),
		"planes", len(tr.Planes), "shape", grid.Shape)

	if err := imageSummary(ctx, s, tr, grid, sum); err != nil {
		return nil, err
	}

	g := geom.Uniform(grid.shape(), grid.PixelScale, grid.SubSize)
	kappa := geom.NewArray(tr.Convergence(g.Coords), g).Binned().Slim
	sum.MaxConvergence = floats.Max(kappa)
	sum.MeanConvergence = floats.Sum(kappa) / float64(len(kappa))

	cc := lensing.FindCriticalCurves(tr, g, s.JacobianOptions()...)
	sum.TangentialCurves, sum.RadialCurves = len(cc.Tangential), len(cc.Radial)

	if lens := lensPlane(tr); lens != nil {
		sum.HasLens = true
		sum.DeflectionResidual = deflectionResidual(lens, grid, s)
		if err := einstein(tr, lens, cc, sum); err != nil {
			return nil, err
		}
		if !sum.HasEinstein {
			log.Info("evaluate.no_einstein_radius")
		}
	}

	log.Info("evaluate.done", "elapsed", time.Since(start),
		"tangential", sum.TangentialCurves, "radial", sum.RadialCurves)
	return sum, nil
}

// imageSummary evaluates the model image with adaptive sub-gridding.
func imageSummary(
	ctx context.Context, s *config.Settings, tr *plane.Tracer, grid GridFlags,
	sum *Summary,
) error {
	it, err := s.Iterator(geom.Unmasked(grid.shape(), grid.PixelScale, 1))
	if err != nil {
		return err
	}

	var imageErr error
	image, steps := it.Array(func(g *geom.Grid) []float64 {
		img, err := tr.Image(ctx, g.Coords, galaxy.AllProfiles)
		if err != nil {
			imageErr = err
			return make([]float64, g.Len())
		}
		return img
	})
	if imageErr != nil {
		return imageErr
	}

	sum.TotalFlux = floats.Sum(image.Slim) * grid.PixelScale * grid.PixelScale
	for _, n := range steps {
		if n > sum.MaxSubSize {
			sum.MaxSubSize = n
		}
	}
	return nil
}

// lensPlane returns the first plane in front of the source with mass.
func lensPlane(tr *plane.Tracer) *plane.Plane {
	for _, p := range tr.Planes[:len(tr.Planes)-1] {
		if p.HasMassProfile() {
			return p
		}
	}
	return nil
}

// einstein converts the Einstein radius of the traced critical curves into
// the summary's units. A missing tangential curve leaves HasEinstein false.
func einstein(
	tr *plane.Tracer, lens *plane.Plane, cc *lensing.CriticalCurves,
	sum *Summary,
) error {
	c, ok := tr.Cosmology.(*cosmo.FlatLambdaCDM)
	if !ok {
		return nil
	}
	r, err := cc.EinsteinRadius()
	if errors.Is(err, lensing.ErrNoTangentialCurve) {
		return nil
	} else if err != nil {
		return err
	}

	conv := lensing.Conversion{
		Cosmology:      c,
		RedshiftLens:   lens.Redshift,
		RedshiftSource: tr.SourcePlane().Redshift,
	}
	if sum.EinsteinRadius, err = conv.Length(r, sum.UnitLength); err != nil {
		return err
	}
	if sum.EinsteinMass, err = conv.Mass(math.Pi*r*r, sum.UnitMass); err != nil {
		return err
	}
	sum.HasEinstein = true
	return nil
}

// deflectionResidual compares the deflections of p with the gradient of its
// potential at the pixel centres of the grid.
func deflectionResidual(p *plane.Plane, grid GridFlags, s *config.Settings) float64 {
	coords := geom.Uniform(grid.shape(), grid.PixelScale, 1).Coords
	alpha := p.Deflections(coords)
	grad := lensing.DeflectionsViaPotential(p, coords, s.PotentialOptions()...)

	dist := make([]float64, len(coords))
	for i := range coords {
		dist[i] = alpha[i].Sub(grad[i]).Norm()
	}
	return floats.Sum(dist) / float64(len(dist))
}

// Write prints the summary as one "name value" pair per line.
func (sum *Summary) Write(w io.Writer) error {
	zs := make([]string, len(sum.Redshifts))
	for i, z := range sum.Redshifts {
		zs[i] = fmt.Sprintf("%g", z)
	}

	lines := [][2]string{
		{"run_id", sum.RunID},
		{"galaxies", strings.Join(sum.Galaxies, ", ")},
		{"plane_redshifts", strings.Join(zs, ", ")},
		{"total_flux", fmt.Sprintf("%.6g", sum.TotalFlux)},
		{"max_sub_size", fmt.Sprint(sum.MaxSubSize)},
		{"max_convergence", fmt.Sprintf("%.6g", sum.MaxConvergence)},
		{"mean_convergence", fmt.Sprintf("%.6g", sum.MeanConvergence)},
		{"tangential_curves", fmt.Sprint(sum.TangentialCurves)},
		{"radial_curves", fmt.Sprint(sum.RadialCurves)},
	}
	if sum.HasLens {
		lines = append(lines, [2]string{"deflection_residual",
			fmt.Sprintf("%.3g arcsec", sum.DeflectionResidual)})
	} else {
		lines = append(lines, [2]string{"deflection_residual", "none"})
	}
	if sum.HasEinstein {
		lines = append(lines,
			[2]string{"einstein_radius", fmt.Sprintf("%.6g %s",
				sum.EinsteinRadius, sum.UnitLength)},
			[2]string{"einstein_mass", fmt.Sprintf("%.6g %s",
				sum.EinsteinMass, sum.UnitMass)},
		)
	} else {
		lines = append(lines, [2]string{"einstein_radius", "none"})
	}

	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%-18s %s\n", l[0], l[1]); err != nil {
			return err
		}
	}
	return nil
}
