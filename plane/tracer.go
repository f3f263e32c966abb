package plane

import (
	"context"
	"errors"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/phil-mansfield/lensfish/galaxy"
	"github.com/phil-mansfield/lensfish/geom"
)

var tracer = otel.Tracer("lensfish.plane")

// ErrNoGalaxies is returned when a Tracer is built from nothing.
var ErrNoGalaxies = errors.New("tracer needs at least one galaxy")

// Cosmology supplies the distance ratios needed for multi-plane tracing.
type Cosmology interface {
	// ScalingFactor rescales deflections of a plane at z1 for tracing to
	// z2 rather than to the final plane at zFinal. It is zero if z2 <= z1.
	ScalingFactor(z1, z2, zFinal float64) float64
}

// Tracer traces rays from the image plane through a sequence of planes
// sorted by increasing redshift. The last plane is the source plane.
type Tracer struct {
	Planes    []*Plane
	Cosmology Cosmology
}

// NewTracer groups galaxies into planes by redshift.
func NewTracer(
	galaxies []*galaxy.Galaxy, cosmology Cosmology, parallel bool,
) (*Tracer, error) {
	if len(galaxies) == 0 {
		return nil, ErrNoGalaxies
	}

	byZ := map[float64][]*galaxy.Galaxy{}
	zs := []float64{}
	for _, g := range galaxies {
		if _, ok := byZ[g.Redshift]; !ok {
			zs = append(zs, g.Redshift)
		}
		byZ[g.Redshift] = append(byZ[g.Redshift], g)
	}
	sort.Float64s(zs)

	t := &Tracer{Planes: make([]*Plane, len(zs)), Cosmology: cosmology}
	for i, z := range zs {
		p, err := New(z, byZ[z]...)
		if err != nil {
			return nil, err
		}
		p.Parallel = parallel
		t.Planes[i] = p
	}
	return t, nil
}

// Redshifts returns the redshift of every plane.
func (t *Tracer) Redshifts() []float64 {
	out := make([]float64, len(t.Planes))
	for i := range t.Planes {
		out[i] = t.Planes[i].Redshift
	}
	return out
}

// SourcePlane returns the highest-redshift plane.
func (t *Tracer) SourcePlane() *Plane { return t.Planes[len(t.Planes)-1] }

// TraceGrids returns the coordinates at which rays through coords cross
// each plane. The first entry is coords itself.
func (t *Tracer) TraceGrids(
	ctx context.Context, coords []geom.Vec2,
) ([][]geom.Vec2, error) {
	ctx, span := tracer.Start(ctx, "plane.Tracer.TraceGrids",
		trace.WithAttributes(
			attribute.Int("planes", len(t.Planes)),
			attribute.Int("coords", len(coords)),
		),
	)
	defer span.End()

	traced, err := t.traceGrids(ctx, coords)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "tracing cancelled")
		return nil, err
	}
	return traced, nil
}

func (t *Tracer) traceGrids(
	ctx context.Context, coords []geom.Vec2,
) ([][]geom.Vec2, error) {
	n := len(t.Planes)
	zFinal := t.Planes[n-1].Redshift

	traced := make([][]geom.Vec2, n)
	deflections := make([][]geom.Vec2, n)
	for j := 0; j < n; j++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		grid := make([]geom.Vec2, len(coords))
		copy(grid, coords)
		for i := 0; i < j; i++ {
			beta := t.Cosmology.ScalingFactor(
				t.Planes[i].Redshift, t.Planes[j].Redshift, zFinal,
			)
			for k := range grid {
				grid[k] = grid[k].Sub(deflections[i][k].Scale(beta))
			}
		}
		traced[j] = grid

		if j < n-1 {
			deflections[j] = t.Planes[j].Deflections(grid)
		}
	}
	return traced, nil
}

// Image returns the summed image of every plane, each evaluated on its own
// traced grid.
func (t *Tracer) Image(
	ctx context.Context, coords []geom.Vec2, filter galaxy.OperatedFilter,
) ([]float64, error) {
	traced, err := t.TraceGrids(ctx, coords)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(coords))
	for j, p := range t.Planes {
		for i, v := range p.Image(traced[j], filter) {
			out[i] += v
		}
	}
	return out, nil
}

// ImagesOfPlanes returns the image of each plane on its traced grid.
func (t *Tracer) ImagesOfPlanes(
	ctx context.Context, coords []geom.Vec2, filter galaxy.OperatedFilter,
) ([][]float64, error) {
	traced, err := t.TraceGrids(ctx, coords)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(t.Planes))
	for j, p := range t.Planes {
		out[j] = p.Image(traced[j], filter)
	}
	return out, nil
}

// Deflections returns the total deflection between the image plane and the
// source plane, coords minus the source-plane positions.
func (t *Tracer) Deflections(coords []geom.Vec2) []geom.Vec2 {
	traced, err := t.traceGrids(context.Background(), coords)
	if err != nil {
		panic(err)
	}
	src := traced[len(traced)-1]
	out := make([]geom.Vec2, len(coords))
	for i := range out {
		out[i] = coords[i].Sub(src[i])
	}
	return out
}

// Convergence returns the convergence of every plane summed on the
// image-plane coordinates.
func (t *Tracer) Convergence(coords []geom.Vec2) []float64 {
	out := make([]float64, len(coords))
	for _, p := range t.Planes {
		for i, v := range p.Convergence(coords) {
			out[i] += v
		}
	}
	return out
}

// Potential returns the lensing potential of every plane summed on the
// image-plane coordinates.
func (t *Tracer) Potential(coords []geom.Vec2) []float64 {
	out := make([]float64, len(coords))
	for _, p := range t.Planes {
		for i, v := range p.Potential(coords) {
			out[i] += v
		}
	}
	return out
}
