package calc

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/integrate/quad"
)

const (
	// DefaultRelTol is the relative tolerance Integrate aims for by default.
	DefaultRelTol = 1e-8
	// DefaultMinOrder is the first Gauss-Legendre order Integrate tries.
	DefaultMinOrder = 16
	// DefaultMaxOrder caps the Gauss-Legendre order, which bounds the cost of
	// every integral.
	DefaultMaxOrder = 1024
)

type integrateParams struct {
	relTol             float64
	minOrder, maxOrder int
}

type internalIntegrateOption func(*integrateParams)
type IntegrateOption internalIntegrateOption

// RelTol sets the relative tolerance of a call to Integrate.
func RelTol(tol float64) IntegrateOption {
	return func(p *integrateParams) { p.relTol = tol }
}

// Orders sets the first and the largest Gauss-Legendre order used by a call
// to Integrate.
func Orders(min, max int) IntegrateOption {
	return func(p *integrateParams) { p.minOrder, p.maxOrder = min, max }
}

func (p *integrateParams) loadOptions(opts []IntegrateOption) {
	p.relTol = DefaultRelTol
	p.minOrder, p.maxOrder = DefaultMinOrder, DefaultMaxOrder
	for _, opt := range opts {
		opt(p)
	}
	if p.minOrder < 1 || p.maxOrder < p.minOrder {
		panic("Invalid quadrature orders.")
	}
}

// nodes are Gauss-Legendre abscissas and weights on [-1, 1].
type nodes struct{ x, w []float64 }

var legendreCache sync.Map

func legendre(n int) nodes {
	if v, ok := legendreCache.Load(n); ok {
		return v.(nodes)
	}
	nd := nodes{make([]float64, n), make([]float64, n)}
	quad.Legendre{}.FixedLocations(nd.x, nd.w, -1, 1)
	v, _ := legendreCache.LoadOrStore(n, nd)
	return v.(nodes)
}

func fixed(f func(float64) float64, a, b float64, n int) float64 {
	nd := legendre(n)
	half, mid := (b-a)/2, (b+a)/2
	sum := 0.0
	for i := range nd.x {
		sum += nd.w[i] * f(half*nd.x[i]+mid)
	}
	return sum * half
}

// Integrate computes the integral of f over [a, b] with Gauss-Legendre
// quadrature, doubling the order until two successive estimates agree to the
// relative tolerance. Once the maximum order is reached the last estimate is
// returned as-is, so every call terminates with a fixed budget.
//
// The second return value reports whether the tolerance was met.
func Integrate(
	f func(float64) float64, a, b float64, opts ...IntegrateOption,
) (float64, bool) {
	p := new(integrateParams)
	p.loadOptions(opts)

	if a == b {
		return 0, true
	}

	low := fixed(f, a, b, p.minOrder)
	for n := 2 * p.minOrder; n <= p.maxOrder; n *= 2 {
		high := fixed(f, a, b, n)
		if high == low || math.Abs(high-low) <= p.relTol*math.Abs(high) {
			return high, true
		}
		low = high
	}
	return low, false
}
