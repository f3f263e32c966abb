package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Kernel is a point spread function sampled on an odd-shaped grid of
// pixels, centred on the middle pixel.
type Kernel struct {
	Values [][]float64
}

// NewKernel checks a PSF and, if normalize is true, rescales it to sum to
// one.
func NewKernel(values [][]float64, normalize bool) (*Kernel, error) {
	if len(values) == 0 || len(values[0]) == 0 {
		return nil, fmt.Errorf("The PSF kernel is empty.")
	}
	rows, cols := len(values), len(values[0])
	if rows%2 == 0 || cols%2 == 0 {
		return nil, fmt.Errorf("The PSF kernel has shape (%d, %d), but "+
			"both dimensions must be odd.", rows, cols)
	}

	out := make([][]float64, rows)
	sum := 0.0
	for i := range values {
		if len(values[i]) != cols {
			return nil, fmt.Errorf("Row %d of the PSF kernel has length "+
				"%d, not %d.", i, len(values[i]), cols)
		}
		out[i] = append([]float64{}, values[i]...)
		sum += floats.Sum(out[i])
	}

	if normalize {
		if sum == 0 {
			return nil, fmt.Errorf("The PSF kernel sums to zero and " +
				"cannot be normalized.")
		}
		for i := range out {
			floats.Scale(1/sum, out[i])
		}
	}
	return &Kernel{out}, nil
}

// GaussianKernel returns a normalized circular Gaussian PSF with standard
// deviation sigma in arc-seconds, sampled at the pixel centres.
func GaussianKernel(shape [2]int, pixelScale, sigma float64) (*Kernel, error) {
	if shape[0] <= 0 || shape[1] <= 0 {
		return nil, fmt.Errorf("The PSF shape %v is not positive.", shape)
	}
	values := make([][]float64, shape[0])
	for i := range values {
		values[i] = make([]float64, shape[1])
		y := (float64(i) - float64(shape[0]-1)/2) * pixelScale
		for j := range values[i] {
			x := (float64(j) - float64(shape[1]-1)/2) * pixelScale
			values[i][j] = math.Exp(-(x*x + y*y) / (2 * sigma * sigma))
		}
	}
	return NewKernel(values, true)
}

// Shape returns the (rows, cols) shape of the kernel.
func (k *Kernel) Shape() [2]int {
	return [2]int{len(k.Values), len(k.Values[0])}
}

// Convolve convolves a native image with the kernel. Flux falling outside
// the image is lost.
func (k *Kernel) Convolve(image [][]float64) [][]float64 {
	rows, cols := len(image), len(image[0])
	kr, kc := len(k.Values), len(k.Values[0])
	cr, cc := kr/2, kc/2

	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := image[i][j]
			if v == 0 {
				continue
			}
			for a := 0; a < kr; a++ {
				ii := i + a - cr
				if ii < 0 || ii >= rows {
					continue
				}
				for b := 0; b < kc; b++ {
					jj := j + b - cc
					if jj < 0 || jj >= cols {
						continue
					}
					out[ii][jj] += v * k.Values[a][b]
				}
			}
		}
	}
	return out
}
