package fit

// HyperImageSky adds a constant sky level to the observed image, absorbing
// an error in its background subtraction.
type HyperImageSky struct {
	SkyScale float64
}

// Apply returns image + SkyScale.
func (h *HyperImageSky) Apply(image []float64) []float64 {
	out := make([]float64, len(image))
	for i := range out {
		out[i] = image[i] + h.SkyScale
	}
	return out
}

// HyperBackgroundNoise adds a constant to the noise map.
type HyperBackgroundNoise struct {
	NoiseScale float64
}

// Apply returns noise + NoiseScale.
func (h *HyperBackgroundNoise) Apply(noise []float64) []float64 {
	out := make([]float64, len(noise))
	for i := range out {
		out[i] = noise[i] + h.NoiseScale
	}
	return out
}

type options struct {
	sky           *HyperImageSky
	background    *HyperBackgroundNoise
	hyperGalaxies bool
}

// Option configures a fit.
type Option func(o *options)

// WithHyperImageSky adds a sky level to imaging data before fitting.
func WithHyperImageSky(h *HyperImageSky) Option {
	return func(o *options) { o.sky = h }
}

// WithHyperBackgroundNoise raises the noise map before fitting.
func WithHyperBackgroundNoise(h *HyperBackgroundNoise) Option {
	return func(o *options) { o.background = h }
}

// WithHyperGalaxies toggles noise scaling by galaxies with hyper
// calibrations. It is on by default.
func WithHyperGalaxies(on bool) Option {
	return func(o *options) { o.hyperGalaxies = on }
}

func loadOptions(opts []Option) *options {
	o := &options{hyperGalaxies: true}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
