package analysis

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns the magnitude of the first n/2+1 Fourier
// coefficients of data after removing its mean.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	mean := stat.Mean(data, nil)
	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	fft := fourier.NewFFT(len(centered))
	coeffs := fft.Coefficients(nil, centered)
	ps := make([]float64, len(coeffs))
	for i, c := range coeffs {
		ps[i] = cmplx.Abs(c)
	}
	return ps
}

// DominantPeriod returns the period in cycles of the strongest non-zero
// frequency in data and its power. A constant or too-short series has
// period 0.
func DominantPeriod(data []float64) (float64, float64) {
	if len(data) < 4 {
		return 0, 0
	}
	ps := PowerSpectrum(data)

	const eps = 1e-9
	maxPower, maxIdx := 0.0, 0
	for k := 1; k < len(ps); k++ {
		if ps[k] > maxPower+eps {
			maxPower = ps[k]
			maxIdx = k
		}
	}
	if maxIdx == 0 {
		return 0, 0
	}
	return float64(len(data)) / float64(maxIdx), maxPower
}
