// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

package skysonde

/*------------------------------------------------------------------
 *
 * Purpose:   	Symbol timing recovery.
 *
 *		Interpolates the input stream to increase the number of
 *		samples per symbol, then applies the Gardner algorithm
 *		to pick the sample that best aligns with the symbol
 *		clock.  The early/late error statistic
 *
 *			e = (y[n] - y[n-1]) * y[n-1/2]
 *
 *		drives a second-order feedback loop; the loop gains are
 *		derived once from the damping factor and bandwidth.  The
 *		instantaneous symbol-rate estimate is clamped to the
 *		nominal rate plus/minus a configured maximum deviation.
 *
 *		Noise degrades accuracy but is never an error; exactly
 *		one soft sample is emitted per recovered symbol.
 *
 *----------------------------------------------------------------*/

import (
	"math"
)

const (
	gardnerAdvance = iota // advancing toward the intersample instant
	gardnerStrobe         // advancing toward the symbol instant
)

type GardnerResampler struct {
	flt *PolyphaseFilter

	alpha, beta  float64 // loop gains
	freq         float64 // current symbols per interpolated sample
	centerFreq   float64 // nominal symbols per interpolated sample
	maxFreqDelta float64 // clamp around centerFreq

	phase float64 // symbol phase, cycles in [0,1)
	state int

	prevSample  float64 // sample at the previous symbol instant
	interSample float64 // sample halfway between symbol instants

	avgMagnitude float64 // for error normalization
	avgDC        float64 // slow DC tracker, removed from the input

	out []float64
}

/*
 * Configure the timing recovery loop.
 *
 *   symFreq       - symbols per sample in the input stream
 *   damp          - feedback control loop damping
 *   bw            - feedback control loop bandwidth
 *   maxFreqDelta  - maximum allowed deviation from symFreq
 *   targetSymFreq - maximum symbols per sample in the internal
 *                   interpolated stream (e.g. 0.125 for 8x oversampling)
 */
func NewGardnerResampler(symFreq, damp, bw, maxFreqDelta, targetSymFreq float64) *GardnerResampler {
	var interp = int(math.Ceil(symFreq / targetSymFreq))
	if interp < 1 {
		interp = 1
	}

	var g = &GardnerResampler{
		flt:          NewPolyphaseFilter(interp),
		centerFreq:   symFreq / float64(interp),
		maxFreqDelta: maxFreqDelta / float64(interp),
		state:        gardnerAdvance,
		avgMagnitude: 1,
	}
	g.freq = g.centerFreq
	g.updateAlphaBeta(damp, bw)

	return g
}

// Loop gains from damping and bandwidth, computed once.
func (g *GardnerResampler) updateAlphaBeta(damp, bw float64) {
	var denom = 1 + 2*damp*bw + bw*bw
	g.alpha = 4 * damp * bw / denom
	g.beta = 4 * bw * bw / denom
}

// Process consumes a block of demodulated samples and returns one soft
// sample per recovered symbol.  The returned slice is reused by the
// next call.
func (g *GardnerResampler) Process(in []float64) []float64 {
	g.out = g.out[:0]

	for _, raw := range in {
		for _, sample := range g.flt.Feed(raw) {
			// Remove residual carrier offset from the FM demodulator.
			g.avgDC = 0.999*g.avgDC + 0.001*sample
			sample -= g.avgDC

			g.avgMagnitude = 0.99*g.avgMagnitude + 0.01*math.Abs(sample)

			g.phase += g.freq
			switch g.state {
			case gardnerAdvance:
				if g.phase >= 0.5 {
					g.interSample = sample
					g.state = gardnerStrobe
				}
			case gardnerStrobe:
				if g.phase >= 1.0 {
					g.phase -= 1.0
					g.state = gardnerAdvance

					g.updateEstimate(g.timingError(sample))
					g.prevSample = sample

					g.out = append(g.out, sample)
				}
			}
		}
	}

	return g.out
}

// Gardner early/late statistic, normalized so the loop gain does not
// depend on the input amplitude.  Positive means we are sampling late.
func (g *GardnerResampler) timingError(sample float64) float64 {
	var err = (sample - g.prevSample) * g.interSample

	var mag = g.avgMagnitude * g.avgMagnitude
	if mag > 1e-9 {
		err /= mag
	}

	if err > 1 {
		err = 1
	} else if err < -1 {
		err = -1
	}
	return err
}

func (g *GardnerResampler) updateEstimate(err float64) {
	// Phase: proportional.  Frequency: integral, clamped to stay
	// within the allowed deviation from nominal.
	g.phase += g.alpha * err
	g.freq += g.beta * err

	var lo = g.centerFreq - g.maxFreqDelta
	var hi = g.centerFreq + g.maxFreqDelta
	if g.freq < lo {
		g.freq = lo
	} else if g.freq > hi {
		g.freq = hi
	}
}

// FreqDeviation reports the current offset of the symbol-rate estimate
// from nominal, as a fraction of the nominal rate.
func (g *GardnerResampler) FreqDeviation() float64 {
	return (g.freq - g.centerFreq) / g.centerFreq
}
