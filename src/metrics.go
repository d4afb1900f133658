// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

package skysonde

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for one decoder pipeline.
type Metrics struct {
	framesTotal       prometheus.Counter
	fecBlockFailures  prometheus.Counter
	fecBytesCorrected prometheus.Counter
	subframesOk       prometheus.Counter
	subframesBad      prometheus.Counter

	calibFragsMissing prometheus.Gauge
	calibrated        prometheus.Gauge
	freqDeviation     prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	var factory = promauto.With(reg)

	return &Metrics{
		framesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "skysonde_frames_total",
			Help: "Frames received from the framer",
		}),
		fecBlockFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "skysonde_fec_block_failures_total",
			Help: "Reed-Solomon blocks that could not be corrected",
		}),
		fecBytesCorrected: factory.NewCounter(prometheus.CounterOpts{
			Name: "skysonde_fec_bytes_corrected_total",
			Help: "Byte errors repaired by Reed-Solomon decoding",
		}),
		subframesOk: factory.NewCounter(prometheus.CounterOpts{
			Name: "skysonde_subframes_ok_total",
			Help: "Subframes that passed their CRC and were applied",
		}),
		subframesBad: factory.NewCounter(prometheus.CounterOpts{
			Name: "skysonde_subframes_bad_total",
			Help: "Subframes rejected by CRC or malformed",
		}),
		calibFragsMissing: factory.NewGauge(prometheus.GaugeOpts{
			Name: "skysonde_calibration_fragments_missing",
			Help: "Calibration table fragments not yet received",
		}),
		calibrated: factory.NewGauge(prometheus.GaugeOpts{
			Name: "skysonde_calibrated",
			Help: "1 once the full calibration table has been assembled",
		}),
		freqDeviation: factory.NewGauge(prometheus.GaugeOpts{
			Name: "skysonde_symbol_rate_deviation",
			Help: "Timing loop estimate of symbol rate error, fractional",
		}),
	}
}

func (m *Metrics) observeFrame(res FrameResult) {
	if m == nil {
		return
	}
	m.framesTotal.Inc()
	if res.FECOk {
		m.fecBytesCorrected.Add(float64(res.Corrected))
	} else {
		m.fecBlockFailures.Inc()
	}
	m.subframesOk.Add(float64(res.SubframesOk))
	m.subframesBad.Add(float64(res.SubframesBad))
}

func (m *Metrics) observeCalibration(c *CalibrationAssembler) {
	if m == nil {
		return
	}
	m.calibFragsMissing.Set(float64(c.MissingFragments()))
	if c.Calibrated() {
		m.calibrated.Set(1)
	} else {
		m.calibrated.Set(0)
	}
}

func (m *Metrics) observeTiming(g *GardnerResampler) {
	if m == nil {
		return
	}
	m.freqDeviation.Set(g.FreqDeviation())
}
