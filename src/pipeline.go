// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

package skysonde

/*------------------------------------------------------------------
 *
 * Purpose:   	Glue the pipeline stages together and run them on a
 *		single goroutine.
 *
 *		Sample blocks arrive on a bounded channel; each block
 *		flows timing recovery -> slicer -> framer -> decoder
 *		synchronously.  Retune requests travel on a second
 *		channel serviced by the same goroutine, so the
 *		calibration reset can never interleave with frame
 *		processing.
 *
 *----------------------------------------------------------------*/

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
)

/* Default internal oversampling target, symbols per interpolated
 * sample. */
const defaultTargetSymFreq = 0.125

type Pipeline struct {
	gardner *GardnerResampler
	slicer  *Slicer
	framer  *FrameAccumulator
	decoder *RS41Decoder

	metrics *Metrics
	logger  *log.Logger
	handler func(*SondeData)

	in     chan []float64
	retune chan struct{}
	done   chan struct{}
	runErr error
}

// NewPipeline assembles a decode pipeline.  handler receives the
// cumulative telemetry record after every frame; it runs on the
// pipeline goroutine and must not retain the pointer.  metrics may be
// nil.
func NewPipeline(cfg Config, metrics *Metrics, logger *log.Logger, handler func(*SondeData)) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline config: %w", err)
	}

	if logger == nil {
		logger = log.Default()
	}

	var d = cfg.Demod
	var symFreq = d.SymbolRate / d.SampleRate

	var p = &Pipeline{
		gardner: NewGardnerResampler(symFreq, d.LoopDamping,
			symFreq*d.LoopBW, symFreq*d.MaxDeviation, defaultTargetSymFreq),
		slicer:  NewSlicer(),
		framer:  NewFrameAccumulator(),
		metrics: metrics,
		logger:  logger,
		handler: handler,
		in:      make(chan []float64, 16),
		retune:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	p.decoder = NewRS41Decoder(p.emit)
	return p, nil
}

// Run consumes sample blocks until the input is closed by Stop or the
// context ends.  Call it on its own goroutine.
func (p *Pipeline) Run(ctx context.Context) error {
	defer close(p.done)

	for {
		select {
		case <-ctx.Done():
			p.runErr = ctx.Err()
			return p.runErr

		case <-p.retune:
			p.reset()

		case block, ok := <-p.in:
			if !ok {
				return nil
			}
			p.process(block)
		}
	}
}

// Feed hands a block of demodulated samples to the pipeline.  The
// block must not be modified after the call.  Blocks until the
// pipeline has room or ctx ends.
func (p *Pipeline) Feed(ctx context.Context, block []float64) error {
	select {
	case p.in <- block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return fmt.Errorf("pipeline stopped")
	}
}

// Retune discards all per-sonde state: partial frame, calibration
// table, cumulative telemetry.  Used when the input source changes.
// Blocks until the pipeline goroutine has performed the reset.
func (p *Pipeline) Retune() {
	select {
	case p.retune <- struct{}{}:
	case <-p.done:
	}
}

// Stop closes the input.  The pipeline drains queued blocks and Run
// returns.
func (p *Pipeline) Stop() {
	close(p.in)
}

// Done is closed once Run has returned.
func (p *Pipeline) Done() <-chan struct{} {
	return p.done
}

func (p *Pipeline) reset() {
	p.framer.Reset()
	p.decoder.Reset()
	p.logger.Info("input source changed, decoder state reset")
}

func (p *Pipeline) process(block []float64) {
	var symbols = p.gardner.Process(block)
	var bytes = p.slicer.Process(symbols)

	for _, frame := range p.framer.Process(bytes) {
		var res = p.decoder.Process(frame)

		p.metrics.observeFrame(res)
		p.metrics.observeCalibration(p.decoder.Calibration())

		if !res.FECOk {
			p.logger.Debug("frame with uncorrectable block",
				"subframes_ok", res.SubframesOk,
				"subframes_bad", res.SubframesBad)
		}
	}
	p.metrics.observeTiming(p.gardner)
}

func (p *Pipeline) emit(data *SondeData) {
	if p.handler != nil {
		p.handler(data)
	}
}
