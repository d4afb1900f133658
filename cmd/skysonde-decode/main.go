// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

/* Decode RS41 radiosonde telemetry from a demodulated sample stream. */
package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	skysonde "github.com/skysonde/skysonde/src"
)

const readBlockSamples = 4096

func main() {
	var _config = pflag.StringP("config", "c", "", "YAML configuration file.")
	var _input = pflag.StringP("input", "i", "-", "Input file of demodulated samples, or '-' for stdin.")
	var _format = pflag.StringP("format", "f", "f32", "Raw sample format: f32 (float32 LE) or s16 (int16 LE). WAV input is detected automatically.")
	var _sampleRate = pflag.Float64P("sample-rate", "r", 0, "Sample rate of the input. Overrides the config file.")
	var _timestampFormat = pflag.StringP("timestamp-format", "T", "", "Precede telemetry lines with 'strftime' format time stamp.")
	var _serve = pflag.Bool("serve", false, "Serve live telemetry over WebSocket with Prometheus metrics.")
	var _listen = pflag.String("listen", "", "Listen address for the telemetry server. Overrides the config file.")
	var _verbose = pflag.BoolP("verbose", "v", false, "Verbose. Log every frame, including damaged ones.")
	var help = pflag.Bool("help", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - RS41 radiosonde telemetry decoder.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Reads demodulated FM baseband samples, recovers symbol timing,\n")
		fmt.Fprintf(os.Stderr, "decodes frames and prints one telemetry line per frame.\n")
		fmt.Fprintf(os.Stderr, "\n")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	var logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	if *_verbose {
		logger.SetLevel(log.DebugLevel)
	}

	var cfg = skysonde.DefaultConfig()
	if *_config != "" {
		var err error
		cfg, err = skysonde.LoadConfig(*_config)
		if err != nil {
			logger.Fatal("config", "err", err)
		}
	}
	if *_sampleRate > 0 {
		cfg.Demod.SampleRate = *_sampleRate
	}
	if *_serve {
		cfg.Server.Enabled = true
	}
	if *_listen != "" {
		cfg.Server.Listen = *_listen
	}

	var in io.Reader = os.Stdin
	if *_input != "-" {
		f, err := os.Open(*_input)
		if err != nil {
			logger.Fatal("open input", "err", err)
		}
		defer f.Close()
		in = f
	}

	var format = *_format
	if rate, wavFormat, ok := sniffWAV(&in, logger); ok {
		cfg.Demod.SampleRate = rate
		format = wavFormat
	}

	var ctx, stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var registry = prometheus.NewRegistry()
	var metrics *skysonde.Metrics
	var server *skysonde.Server
	if cfg.Server.Enabled {
		metrics = skysonde.NewMetrics(registry)
		server = skysonde.NewServer(cfg.Server, registry, logger)
		if err := server.Start(ctx); err != nil {
			logger.Fatal("server", "err", err)
		}
	}

	var printer = newPrinter(&cfg, *_timestampFormat, *_verbose)

	var pipeline, err = skysonde.NewPipeline(cfg, metrics, logger, func(data *skysonde.SondeData) {
		printer.print(data)
		if server != nil {
			server.Broadcast(data)
		}
	})
	if err != nil {
		logger.Fatal("pipeline", "err", err)
	}

	go func() {
		if err := feedSamples(ctx, in, format, pipeline); err != nil && ctx.Err() == nil {
			logger.Error("input", "err", err)
		}
		pipeline.Stop()
	}()

	if err := pipeline.Run(ctx); err != nil && err != context.Canceled {
		logger.Fatal("pipeline", "err", err)
	}
}

/*------------------------------------------------------------------
 *
 * Name:	feedSamples
 *
 * Purpose:	Read raw samples in the given format and feed them to
 *		the pipeline in blocks.
 *
 *----------------------------------------------------------------*/

func feedSamples(ctx context.Context, in io.Reader, format string, p *skysonde.Pipeline) error {
	var bytesPerSample int
	switch format {
	case "f32":
		bytesPerSample = 4
	case "s16":
		bytesPerSample = 2
	default:
		return fmt.Errorf("unknown sample format %q", format)
	}

	var raw = make([]byte, readBlockSamples*bytesPerSample)
	for {
		n, err := io.ReadFull(in, raw)
		n -= n % bytesPerSample
		if n > 0 {
			var block = make([]float64, n/bytesPerSample)
			for i := range block {
				switch format {
				case "f32":
					block[i] = float64(math.Float32frombits(
						binary.LittleEndian.Uint32(raw[4*i:])))
				case "s16":
					block[i] = float64(int16(binary.LittleEndian.Uint16(raw[2*i:]))) / 32768.0
				}
			}
			if err := p.Feed(ctx, block); err != nil {
				return err
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

/* Peek at the stream for a RIFF/WAVE header.  On match, consume the
 * header and return the embedded sample rate and format. */

func sniffWAV(in *io.Reader, logger *log.Logger) (rate float64, format string, ok bool) {
	var head = make([]byte, 12)
	n, err := io.ReadFull(*in, head)
	if err != nil || string(head[:4]) != "RIFF" || string(head[8:12]) != "WAVE" {
		*in = io.MultiReader(newByteReader(head[:n]), *in)
		return 0, "", false
	}

	/* Walk chunks until "data" */
	var sampleRate uint32
	var bits uint16
	for {
		var ch = make([]byte, 8)
		if _, err := io.ReadFull(*in, ch); err != nil {
			return 0, "", false
		}
		var size = binary.LittleEndian.Uint32(ch[4:8])
		if string(ch[:4]) == "data" {
			break
		}
		// RIFF chunks are word aligned; odd-sized bodies carry a pad byte.
		var body = make([]byte, size+size%2)
		if _, err := io.ReadFull(*in, body); err != nil {
			return 0, "", false
		}
		if string(ch[:4]) == "fmt " && size >= 16 {
			sampleRate = binary.LittleEndian.Uint32(body[4:8])
			bits = binary.LittleEndian.Uint16(body[14:16])
		}
	}

	switch bits {
	case 16:
		format = "s16"
	case 32:
		format = "f32"
	default:
		logger.Fatal("unsupported WAV sample size", "bits", bits)
	}

	logger.Info("WAV input", "sample_rate", sampleRate, "bits", bits)
	return float64(sampleRate), format, true
}

type byteReader struct{ buf []byte }

func newByteReader(b []byte) *byteReader { return &byteReader{buf: b} }

func (r *byteReader) Read(p []byte) (int, error) {
	if len(r.buf) == 0 {
		return 0, io.EOF
	}
	var n = copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

/*------------------------------------------------------------------
 *
 * Name:	printer
 *
 * Purpose:	Render telemetry lines.  One line per frame when
 *		verbose, otherwise only lines whose frame sequence
 *		number has advanced.
 *
 *----------------------------------------------------------------*/

type printer struct {
	cfg             *skysonde.Config
	timestampFormat string
	verbose         bool

	lastSeq  uint16
	haveSeq  bool
	strfTime *strftime.Strftime
}

func newPrinter(cfg *skysonde.Config, timestampFormat string, verbose bool) *printer {
	var p = &printer{cfg: cfg, timestampFormat: timestampFormat, verbose: verbose}
	if timestampFormat != "" {
		var f, err = strftime.New(timestampFormat)
		if err == nil {
			p.strfTime = f
		}
	}
	return p
}

func (p *printer) print(data *skysonde.SondeData) {
	if data.Serial == "" {
		return
	}
	if !p.verbose && p.haveSeq && data.Seq == p.lastSeq {
		return
	}
	p.lastSeq = data.Seq
	p.haveSeq = true

	var prefix = ""
	if p.strfTime != nil {
		prefix = p.strfTime.FormatString(time.Now()) + " "
	}

	var calib = " "
	if data.Calibrated {
		calib = "C"
	}

	fmt.Printf("%s%s #%d [%s] %7.4f %8.4f %7.0fm  %5.1fC %5.1f%% %6.1fhPa  %4.1fm/s %3.0f  sats %d",
		prefix, data.Serial, data.Seq, calib,
		data.Lat, data.Lon, data.Alt,
		data.Temp, data.RH, data.Pressure,
		data.Speed, data.Heading, data.Satellites)

	if utm := skysonde.UTMString(data.Lat, data.Lon); utm != "" {
		fmt.Printf("  %s", utm)
	}

	if p.cfg.Receiver.Set {
		var r = p.cfg.Receiver
		var dist, brg = skysonde.GroundRange(r.Lat, r.Lon, data.Lat, data.Lon)
		var slant = skysonde.SlantRange(r.Lat, r.Lon, r.Alt, data.Lat, data.Lon, data.Alt)
		fmt.Printf("  range %.1fkm brg %.0f slant %.1fkm", dist/1000, brg, slant/1000)
	}

	if data.AuxData != "" {
		fmt.Printf("  aux %s", data.AuxData)
	}
	fmt.Printf("\n")
}
