// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

/* Generate an RS41 baseband sample stream from literal field values.
 * The output decodes through skysonde-decode; its main use is loopback
 * testing without a radio. */
package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	skysonde "github.com/skysonde/skysonde/src"
)

func main() {
	var _output = pflag.StringP("output", "o", "-", "Output file for float32 LE samples, or '-' for stdout.")
	var _frames = pflag.IntP("frames", "n", 60, "Number of frames to generate.")
	var _sampleRate = pflag.Float64P("sample-rate", "r", 48000, "Output sample rate.")
	var _serial = pflag.String("serial", "S3220650", "Sonde serial, 8 characters.")
	var _battery = pflag.Float64("battery", 2.9, "Battery voltage.")
	var _lat = pflag.Float64("lat", 46.028, "Start latitude, degrees.")
	var _lon = pflag.Float64("lon", 8.953, "Start longitude, degrees.")
	var _alt = pflag.Float64("alt", 5000, "Start altitude, meters.")
	var _speed = pflag.Float64("speed", 12, "Ground speed, m/s.")
	var _heading = pflag.Float64("heading", 45, "Heading, degrees.")
	var _climb = pflag.Float64("climb", 4.5, "Climb rate, m/s.")
	var _xdata = pflag.String("xdata", "", "Auxiliary instrument data, ASCII.")
	var help = pflag.Bool("help", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - RS41 reference signal generator.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	var logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	var out = os.Stdout
	if *_output != "-" {
		var f, err = os.Create(*_output)
		if err != nil {
			logger.Fatal("create output", "err", err)
		}
		defer f.Close()
		out = f
	}
	var w = bufio.NewWriter(out)
	defer w.Flush()

	var samplesPerSymbol = int(math.Round(*_sampleRate / skysonde.RS41_BAUDRATE))
	if samplesPerSymbol < 2 {
		logger.Fatal("sample rate too low", "sample_rate", *_sampleRate)
	}

	var serial [skysonde.RS41_SERIAL_LEN]byte
	copy(serial[:], *_serial)

	var encoder = skysonde.NewFrameEncoder()
	var start = time.Now().UTC()

	for seq := 0; seq < *_frames; seq++ {
		var elapsed = float64(seq) /* one frame per second on air */

		/* Dead-reckon the balloon track */
		var lat, lon, alt = advance(*_lat, *_lon, *_alt, *_speed, *_heading, *_climb, elapsed)
		var x, y, z = skysonde.LLAToECEF(lat, lon, alt)
		var ve = *_speed * math.Sin(*_heading*math.Pi/180)
		var vn = *_speed * math.Cos(*_heading*math.Pi/180)
		var vx, vy, vz = skysonde.ENUToECEFVel(lat, lon, ve, vn, *_climb)

		var status = skysonde.StatusSubframe{
			FrameSeq:       uint16(seq),
			Serial:         string(serial[:]),
			BatteryVoltage: *_battery,
			FragSeq:        seq % skysonde.RS41_CALIB_FRAGCOUNT,
			FragData:       skysonde.DefaultCalibrationFragment(seq % skysonde.RS41_CALIB_FRAGCOUNT),
		}

		/* ADC readings sitting at the first reference point */
		var ptu = skysonde.PTUSubframe{
			TempMain: 130000, TempRef1: 130000, TempRef2: 190000,
			RHMain: 140000, RHRef1: 140000, RHRef2: 180000,
			RHTempMain: 130000, RHTempRef1: 130000, RHTempRef2: 190000,
		}

		var gpsTime = start.Add(time.Duration(elapsed * float64(time.Second)))
		var week, tow = skysonde.UTCToGPSTime(gpsTime)

		var subframes = []skysonde.SubframePayload{
			skysonde.EncodeStatus(status),
			skysonde.EncodePTU(ptu),
			skysonde.EncodeGPSPos(skysonde.GPSPosSubframe{
				X: int32(math.Round(x * 100)), Y: int32(math.Round(y * 100)), Z: int32(math.Round(z * 100)),
				VX: int16(math.Round(vx * 100)), VY: int16(math.Round(vy * 100)), VZ: int16(math.Round(vz * 100)),
				Satellites: 9, SpeedAcc: 1, PDOP: 14,
			}),
			skysonde.EncodeGPSInfo(skysonde.GPSInfoSubframe{Week: week, TOW: tow}),
		}
		if *_xdata != "" {
			subframes = append(subframes, skysonde.EncodeXDATA(skysonde.XDATASubframe{ASCII: *_xdata}))
		}

		var frame = encoder.Encode(subframes)
		for _, s := range skysonde.NRZSamples(frame, samplesPerSymbol) {
			var buf [4]byte
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(float32(s)))
			if _, err := w.Write(buf[:]); err != nil {
				logger.Fatal("write", "err", err)
			}
		}
	}

	logger.Info("generated", "frames", *_frames, "samples_per_symbol", samplesPerSymbol)
}

/* Constant-velocity dead reckoning on a locally flat earth.  Good
 * enough for the short tracks the generator produces. */
func advance(lat, lon, alt, speed, heading, climb, seconds float64) (float64, float64, float64) {
	var north = speed * math.Cos(heading*math.Pi/180) * seconds
	var east = speed * math.Sin(heading*math.Pi/180) * seconds

	const mPerDegLat = 111132.0
	lat += north / mPerDegLat
	lon += east / (mPerDegLat * math.Cos(lat*math.Pi/180))
	alt += climb * seconds
	return lat, lon, alt
}
