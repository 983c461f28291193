// Copyright (c) 2023 Alexander Khudich
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command sonic-go reads a WAV file, runs it through a sonic.Stream, and
// writes the result back out as WAV. It is a reference driver for the
// core engine, not part of it.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/pflag"

	"github.com/aelius-audio/sonic"
	"github.com/aelius-audio/sonic/internal/spectrogram"
)

const bufFrames = 4096

var logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})

func main() {
	os.Exit(run())
}

func run() int {
	speed := pflag.Float64P("speed", "s", 1.0, "Speed factor; 2.0 plays twice as fast.")
	pitch := pflag.Float64P("pitch", "p", 1.0, "Pitch factor; 1.3 is 30% higher, duration unchanged.")
	rate := pflag.Float64P("rate", "r", 1.0, "Playback rate; 2.0 is classic 2x resampling.")
	volume := pflag.Float64P("volume", "v", 1.0, "Volume scale factor.")
	chord := pflag.BoolP("chord", "c", false, "Synthesise at speed*pitch instead of speed/pitch, then resample to restore duration.")
	quality := pflag.BoolP("quality", "q", false, "Disable the AMDF down-sample heuristic; full-resolution search every period.")
	nonlinear := pflag.BoolP("nonlinear", "n", false, "Apply the non-linear speed-up curve for already-fast speech.")
	spectro := pflag.StringP("spectrogram", "S", "", "Render an input spectrogram to sonic.pgm, e.g. -S 1024x512.")
	presetName := pflag.String("preset", "", "Load a named parameter bundle from --presets-file, overridden by any flag given explicitly.")
	presetsFile := pflag.String("presets-file", "presets.yaml", "YAML file of named presets used by --preset.")
	pflag.Parse()

	args := pflag.Args()
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: sonic-go [flags] infile outfile")
		pflag.PrintDefaults()
		return 1
	}
	infile, outfile := args[0], args[1]

	params := sonic.ChangeParams{Speed: *speed, Pitch: *pitch, Rate: *rate, Volume: *volume,
		Quality: *quality, Chord: *chord, Nonlinear: *nonlinear}

	if *presetName != "" {
		p, err := loadPreset(*presetsFile, *presetName)
		if err != nil {
			logger.Error("loading preset", "err", err)
			return 1
		}
		applyPreset(&params, p, changedFlags())
	}

	f, err := os.Open(infile)
	if err != nil {
		logger.Error("opening input", "file", infile, "err", err)
		return 1
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	decoder.ReadInfo()
	format := decoder.Format()
	if format == nil {
		logger.Error("input is not a valid WAV file", "file", infile)
		return 1
	}

	if *spectro != "" {
		if err := renderSpectrogram(infile, format.SampleRate, *spectro); err != nil {
			logger.Error("rendering spectrogram", "err", err)
			return 1
		}
	}

	of, err := os.Create(outfile)
	if err != nil {
		logger.Error("creating output", "file", outfile, "err", err)
		return 1
	}
	defer of.Close()

	enc := wav.NewEncoder(of, format.SampleRate, 16, format.NumChannels, 1)
	defer enc.Close()

	stream := sonic.NewStream(format.SampleRate, format.NumChannels)
	stream.SetSpeed(params.Speed)
	stream.SetPitch(params.Pitch)
	stream.SetRate(params.Rate)
	stream.SetVolume(params.Volume)
	stream.SetQuality(params.Quality)
	stream.SetChordPitch(params.Chord)
	stream.SetNonlinear(params.Nonlinear)

	logger.Info("processing", "speed", params.Speed, "pitch", params.Pitch,
		"rate", params.Rate, "volume", params.Volume, "sampleRate", format.SampleRate,
		"channels", format.NumChannels)

	start := time.Now()
	intBuf := &audio.IntBuffer{Data: make([]int, bufFrames*format.NumChannels), Format: format, SourceBitDepth: 16}
	s16 := make([]int16, 0, bufFrames*format.NumChannels)

	for {
		n, err := decoder.PCMBuffer(intBuf)
		if err != nil {
			logger.Error("decoding WAV", "err", err)
			return 1
		}
		if n == 0 {
			break
		}
		s16 = s16[:0]
		for i := 0; i < n; i++ {
			s16 = append(s16, int16(intBuf.Data[i]))
		}
		if err := stream.Write(s16); err != nil {
			logger.Error("writing samples", "err", err)
			return 1
		}
		if err := drainTo(stream, enc, format); err != nil {
			logger.Error("encoding output", "err", err)
			return 1
		}
	}

	if err := stream.Flush(); err != nil {
		logger.Error("flushing stream", "err", err)
		return 1
	}
	if err := drainTo(stream, enc, format); err != nil {
		logger.Error("encoding output", "err", err)
		return 1
	}

	logger.Info("done", "elapsed", time.Since(start))
	return 0
}

func drainTo(stream *sonic.Stream, enc *wav.Encoder, format *audio.Format) error {
	for {
		out, err := stream.Read(bufFrames)
		if err != nil {
			return err
		}
		if len(out) == 0 {
			return nil
		}
		data := make([]int, len(out))
		for i, v := range out {
			data[i] = int(v)
		}
		if err := enc.Write(&audio.IntBuffer{Format: format, SourceBitDepth: 16, Data: data}); err != nil {
			return err
		}
	}
}

func renderSpectrogram(infile string, sampleRate int, dims string) error {
	w, h, err := parseDims(dims)
	if err != nil {
		return err
	}

	f, err := os.Open(infile)
	if err != nil {
		return err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	decoder.ReadInfo()
	format := decoder.Format()

	intBuf := &audio.IntBuffer{Data: make([]int, bufFrames*format.NumChannels), Format: format, SourceBitDepth: 16}
	mono := make([]int16, 0, bufFrames)
	for {
		n, err := decoder.PCMBuffer(intBuf)
		if err != nil {
			return err
		}
		if n == 0 {
			break
		}
		for i := 0; i < n; i += format.NumChannels {
			sum := 0
			for c := 0; c < format.NumChannels; c++ {
				sum += intBuf.Data[i+c]
			}
			mono = append(mono, int16(sum/format.NumChannels))
		}
	}

	sg := spectrogram.Build(mono, sampleRate)
	out, err := os.Create("sonic.pgm")
	if err != nil {
		return err
	}
	defer out.Close()
	return sg.WritePGM(out, h, w)
}

func parseDims(s string) (w, h int, err error) {
	parts := strings.SplitN(strings.ToLower(s), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("spectrogram dimensions must look like WxH, got %q", s)
	}
	w, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	h, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return w, h, nil
}

func changedFlags() map[string]bool {
	changed := map[string]bool{}
	pflag.Visit(func(f *pflag.Flag) { changed[f.Name] = true })
	return changed
}

func applyPreset(params *sonic.ChangeParams, p preset, changed map[string]bool) {
	if p.Speed != nil && !changed["speed"] {
		params.Speed = *p.Speed
	}
	if p.Pitch != nil && !changed["pitch"] {
		params.Pitch = *p.Pitch
	}
	if p.Rate != nil && !changed["rate"] {
		params.Rate = *p.Rate
	}
	if p.Volume != nil && !changed["volume"] {
		params.Volume = *p.Volume
	}
	if p.Quality != nil && !changed["quality"] {
		params.Quality = *p.Quality
	}
	if p.Chord != nil && !changed["chord"] {
		params.Chord = *p.Chord
	}
	if p.Nonlinear != nil && !changed["nonlinear"] {
		params.Nonlinear = *p.Nonlinear
	}
}
