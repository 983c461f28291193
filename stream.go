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

package sonic

import (
	"io"
	"math"
)

// MinPitch and MaxPitch bound the voice pitches the estimator searches
// for. Going lower than 65 risks overflow in the AMDF inner loop at high
// sample rates; going higher than 400 stops matching real voices.
const (
	MinPitch = 65
	MaxPitch = 400

	// AmdfFreq is the target sample rate of the down-sampled AMDF search.
	AmdfFreq = 4000
)

// Parameter ranges every setter clamps into, per spec §6.
const (
	MinSpeed, MaxSpeed   = 0.1, 10.0
	MinPitchF, MaxPitchF = 0.1, 10.0
	MinRate, MaxRate     = 0.1, 10.0
	MinVolume, MaxVolume = 0.1, 10.0

	MinSampleRate, MaxSampleRate = 4000, 192000
	MinChannels, MaxChannels     = 1, 16
)

// epsilon is how close a ratio must be to 1.0 to be treated as a no-op
// for fast-path purposes.
const epsilon = 1e-5

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Stream is a streaming speed/pitch/rate/volume modifier for interleaved
// signed-16 PCM (or float/byte encodings converted at the boundary). It
// is not safe for concurrent use: all operations must run on the owning
// goroutine, synchronously to completion (spec §5).
type Stream struct {
	inputBuffer      *SampleBuffer
	outputBuffer     *SampleBuffer
	rateBuffer       *SampleBuffer
	downSampleBuffer *SampleBuffer

	speed, pitch, rate, volume float64
	quality                    bool
	useChordPitch              bool
	nonlinearSpeedup           bool

	sampleRate  int
	numChannels int

	minPeriod, maxPeriod, maxRequired int

	remainingInputToCopy    int
	prevPeriod, prevMinDiff int

	ratePos float64

	totalInput, totalOutput int
}

// NewStream creates a Stream for sampleRate Hz, numChannels-channel
// audio. Parameters default to 1.0 (speed/pitch/rate/volume) with
// quality, chord pitch and non-linear speedup off, per spec §3.
func NewStream(sampleRate, numChannels int) *Stream {
	sampleRate = clampI(sampleRate, MinSampleRate, MaxSampleRate)
	numChannels = clampI(numChannels, MinChannels, MaxChannels)

	s := &Stream{
		speed:       1.0,
		pitch:       1.0,
		rate:        1.0,
		volume:      1.0,
		sampleRate:  sampleRate,
		numChannels: numChannels,
	}
	s.recomputePeriodBounds()
	s.allocateBuffers()
	return s
}

func (s *Stream) recomputePeriodBounds() {
	s.minPeriod = s.sampleRate / MaxPitch
	if s.minPeriod < 1 {
		s.minPeriod = 1
	}
	s.maxPeriod = s.sampleRate / MinPitch
	if s.maxPeriod < s.minPeriod {
		s.maxPeriod = s.minPeriod
	}
	s.maxRequired = 2 * s.maxPeriod
}

func (s *Stream) allocateBuffers() {
	s.inputBuffer = NewSampleBuffer(s.numChannels, s.maxRequired*2)
	s.outputBuffer = NewSampleBuffer(s.numChannels, s.maxRequired*2)
	s.rateBuffer = NewSampleBuffer(s.numChannels, s.maxRequired)
	s.downSampleBuffer = NewSampleBuffer(1, s.maxRequired)
}

// Destroy releases the stream's buffers. Go's collector would reclaim
// them regardless; this exists so callers written against the spec's
// create/destroy lifecycle have an explicit, safe-to-call teardown.
func (s *Stream) Destroy() {
	s.inputBuffer = nil
	s.outputBuffer = nil
	s.rateBuffer = nil
	s.downSampleBuffer = nil
}

// --- parameter accessors ---------------------------------------------

func (s *Stream) GetSpeed() float64 { return s.speed }
func (s *Stream) SetSpeed(v float64) {
	s.speed = clampF(v, MinSpeed, MaxSpeed)
}

func (s *Stream) GetPitch() float64 { return s.pitch }
func (s *Stream) SetPitch(v float64) {
	s.pitch = clampF(v, MinPitchF, MaxPitchF)
}

func (s *Stream) GetRate() float64 { return s.rate }
func (s *Stream) SetRate(v float64) {
	s.rate = clampF(v, MinRate, MaxRate)
}

func (s *Stream) GetVolume() float64 { return s.volume }
func (s *Stream) SetVolume(v float64) {
	s.volume = clampF(v, MinVolume, MaxVolume)
}

func (s *Stream) GetQuality() bool     { return s.quality }
func (s *Stream) SetQuality(v bool)    { s.quality = v }
func (s *Stream) GetChordPitch() bool  { return s.useChordPitch }
func (s *Stream) SetChordPitch(v bool) { s.useChordPitch = v }
func (s *Stream) GetNonlinear() bool   { return s.nonlinearSpeedup }
func (s *Stream) SetNonlinear(v bool)  { s.nonlinearSpeedup = v }

func (s *Stream) GetSampleRate() int { return s.sampleRate }

// SetSampleRate changes the stream's sample rate, recomputing the period
// bounds cache and reallocating the staging buffers. Any frames not yet
// read are discarded: they were synthesised against the old rate and
// cannot be reinterpreted under the new one.
func (s *Stream) SetSampleRate(v int) {
	s.sampleRate = clampI(v, MinSampleRate, MaxSampleRate)
	s.recomputePeriodBounds()
	s.allocateBuffers()
	s.resetCrossCallState()
}

func (s *Stream) GetNumChannels() int { return s.numChannels }

// SetNumChannels changes the channel count, reallocating buffers for the
// same reason SetSampleRate does.
func (s *Stream) SetNumChannels(v int) {
	s.numChannels = clampI(v, MinChannels, MaxChannels)
	s.allocateBuffers()
	s.resetCrossCallState()
}

func (s *Stream) resetCrossCallState() {
	s.prevPeriod, s.prevMinDiff, s.remainingInputToCopy = 0, 0, 0
	s.ratePos = 0
	s.totalInput, s.totalOutput = 0, 0
}

// SamplesAvailable returns the number of frames staged for reading.
func (s *Stream) SamplesAvailable() int { return s.outputBuffer.Len() }

// --- writers -----------------------------------------------------------

// Write appends interleaved signed-16 frames to the stream and drains as
// much synthesised output as the current backlog allows.
func (s *Stream) Write(samples []int16) error {
	if len(samples)%s.numChannels != 0 {
		return ErrInvalidEncoding
	}
	if err := s.inputBuffer.AddSamples(samples); err != nil {
		return err
	}
	s.totalInput += len(samples) / s.numChannels
	return s.drain()
}

// WriteFloats appends normalised float64 frames ([-1,1]).
func (s *Stream) WriteFloats(samples []float64) error {
	if len(samples)%s.numChannels != 0 {
		return ErrInvalidEncoding
	}
	if err := s.inputBuffer.AddFloatSamples(samples); err != nil {
		return err
	}
	s.totalInput += len(samples) / s.numChannels
	return s.drain()
}

// WriteBytes appends unsigned-8 frames.
func (s *Stream) WriteBytes(samples []uint8) error {
	if len(samples)%s.numChannels != 0 {
		return ErrInvalidEncoding
	}
	if err := s.inputBuffer.AddByteSamples(samples); err != nil {
		return err
	}
	s.totalInput += len(samples) / s.numChannels
	return s.drain()
}

// --- readers -----------------------------------------------------------

// Read removes and returns up to n frames of signed-16 output. It
// returns 0 frames, not an error, when nothing is staged.
func (s *Stream) Read(n int) ([]int16, error) {
	if s.outputBuffer.Len() == 0 {
		return nil, nil
	}
	return s.outputBuffer.ReadSlice(n)
}

// ReadFloats removes and returns up to n frames as normalised float64.
func (s *Stream) ReadFloats(n int) ([]float64, error) {
	slice, err := s.Read(n)
	if err != nil || len(slice) == 0 {
		return nil, err
	}
	out := make([]float64, len(slice))
	for i, v := range slice {
		out[i] = s16ToFloat(v)
	}
	return out, nil
}

// ReadBytes removes and returns up to n frames as unsigned-8.
func (s *Stream) ReadBytes(n int) ([]uint8, error) {
	slice, err := s.Read(n)
	if err != nil || len(slice) == 0 {
		return nil, err
	}
	out := make([]uint8, len(slice))
	for i, v := range slice {
		out[i] = s16ToByte(v)
	}
	return out, nil
}

// ReadAll drains every staged frame.
func (s *Stream) ReadAll() ([]int16, error) {
	return s.Read(s.outputBuffer.Len())
}

// --- drain loop ----------------------------------------------------------

// effectiveRates resolves the synthesis speed and resample step for the
// current parameters. A pitch shift is always realised by resampling
// (spec §4.5, f = rate/pitch) — there is no way to change frequency by
// moving the OLA splice point alone. Two strategies fold pitch in
// differently (spec §4.5, GLOSSARY "Chord pitch"):
//
//   - chordPitch off (default): synthesis runs at speed/pitch, which by
//     itself stretches or compresses the signal by 1/pitch; the
//     resampler then applies pitch/rate, which both undoes that stretch
//     and performs the actual frequency shift. Net duration depends only
//     on speed and rate.
//   - chordPitch on: synthesis runs at speed*pitch instead, and the
//     resampler applies 1/(rate*pitch) to compensate. This trades
//     formant fidelity for simplicity, per the glossary, but lands on
//     the same net duration.
//
// In both modes the non-linear speed map, when enabled, is applied to
// the synthesis speed only, after any chord fold.
func (s *Stream) effectiveRates() (synthSpeed, resampleStep float64) {
	if s.useChordPitch {
		synthSpeed = s.speed * s.pitch
	} else {
		synthSpeed = s.speed / s.pitch
	}
	if s.nonlinearSpeedup && synthSpeed > 1 {
		synthSpeed = nonlinearSpeed(synthSpeed)
	}

	if s.useChordPitch {
		resampleStep = 1.0 / (s.rate * s.pitch)
	} else {
		resampleStep = s.pitch / s.rate
	}
	return synthSpeed, resampleStep
}

func approxOne(v float64) bool { return math.Abs(v-1) < epsilon }

// drain runs the scheduling loop of spec §4.6 while enough input is
// buffered, pushing newly synthesised frames through the resampler and
// volume stage into the output buffer.
func (s *Stream) drain() error {
	for s.inputBuffer.Len() >= s.maxRequired {
		if err := s.drainOnce(false); err != nil {
			return err
		}
	}
	return nil
}

// drainOnce runs one iteration of the inner loop. final is set only by
// Flush's last pass, over input zero-padded to exactly maxRequired
// frames, so it also flushes the rate resampler's lookahead.
func (s *Stream) drainOnce(final bool) error {
	outerCur := s.outputBuffer.Len()
	synthSpeed, resampleStep := s.effectiveRates()

	if s.remainingInputToCopy > 0 {
		if err := s.copyRemainingInput(); err != nil {
			return err
		}
	} else {
		fastPath := approxOne(resampleStep) && approxOne(synthSpeed)
		if s.quality {
			fastPath = s.speed == 1 && s.pitch == 1 && s.rate == 1
		}

		if fastPath || approxOne(synthSpeed) {
			n := s.maxRequired
			if n > s.inputBuffer.Len() {
				n = s.inputBuffer.Len()
			}
			if err := s.inputBuffer.MoveTo(s.outputBuffer, n); err != nil {
				return err
			}
		} else {
			period, err := s.findPitchPeriod(true)
			if err != nil {
				return err
			}

			if synthSpeed > 1 {
				if _, err := s.skipPitchPeriod(synthSpeed, period); err != nil {
					return err
				}
			} else {
				if _, err := s.insertPitchPeriod(synthSpeed, period); err != nil {
					return err
				}
			}
		}
	}

	if !approxOne(resampleStep) {
		synthSlice, err := s.outputBuffer.ReadSliceAt(outerCur)
		if err != nil && err != io.EOF {
			return err
		}
		if len(synthSlice) > 0 {
			buf := make([]int16, len(synthSlice))
			copy(buf, synthSlice)
			if err := s.adjustRate(resampleStep, buf); err != nil {
				return err
			}
			if final {
				if err := s.adjustRateFlush(resampleStep); err != nil {
					return err
				}
			}
		}
	}

	if s.volume != 1.0 {
		if err := s.outputBuffer.Scale(outerCur, s.volume); err != nil {
			return err
		}
	}

	s.totalOutput += s.outputBuffer.Len() - outerCur
	return nil
}

// Flush forces out whatever tail the stream can still produce, per spec
// §4.6: drain normally, then keep padding the remainder to a full window
// with silence and running drain passes until every real frame has been
// consumed, the last pass running over padding alone so that it also
// flushes the rate resampler's lookahead; finally trim the output back to
// the length the clean (unpadded) input actually warrants. Leftover
// padding, and any copy obligation it created, is discarded. Flush is
// idempotent: a second call with no intervening writes finds nothing left
// to pad or trim, since totalOutput was already clamped to the target.
func (s *Stream) Flush() error {
	if err := s.drain(); err != nil {
		return err
	}

	if s.inputBuffer.Len() > 0 || s.remainingInputToCopy > 0 {
		for real := s.inputBuffer.Len(); ; {
			pad := s.maxRequired - s.inputBuffer.Len()
			if pad > 0 {
				if _, err := s.inputBuffer.WriteEmpty(pad); err != nil {
					return err
				}
			}
			before := s.inputBuffer.Len()
			if err := s.drainOnce(real <= 0); err != nil {
				return err
			}
			if consumed := before - s.inputBuffer.Len(); real > 0 && consumed > 0 {
				real -= consumed
				continue
			}
			break
		}
		s.inputBuffer.Truncate(0)
		s.remainingInputToCopy = 0
	}

	target := s.expectedOutputFrames()
	if excess := s.totalOutput - target; excess > 0 {
		newLen := s.outputBuffer.Len() - excess
		if newLen < 0 {
			newLen = 0
		}
		s.outputBuffer.Truncate(newLen)
		s.totalOutput = target
	}
	return nil
}

// expectedOutputFrames is the duration invariant of spec §8 for the
// linear case (nonlinearSpeedup off): total output frames scale with
// rate and inversely with speed; pitch cancels out of duration in both
// pitch strategies by construction (see effectiveRates).
func (s *Stream) expectedOutputFrames() int {
	if s.totalInput == 0 {
		return 0
	}
	ratio := s.rate / s.speed
	return int(math.Round(float64(s.totalInput) * ratio))
}
