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

// ChangeParams bundles every scalar knob a one-shot conversion exposes,
// so the three ChangeXSpeed helpers below (and external callers such as
// cmd/sonic-go) share one parameter shape.
type ChangeParams struct {
	Speed, Pitch, Rate, Volume float64
	Quality, Chord, Nonlinear  bool
}

func newParamStream(sampleRate, numChannels int, p ChangeParams) *Stream {
	s := NewStream(sampleRate, numChannels)
	s.SetSpeed(p.Speed)
	s.SetPitch(p.Pitch)
	s.SetRate(p.Rate)
	s.SetVolume(p.Volume)
	s.SetQuality(p.Quality)
	s.SetChordPitch(p.Chord)
	s.SetNonlinear(p.Nonlinear)
	return s
}

// ChangeSpeed runs a whole buffer of interleaved signed-16 samples
// through a one-shot Stream and returns the result. It is a convenience
// wrapper around write-then-flush-then-read-all for callers that are
// not themselves streaming.
func ChangeSpeed(sampleRate, numChannels int, speed, pitch, rate, volume float64, samples []int16) ([]int16, error) {
	s := newParamStream(sampleRate, numChannels, ChangeParams{Speed: speed, Pitch: pitch, Rate: rate, Volume: volume})
	if err := s.Write(samples); err != nil {
		return nil, err
	}
	if err := s.Flush(); err != nil {
		return nil, err
	}
	return s.ReadAll()
}

// ChangeFloatSpeed is ChangeSpeed for normalised float64 samples.
func ChangeFloatSpeed(sampleRate, numChannels int, speed, pitch, rate, volume float64, samples []float64) ([]float64, error) {
	s := newParamStream(sampleRate, numChannels, ChangeParams{Speed: speed, Pitch: pitch, Rate: rate, Volume: volume})
	if err := s.WriteFloats(samples); err != nil {
		return nil, err
	}
	if err := s.Flush(); err != nil {
		return nil, err
	}
	return s.ReadFloats(s.SamplesAvailable())
}

// ChangeByteSpeed is ChangeSpeed for unsigned-8 samples.
func ChangeByteSpeed(sampleRate, numChannels int, speed, pitch, rate, volume float64, samples []uint8) ([]uint8, error) {
	s := newParamStream(sampleRate, numChannels, ChangeParams{Speed: speed, Pitch: pitch, Rate: rate, Volume: volume})
	if err := s.WriteBytes(samples); err != nil {
		return nil, err
	}
	if err := s.Flush(); err != nil {
		return nil, err
	}
	return s.ReadBytes(s.SamplesAvailable())
}
