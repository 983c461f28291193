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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sine synthesizes n mono frames of a full-scale sine at freqHz, sampleRate Hz.
func sine(freqHz, sampleRate float64, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = floatToS16(math.Sin(2 * math.Pi * freqHz * float64(i) / sampleRate))
	}
	return out
}

func abs16(v int16) int16 {
	if v < 0 {
		return -v
	}
	return v
}

func TestChangeSpeedSine2x(t *testing.T) {
	const sampleRate = 22050
	const freq = 22050.0 / 110.0 // exact integer period of 110 frames
	input := sine(freq, sampleRate, 22050)

	out, err := ChangeSpeed(sampleRate, 1, 2.0, 1, 1, 1, input)
	require.NoError(t, err)

	assert.InDelta(t, 11025, len(out), 1)

	var peak int16
	for _, v := range out {
		if abs16(v) > peak {
			peak = abs16(v)
		}
	}
	assert.Greater(t, int(peak), int(ShrtMax)*90/100, "output should retain near-full-scale amplitude")
}

func TestChangeSpeedSilence(t *testing.T) {
	input := make([]int16, 10000)
	out, err := ChangeSpeed(44100, 1, 1, 1, 1, 1, input)
	require.NoError(t, err)
	assert.InDelta(t, 10000, len(out), 1)
	for i, v := range out {
		require.Equalf(t, int16(0), v, "sample %d not silent", i)
	}
}

func TestChangeSpeedFlushWithoutWrite(t *testing.T) {
	s := NewStream(44100, 1)
	require.NoError(t, s.Flush())
	got, err := s.Read(16)
	require.NoError(t, err)
	assert.Empty(t, got)
	s.Destroy()
}

func TestChunkingInvariance(t *testing.T) {
	const sampleRate = 44100
	input := sine(220, sampleRate, 44100)
	// add a second partial to make it less perfectly periodic, like speech.
	for i, v := range sine(440, sampleRate, 44100) {
		input[i] = clampS16(int(v)/2 + int(input[i])/2)
	}

	whole, err := ChangeSpeed(sampleRate, 1, 1.5, 1.1, 1, 1, input)
	require.NoError(t, err)

	s := NewStream(sampleRate, 1)
	s.SetSpeed(1.5)
	s.SetPitch(1.1)
	var chunked []int16
	for i := 0; i < len(input); i += 100 {
		end := i + 100
		if end > len(input) {
			end = len(input)
		}
		require.NoError(t, s.Write(input[i:end]))
		out, err := s.Read(s.SamplesAvailable())
		require.NoError(t, err)
		chunked = append(chunked, out...)
	}
	require.NoError(t, s.Flush())
	out, err := s.Read(s.SamplesAvailable())
	require.NoError(t, err)
	chunked = append(chunked, out...)

	assert.Equal(t, whole, chunked)
}

func TestVolumeSaturatesWithoutWraparound(t *testing.T) {
	square := make([]int16, 4000)
	for i := range square {
		if i%2 == 0 {
			square[i] = ShrtMax
		} else {
			square[i] = ShrtMin
		}
	}

	out, err := ChangeSpeed(8000, 1, 1, 1, 1, 10.0, square)
	require.NoError(t, err)
	for _, v := range out {
		assert.Truef(t, v == ShrtMax || v == ShrtMin || v == 0, "sample %d out of saturated set", v)
	}
}

func TestParameterClamping(t *testing.T) {
	s := NewStream(44100, 2)

	s.SetSpeed(0.0)
	assert.Equal(t, MinSpeed, s.GetSpeed())
	s.SetSpeed(1e9)
	assert.Equal(t, MaxSpeed, s.GetSpeed())

	s.SetPitch(0.0)
	assert.Equal(t, MinPitchF, s.GetPitch())
	s.SetPitch(1e9)
	assert.Equal(t, MaxPitchF, s.GetPitch())

	s.SetRate(0.0)
	assert.Equal(t, MinRate, s.GetRate())
	s.SetRate(1e9)
	assert.Equal(t, MaxRate, s.GetRate())

	s.SetVolume(0.0)
	assert.Equal(t, MinVolume, s.GetVolume())
	s.SetVolume(1e9)
	assert.Equal(t, MaxVolume, s.GetVolume())

	s.SetSampleRate(0)
	assert.Equal(t, MinSampleRate, s.GetSampleRate())
	s.SetSampleRate(1_000_000)
	assert.Equal(t, MaxSampleRate, s.GetSampleRate())

	s.SetNumChannels(0)
	assert.Equal(t, MinChannels, s.GetNumChannels())
	s.SetNumChannels(1000)
	assert.Equal(t, MaxChannels, s.GetNumChannels())
}

func TestSteadyStateIsBitExact(t *testing.T) {
	input := sine(300, 16000, 8000)
	out, err := ChangeSpeed(16000, 1, 1, 1, 1, 1, input)
	require.NoError(t, err)
	require.InDelta(t, len(input), len(out), 1)
	for i := range out {
		assert.Equal(t, input[i], out[i])
	}
}

func TestChangeFloatAndByteSpeedRoundTrip(t *testing.T) {
	floats := make([]float64, 2000)
	for i := range floats {
		floats[i] = math.Sin(2 * math.Pi * 150 * float64(i) / 8000)
	}
	out, err := ChangeFloatSpeed(8000, 1, 1, 1, 1, 1, floats)
	require.NoError(t, err)
	assert.InDelta(t, len(floats), len(out), 1)

	bytes := make([]uint8, 2000)
	for i := range bytes {
		bytes[i] = uint8(128 + i%128)
	}
	bout, err := ChangeByteSpeed(8000, 1, 1, 1, 1, 1, bytes)
	require.NoError(t, err)
	assert.InDelta(t, len(bytes), len(bout), 1)
}
