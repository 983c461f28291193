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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkipPitchPeriodSpeedAtLeast2(t *testing.T) {
	s := NewStream(8000, 1)
	const period = 80
	require.NoError(t, s.inputBuffer.AddSamples(sine(8000.0/period, 8000, period*4)))

	n, err := s.skipPitchPeriod(2.0, period)
	require.NoError(t, err)
	assert.Equal(t, period/(2-1), n) // round(period/(speed-1)) for speed==2
	assert.Equal(t, 0, s.remainingInputToCopy)
}

func TestSkipPitchPeriodSpeedBetween1And2SetsRemaining(t *testing.T) {
	s := NewStream(8000, 1)
	const period = 80
	require.NoError(t, s.inputBuffer.AddSamples(sine(8000.0/period, 8000, period*4)))

	_, err := s.skipPitchPeriod(1.2, period)
	require.NoError(t, err)
	assert.Greater(t, s.remainingInputToCopy, 0)
}

func TestInsertPitchPeriodSpeedAtMost0_5(t *testing.T) {
	s := NewStream(8000, 1)
	const period = 80
	require.NoError(t, s.inputBuffer.AddSamples(sine(8000.0/period, 8000, period*4)))

	_, err := s.insertPitchPeriod(0.5, period)
	require.NoError(t, err)
	assert.Equal(t, 0, s.remainingInputToCopy)
}

func TestInsertPitchPeriodSpeedBetween0_5And1SetsRemaining(t *testing.T) {
	s := NewStream(8000, 1)
	const period = 80
	require.NoError(t, s.inputBuffer.AddSamples(sine(8000.0/period, 8000, period*4)))

	_, err := s.insertPitchPeriod(0.8, period)
	require.NoError(t, err)
	assert.Greater(t, s.remainingInputToCopy, 0)
}

func TestCopyRemainingInputDrainsObligationExactly(t *testing.T) {
	s := NewStream(8000, 1)
	require.NoError(t, s.inputBuffer.AddSamples(make([]int16, 500)))
	s.remainingInputToCopy = 200

	require.NoError(t, s.copyRemainingInput())
	assert.Equal(t, 0, s.remainingInputToCopy)
	assert.Equal(t, 200, s.outputBuffer.Len())
	assert.Equal(t, 300, s.inputBuffer.Len())
}

func TestBlendReproducesConstantSignal(t *testing.T) {
	s := NewStream(8000, 1)
	// two periods of constant value: every blend weight combination must
	// reproduce the constant exactly, by construction of the weighted average.
	require.NoError(t, s.inputBuffer.AddSamples([]int16{100, 100, 100, 100}))
	cur, err := s.outputBuffer.WriteEmpty(2)
	require.NoError(t, err)
	require.NoError(t, s.blend(cur, 2, 2, false))
	out, _ := s.outputBuffer.GetSlice(s.outputBuffer.Len())
	for _, v := range out {
		assert.Equal(t, int16(100), v)
	}
}
