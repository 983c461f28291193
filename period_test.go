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
)

func TestAMDFSearchFindsExactPeriod(t *testing.T) {
	const period = 80
	samples := sine(8000.0/period, 8000, period*6)

	res := amdfSearch(samples, 40, 160)
	assert.InDelta(t, period, res.period, 2)
}

func TestAMDFPeriodClampsToWindow(t *testing.T) {
	// fewer samples than 2*maxPeriod at this rate: must not go out of range.
	samples := make([]int16, 40)
	p := AMDFPeriod(samples, 8000)
	minP := 8000 / MaxPitch
	if minP < 1 {
		minP = 1
	}
	assert.GreaterOrEqual(t, p, minP)
}

func TestPrevPeriodBetterFallback(t *testing.T) {
	s := NewStream(8000, 1)
	s.prevPeriod = 100
	s.prevMinDiff = 5

	assert.True(t, s.prevPeriodBetter(50, 60, false))
	assert.False(t, s.prevPeriodBetter(0, 0, false))

	// preferNewPeriod: only falls back when the new candidate is a much
	// worse, ambiguous match relative to the previous one.
	assert.True(t, s.prevPeriodBetter(20, 21, true))
	assert.False(t, s.prevPeriodBetter(3, 100, true))
}
