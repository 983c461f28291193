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

import "math"

// adjustRate resamples slice (freshly synthesised output, already removed
// from outputBuffer by the caller) by factor and appends the result back
// onto outputBuffer. It carries a fractional phase (ratePos) and a
// one-frame lookahead in rateBuffer across calls, so that streaming
// produces the same samples a single call over the concatenated input
// would (spec §4.5).
func (s *Stream) adjustRate(factor float64, slice []int16) error {
	if err := s.rateBuffer.WriteSlice(slice); err != nil {
		return err
	}

	for {
		i0 := int(s.ratePos)
		if i0 < 0 {
			i0 = 0
		}
		if i0+1 >= s.rateBuffer.Len() {
			break
		}
		alpha := s.ratePos - float64(i0)

		cur, err := s.outputBuffer.WriteEmpty(1)
		if err != nil {
			return err
		}
		for c := 0; c < s.numChannels; c++ {
			x0, err := s.rateBuffer.GetChannel(i0, c)
			if err != nil {
				return err
			}
			x1, err := s.rateBuffer.GetChannel(i0+1, c)
			if err != nil {
				return err
			}
			y := (1-alpha)*float64(x0) + alpha*float64(x1)
			s.outputBuffer.SetChannel(cur, c, clampS16(int(math.Round(y))))
		}
		s.ratePos += factor
	}

	if drop := int(s.ratePos); drop > 0 {
		if drop > s.rateBuffer.Len()-1 {
			drop = s.rateBuffer.Len() - 1
		}
		if drop > 0 {
			if err := s.rateBuffer.DropSlice(drop); err != nil {
				return err
			}
			s.ratePos -= float64(drop)
		}
	}
	return nil
}

// adjustRateFlush drains whatever the resampler can still produce from
// its buffered lookahead frame by duplicating the final frame, per spec
// §4.5 ("during flush, it is duplicated"), instead of waiting on input
// that will never arrive.
func (s *Stream) adjustRateFlush(factor float64) error {
	if s.rateBuffer.Len() == 0 {
		return nil
	}
	last, err := s.rateBuffer.GetSlice(s.rateBuffer.Len())
	if err != nil {
		return err
	}
	tail := make([]int16, s.numChannels)
	copy(tail, last[len(last)-s.numChannels:])
	return s.adjustRate(factor, tail)
}
