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

// periodResult is the outcome of one AMDF search pass: the best-matching
// period, its per-sample difference, and the per-sample difference of the
// worst-matching period in the same range.
type periodResult struct {
	period  int
	minDiff int
	maxDiff int
}

// amdfSearch runs the Average Magnitude Difference Function over samples
// (a single-channel, unit-stride view — any channel mixing or
// down-sampling has already happened by the time this is called) for
// every candidate period in [minP, maxP], and returns the best and worst
// matches. samples must hold at least maxP*2 elements.
//
// The accept rule for the running best (and, symmetrically, the running
// worst) avoids a division: diff(p)*N* is compared against diff(p*)*N,
// where N is simply the candidate period since every call here already
// operates at unit stride.
func amdfSearch(samples []int16, minP, maxP int) periodResult {
	var bestPeriod, worstPeriod int
	var minDiffSum, maxDiffSum int

	for period := minP; period <= maxP; period++ {
		diff := 0
		for i := 0; i < period; i++ {
			v := int(samples[i]) - int(samples[i+period])
			if v < 0 {
				v = -v
			}
			diff += v
		}

		if bestPeriod == 0 || diff*bestPeriod < minDiffSum*period {
			minDiffSum = diff
			bestPeriod = period
		}
		if worstPeriod == 0 || diff*worstPeriod > maxDiffSum*period {
			maxDiffSum = diff
			worstPeriod = period
		}
	}

	return periodResult{
		period:  bestPeriod,
		minDiff: minDiffSum / bestPeriod,
		maxDiff: maxDiffSum / worstPeriod,
	}
}

// AMDFPeriod estimates the dominant pitch period, in frames, of a mono
// window at the given sample rate. It is exported for collaborators —
// namely the spectrogram renderer — that need a one-off period estimate
// without owning a full Stream.
func AMDFPeriod(samples []int16, sampleRate int) int {
	minP := sampleRate / MaxPitch
	if minP < 1 {
		minP = 1
	}
	maxP := sampleRate / MinPitch
	if maxP < minP {
		maxP = minP
	}
	if len(samples) < 2*maxP {
		maxP = len(samples) / 2
		if maxP < minP {
			return minP
		}
	}
	return amdfSearch(samples, minP, maxP).period
}

// computeSkip returns the down-sampling stride used to keep the AMDF
// search affordable at high sample rates. The quality flag disables it,
// trading speed for a full-resolution search every call.
func (s *Stream) computeSkip() int {
	if s.sampleRate > AmdfFreq && !s.quality {
		return s.sampleRate / AmdfFreq
	}
	return 1
}

// downSampleInput box-averages skip consecutive frames (mixing channels
// together in the same pass) from the front of the input buffer into the
// mono down-sample buffer, covering maxRequired frames.
func (s *Stream) downSampleInput(skip int) error {
	n := s.maxRequired / skip
	s.downSampleBuffer.Truncate(0)

	buf, err := s.inputBuffer.GetSlice(s.maxRequired)
	if err != nil {
		return err
	}

	skipCh := skip * s.numChannels
	idx := 0
	for i := 0; i < n; i++ {
		v := 0
		for j := 0; j < skipCh; j++ {
			v += int(buf[idx])
			idx++
		}
		v /= skipCh
		if err := s.downSampleBuffer.Buffer.Write(int16(v)); err != nil {
			return err
		}
	}
	return nil
}

// findPitchPeriod estimates the pitch period at the front of the input
// buffer, per spec §4.3: an optional coarse down-sampled pass followed by
// a full-resolution refinement, then the previous-period fallback.
func (s *Stream) findPitchPeriod(preferNewPeriod bool) (int, error) {
	minPeriod, maxPeriod := s.minPeriod, s.maxPeriod
	skip := s.computeSkip()

	var res periodResult
	if s.numChannels == 1 && skip == 1 {
		samples, err := s.inputBuffer.GetSlice(2 * maxPeriod)
		if err != nil {
			return 0, err
		}
		res = amdfSearch(samples, minPeriod, maxPeriod)
	} else {
		if err := s.downSampleInput(skip); err != nil {
			return 0, err
		}
		samples, err := s.downSampleBuffer.GetSlice(2 * (maxPeriod / skip))
		if err != nil {
			return 0, err
		}
		res = amdfSearch(samples, minPeriod/skip, maxPeriod/skip)

		if skip != 1 {
			period := res.period * skip
			lo := period - (skip << 2)
			hi := period + (skip << 2)
			if lo < s.minPeriod {
				lo = s.minPeriod
			}
			if hi > s.maxPeriod {
				hi = s.maxPeriod
			}

			if s.numChannels == 1 {
				samples, err := s.inputBuffer.GetSlice(2 * hi)
				if err != nil {
					return 0, err
				}
				res = amdfSearch(samples, lo, hi)
			} else {
				if err := s.downSampleInput(1); err != nil {
					return 0, err
				}
				samples, err := s.downSampleBuffer.GetSlice(2 * hi)
				if err != nil {
					return 0, err
				}
				res = amdfSearch(samples, lo, hi)
			}
		}
	}

	period := res.period
	if s.prevPeriodBetter(res.minDiff, res.maxDiff, preferNewPeriod) {
		period = s.prevPeriod
	}

	s.prevMinDiff = res.minDiff
	s.prevPeriod = res.period

	return period, nil
}

// prevPeriodBetter implements the previous-period fallback of spec §4.3:
// at the abrupt end of a voiced sound, the previous period estimate is
// sometimes a better match than whatever the current window scores best.
func (s *Stream) prevPeriodBetter(minDiff, maxDiff int, preferNewPeriod bool) bool {
	if minDiff == 0 || s.prevPeriod == 0 {
		return false
	}

	if preferNewPeriod {
		if maxDiff > minDiff*3 {
			return false
		}
		if minDiff*2 <= s.prevMinDiff*3 {
			return false
		}
		return true
	}

	return minDiff > s.prevMinDiff
}
