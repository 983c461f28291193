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

// blend overlaps two copies of a pitch period that are `period` frames
// apart, starting at input frame 0, and writes numSamples blended frames
// starting at output frame index cur. When swap is false this is the
// skip-side blend (the near copy fades out, the far one fades in); when
// swap is true it is the insert-side blend, which weights the two copies
// in the opposite order (spec §4.4 notes the weights are swapped between
// the two cases). Ties round toward zero via truncating integer
// division, matching the reference for bit-exact saturation behaviour.
func (s *Stream) blend(cur, numSamples, period int, swap bool) error {
	for i := 0; i < numSamples; i++ {
		w1, w2 := numSamples-i, i
		if swap {
			w1, w2 = w2, w1
		}
		for c := 0; c < s.numChannels; c++ {
			dv, err := s.inputBuffer.GetChannel(i, c)
			if err != nil {
				return err
			}
			uv, err := s.inputBuffer.GetChannel(i+period, c)
			if err != nil {
				return err
			}
			v := (int(dv)*w1 + int(uv)*w2) / numSamples
			s.outputBuffer.SetChannel(cur+i, c, clampS16(v))
		}
	}
	return nil
}

// skipPitchPeriod implements spec §4.4 case A (speed > 1): emit one
// blended period and skip the rest, returning the number of frames of
// output this pass produced.
func (s *Stream) skipPitchPeriod(speed float64, period int) (int, error) {
	var newFrames int
	if speed >= 2.0 {
		newFrames = int(math.Round(float64(period) / (speed - 1.0)))
	} else {
		newFrames = period
		s.remainingInputToCopy = int(math.Round(float64(period) * (2 - speed) / (speed - 1.0)))
	}

	cur, err := s.outputBuffer.WriteEmpty(newFrames)
	if err != nil {
		return 0, err
	}
	if err := s.blend(cur, newFrames, period, false); err != nil {
		return 0, err
	}
	if err := s.inputBuffer.DropSlice(newFrames + period); err != nil {
		return 0, err
	}
	return newFrames, nil
}

// insertPitchPeriod implements spec §4.4 case B (speed < 1): copy the
// period unchanged, then append a blended tail, duplicating material to
// slow the stream down.
func (s *Stream) insertPitchPeriod(speed float64, period int) (int, error) {
	var newFrames int
	if speed <= 0.5 {
		newFrames = int(math.Round(float64(period) * speed / (1.0 - speed)))
	} else {
		newFrames = period
		s.remainingInputToCopy = int(math.Round(float64(period) * (2*speed - 1) / (1.0 - speed)))
	}

	if err := s.inputBuffer.CopyTo(s.outputBuffer, period); err != nil {
		return 0, err
	}

	cur, err := s.outputBuffer.WriteEmpty(newFrames)
	if err != nil {
		return 0, err
	}
	if err := s.blend(cur, newFrames, period, true); err != nil {
		return 0, err
	}
	if err := s.inputBuffer.DropSlice(newFrames); err != nil {
		return 0, err
	}
	return newFrames, nil
}

// copyRemainingInput performs the direct-copy obligation of spec §4.4:
// whenever a period transition left over raw input still owed to the
// output, it must be moved verbatim before the next period search runs.
func (s *Stream) copyRemainingInput() error {
	n := s.remainingInputToCopy
	if n > s.maxRequired {
		n = s.maxRequired
	}
	if n > s.inputBuffer.Len() {
		n = s.inputBuffer.Len()
	}
	if err := s.inputBuffer.MoveTo(s.outputBuffer, n); err != nil {
		return err
	}
	s.remainingInputToCopy -= n
	return nil
}
