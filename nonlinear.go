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

// nonlinearBreakpoints is the piecewise-linear speed curve of spec §4.7:
// already-fast speech is sped up less aggressively than a literal linear
// factor would. Fixed at (1, 1) and clamped outside [1, 6].
var nonlinearBreakpoints = [...][2]float64{
	{1.0, 1.0},
	{1.5, 1.4},
	{2.0, 1.7},
	{3.0, 2.1},
	{4.0, 2.4},
	{6.0, 2.9},
}

// nonlinearSpeed maps a requested speed to the adjusted speed actually
// applied to the next period, per the curve above. It is a pure function
// of speed alone, not of history.
func nonlinearSpeed(speed float64) float64 {
	if speed <= nonlinearBreakpoints[0][0] {
		return nonlinearBreakpoints[0][1]
	}
	last := len(nonlinearBreakpoints) - 1
	if speed >= nonlinearBreakpoints[last][0] {
		return nonlinearBreakpoints[last][1]
	}

	for i := 1; i <= last; i++ {
		x0, y0 := nonlinearBreakpoints[i-1][0], nonlinearBreakpoints[i-1][1]
		x1, y1 := nonlinearBreakpoints[i][0], nonlinearBreakpoints[i][1]
		if speed <= x1 {
			t := (speed - x0) / (x1 - x0)
			return y0 + t*(y1-y0)
		}
	}
	return speed
}
