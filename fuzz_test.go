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
	"encoding/binary"
	"testing"
)

// FuzzStream feeds arbitrary bytes through a Stream the way the reference
// library's libFuzzer harness does: the first few bytes pick sample rate,
// channel count, speed and pitch, and the remainder is reinterpreted as
// signed-16 samples. The property under test is purely "never panics, never
// returns an error on well-formed input" - there is no reference output to
// compare against.
func FuzzStream(f *testing.F) {
	f.Add([]byte{0, 0, 32, 32, 1, 2, 3, 4, 5, 6, 7, 8})
	f.Add(make([]byte, 4))
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) < 4 {
			return
		}

		sampleRate := 8000 + int(data[0])*100
		numChannels := int(data[1])%2 + 1

		s := NewStream(sampleRate, numChannels)
		defer s.Destroy()

		speed := 0.5 + float64(data[2])/64.0
		pitch := 0.5 + float64(data[3])/64.0
		s.SetSpeed(speed)
		s.SetPitch(pitch)

		rest := data[4:]
		frameBytes := 2 * numChannels
		numFrames := len(rest) / frameBytes
		if numFrames > 0 {
			samples := make([]int16, numFrames*numChannels)
			for i := range samples {
				samples[i] = int16(binary.LittleEndian.Uint16(rest[i*2:]))
			}
			if err := s.Write(samples); err != nil {
				t.Fatalf("Write: %v", err)
			}
			for {
				out, err := s.Read(1024)
				if err != nil {
					t.Fatalf("Read: %v", err)
				}
				if len(out) == 0 {
					break
				}
			}
		}

		if err := s.Flush(); err != nil {
			t.Fatalf("Flush: %v", err)
		}
	})
}

// FuzzParameterClamping mirrors the reference's input_clamping_test.c: every
// setter must clamp into its documented range regardless of the value given,
// and must never panic.
func FuzzParameterClamping(f *testing.F) {
	f.Add(0.0)
	f.Add(1.0)
	f.Add(1e12)
	f.Add(-1e12)

	f.Fuzz(func(t *testing.T, v float64) {
		s := NewStream(44100, 1)
		defer s.Destroy()

		s.SetSpeed(v)
		if g := s.GetSpeed(); g < MinSpeed || g > MaxSpeed {
			t.Fatalf("GetSpeed() = %v out of [%v, %v]", g, MinSpeed, MaxSpeed)
		}
		s.SetPitch(v)
		if g := s.GetPitch(); g < MinPitchF || g > MaxPitchF {
			t.Fatalf("GetPitch() = %v out of [%v, %v]", g, MinPitchF, MaxPitchF)
		}
		s.SetRate(v)
		if g := s.GetRate(); g < MinRate || g > MaxRate {
			t.Fatalf("GetRate() = %v out of [%v, %v]", g, MinRate, MaxRate)
		}
		s.SetVolume(v)
		if g := s.GetVolume(); g < MinVolume || g > MaxVolume {
			t.Fatalf("GetVolume() = %v out of [%v, %v]", g, MinVolume, MaxVolume)
		}
	})
}
