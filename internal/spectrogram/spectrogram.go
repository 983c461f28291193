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

// Package spectrogram renders a pitch-synchronous spectrogram of a mono
// signal: one FFT per estimated pitch period, stacked into columns and
// resampled into a fixed-size grayscale bitmap. It is a collaborator of
// the core engine (it reuses sonic.AMDFPeriod for period marching) but
// never touches the streaming drain path itself.
package spectrogram

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/aelius-audio/sonic"
)

// Spectrogram accumulates one power spectrum per pitch period as a
// signal is marched through, then resamples the whole sequence into an
// arbitrary-size bitmap.
type Spectrogram struct {
	spectra [][]float64 // each entry: power per frequency bin, DC bin dropped
}

// New creates an empty spectrogram.
func New() *Spectrogram {
	return &Spectrogram{}
}

// Build marches mono, sampleRate Hz samples period by period, estimating
// each pitch period with sonic.AMDFPeriod and adding its spectrum.
func Build(samples []int16, sampleRate int) *Spectrogram {
	sg := New()
	pos := 0
	for pos+2*minPeriodFloor(sampleRate) <= len(samples) {
		period := sonic.AMDFPeriod(samples[pos:], sampleRate)
		if period <= 0 || pos+2*period > len(samples) {
			break
		}
		sg.AddPeriod(samples[pos:pos+2*period], period)
		pos += period
	}
	return sg
}

func minPeriodFloor(sampleRate int) int {
	p := sampleRate / sonic.MaxPitch
	if p < 1 {
		return 1
	}
	return p
}

// AddPeriod windows two periods' worth of samples with a raised-cosine
// cross-fade (an overlap-add, per the original spectrogram collaborator)
// and adds the FFT power spectrum of the result, dropping the DC bin.
func (sg *Spectrogram) AddPeriod(samples []int16, period int) {
	if len(samples) < 2*period || period < 2 {
		return
	}

	windowed := make([]float64, period)
	for i := 0; i < period; i++ {
		w := math.Sin(math.Pi * float64(i) / (2 * float64(period)))
		windowed[i] = w*float64(samples[i]) + (1-w)*float64(samples[i+period])
	}

	fft := fourier.NewFFT(period)
	coeffs := fft.Coefficients(nil, windowed)

	power := make([]float64, len(coeffs)-1)
	for i := 1; i < len(coeffs); i++ {
		power[i-1] = math.Hypot(real(coeffs[i]), imag(coeffs[i]))
	}
	sg.spectra = append(sg.spectra, power)
}

func (sg *Spectrogram) interpolateSpectrum(col, row, numRows int) float64 {
	spectrum := sg.spectra[col]
	numFreqs := len(spectrum)
	row = numRows - row - 1

	topIndex := numFreqs * row / numRows
	remainder := numFreqs*row - topIndex*numRows
	top := spectrum[topIndex]
	if remainder == 0 || topIndex+1 >= numFreqs {
		return top
	}
	bottom := spectrum[topIndex+1]
	pos := float64(remainder) / float64(numRows)
	return (1-pos)*top + pos*bottom
}

func (sg *Spectrogram) interpolate(row, col, numRows, numCols int) float64 {
	n := len(sg.spectra)
	leftIndex := n * col / numCols
	remainder := n*col - leftIndex*numCols
	left := sg.interpolateSpectrum(leftIndex, row, numRows)
	if remainder == 0 || leftIndex+1 >= n {
		return left
	}
	right := sg.interpolateSpectrum(leftIndex+1, row, numRows)
	pos := float64(remainder) / float64(numCols)
	return (1-pos)*left + pos*right
}

// ToBitmap resamples the accumulated spectra into a numRows x numCols
// grid of bytes, linearly scaling log-power into [0, 255].
func (sg *Spectrogram) ToBitmap(numRows, numCols int) ([]byte, error) {
	if len(sg.spectra) == 0 {
		return nil, fmt.Errorf("sonic/spectrogram: no periods accumulated")
	}

	grid := make([]float64, numRows*numCols)
	minP, maxP := math.MaxFloat64, -math.MaxFloat64
	for row := 0; row < numRows; row++ {
		for col := 0; col < numCols; col++ {
			v := math.Log1p(sg.interpolate(row, col, numRows, numCols))
			grid[row*numCols+col] = v
			if v < minP {
				minP = v
			}
			if v > maxP {
				maxP = v
			}
		}
	}

	out := make([]byte, numRows*numCols)
	rng := maxP - minP
	if rng == 0 {
		rng = 1
	}
	for i, v := range grid {
		value := int(((v - minP) / rng) * 256)
		if value > 255 {
			value = 255
		}
		if value < 0 {
			value = 0
		}
		out[i] = byte(value)
	}
	return out, nil
}

// WritePGM renders the spectrogram to w, as a binary (P5) PGM image of
// numCols x numRows pixels.
func (sg *Spectrogram) WritePGM(w io.Writer, numRows, numCols int) error {
	bitmap, err := sg.ToBitmap(numRows, numCols)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P5\n%d %d\n255\n", numCols, numRows); err != nil {
		return err
	}
	if _, err := bw.Write(bitmap); err != nil {
		return err
	}
	return bw.Flush()
}
