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
//
// NOTE: The code in this file has been adapted from the "bytes"
// package of the Go standard library
//
// The original copyright notice from the Go project for these parts is
// reproduced here:
//
// ========================================================================
// Copyright (c) 2009 The Go Authors. All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are
// met:
//
//    * Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//    * Redistributions in binary form must reproduce the above
// copyright notice, this list of conditions and the following disclaimer
// in the documentation and/or other materials provided with the
// distribution.
//    * Neither the name of Google Inc. nor the names of its
// contributors may be used to endorse or promote products derived from
// this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS
// "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT
// LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR
// A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT
// OWNER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT
// LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE,
// DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY
// THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT
// (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.
// ========================================================================

package sonic

import (
	"errors"
	"io"
)

// ErrTooLarge is returned when a buffer cannot grow to the requested size.
var ErrTooLarge = errors.New("sonic: buffer too large")

// maxInt is the largest representable int on this platform.
const maxInt = int(^uint(0) >> 1)

// Buffer is a generic expandable staging buffer. The unread region is
// buf[off:]; reads advance off, writes grow buf. SampleBuffer specializes
// it to int16 frames for the input/output/pitch/downsample staging areas.
type Buffer[T any] struct {
	buf []T
	off int
}

// NewBuffer creates an empty Buffer with the given initial capacity.
func NewBuffer[T any](initialCap int) *Buffer[T] {
	return &Buffer[T]{buf: make([]T, 0, initialCap)}
}

// Len returns the number of unread elements.
func (b *Buffer[T]) Len() int { return len(b.buf) - b.off }

// Cap returns the capacity of the backing slice.
func (b *Buffer[T]) Cap() int { return cap(b.buf) }

// Available returns how many elements can be appended before growing.
func (b *Buffer[T]) Available() int { return cap(b.buf) - len(b.buf) }

func (b *Buffer[T]) isEmpty() bool { return len(b.buf) <= b.off }

// Reset empties the buffer.
func (b *Buffer[T]) Reset() {
	b.buf = b.buf[:0]
	b.off = 0
}

// Truncate discards all but the first n unread elements.
func (b *Buffer[T]) Truncate(n int) {
	if n == 0 {
		b.Reset()
		return
	}
	if n < 0 || n > b.Len() {
		panic("sonic: truncation out of range")
	}
	b.buf = b.buf[:b.off+n]
}

// reserve guarantees room for n more elements past the current write
// cursor, sliding the unread region to the front of the backing array
// when that alone makes room. When the backing array must be replaced,
// the new capacity is capacity + capacity/2 + n: the amortised growth
// policy that keeps steady-state streaming allocation-free. Returns the
// index the caller should start writing n elements at, and extends Len
// by n.
func (b *Buffer[T]) reserve(n int) int {
	if n < 0 {
		panic("sonic: negative reserve")
	}
	m := b.Len()
	if free := cap(b.buf) - m; n <= free {
		if b.off > 0 {
			copy(b.buf, b.buf[b.off:])
		}
		b.off = 0
		b.buf = b.buf[:m+n]
		return m
	}

	needed := m + n
	newCap := cap(b.buf) + cap(b.buf)/2 + n
	if newCap < needed {
		newCap = needed
	}
	if newCap < 0 {
		panic(ErrTooLarge)
	}

	nb := growAlloc[T](needed, newCap)
	copy(nb, b.buf[b.off:])
	b.buf = nb
	b.off = 0
	return m
}

// growAlloc allocates a new backing slice, converting an allocation
// panic into ErrTooLarge.
func growAlloc[T any](length, capacity int) (nb []T) {
	defer func() {
		if recover() != nil {
			panic(ErrTooLarge)
		}
	}()
	return make([]T, length, capacity)
}

// Grow reserves capacity for n more elements without changing Len.
func (b *Buffer[T]) Grow(n int) {
	if n < 0 {
		panic("sonic: negative count")
	}
	l := b.Len()
	b.reserve(n)
	b.buf = b.buf[:b.off+l]
}

// Write appends a single element, growing the buffer as needed.
func (b *Buffer[T]) Write(v T) error {
	m := b.reserve(1)
	b.buf[m] = v
	return nil
}

// WriteAt overwrites the element at unread-relative position n.
func (b *Buffer[T]) WriteAt(n int, v T) {
	if b.Len() <= n {
		panic("sonic: wrong position to write at")
	}
	b.buf[b.off+n] = v
}

// WriteSlice appends the elements of slice, growing the buffer as needed.
func (b *Buffer[T]) WriteSlice(slice []T) error {
	if len(slice) == 0 {
		return nil
	}
	m := b.reserve(len(slice))
	copy(b.buf[m:], slice)
	return nil
}

// Read reads and removes the next element.
func (b *Buffer[T]) Read() (T, error) {
	if b.isEmpty() {
		var zero T
		b.Reset()
		return zero, io.EOF
	}
	v := b.buf[b.off]
	b.off++
	return v, nil
}

// DropSlice discards the next n unread elements (clamped to Len).
func (b *Buffer[T]) DropSlice(n int) error {
	if b.isEmpty() {
		b.Reset()
		return nil
	}
	if m := b.Len(); n > m {
		n = m
	}
	b.off += n
	return nil
}

// ReadSlice reads and removes up to n elements.
func (b *Buffer[T]) ReadSlice(n int) ([]T, error) {
	if b.isEmpty() {
		b.Reset()
		return nil, io.EOF
	}
	if m := b.Len(); n > m {
		n = m
	}
	slice := b.buf[b.off : b.off+n]
	b.off += n
	return slice, nil
}

// ReadSliceAt returns everything from position at to the end, and
// truncates the buffer so that region is considered consumed.
func (b *Buffer[T]) ReadSliceAt(at int) ([]T, error) {
	if b.isEmpty() {
		b.Reset()
		return nil, io.EOF
	}
	if at < 0 || at > b.Len() {
		panic("sonic: out of range")
	}
	slice := b.buf[b.off+at:]
	b.buf = b.buf[:b.off+at]
	return slice, nil
}

// GetSlice returns up to n unread elements without removing them.
func (b *Buffer[T]) GetSlice(n int) ([]T, error) {
	if b.isEmpty() {
		b.Reset()
		return nil, io.EOF
	}
	if m := b.Len(); n > m {
		n = m
	}
	return b.buf[b.off : b.off+n], nil
}

// GetSliceAtN returns n elements starting at unread-relative position at,
// without removing them.
func (b *Buffer[T]) GetSliceAtN(at, n int) ([]T, error) {
	if b.isEmpty() {
		b.Reset()
		return nil, io.EOF
	}
	if at < 0 || n < 0 || at+n > b.Len() {
		panic("sonic: out of range")
	}
	return b.buf[b.off+at : b.off+at+n], nil
}

// MoveTo reads n elements from b and appends them to dest.
func (b *Buffer[T]) MoveTo(dest *Buffer[T], n int) error {
	if b.isEmpty() {
		return nil
	}
	s, err := b.ReadSlice(n)
	if err != nil {
		return err
	}
	return dest.WriteSlice(s)
}

// MoveAllTo moves every unread element from b to dest.
func (b *Buffer[T]) MoveAllTo(dest *Buffer[T]) error {
	if b.isEmpty() {
		return nil
	}
	s, err := b.ReadSlice(b.Len())
	if err != nil {
		return err
	}
	return dest.WriteSlice(s)
}

// CopyTo copies n elements from b to dest without consuming them.
func (b *Buffer[T]) CopyTo(dest *Buffer[T], n int) error {
	if b.isEmpty() {
		return nil
	}
	s, err := b.GetSlice(n)
	if err != nil {
		return nil
	}
	return dest.WriteSlice(s)
}

// At peeks at unread-relative position n.
func (b *Buffer[T]) At(n int) (T, error) {
	if b.Len() <= n {
		var zero T
		return zero, io.EOF
	}
	return b.buf[b.off+n], nil
}
