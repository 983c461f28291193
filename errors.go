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

import "errors"

// ErrOutOfMemory is returned when a buffer failed to grow to the size a
// call required. The stream remains consistent with its state before the
// failing call and may still be used or discarded.
var ErrOutOfMemory = errors.New("sonic: out of memory")

// ErrInvalidEncoding is returned when a caller passes a sample count that
// is not a whole number of frames, or a nil buffer with a non-zero count.
var ErrInvalidEncoding = errors.New("sonic: sample count is not a multiple of the channel count")
