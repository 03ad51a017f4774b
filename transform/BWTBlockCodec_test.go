/*
Copyright 2011-2017 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package transform

import (
	"bytes"
	"testing"
)

func TestBWTBlockCodecRoundTrip(t *testing.T) {
	sizes := []int{1, 100, 255, 256, 4096}

	for _, n := range sizes {
		src := make([]byte, n)

		for i := range src {
			src[i] = byte((i * 31) % 256)
		}

		codec, err := NewBWTBlockCodec()

		if err != nil {
			t.Fatalf("NewBWTBlockCodec: %v", err)
		}

		dst := make([]byte, codec.MaxEncodedLen(n))

		_, oLen, err := codec.Forward(src, dst)

		if err != nil {
			t.Fatalf("Forward(n=%d): %v", n, err)
		}

		decCodec, err := NewBWTBlockCodec()

		if err != nil {
			t.Fatalf("NewBWTBlockCodec: %v", err)
		}

		back := make([]byte, n)

		if _, _, err := decCodec.Inverse(dst[:oLen], back); err != nil {
			t.Fatalf("Inverse(n=%d): %v", n, err)
		}

		if !bytes.Equal(back, src) {
			t.Fatalf("round trip mismatch at n=%d", n)
		}
	}
}

func TestBWTBlockCodecRejectsOversizedChunkCount(t *testing.T) {
	codec, err := NewBWTBlockCodec()

	if err != nil {
		t.Fatalf("NewBWTBlockCodec: %v", err)
	}

	// mode byte encoding log2(C) = 4 (C = 16), which exceeds BWT_MAX_CHUNKS;
	// must be rejected outright rather than merely failing the derived
	// chunk-count comparison.
	src := make([]byte, 300)
	src[0] = 4 << 2
	dst := make([]byte, len(src))

	if _, _, err := codec.Inverse(src, dst); err == nil {
		t.Fatalf("expected an error for an oversized chunk count, got nil")
	}
}
