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

func TestBWTKnownVectors(t *testing.T) {
	cases := []struct {
		name         string
		input        []byte
		expected     []byte
		primaryIndex uint
	}{
		{
			name:         "mississippi",
			input:        []byte{0x6D, 0x69, 0x73, 0x73, 0x69, 0x73, 0x73, 0x69, 0x70, 0x70, 0x69},
			expected:     []byte{0x69, 0x70, 0x73, 0x73, 0x6D, 0x70, 0x69, 0x73, 0x73, 0x69, 0x69},
			primaryIndex: 5,
		},
		{
			name:         "banana",
			input:        []byte{0x62, 0x61, 0x6E, 0x61, 0x6E, 0x61},
			expected:     []byte{0x6E, 0x6E, 0x62, 0x61, 0x61, 0x61},
			primaryIndex: 4,
		},
		{
			name:         "abracadabra-zero-padded",
			input:        []byte{0x61, 0x62, 0x72, 0x61, 0x63, 0x61, 0x64, 0x61, 0x62, 0x72, 0x61, 0x00},
			expected:     []byte{0x61, 0x72, 0x64, 0x00, 0x72, 0x63, 0x61, 0x61, 0x61, 0x61, 0x62, 0x62},
			primaryIndex: 3,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			bwt, err := NewBWT()

			if err != nil {
				t.Fatalf("NewBWT: %v", err)
			}

			dst := make([]byte, len(c.input))

			if _, _, err := bwt.Forward(c.input, dst); err != nil {
				t.Fatalf("Forward: %v", err)
			}

			if !bytes.Equal(dst, c.expected) {
				t.Fatalf("BWT(%s) = % X, want % X", c.name, dst, c.expected)
			}

			// 1-based primary index as published; the API stores it 0-based
			// internally but PrimaryIndex(0) returns the 1-based position
			// used throughout the on-disk framing.
			if got := bwt.PrimaryIndex(0); got != c.primaryIndex {
				t.Fatalf("PrimaryIndex(%s) = %v, want %v", c.name, got, c.primaryIndex)
			}

			back := make([]byte, len(c.input))

			if _, _, err := bwt.Inverse(dst, back); err != nil {
				t.Fatalf("Inverse: %v", err)
			}

			if !bytes.Equal(back, c.input) {
				t.Fatalf("round trip mismatch for %s: got % X, want % X", c.name, back, c.input)
			}
		})
	}
}

func TestBWTChunkBoundary(t *testing.T) {
	if c := GetBWTChunks(255); c != 1 {
		t.Fatalf("GetBWTChunks(255) = %v, want 1", c)
	}

	if c := GetBWTChunks(256); c != BWT_MAX_CHUNKS {
		t.Fatalf("GetBWTChunks(256) = %v, want %v", c, BWT_MAX_CHUNKS)
	}
}

func TestBWTRoundTripSizes(t *testing.T) {
	sizes := []int{0, 1, 255, 256, 1000, 8 * 1024 * 1024, 8*1024*1024 + 1}

	for _, n := range sizes {
		src := make([]byte, n)

		for i := range src {
			src[i] = byte(i * 7 % 251)
		}

		bwt, err := NewBWT()

		if err != nil {
			t.Fatalf("NewBWT: %v", err)
		}

		dst := make([]byte, n)

		if _, _, err := bwt.Forward(src, dst); err != nil {
			t.Fatalf("Forward(n=%d): %v", n, err)
		}

		back := make([]byte, n)

		if _, _, err := bwt.Inverse(dst, back); err != nil {
			t.Fatalf("Inverse(n=%d): %v", n, err)
		}

		if !bytes.Equal(back, src) {
			t.Fatalf("round trip mismatch at n=%d", n)
		}
	}
}
