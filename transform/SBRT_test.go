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

func TestSBRTMoveToFrontVector(t *testing.T) {
	sbrt, err := NewSBRT(SBRT_MODE_MTF)

	if err != nil {
		t.Fatalf("NewSBRT: %v", err)
	}

	src := []byte{0x41, 0x42, 0x41, 0x43, 0x41, 0x44}
	expected := []byte{0x41, 0x42, 0x01, 0x43, 0x02, 0x44}
	dst := make([]byte, len(src))

	if _, _, err := sbrt.Forward(src, dst); err != nil {
		t.Fatalf("Forward: %v", err)
	}

	if !bytes.Equal(dst, expected) {
		t.Fatalf("SBRT-MTF forward = % X, want % X", dst, expected)
	}

	back := make([]byte, len(src))

	if _, _, err := sbrt.Inverse(dst, back); err != nil {
		t.Fatalf("Inverse: %v", err)
	}

	if !bytes.Equal(back, src) {
		t.Fatalf("SBRT-MTF round trip = % X, want % X", back, src)
	}
}

func TestSBRTRoundTripAllModes(t *testing.T) {
	modes := []int{SBRT_MODE_MTF, SBRT_MODE_RANK, SBRT_MODE_TIMESTAMP}
	src := make([]byte, 2048)

	for i := range src {
		src[i] = byte((i*37 + i*i) % 251)
	}

	for _, mode := range modes {
		sbrt, err := NewSBRT(mode)

		if err != nil {
			t.Fatalf("NewSBRT(%d): %v", mode, err)
		}

		dst := make([]byte, len(src))

		if _, _, err := sbrt.Forward(src, dst); err != nil {
			t.Fatalf("Forward(mode=%d): %v", mode, err)
		}

		back := make([]byte, len(src))

		sbrt2, err := NewSBRT(mode)

		if err != nil {
			t.Fatalf("NewSBRT(%d): %v", mode, err)
		}

		if _, _, err := sbrt2.Inverse(dst, back); err != nil {
			t.Fatalf("Inverse(mode=%d): %v", mode, err)
		}

		if !bytes.Equal(back, src) {
			t.Fatalf("round trip mismatch for mode %d", mode)
		}
	}
}
