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

package entropy

import (
	"testing"

	"github.com/lithify-io/lithify/bitstream"
	"github.com/lithify-io/lithify/util"
)

func TestNormalizeFrequenciesContract(t *testing.T) {
	scales := []int{256, 1024, 65536}

	for _, scale := range scales {
		freqs := make([]int, 256)
		freqs[10] = 1
		freqs[65] = 300
		freqs[200] = 57
		freqs[255] = 12

		total := 0

		for _, f := range freqs {
			total += f
		}

		alphabet := make([]int, 256)
		size, err := NormalizeFrequencies(freqs, alphabet, total, scale)

		if err != nil {
			t.Fatalf("NormalizeFrequencies(scale=%d): %v", scale, err)
		}

		if size != 4 {
			t.Fatalf("alphabet size = %d, want 4", size)
		}

		sum := 0

		for i := 0; i < size; i++ {
			sym := alphabet[i]

			if freqs[sym] <= 0 {
				t.Fatalf("symbol %d had non-zero input frequency but normalized to %d", sym, freqs[sym])
			}

			sum += freqs[sym]
		}

		if sum != scale {
			t.Fatalf("sum of normalized frequencies = %d, want %d", sum, scale)
		}
	}
}

func TestNormalizeFrequenciesSingleSymbol(t *testing.T) {
	freqs := make([]int, 256)
	freqs[42] = 77
	alphabet := make([]int, 256)

	size, err := NormalizeFrequencies(freqs, alphabet, 77, 256)

	if err != nil {
		t.Fatalf("NormalizeFrequencies: %v", err)
	}

	if size != 1 || alphabet[0] != 42 {
		t.Fatalf("expected single-symbol alphabet {42}, got size=%d alphabet[0]=%d", size, alphabet[0])
	}

	if freqs[42] != 256 {
		t.Fatalf("single-symbol frequency = %d, want 256 (the full scale)", freqs[42])
	}
}

func TestVarIntRoundTrip(t *testing.T) {
	values := []int{0, 1, 127, 128, 300, 16384, 1 << 20, 1<<31 - 1}

	for _, v := range values {
		var buf util.BufferStream
		obs, err := bitstream.NewDefaultOutputBitStream(&buf, 1024)

		if err != nil {
			t.Fatalf("NewDefaultOutputBitStream: %v", err)
		}

		if n := WriteVarInt(obs, v); n <= 0 {
			t.Fatalf("WriteVarInt(%d) wrote %d bytes", v, n)
		}

		obs.Close()
		buf.SetOffset(0)
		ibs, err := bitstream.NewDefaultInputBitStream(&buf, 1024)

		if err != nil {
			t.Fatalf("NewDefaultInputBitStream: %v", err)
		}

		got := ReadVarInt(ibs)

		if got != v {
			t.Fatalf("varint round trip: got %d, want %d", got, v)
		}
	}
}
