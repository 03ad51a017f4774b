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
	"bytes"
	"testing"

	"github.com/lithify-io/lithify/bitstream"
	"github.com/lithify-io/lithify/util"
)

func huffmanRoundTrip(t *testing.T, block []byte) {
	t.Helper()
	var buf util.BufferStream

	obs, err := bitstream.NewDefaultOutputBitStream(&buf, 16384)

	if err != nil {
		t.Fatalf("NewDefaultOutputBitStream: %v", err)
	}

	enc, err := NewHuffmanEncoder(obs)

	if err != nil {
		t.Fatalf("NewHuffmanEncoder: %v", err)
	}

	if _, err := enc.Encode(block); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	enc.Dispose()
	obs.Close()
	buf.SetOffset(0)

	ibs, err := bitstream.NewDefaultInputBitStream(&buf, 16384)

	if err != nil {
		t.Fatalf("NewDefaultInputBitStream: %v", err)
	}

	dec, err := NewHuffmanDecoder(ibs)

	if err != nil {
		t.Fatalf("NewHuffmanDecoder: %v", err)
	}

	out := make([]byte, len(block))

	if _, err := dec.Decode(out); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	dec.Dispose()

	if !bytes.Equal(out, block) {
		t.Fatalf("Huffman round trip mismatch, len=%d", len(block))
	}
}

func TestHuffmanCoderRoundTrip(t *testing.T) {
	t.Run("one-symbol-alphabet", func(t *testing.T) {
		huffmanRoundTrip(t, bytes.Repeat([]byte{0x41}, 1024))
	})

	t.Run("full-256-ramp", func(t *testing.T) {
		block := make([]byte, 1<<16)

		for i := range block {
			block[i] = byte(i % 256)
		}

		huffmanRoundTrip(t, block)
	})

	t.Run("skewed-small-chunk", func(t *testing.T) {
		block := []byte("the quick brown fox jumps over the lazy dog, again and again")
		huffmanRoundTrip(t, block)
	})

	t.Run("tiny-chunk-single-stream", func(t *testing.T) {
		// Below HUF_INTERLEAVE_THRESHOLD: exercises the plain 3-codes-per-uint64
		// packing path rather than sub-stream interleaving.
		huffmanRoundTrip(t, []byte("abcabcabcabc"))
	})

	t.Run("interleaved-chunk", func(t *testing.T) {
		// At least HUF_INTERLEAVE_THRESHOLD bytes: exercises the 4-way
		// sub-stream interleaving path on both encode and decode.
		block := bytes.Repeat([]byte("huffman interleave "), 3)
		huffmanRoundTrip(t, block)
	})

	t.Run("length-limited-alphabet", func(t *testing.T) {
		// Fibonacci-weighted frequencies are the textbook worst case for
		// Huffman code length: with 20 symbols the rarest would need a
		// 19-bit code absent length-limiting, well past HUF_MAX_SYMBOL_SIZE.
		fib := []int{1, 1, 2, 3, 5, 8, 13, 21, 34, 55, 89, 144, 233, 377, 610, 987, 1597, 2584, 4181, 6765}
		var block []byte

		for i, freq := range fib {
			block = append(block, bytes.Repeat([]byte{byte(i)}, freq)...)
		}

		huffmanRoundTrip(t, block)
	})
}
