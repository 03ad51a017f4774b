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

func rangeRoundTrip(t *testing.T, block []byte) {
	t.Helper()
	var buf util.BufferStream

	obs, err := bitstream.NewDefaultOutputBitStream(&buf, 16384)

	if err != nil {
		t.Fatalf("NewDefaultOutputBitStream: %v", err)
	}

	enc, err := NewRangeEncoder(obs)

	if err != nil {
		t.Fatalf("NewRangeEncoder: %v", err)
	}

	if _, err := enc.Write(block); err != nil {
		t.Fatalf("Write: %v", err)
	}

	enc.Dispose()
	obs.Close()
	buf.SetOffset(0)

	ibs, err := bitstream.NewDefaultInputBitStream(&buf, 16384)

	if err != nil {
		t.Fatalf("NewDefaultInputBitStream: %v", err)
	}

	dec, err := NewRangeDecoder(ibs)

	if err != nil {
		t.Fatalf("NewRangeDecoder: %v", err)
	}

	out := make([]byte, len(block))

	if _, err := dec.Read(out); err != nil {
		t.Fatalf("Read: %v", err)
	}

	dec.Dispose()

	if !bytes.Equal(out, block) {
		t.Fatalf("range coder round trip mismatch, len=%d", len(block))
	}
}

func TestRangeCoderRoundTrip(t *testing.T) {
	t.Run("single-symbol-1024", func(t *testing.T) {
		block := bytes.Repeat([]byte{0x41}, 1024)
		rangeRoundTrip(t, block)
	})

	t.Run("full-alphabet", func(t *testing.T) {
		block := make([]byte, 4096)

		for i := range block {
			block[i] = byte(i % 256)
		}

		rangeRoundTrip(t, block)
	})

	t.Run("skewed", func(t *testing.T) {
		block := make([]byte, 5000)

		for i := range block {
			if i%10 == 0 {
				block[i] = byte(i % 256)
			} else {
				block[i] = 'x'
			}
		}

		rangeRoundTrip(t, block)
	})
}
