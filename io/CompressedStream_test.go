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

package io

import (
	"bytes"
	"io"
	"testing"

	"github.com/lithify-io/lithify/util"
)

func streamRoundTrip(t *testing.T, ctxExtra map[string]interface{}, block []byte) {
	t.Helper()
	var buf util.BufferStream

	ctx := map[string]interface{}{
		"codec":     "HUFFMAN",
		"transform": "NONE",
		"blockSize": uint(1 << 16),
		"jobs":      uint(1),
	}

	for k, v := range ctxExtra {
		ctx[k] = v
	}

	os, err := NewCompressedOutputStreamWithCtx(&buf, ctx)

	if err != nil {
		t.Fatalf("NewCompressedOutputStreamWithCtx: %v", err)
	}

	if _, err := os.Write(block); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err := os.Close(); err != nil {
		t.Fatalf("Close (output): %v", err)
	}

	buf.SetOffset(0)

	is, err := NewCompressedInputStreamWithCtx(&buf, map[string]interface{}{"jobs": uint(1)})

	if err != nil {
		t.Fatalf("NewCompressedInputStreamWithCtx: %v", err)
	}

	out := make([]byte, len(block))
	n, err := io.ReadFull(is, out)

	if err != nil {
		t.Fatalf("ReadFull: %v", err)
	}

	if n != len(block) {
		t.Fatalf("read %d bytes, want %d", n, len(block))
	}

	if err := is.Close(); err != nil {
		t.Fatalf("Close (input): %v", err)
	}

	if !bytes.Equal(out, block) {
		t.Fatalf("container round trip mismatch, len=%d", len(block))
	}
}

func TestCompressedStreamChecksumModes(t *testing.T) {
	block := make([]byte, 200000)

	for i := range block {
		block[i] = byte((i * 7) % 251)
	}

	t.Run("no-checksum", func(t *testing.T) {
		streamRoundTrip(t, map[string]interface{}{"checksum": false, "checksum64": false}, block)
	})

	t.Run("checksum-32", func(t *testing.T) {
		streamRoundTrip(t, map[string]interface{}{"checksum": true, "checksum64": false}, block)
	})

	t.Run("checksum-64", func(t *testing.T) {
		streamRoundTrip(t, map[string]interface{}{"checksum": false, "checksum64": true}, block)
	})
}

func TestCorruptedChecksum64Detected(t *testing.T) {
	var buf util.BufferStream
	block := bytes.Repeat([]byte{0x5A}, 5000)

	ctx := map[string]interface{}{
		"codec":      "HUFFMAN",
		"transform":  "NONE",
		"blockSize":  uint(1 << 16),
		"jobs":       uint(1),
		"checksum64": true,
	}

	os, err := NewCompressedOutputStreamWithCtx(&buf, ctx)

	if err != nil {
		t.Fatalf("NewCompressedOutputStreamWithCtx: %v", err)
	}

	if _, err := os.Write(block); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err := os.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Flip a byte of the block's stored 64-bit checksum (bytes 23..30, after
	// the 16-byte global header, the 4-byte block size, the mode byte and the
	// 2-byte data length) to force the checksum verification to fail on read.
	corrupted := make([]byte, buf.Len())
	copy(corrupted, buf.Bytes())
	corrupted[25] ^= 0xFF
	var tampered util.BufferStream
	tampered.Write(corrupted)
	tampered.SetOffset(0)

	is, err := NewCompressedInputStreamWithCtx(&tampered, map[string]interface{}{"jobs": uint(1)})

	if err != nil {
		t.Fatalf("NewCompressedInputStreamWithCtx: %v", err)
	}

	out := make([]byte, len(block))

	if _, err := io.ReadFull(is, out); err == nil && bytes.Equal(out, block) {
		t.Fatalf("expected checksum mismatch to be detected")
	}
}
