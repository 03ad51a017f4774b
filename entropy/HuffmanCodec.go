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
	"errors"
	"fmt"
	"sort"

	"github.com/lithify-io/lithify"
	"github.com/lithify-io/lithify/bitstream"
	"github.com/lithify-io/lithify/util"
)

const (
	HUF_DECODING_BATCH_SIZE  = 12 // in bits
	HUF_DECODING_MASK        = (1 << HUF_DECODING_BATCH_SIZE) - 1
	HUF_MAX_DECODING_INDEX   = (HUF_DECODING_BATCH_SIZE << 8) | 0xFF
	HUF_MAX_CHUNK_SIZE       = uint(1 << 16)
	HUF_SYMBOL_ABSENT        = (1 << 31) - 1
	HUF_MAX_SYMBOL_SIZE      = 14
	HUF_BUFFER_SIZE          = (HUF_MAX_SYMBOL_SIZE << 8) + 256
	HUF_MAX_CHUNK_RESCALES   = 3  // length-limiter retries before the fixed-8-bit fallback
	HUF_INTERLEAVE_THRESHOLD = 32 // chunk bytes; below this, single-stream packing only
	HUF_INTERLEAVE_STREAMS   = 4
)

// Utilities

type codeLengthComparator struct {
	ranks []int
	sizes []byte
}

func byIncreasingFrequency(ranks []int, frequencies []int) frequencyComparator {
	return frequencyComparator{ranks: ranks, frequencies: frequencies}
}

type frequencyComparator struct {
	ranks       []int
	frequencies []int
}

func (this frequencyComparator) Less(i, j int) bool {
	// Check frequency (natural order) as first key
	ri := this.ranks[i]
	rj := this.ranks[j]

	if this.frequencies[ri] != this.frequencies[rj] {
		return this.frequencies[ri] < this.frequencies[rj]
	}

	// Check index (natural order) as second key
	return ri < rj
}

func (this frequencyComparator) Len() int {
	return len(this.ranks)
}

func (this frequencyComparator) Swap(i, j int) {
	this.ranks[i], this.ranks[j] = this.ranks[j], this.ranks[i]
}

// Return the number of codes generated
func generateCanonicalCodes(sizes []byte, codes []uint, symbols []int) int {
	count := len(symbols)

	// Sort by increasing size (first key) and increasing value (second key)
	if count > 1 {
		var buf [HUF_BUFFER_SIZE]byte

		for i := 0; i < count; i++ {
			buf[(int(sizes[symbols[i]]-1)<<8)|symbols[i]] = 1
		}

		n := 0

		for i := range buf {
			if buf[i] != 0 {
				symbols[n] = i & 0xFF
				n++

				if n == count {
					break
				}
			}
		}
	}

	code := uint(0)
	length := sizes[symbols[0]]

	for _, s := range symbols {
		if sizes[s] > length {
			code <<= (sizes[s] - length)
			length = sizes[s]

			// Max length reached
			if length > HUF_MAX_SYMBOL_SIZE {
				return -1
			}
		}

		codes[s] = code
		code++
	}

	return count
}

// limitCodeLengths redistributes code lengths so that none exceeds maxLen,
// while keeping the Kraft inequality satisfied. buf holds one length per
// symbol, ordered by increasing symbol frequency (the shape produced by
// computeInPlaceSizesPhase1/2), so the lowest-frequency symbols receive the
// longest codes once lengths are reassigned. Returns false if the alphabet
// cannot fit within maxLen bits at all (never happens for count <= 256 and
// maxLen >= 9, since 256 * 2^-9 < 1, but the caller still checks).
func limitCodeLengths(buf []int, maxLen int) bool {
	n := len(buf)
	const maxBits = 32
	var blCount [maxBits + 1]int

	for i := 0; i < n; i++ {
		l := buf[i]

		if l > maxBits {
			l = maxBits
		}

		blCount[l]++
	}

	overflow := 0

	for l := maxLen + 1; l <= maxBits; l++ {
		overflow += blCount[l]
		blCount[l] = 0
	}

	blCount[maxLen] += overflow

	for overflow > 0 {
		bits := maxLen - 1

		for bits > 0 && blCount[bits] == 0 {
			bits--
		}

		if bits == 0 {
			return false
		}

		blCount[bits]--
		blCount[bits+1] += 2
		blCount[maxLen]--
		overflow -= 2
	}

	idx := 0

	for l := maxLen; l >= 1 && idx < n; l-- {
		for k := 0; k < blCount[l] && idx < n; k++ {
			buf[idx] = l
			idx++
		}
	}

	return idx == n
}

// HuffmanEncoder  Implementation of a static Huffman encoder.
// Uses in place generation of canonical codes instead of a tree
type HuffmanEncoder struct {
	bitstream lithify.OutputBitStream
	codes     [256]uint
	alphabet  [256]int
	sranks    [256]int
	chunkSize int
}

// The chunk size indicates how many bytes are encoded (per block) before
// resetting the frequency stats.
// Since the number of args is variable, this function can be called like this:
// NewHuffmanEncoder(bs) or NewHuffmanEncoder(bs, 16384)
func NewHuffmanEncoder(bs lithify.OutputBitStream, args ...uint) (*HuffmanEncoder, error) {
	if bs == nil {
		return nil, errors.New("Invalid null bitstream parameter")
	}

	if len(args) > 1 {
		return nil, errors.New("At most one chunk size can be provided")
	}

	chkSize := HUF_MAX_CHUNK_SIZE

	if len(args) == 1 {
		chkSize = args[0]
	}

	if chkSize < 1024 {
		return nil, errors.New("The chunk size must be at least 1024")
	}

	if chkSize > HUF_MAX_CHUNK_SIZE {
		return nil, fmt.Errorf("The chunk size must be at most %d", HUF_MAX_CHUNK_SIZE)
	}

	this := new(HuffmanEncoder)
	this.bitstream = bs
	this.codes = [256]uint{}
	this.alphabet = [256]int{}
	this.sranks = [256]int{}
	this.chunkSize = int(chkSize)

	// Default frequencies, sizes and codes
	for i := 0; i < 256; i++ {
		this.codes[i] = uint(i)
	}

	return this, nil
}

// Rebuild Huffman codes
func (this *HuffmanEncoder) updateFrequencies(frequencies []int) (int, error) {
	if frequencies == nil || len(frequencies) != 256 {
		return 0, errors.New("Invalid frequencies parameter")
	}

	count := 0
	var sizes [256]byte

	for i := range this.codes {
		this.codes[i] = 0

		if frequencies[i] > 0 {
			this.alphabet[count] = i
			count++
		}
	}

	symbols := this.alphabet[0:count]
	EncodeAlphabet(this.bitstream, symbols)

	// Transmit code lengths only, frequencies and codes do not matter
	// Unary encode the length differences
	if err := this.buildCodeLengths(frequencies, sizes[:], count, symbols); err != nil {
		return count, err
	}

	egenc, err := NewExpGolombEncoder(this.bitstream, true)

	if err != nil {
		return count, err
	}

	prevSize := byte(2)

	for _, s := range symbols {
		currSize := sizes[s]
		egenc.EncodeByte(currSize - prevSize)
		prevSize = currSize
	}

	// Create canonical codes
	if generateCanonicalCodes(sizes[:], this.codes[:], this.sranks[0:count]) < 0 {
		return count, fmt.Errorf("Could not generate codes: max code length (%v bits) exceeded", HUF_MAX_SYMBOL_SIZE)
	}

	// Pack size and code (size <= HUF_MAX_SYMBOL_SIZE bits)
	for _, s := range symbols {
		this.codes[s] |= (uint(sizes[s]) << 24)
	}

	return count, nil
}

// buildCodeLengths computes code lengths for the chunk's alphabet, retrying
// with progressively coarser rescaled frequencies when the Moffat-Katajainen
// lengths cannot be squeezed into HUF_MAX_SYMBOL_SIZE bits even after
// limitCodeLengths redistributes them. If every retry still overflows, every
// symbol falls back to a fixed 8-bit code, which trivially satisfies the
// bound.
func (this *HuffmanEncoder) buildCodeLengths(frequencies []int, sizes []byte, count int, symbols []int) error {
	if count == 1 {
		return this.computeCodeLengths(frequencies, sizes, count)
	}

	freqs := make([]int, 256)
	copy(freqs, frequencies)
	totalFreq := 0

	for _, s := range symbols {
		totalFreq += freqs[s]
	}

	for attempt := 0; attempt <= HUF_MAX_CHUNK_RESCALES; attempt++ {
		if attempt > 0 {
			scale := 1 << uint(16-2*attempt)
			var rescaledAlphabet [256]int

			if _, err := NormalizeFrequencies(freqs, rescaledAlphabet[:], totalFreq, scale); err != nil {
				continue
			}

			totalFreq = scale
		}

		if err := this.computeCodeLengths(freqs, sizes, count); err == nil {
			return nil
		}
	}

	for _, s := range symbols {
		sizes[s] = 8
	}

	return nil
}

// See [In-Place Calculation of Minimum-Redundancy Codes]
// by Alistair Moffat & Jyrki Katajainen
func (this *HuffmanEncoder) computeCodeLengths(frequencies []int, sizes []byte, count int) error {
	if count == 1 {
		this.sranks[0] = this.alphabet[0]
		sizes[this.alphabet[0]] = 1
		return nil
	}

	// Sort ranks by increasing frequency
	copy(this.sranks[:], this.alphabet[0:count])

	// Sort by increasing frequencies (first key) and increasing value (second key)
	sort.Sort(byIncreasingFrequency(this.sranks[0:count], frequencies))
	var buffer [256]int
	buf := buffer[0:count]

	for i := range buf {
		buf[i] = frequencies[this.sranks[i]]
	}

	computeInPlaceSizesPhase1(buf)
	computeInPlaceSizesPhase2(buf)

	maxLen := 0

	for i := range buf {
		if buf[i] > maxLen {
			maxLen = buf[i]
		}
	}

	if maxLen > HUF_MAX_SYMBOL_SIZE {
		if !limitCodeLengths(buf, HUF_MAX_SYMBOL_SIZE) {
			return fmt.Errorf("Could not limit codes to max length (%v bits)", HUF_MAX_SYMBOL_SIZE)
		}
	}

	for i := range buf {
		codeLen := byte(buf[i])

		if codeLen == 0 {
			return fmt.Errorf("Could not generate codes: invalid code length 0")
		}

		sizes[this.sranks[i]] = codeLen
	}

	return nil
}

func computeInPlaceSizesPhase1(data []int) {
	n := len(data)

	for s, r, t := 0, 0, 0; t < n-1; t++ {
		sum := 0

		for i := 0; i < 2; i++ {
			if s >= n || (r < t && data[r] < data[s]) {
				sum += data[r]
				data[r] = t
				r++
			} else {
				sum += data[s]

				if s > t {
					data[s] = 0
				}

				s++
			}
		}

		data[t] = sum
	}
}

func computeInPlaceSizesPhase2(data []int) {
	n := len(data)
	levelTop := n - 2 //root
	depth := 1
	i := n
	totalNodesAtLevel := 2

	for i > 0 {
		k := levelTop

		for k > 0 && data[k-1] >= levelTop {
			k--
		}

		internalNodesAtLevel := levelTop - k
		leavesAtLevel := totalNodesAtLevel - internalNodesAtLevel

		for j := 0; j < leavesAtLevel; j++ {
			i--
			data[i] = depth
		}

		totalNodesAtLevel = internalNodesAtLevel << 1
		levelTop = k
		depth++
	}
}

// Dynamically compute the frequencies for every chunk of data in the block
func (this *HuffmanEncoder) Encode(block []byte) (int, error) {
	if block == nil {
		return 0, errors.New("Invalid null block parameter")
	}

	if len(block) == 0 {
		return 0, nil
	}

	end := len(block)
	startChunk := 0
	sizeChunk := this.chunkSize

	if sizeChunk == 0 {
		sizeChunk = end
	}

	for startChunk < end {
		endChunk := startChunk + sizeChunk

		if endChunk > len(block) {
			endChunk = len(block)
		}

		var frequencies [256]int
		lithify.ComputeHistogram(block[startChunk:endChunk], frequencies[:], true, false)

		// Rebuild Huffman codes
		if _, err := this.updateFrequencies(frequencies[:]); err != nil {
			return 0, err
		}

		if uint(endChunk-startChunk) >= HUF_INTERLEAVE_THRESHOLD {
			if err := this.encodeInterleaved(block, startChunk, endChunk); err != nil {
				return 0, err
			}

			startChunk = endChunk
			continue
		}

		c := this.codes
		bs := this.bitstream
		endChunk3 := 3*((endChunk-startChunk)/3) + startChunk

		for i := startChunk; i < endChunk3; i += 3 {
			// Pack 3 codes into 1 uint64
			code1 := c[block[i]]
			codeLen1 := uint(code1 >> 24)
			code2 := c[block[i+1]]
			codeLen2 := uint(code2 >> 24)
			code3 := c[block[i+2]]
			codeLen3 := uint(code3 >> 24)
			st := (uint64(code1&0xFFFFFF) << (codeLen2 + codeLen3)) |
				(uint64(code2&((1<<codeLen2)-1)) << codeLen3) |
				uint64(code3&((1<<codeLen3)-1))
			bs.WriteBits(st, codeLen1+codeLen2+codeLen3)
		}

		for i := endChunk3; i < endChunk; i++ {
			code := c[block[i]]
			bs.WriteBits(uint64(code), code>>24)
		}

		startChunk = endChunk
	}

	return len(block), nil
}

// encodeInterleaved splits [start:end) into HUF_INTERLEAVE_STREAMS
// contiguous lanes, Huffman-codes each lane into its own bit buffer, then
// writes the lanes' bit lengths (as varints) followed by the lanes'
// payloads. A decoder can therefore decode all lanes independently instead
// of walking the chunk strictly sequentially.
func (this *HuffmanEncoder) encodeInterleaved(block []byte, start, end int) error {
	chunkLen := end - start
	laneLen := chunkLen / HUF_INTERLEAVE_STREAMS
	c := this.codes

	var bitCounts [HUF_INTERLEAVE_STREAMS]int
	var payloads [HUF_INTERLEAVE_STREAMS][]byte

	for lane := 0; lane < HUF_INTERLEAVE_STREAMS; lane++ {
		laneStart := start + lane*laneLen
		laneEnd := laneStart + laneLen

		if lane == HUF_INTERLEAVE_STREAMS-1 {
			laneEnd = end
		}

		buf := util.NewBufferStream()
		obs, err := bitstream.NewDefaultOutputBitStream(buf, 1024)

		if err != nil {
			return err
		}

		for i := laneStart; i < laneEnd; i++ {
			code := c[block[i]]
			obs.WriteBits(uint64(code), code>>24)
		}

		bitCounts[lane] = int(obs.Written())

		if _, err := obs.Close(); err != nil {
			return err
		}

		payloads[lane] = buf.Bytes()
	}

	bs := this.bitstream

	for lane := 0; lane < HUF_INTERLEAVE_STREAMS; lane++ {
		WriteVarInt(bs, bitCounts[lane])
	}

	for lane := 0; lane < HUF_INTERLEAVE_STREAMS; lane++ {
		payload := payloads[lane]
		nbits := bitCounts[lane]
		nbytes := nbits >> 3
		rem := uint(nbits & 7)

		for i := 0; i < nbytes; i++ {
			bs.WriteBits(uint64(payload[i]), 8)
		}

		if rem > 0 {
			bs.WriteBits(uint64(payload[nbytes])>>(8-rem), rem)
		}
	}

	return nil
}

func (this *HuffmanEncoder) Dispose() {
}

func (this *HuffmanEncoder) BitStream() lithify.OutputBitStream {
	return this.bitstream
}

// HuffmanDecoder Implementation of a static Huffman decoder.
// Uses tables to decode symbols instead of a tree
type HuffmanDecoder struct {
	bitstream  lithify.InputBitStream
	codes      [256]uint
	alphabet   [256]int
	sizes      [256]byte
	fdTable    []uint16  // Fast decoding table
	sdTable    [256]uint // Slow decoding table
	sdtIndexes []int     // Indexes for slow decoding table (can be negative)
	chunkSize  int
	state      uint64 // holds bits read from bitstream
	bits       uint   // holds number of unused bits in 'state'
	minCodeLen int8
}

// The chunk size indicates how many bytes are encoded (per block) before
// resetting the frequency stats.
// Since the number of args is variable, this function can be called like this:
// NewHuffmanDecoder(bs) or NewHuffmanDecoder(bs, 16384)
func NewHuffmanDecoder(bs lithify.InputBitStream, args ...uint) (*HuffmanDecoder, error) {
	if bs == nil {
		return nil, errors.New("Invalid null bitstream parameter")
	}

	if len(args) > 1 {
		return nil, errors.New("At most one chunk size can be provided")
	}

	chkSize := HUF_MAX_CHUNK_SIZE

	if len(args) == 1 {
		chkSize = args[0]
	}

	if chkSize < 1024 {
		return nil, errors.New("The chunk size must be at least 1024")
	}

	if chkSize > HUF_MAX_CHUNK_SIZE {
		return nil, fmt.Errorf("The chunk size must be at most %d", HUF_MAX_CHUNK_SIZE)
	}

	this := new(HuffmanDecoder)
	this.bitstream = bs
	this.sizes = [256]byte{}
	this.codes = [256]uint{}
	this.alphabet = [256]int{}
	this.fdTable = make([]uint16, 1<<HUF_DECODING_BATCH_SIZE)
	this.sdTable = [256]uint{}
	this.sdtIndexes = make([]int, HUF_MAX_SYMBOL_SIZE+1)
	this.chunkSize = int(chkSize)
	this.minCodeLen = 8

	// Default lengths & canonical codes
	for i := 0; i < 256; i++ {
		this.sizes[i] = 8
		this.codes[i] = uint(i)
	}

	return this, nil
}

func (this *HuffmanDecoder) ReadLengths() (int, error) {
	count, err := DecodeAlphabet(this.bitstream, this.alphabet[:])

	if count == 0 || err != nil {
		return count, err
	}

	egdec, err := NewExpGolombDecoder(this.bitstream, true)

	if err != nil {
		return 0, err
	}

	var currSize int8
	this.minCodeLen = HUF_MAX_SYMBOL_SIZE // max code length
	prevSize := int8(2)
	symbols := this.alphabet[0:count]

	// Read lengths
	for i, s := range symbols {
		if s > len(this.codes) {
			return 0, fmt.Errorf("Invalid bitstream: incorrect Huffman symbol %v", s)
		}

		this.codes[s] = 0
		currSize = prevSize + int8(egdec.DecodeByte())

		if currSize <= 0 || currSize > HUF_MAX_SYMBOL_SIZE {
			return 0, fmt.Errorf("Invalid bitstream: incorrect size %v for Huffman symbol %v", currSize, i)
		}

		if this.minCodeLen > currSize {
			this.minCodeLen = currSize
		}

		this.sizes[s] = byte(currSize)
		prevSize = currSize
	}

	// Create canonical codes
	if generateCanonicalCodes(this.sizes[:], this.codes[:], symbols) < 0 {
		return count, fmt.Errorf("Could not generate codes: max code length (%v bits) exceeded", HUF_MAX_SYMBOL_SIZE)
	}

	this.buildDecodingTables(count)
	return count, nil
}

// Build decoding tables
// The slow decoding table contains the codes in natural order.
// The fast decoding table contains all the prefixes with DECODING_BATCH_SIZE bits.
func (this *HuffmanDecoder) buildDecodingTables(count int) {
	for i := range this.fdTable {
		this.fdTable[i] = 0
	}

	for i := range this.sdTable {
		this.sdTable[i] = 0
	}

	for i := range this.sdtIndexes {
		this.sdtIndexes[i] = HUF_SYMBOL_ABSENT
	}

	length := byte(0)

	for i := 0; i < count; i++ {
		s := uint(this.alphabet[i])
		code := this.codes[s]

		if this.sizes[s] > length {
			length = this.sizes[s]
			this.sdtIndexes[length] = i - int(code)
		}

		// Fill slow decoding table
		val := (uint(this.sizes[s]) << 8) | s
		this.sdTable[i] = val

		// Fill fast decoding table
		// Find location index in table
		if length < HUF_DECODING_BATCH_SIZE {
			idx := code << (HUF_DECODING_BATCH_SIZE - length)
			end := idx + (1 << (HUF_DECODING_BATCH_SIZE - length))

			// All DECODING_BATCH_SIZE bit values read from the bit stream and
			// starting with the same prefix point to symbol r
			for idx < end {
				this.fdTable[idx] = uint16(val)
				idx++
			}
		} else {
			idx := code >> (length - HUF_DECODING_BATCH_SIZE)
			this.fdTable[idx] = uint16(val)
		}

	}
}

// Use fastDecodeByte until the near end of chunk or block.
func (this *HuffmanDecoder) Decode(block []byte) (int, error) {
	if block == nil {
		return 0, errors.New("Invalid null block parameter")
	}

	if len(block) == 0 {
		return 0, nil
	}

	if this.minCodeLen == 0 {
		return 0, errors.New("Invalid minimum code length: 0")
	}

	end := len(block)
	startChunk := 0
	sizeChunk := this.chunkSize

	if sizeChunk == 0 {
		sizeChunk = len(block)
	}

	for startChunk < end {
		// Reinitialize the Huffman tables
		if r, err := this.ReadLengths(); r == 0 || err != nil {
			return startChunk, err
		}

		endChunk := startChunk + sizeChunk

		if endChunk > end {
			endChunk = end
		}

		if uint(endChunk-startChunk) >= HUF_INTERLEAVE_THRESHOLD {
			if err := this.decodeInterleaved(block, startChunk, endChunk); err != nil {
				return startChunk, err
			}

			startChunk = endChunk
			continue
		}

		// Compute minimum number of bits required in bitstream for fast decoding
		endPaddingSize := 64 / int(this.minCodeLen)

		if int(this.minCodeLen)*endPaddingSize != 64 {
			endPaddingSize++
		}

		endChunk8 := (endChunk - endPaddingSize) & -8

		if endChunk8 < 0 {
			endChunk8 = 0
		}

		for i := startChunk; i < endChunk8; i += 8 {
			// Fast decoding (read HUF_DECODING_BATCH_SIZE bits at a time)
			block[i] = this.fastDecodeByte()
			block[i+1] = this.fastDecodeByte()
			block[i+2] = this.fastDecodeByte()
			block[i+3] = this.fastDecodeByte()
			block[i+4] = this.fastDecodeByte()
			block[i+5] = this.fastDecodeByte()
			block[i+6] = this.fastDecodeByte()
			block[i+7] = this.fastDecodeByte()
		}

		for i := endChunk8; i < endChunk; i++ {
			// Fallback to regular decoding (read one bit at a time)
			block[i] = this.slowDecodeByte(0, 0)
		}

		startChunk = endChunk
	}

	return len(block), nil
}

// decodeInterleaved is the mirror of encodeInterleaved: it reads
// HUF_INTERLEAVE_STREAMS varint bit lengths, then decodes each lane from its
// own bit buffer. Lanes are processed one after another here, but since each
// carries its own bitstream and decoder state, nothing prevents a caller
// from decoding them concurrently.
func (this *HuffmanDecoder) decodeInterleaved(block []byte, start, end int) error {
	chunkLen := end - start
	laneLen := chunkLen / HUF_INTERLEAVE_STREAMS

	var bitCounts [HUF_INTERLEAVE_STREAMS]int

	for lane := 0; lane < HUF_INTERLEAVE_STREAMS; lane++ {
		bitCounts[lane] = ReadVarInt(this.bitstream)
	}

	savedBitstream := this.bitstream
	savedState := this.state
	savedBits := this.bits

	defer func() {
		this.bitstream = savedBitstream
		this.state = savedState
		this.bits = savedBits
	}()

	for lane := 0; lane < HUF_INTERLEAVE_STREAMS; lane++ {
		laneStart := start + lane*laneLen
		laneEnd := laneStart + laneLen

		if lane == HUF_INTERLEAVE_STREAMS-1 {
			laneEnd = end
		}

		nbits := bitCounts[lane]
		nbytes := (nbits + 7) >> 3
		payload := make([]byte, nbytes)

		for i := 0; i < nbytes; i++ {
			remaining := nbits - i*8
			n := uint(8)

			if remaining < 8 {
				n = uint(remaining)
			}

			payload[i] = byte(this.bitstream.ReadBits(n) << (8 - n))
		}

		buf := util.NewBufferStream(payload)
		ibs, err := bitstream.NewDefaultInputBitStream(buf, 1024)

		if err != nil {
			return err
		}

		this.bitstream = ibs
		this.state = 0
		this.bits = 0

		for i := laneStart; i < laneEnd; i++ {
			block[i] = this.slowDecodeByte(0, 0)
		}

		if _, err := ibs.Close(); err != nil {
			return err
		}
	}

	return nil
}

func (this *HuffmanDecoder) slowDecodeByte(code int, codeLen uint) byte {
	for codeLen < HUF_MAX_SYMBOL_SIZE {
		codeLen++
		code <<= 1

		if this.bits == 0 {
			code |= this.bitstream.ReadBit()
		} else {
			// Consume remaining bits in 'state'
			this.bits--
			code |= int((this.state >> this.bits) & 1)
		}

		idx := this.sdtIndexes[codeLen]

		if idx == HUF_SYMBOL_ABSENT { // No code with this length ?
			continue
		}

		if this.sdTable[idx+code]>>8 == codeLen {
			return byte(this.sdTable[idx+code])
		}
	}

	panic(errors.New("Invalid bitstream: incorrect Huffman code"))
}

// 64 bits must be available in the bitstream
func (this *HuffmanDecoder) fastDecodeByte() byte {
	if this.bits < HUF_DECODING_BATCH_SIZE {
		// Fetch more bits from bitstream
		read := this.bitstream.ReadBits(64 - this.bits)
		// No need to mask this.state because uint64(xyz) << 64 = 0
		this.state = (this.state << (64 - this.bits)) | read
		this.bits = 64
	}

	// Retrieve symbol from fast decoding table
	val := this.fdTable[int(this.state>>(this.bits-HUF_DECODING_BATCH_SIZE))&HUF_DECODING_MASK]

	if val > HUF_MAX_DECODING_INDEX {
		this.bits -= HUF_DECODING_BATCH_SIZE
		return this.slowDecodeByte(int(this.state>>this.bits)&HUF_DECODING_MASK, HUF_DECODING_BATCH_SIZE)
	}

	this.bits -= uint(val >> 8)
	return byte(val)
}

func (this *HuffmanDecoder) BitStream() lithify.InputBitStream {
	return this.bitstream
}

func (this *HuffmanDecoder) Dispose() {
}
