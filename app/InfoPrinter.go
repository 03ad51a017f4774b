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

package app

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lithify-io/lithify"
)

// An implementation of Listener to display block information (verbose option
// of the BlockCompressor/BlockDecompressor), rendered through a structured
// logger rather than bare fmt.Println so library callers embedding this
// package can redirect it to their own sink.

const (
	// ENCODING event type
	ENCODING = 0
	// DECODING event type
	DECODING = 1
)

type blockInfo struct {
	time0      time.Time
	time1      time.Time
	time2      time.Time
	time3      time.Time
	stage0Size int64
	stage1Size int64
}

// InfoPrinter contains all the data required to log one event
type InfoPrinter struct {
	writer     io.Writer
	log        zerolog.Logger
	infoType   uint
	infos      map[int32]blockInfo
	thresholds []int
	lock       sync.RWMutex
	level      uint
}

// NewInfoPrinter creates a new instance of InfoPrinter
func NewInfoPrinter(infoLevel, infoType uint, writer io.Writer) (*InfoPrinter, error) {
	if writer == nil {
		return nil, errors.New("Invalid null writer parameter")
	}

	this := &InfoPrinter{}
	this.infoType = infoType & 1
	this.level = infoLevel
	this.writer = writer
	this.log = zerolog.New(writer).With().Timestamp().Logger()
	this.infos = make(map[int32]blockInfo)

	if this.infoType == ENCODING {
		this.thresholds = []int{
			lithify.EVT_COMPRESSION_START,
			lithify.EVT_BEFORE_TRANSFORM,
			lithify.EVT_AFTER_TRANSFORM,
			lithify.EVT_BEFORE_ENTROPY,
			lithify.EVT_AFTER_ENTROPY,
			lithify.EVT_COMPRESSION_END,
		}
	} else {
		this.thresholds = []int{
			lithify.EVT_DECOMPRESSION_START,
			lithify.EVT_BEFORE_ENTROPY,
			lithify.EVT_AFTER_ENTROPY,
			lithify.EVT_BEFORE_TRANSFORM,
			lithify.EVT_AFTER_TRANSFORM,
			lithify.EVT_DECOMPRESSION_END,
		}
	}

	return this, nil
}

// ProcessEvent receives an event and writes a log record to the internal writer
func (this *InfoPrinter) ProcessEvent(evt *lithify.Event) {
	currentBlockID := int32(evt.Id())

	if evt.Type() == this.thresholds[1] {
		// Register initial block size
		bi := blockInfo{time0: evt.Time()}

		if this.infoType == ENCODING {
			bi.stage0Size = evt.Size()
		}

		this.lock.Lock()
		this.infos[currentBlockID] = bi
		this.lock.Unlock()

		if this.level >= 5 {
			this.log.Debug().Int32("block", currentBlockID).Str("event", evt.String()).Send()
		}
	} else if evt.Type() == this.thresholds[2] {
		this.lock.RLock()
		bi, exists := this.infos[currentBlockID]
		this.lock.RUnlock()

		if exists == true {
			bi.time1 = evt.Time()

			if this.infoType == DECODING {
				bi.stage0Size = evt.Size()
			}

			this.lock.Lock()
			this.infos[currentBlockID] = bi
			this.lock.Unlock()

			if this.level >= 5 {
				durationMS := bi.time1.Sub(bi.time0).Nanoseconds() / int64(time.Millisecond)
				this.log.Debug().Int32("block", currentBlockID).Str("event", evt.String()).Int64("ms", durationMS).Send()
			}
		}
	} else if evt.Type() == this.thresholds[3] {
		this.lock.RLock()
		bi, exists := this.infos[currentBlockID]
		this.lock.RUnlock()

		if exists == true {
			bi.time2 = evt.Time()
			bi.stage1Size = evt.Size()
			this.lock.Lock()
			this.infos[currentBlockID] = bi
			this.lock.Unlock()

			if this.level >= 5 {
				durationMS := bi.time2.Sub(bi.time1).Nanoseconds() / int64(time.Millisecond)
				this.log.Debug().Int32("block", currentBlockID).Str("event", evt.String()).Int64("ms", durationMS).Send()
			}
		}
	} else if evt.Type() == this.thresholds[4] {
		this.lock.RLock()
		bi, exists := this.infos[currentBlockID]
		this.lock.RUnlock()

		if exists == false || this.level < 3 {
			return
		}

		this.lock.Lock()
		delete(this.infos, currentBlockID)
		this.lock.Unlock()
		bi.time3 = evt.Time()
		duration1MS := bi.time1.Sub(bi.time0).Nanoseconds() / int64(time.Millisecond)
		duration2MS := bi.time3.Sub(bi.time2).Nanoseconds() / int64(time.Millisecond)

		// Get block size after stage 2
		stage2Size := evt.Size()

		if this.level >= 5 {
			this.log.Debug().Int32("block", currentBlockID).Str("event", evt.String()).Int64("ms", duration2MS).Send()
		}

		// Display block info
		if this.level >= 4 {
			entry := this.log.Info().
				Int32("block", currentBlockID).
				Int64("stage0_size", bi.stage0Size).
				Int64("stage1_size", bi.stage1Size).
				Int64("stage0_ms", duration1MS).
				Int64("stage2_size", stage2Size).
				Int64("stage2_ms", duration2MS)

			// Add compression ratio for encoding
			if this.infoType == ENCODING && bi.stage0Size != 0 {
				entry = entry.Int64("ratio_pct", stage2Size*100/bi.stage0Size)
			}

			// Optionally add hash
			if evt.Hashing() == true {
				entry = entry.Str("hash", fmt.Sprintf("%x", evt.Hash()))
			}

			entry.Msg("block")
		}
	} else if evt.Type() == lithify.EVT_AFTER_HEADER_DECODING && this.level >= 3 {
		this.log.Info().Str("event", evt.String()).Send()
	} else if this.level >= 5 {
		this.log.Debug().Str("event", evt.String()).Send()
	}
}
