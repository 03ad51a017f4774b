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
	"bufio"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"sync"

	"github.com/klauspost/cpuid/v2"

	"github.com/lithify-io/lithify"
)

const (
	_APP_HEADER = "Lithify 1.0"
)

var (
	mutex sync.Mutex
	log   = Printer{os: bufio.NewWriter(os.Stdout)}
)

// schedulerWidth returns the degree of parallelism to hand to GOMAXPROCS:
// physical core count when cpuid can read it (hyperthread siblings don't
// add independent suffix-sort throughput), falling back to the logical
// count the runtime already knows.
func schedulerWidth() int {
	if n := cpuid.CPU.PhysicalCores; n > 0 {
		return n
	}

	return runtime.NumCPU()
}

// Compress runs one block-compression pass driven by argsMap, the same
// argument bag a cmd/lithify flag parser builds. It never calls os.Exit;
// the caller owns process lifetime and picks up the returned status code.
func Compress(argsMap map[string]interface{}) (code int) {
	runtime.GOMAXPROCS(schedulerWidth())

	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("An unexpected error occurred during compression: %v\n", r.(error))
			code = lithify.ERR_UNKNOWN
		}
	}()

	bc, err := NewBlockCompressor(argsMap)

	if err != nil {
		fmt.Printf("Failed to create block compressor: %v\n", err)
		return lithify.ERR_CREATE_COMPRESSOR
	}

	if len(bc.CPUProf()) != 0 {
		if f, err := os.Create(bc.CPUProf()); err != nil {
			fmt.Printf("Warning: cpu profile unavailable: %v\n", err)
		} else {
			if err := pprof.StartCPUProfile(f); err != nil {
				fmt.Printf("Warning: cpu profile unavailable: %v\n", err)
			}

			defer func() {
				pprof.StopCPUProfile()
				f.Close()
			}()
		}
	}

	code, _ = bc.Compress()
	return code
}

// Decompress runs one block-decompression pass driven by argsMap, the same
// argument bag a cmd/lithify flag parser builds. It never calls os.Exit;
// the caller owns process lifetime and picks up the returned status code.
func Decompress(argsMap map[string]interface{}) (code int) {
	runtime.GOMAXPROCS(schedulerWidth())

	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("An unexpected error occurred during decompression: %v\n", r.(error))
			code = lithify.ERR_UNKNOWN
		}
	}()

	bd, err := NewBlockDecompressor(argsMap)

	if err != nil {
		fmt.Printf("Failed to create block decompressor: %v\n", err)
		return lithify.ERR_CREATE_DECOMPRESSOR
	}

	if len(bd.CPUProf()) != 0 {
		if f, err := os.Create(bd.CPUProf()); err != nil {
			fmt.Printf("Warning: cpu profile unavailable: %v\n", err)
		} else {
			if err := pprof.StartCPUProfile(f); err != nil {
				fmt.Printf("Warning: cpu profile unavailable: %v\n", err)
			}

			defer func() {
				pprof.StopCPUProfile()
				f.Close()
			}()
		}
	}

	code, _ = bd.Decompress()
	return code
}

// FileData a basic structure encapsulating a file path and size
type FileData struct {
	FullPath string
	Path     string
	Name     string
	Size     int64
}

// NewFileData creates an instance of FileData from a file path and size
func NewFileData(fullPath string, size int64) *FileData {
	this := &FileData{}
	this.FullPath = fullPath
	this.Size = size

	idx := strings.LastIndexByte(this.FullPath, byte(os.PathSeparator))

	if idx > 0 {
		b := []byte(this.FullPath)
		this.Path = string(b[0 : idx+1])
		this.Name = string(b[idx+1:])
	} else {
		this.Path = ""
		this.Name = this.FullPath
	}

	return this
}

// FileCompare a structure used to sort files by path and size
type FileCompare struct {
	data       []FileData
	sortBySize bool
}

// Len returns the size of the internal file data buffer
func (this FileCompare) Len() int {
	return len(this.data)
}

// Swap swaps two file data in the internal buffer
func (this FileCompare) Swap(i, j int) {
	this.data[i], this.data[j] = this.data[j], this.data[i]
}

// Less returns true if the path at index i in the internal
// file data buffer is less than file data buffer at index j.
// The order is defined by lexical order of the parent directory
// path then file size.
func (this FileCompare) Less(i, j int) bool {
	if this.sortBySize == false {
		return strings.Compare(this.data[i].FullPath, this.data[j].FullPath) < 0
	}

	// First compare parent directory paths
	res := strings.Compare(this.data[i].Path, this.data[j].Path)

	if res != 0 {
		return res < 0
	}

	// Then, compare file sizes (decreasing order)
	return this.data[i].Size > this.data[j].Size
}

func createFileList(target string, fileList []FileData) ([]FileData, error) {
	fi, err := os.Stat(target)

	if err != nil {
		return fileList, err
	}

	if fi.Mode().IsRegular() {
		if fi.Name()[0] != '.' {
			fileList = append(fileList, *NewFileData(target, fi.Size()))
		}

		return fileList, nil
	}

	suffix := string([]byte{os.PathSeparator, '.'})
	isRecursive := len(target) <= 2 || target[len(target)-len(suffix):] != suffix

	if isRecursive {
		if target[len(target)-1] != os.PathSeparator {
			target = target + string([]byte{os.PathSeparator})
		}

		err = filepath.Walk(target, func(path string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if fi.Mode().IsRegular() && fi.Name()[0] != '.' {
				fileList = append(fileList, *NewFileData(path, fi.Size()))
			}

			return err
		})
	} else {
		// Remove suffix
		target = target[0 : len(target)-1]

		var files []os.FileInfo
		files, err = ioutil.ReadDir(target)

		if err == nil {
			for _, fi := range files {
				if fi.Mode().IsRegular() && fi.Name()[0] != '.' {
					fileList = append(fileList, *NewFileData(target+fi.Name(), fi.Size()))
				}
			}
		}
	}

	return fileList, err
}

// Printer a buffered printer (required in concurrent code)
type Printer struct {
	os *bufio.Writer
}

// Println concurrently safe version (order wise) of Println
func (this *Printer) Println(msg string, printFlag bool) {
	if printFlag == true {
		mutex.Lock()

		// Best effort, ignore error
		if w, _ := this.os.Write([]byte(msg + "\n")); w > 0 {
			_ = this.os.Flush()
		}

		mutex.Unlock()
	}
}
