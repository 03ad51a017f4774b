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

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lithify-io/lithify/app"
)

var (
	argInput      string
	argOutput     string
	argBlock      string
	argTransform  string
	argEntropy    string
	argLevel      int
	argJobs       uint
	argVerbose    uint
	argForce      bool
	argChecksum   bool
	argChecksum64 bool
	argSkip       bool
	argFrom       int
	argTo         int
	argCPUProf    string
)

// parseBlockSize applies the K/M/G suffix convention to a block size string
// (EG. "4m" => 4*1024*1024).
func parseBlockSize(s string) (uint, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	if len(s) == 0 {
		return 0, fmt.Errorf("empty block size")
	}

	scale := 1
	lastChar := s[len(s)-1]

	switch lastChar {
	case 'K':
		s = s[:len(s)-1]
		scale = 1024
	case 'M':
		s = s[:len(s)-1]
		scale = 1024 * 1024
	case 'G':
		s = s[:len(s)-1]
		scale = 1024 * 1024 * 1024
	}

	n, err := strconv.Atoi(s)

	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid block size %q", s)
	}

	return uint(scale * n), nil
}

func commonArgs() map[string]interface{} {
	argsMap := make(map[string]interface{})
	argsMap["inputName"] = argInput
	argsMap["outputName"] = argOutput
	argsMap["verbose"] = argVerbose
	argsMap["jobs"] = argJobs
	argsMap["overwrite"] = argForce

	if len(argCPUProf) > 0 {
		argsMap["cpuProf"] = argCPUProf
	}

	return argsMap
}

func newCompressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compress",
		Short: "Compress a file or directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			argsMap := commonArgs()
			argsMap["level"] = argLevel
			argsMap["checksum"] = argChecksum
			argsMap["checksum64"] = argChecksum64
			argsMap["skipBlocks"] = argSkip

			if len(argEntropy) > 0 {
				argsMap["entropy"] = strings.ToUpper(argEntropy)
			}

			if len(argTransform) > 0 {
				argsMap["transform"] = strings.ToUpper(argTransform)
			}

			if len(argBlock) > 0 {
				blockSize, err := parseBlockSize(argBlock)

				if err != nil {
					return err
				}

				argsMap["block"] = blockSize
			}

			os.Exit(app.Compress(argsMap))
			return nil
		},
	}

	cmd.Flags().StringVarP(&argBlock, "block", "b", "", "block size, multiple of 16 (default 1 MB, max 1 GB, min 1 KB)")
	cmd.Flags().IntVarP(&argLevel, "level", "l", -1, "compression level [0..8], forces entropy and transform")
	cmd.Flags().StringVarP(&argEntropy, "entropy", "e", "", "entropy codec [None|Huffman|ANS0|ANS1|Range|FPAQ|TPAQ|TPAQX|CM] (default ANS0)")
	cmd.Flags().StringVarP(&argTransform, "transform", "t", "", "transform chain, EG. BWT+RANK (default BWT+RANK+ZRLT)")
	cmd.Flags().BoolVarP(&argChecksum, "checksum", "x", false, "enable 32-bit block checksum")
	cmd.Flags().BoolVar(&argChecksum64, "checksum64", false, "enable 64-bit block checksum")
	cmd.Flags().BoolVarP(&argSkip, "skip", "s", false, "copy high-entropy blocks instead of compressing them")
	return cmd
}

func newDecompressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decompress",
		Short: "Decompress a file or directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			argsMap := commonArgs()

			if argFrom >= 0 {
				argsMap["from"] = argFrom
			}

			if argTo >= 0 {
				argsMap["to"] = argTo
			}

			os.Exit(app.Decompress(argsMap))
			return nil
		},
	}

	cmd.Flags().IntVar(&argFrom, "from", -1, "start block (inclusive)")
	cmd.Flags().IntVar(&argTo, "to", -1, "end block (exclusive)")
	return cmd
}

func main() {
	root := &cobra.Command{
		Use:   "lithify",
		Short: "Lithify: a block-parallel BWT compressor",
	}

	root.PersistentFlags().StringVarP(&argInput, "input", "i", "", "input file or directory, or 'stdin' (mandatory)")
	root.PersistentFlags().StringVarP(&argOutput, "output", "o", "", "output file or directory, 'none' or 'stdout'")
	root.PersistentFlags().UintVarP(&argVerbose, "verbose", "v", 1, "verbosity level [0..5]")
	root.PersistentFlags().UintVarP(&argJobs, "jobs", "j", 1, "maximum number of concurrent jobs (max 64)")
	root.PersistentFlags().BoolVarP(&argForce, "force", "f", false, "overwrite the output file if it already exists")
	root.PersistentFlags().StringVarP(&argCPUProf, "cpu-profile", "p", "", "write a CPU profile to this file")
	root.MarkPersistentFlagRequired("input")

	root.AddCommand(newCompressCmd())
	root.AddCommand(newDecompressCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
