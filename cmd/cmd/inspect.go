// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sscafiti/imgscope/internal/device"
	"github.com/sscafiti/imgscope/internal/env"
	"github.com/sscafiti/imgscope/internal/logger"
	"github.com/sscafiti/imgscope/internal/ntfs"
	"github.com/sscafiti/imgscope/internal/partition"
	"github.com/sscafiti/imgscope/internal/progress"
	"github.com/sscafiti/imgscope/internal/report"
	"github.com/sscafiti/imgscope/pkg/dfxml"
	"github.com/sscafiti/imgscope/pkg/util/format"
)

// RunInspect implements the root command: detect the partition scheme,
// print its table, and optionally walk the first NTFS partition's MFT.
func RunInspect(cmd *cobra.Command, args []string) error {
	path := args[0]

	logLevel, _ := cmd.Flags().GetString("log-level")
	log := logger.New(os.Stderr, logger.ParseLevel(logLevel))

	showCHS, _ := cmd.Flags().GetBool("show_chs")
	extractMFT, _ := cmd.Flags().GetBool("extract_mft")
	dumpMFT, _ := cmd.Flags().GetString("dump_mft")
	dumpDFXML, _ := cmd.Flags().GetString("dump_dfxml")

	dev, err := device.Open(path, false)
	if err != nil {
		return err
	}
	log.Infof("opened %s: %s, sector size %d", path, format.FormatBytes(dev.Size), dev.SectorSize)
	dev.Close()

	result, err := partition.Detect(path)
	if err != nil {
		return err
	}

	if err := report.WritePartitionTable(os.Stdout, result); err != nil {
		return err
	}

	if showCHS {
		if result.MBRRoot == nil {
			log.Warn("--show_chs requested but the image does not use an MBR scheme")
		} else {
			fmt.Println()
			if err := report.WriteCHSTable(os.Stdout, result.MBRRoot); err != nil {
				return err
			}
		}
	}

	if !extractMFT && dumpMFT == "" && dumpDFXML == "" {
		return nil
	}

	ntfsPartition, err := findNTFSPartition(result)
	if err != nil {
		return err
	}
	log.Infof("walking MFT of NTFS partition at LBA %d", ntfsPartition.StartingLBA)

	records, err := walkMFT(log, path, ntfsPartition.StartingLBA)
	if err != nil {
		return err
	}

	if extractMFT {
		fmt.Println()
		if err := report.WriteMFTTable(os.Stdout, records); err != nil {
			return err
		}
	}
	if dumpMFT != "" {
		if err := report.DumpMFTCSV(dumpMFT, records); err != nil {
			return err
		}
		log.Infof("wrote %d records to %s", len(records), dumpMFT)
	}
	if dumpDFXML != "" {
		if err := dumpDFXMLReport(path, ntfsPartition.StartingLBA, records, dumpDFXML); err != nil {
			return err
		}
		log.Infof("wrote %d records to %s", len(records), dumpDFXML)
	}

	return nil
}

// dumpDFXMLReport renders records as a DFXML document and writes it to
// path, for the --dump_dfxml flag.
func dumpDFXMLReport(imagePath string, partitionStartingLBA uint64, records []ntfs.Record, path string) error {
	doc := dfxml.BuildDocument(imagePath, ntfs.SectorSize, partitionStartingLBA, env.Version, records)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return dfxml.Write(f, doc)
}

// findNTFSPartition returns the first detected partition identifiable
// as NTFS: an MBR type 0x07 entry, or a GPT entry whose resolved type
// name is Microsoft's basic-data partition.
func findNTFSPartition(result *partition.Result) (partition.Ref, error) {
	for _, p := range result.Partitions {
		switch result.Scheme {
		case partition.SchemeMBR:
			if p.Kind.MBRCode == 0x07 {
				return p, nil
			}
		case partition.SchemeGPT:
			if strings.Contains(p.Kind.Name, "Microsoft basic data") {
				return p, nil
			}
		}
	}
	return partition.Ref{}, fmt.Errorf("no NTFS-typed partition found on %s", result.Scheme)
}

func walkMFT(log *logger.Logger, path string, partitionStartingLBA uint64) ([]ntfs.Record, error) {
	walker, err := ntfs.NewWalker(path, partitionStartingLBA)
	if err != nil {
		return nil, err
	}
	defer walker.Close()

	bar := progress.NewMFTBar(os.Stderr, -1) // total slot count isn't known until the walk completes
	defer bar.Close()

	var records []ntfs.Record
	for {
		record, err := walker.Next()
		if err != nil {
			log.Warnf("mft walk stopped early: %v", err)
			break
		}
		if record == nil {
			break
		}
		bar.Add()
		records = append(records, *record)
	}
	return records, nil
}
