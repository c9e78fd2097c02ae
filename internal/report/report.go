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

// Package report renders decoded partitions and MFT records for the
// external collaborators of this tool: a human at a terminal
// (tabwriter-aligned tables) or a spreadsheet/analysis pipeline (CSV).
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/sscafiti/imgscope/internal/ntfs"
	"github.com/sscafiti/imgscope/internal/partition"
	"github.com/sscafiti/imgscope/pkg/util/format"
)

func newTabwriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// WritePartitionTable renders the detected scheme and its flattened
// partition list.
func WritePartitionTable(w io.Writer, result *partition.Result) error {
	tw := newTabwriter(w)
	fmt.Fprintf(tw, "scheme:\t%s\n\n", result.Scheme)
	fmt.Fprintln(tw, "#\tSTART LBA\tEND LBA\tSECTORS\tSIZE\tTYPE\tLABEL")
	for i, p := range result.Partitions {
		size := format.FormatBytes(int64(p.SizeSectors) * int64(partition.SectorSize))
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%s\t%s\t%s\n", i, p.StartingLBA, p.EndingLBA, p.SizeSectors, size, p.Kind.Name, p.Label)
	}
	return tw.Flush()
}

// WriteCHSTable renders every MBR/EBR entry's CHS-decoded start/end
// geometry for the --show_chs flag. It is a no-op (empty table) when
// the image does not use an MBR scheme.
func WriteCHSTable(w io.Writer, root *partition.MbrNode) error {
	tw := newTabwriter(w)
	fmt.Fprintln(tw, "NODE OFFSET (LBA)\tBOOTABLE\tTYPE\tSTART (C/H/S)\tEND (C/H/S)\tSECTORS")
	writeCHSNode(tw, root)
	return tw.Flush()
}

func writeCHSNode(tw *tabwriter.Writer, node *partition.MbrNode) {
	if node == nil {
		return
	}
	if e := node.Entry; e != nil {
		sc, sh, ss := partition.CHS(e.StartCHS)
		ec, eh, es := partition.CHS(e.EndCHS)
		fmt.Fprintf(tw, "%d\t%v\t0x%02X (%s)\t%d/%d/%d\t%d/%d/%d\t%d\n",
			node.ImageOffsetSectors, e.Bootable == 0x80, e.PartitionType, partition.MBRTypeName(e.PartitionType),
			sc, sh, ss, ec, eh, es, e.NumSectors)
	}
	for _, child := range node.Children {
		writeCHSNode(tw, child)
	}
}

// mftRow is the shared field set between the tabular and CSV MFT
// renderers.
type mftRow struct {
	index    int
	name     string
	size     uint64
	created  int64
	modified int64
	accessed int64
	mftMod   int64
}

func collectMFTRows(records []ntfs.Record) []mftRow {
	rows := make([]mftRow, 0, len(records))
	for _, r := range records {
		fn, _, hasName := r.FileName()
		si, _, hasSI := r.StandardInformation()
		row := mftRow{index: r.Index}
		if hasName {
			row.name = fn.Name
			row.size = fn.RealSize
		}
		if hasSI {
			row.created = si.Created.ToUnix()
			row.modified = si.Modified.ToUnix()
			row.accessed = si.Accessed.ToUnix()
			row.mftMod = si.MFTModified.ToUnix()
		}
		rows = append(rows, row)
	}
	return rows
}

func formatUnix(sec int64) string {
	if sec == 0 {
		return ""
	}
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}

// WriteMFTTable renders the MFT's decoded records for the --extract_mft
// flag, one row per record passed in. A record with no $FILE_NAME gets
// an empty name and a zero size; for a record with several $FILE_NAME
// attributes only the first one decoded is shown.
func WriteMFTTable(w io.Writer, records []ntfs.Record) error {
	tw := newTabwriter(w)
	fmt.Fprintln(tw, "RECORD\tNAME\tSIZE\tCREATED\tMODIFIED\tACCESSED\tMFT MODIFIED")
	for _, row := range collectMFTRows(records) {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.index, row.name, format.FormatBytes(int64(row.size)), formatUnix(row.created), formatUnix(row.modified),
			formatUnix(row.accessed), formatUnix(row.mftMod))
	}
	return tw.Flush()
}

// DumpMFTCSV writes the same rows as WriteMFTTable to path in CSV form,
// for the --dump_mft flag.
func DumpMFTCSV(path string, records []ntfs.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"record", "name", "size", "created", "modified", "accessed", "mft_modified"}); err != nil {
		return err
	}
	for _, row := range collectMFTRows(records) {
		if err := cw.Write([]string{
			strconv.Itoa(row.index),
			row.name,
			strconv.FormatUint(row.size, 10),
			formatUnix(row.created),
			formatUnix(row.modified),
			formatUnix(row.accessed),
			formatUnix(row.mftMod),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
