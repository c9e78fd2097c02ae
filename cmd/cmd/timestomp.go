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
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sscafiti/imgscope/internal/ntfs"
	"github.com/sscafiti/imgscope/internal/partition"
)

// DefineTimestompCommand builds the `timestomp` subcommand: locate a
// named file's MFT record and overwrite its $STANDARD_INFORMATION and
// $FILE_NAME timestamps.
func DefineTimestompCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "timestomp <image_path> <file_name> <unix_epoch>",
		Short:        "Overwrite an MFT record's timestamps",
		Args:         cobra.ExactArgs(3),
		SilenceUsage: true,
		RunE:         RunTimestomp,
	}
}

func RunTimestomp(cmd *cobra.Command, args []string) error {
	path := args[0]
	fileName := args[1]
	unixSeconds, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid unix_epoch %q: %w", args[2], err)
	}

	result, err := partition.Detect(path)
	if err != nil {
		return err
	}
	target, err := findNTFSPartition(result)
	if err != nil {
		return err
	}

	res, err := ntfs.Timestomp(path, target.StartingLBA, fileName, unixSeconds)
	if err != nil {
		return err
	}

	fmt.Printf("rewrote timestamps of record %d (offset %d) to %d\n", res.RecordIndex, res.ByteOffset, res.UnixSeconds)
	return nil
}
