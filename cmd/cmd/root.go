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
	"github.com/spf13/cobra"
)

const AppName = "imgscope"

func Execute() error {
	rootCmd := &cobra.Command{
		Use:          AppName + " <image_path>",
		Short:        AppName + " - forensic disk image inspector",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunInspect,
	}

	rootCmd.PersistentFlags().String("log-level", "INFO", "log level: DEBUG, INFO, WARN, ERROR")
	rootCmd.Flags().Bool("show_chs", false, "print CHS-decoded MBR/EBR geometry")
	rootCmd.Flags().Bool("extract_mft", false, "walk the first NTFS partition's MFT and print decoded records")
	rootCmd.Flags().String("dump_mft", "", "walk the MFT and write decoded records as CSV to the given path")
	rootCmd.Flags().String("dump_dfxml", "", "walk the MFT and write decoded records as a DFXML document to the given path")

	rootCmd.AddCommand(DefineTimestompCommand())

	return rootCmd.Execute()
}
