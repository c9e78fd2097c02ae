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

// Package dfxml renders a decoded MFT as a Digital Forensics XML
// document, so its records can be consumed by other forensics tooling
// that already understands the DFXML schema.
package dfxml

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"os/exec"
	"os/user"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/sscafiti/imgscope/internal/ntfs"
)

const XMLOutputVersion = "1.0"

var DefaultMetadata = Metadata{
	Xmlns:    "http://www.forensicswiki.org/wiki/Category:Digital_Forensics_XML",
	XmlnsXsi: "http://www.w3.org/2001/XMLSchema-instance",
	XmlnsDC:  "http://purl.org/dc/elements/1.1/",
	Type:     "MFT Report",
}

// Document is the root element of a DFXML document describing one
// decoded NTFS volume's Master File Table.
type Document struct {
	XMLName     xml.Name     `xml:"dfxml"`
	XMLOutput   string       `xml:"xmloutputversion,attr,omitempty"`
	Metadata    Metadata     `xml:"metadata"`
	Creator     Creator      `xml:"creator"`
	Source      Source       `xml:"source"`
	FileObjects []FileObject `xml:"fileobject"`
}

type Metadata struct {
	Xmlns    string `xml:"xmlns,attr"`
	XmlnsXsi string `xml:"xmlns:xsi,attr"`
	XmlnsDC  string `xml:"xmlns:dc,attr"`
	Type     string `xml:"dc:type"`
}

// Creator describes the software and environment used to generate the DFXML.
type Creator struct {
	Package              string  `xml:"package"`
	Version              string  `xml:"version"`
	ExecutionEnvironment ExecEnv `xml:"execution_environment"`
}

// ExecEnv provides information about the operating system and host where the DFXML was created.
type ExecEnv struct {
	OS      string `xml:"os_sysname"`
	Release string `xml:"os_release"`
	Version string `xml:"os_version"`
	Host    string `xml:"host"`
	Arch    string `xml:"arch"`
	UID     int    `xml:"uid"`
	Start   string `xml:"start_time"`
}

// Source describes the image the MFT was read from.
type Source struct {
	ImageFilename string `xml:"image_filename"`
	SectorSize    int    `xml:"sectorsize"`
	PartitionLBA  uint64 `xml:"partition_starting_lba"`
}

// FileObject is one decoded MFT record's timestamps and on-disk extent.
type FileObject struct {
	XMLName     xml.Name `xml:"fileobject"`
	Filename    string   `xml:"filename"`
	FileSize    uint64   `xml:"filesize"`
	Created     string   `xml:"created,omitempty"`
	Modified    string   `xml:"modified,omitempty"`
	Accessed    string   `xml:"accessed,omitempty"`
	MFTModified string   `xml:"mft_modified,omitempty"`
	ByteRuns    ByteRuns `xml:"byte_runs"`
}

// ByteRuns is a collection of ByteRun entries.
type ByteRuns struct {
	Runs []ByteRun `xml:"byte_run"`
}

// ByteRun describes a contiguous block of data within the image.
type ByteRun struct {
	ImgOffset uint64 `xml:"img_offset,attr"`
	Length    uint64 `xml:"len,attr"`
}

// osRelease identifies the host OS the way DFXML's
// execution_environment block expects: a release name/distro and a
// build/kernel string, gathered by whatever means the platform makes
// available (no generic uname library covers all three platforms).
func osRelease() (release, version string) {
	switch runtime.GOOS {
	case "linux":
		return linuxOSRelease()
	case "darwin":
		return darwinOSRelease()
	case "windows":
		return windowsOSRelease()
	default:
		return "unknown", "unknown"
	}
}

// linuxOSRelease parses /etc/os-release, the standard source of distro
// identity on any systemd-based or LSB-compliant Linux host.
func linuxOSRelease() (string, string) {
	f, err := os.Open("/etc/os-release")
	if err != nil {
		return "unknown", "unknown"
	}
	defer f.Close()

	var name, version string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "NAME=") {
			name = strings.Trim(line[5:], `"`)
		}
		if strings.HasPrefix(line, "VERSION=") {
			version = strings.Trim(line[8:], `"`)
		}
	}
	return name, version
}

func darwinOSRelease() (string, string) {
	output, err := exec.Command("sw_vers").Output()
	if err != nil {
		return "macOS", "unknown"
	}

	var productName, productVersion string
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "ProductName:") {
			productName = strings.TrimSpace(strings.TrimPrefix(line, "ProductName:"))
		}
		if strings.HasPrefix(line, "ProductVersion:") {
			productVersion = strings.TrimSpace(strings.TrimPrefix(line, "ProductVersion:"))
		}
	}
	return productName, productVersion
}

func windowsOSRelease() (string, string) {
	output, err := exec.Command("cmd", "/c", "ver").Output()
	if err != nil {
		return "Windows", "unknown"
	}
	return "Windows", strings.TrimSpace(string(output))
}

// GetExecEnv gathers the host identity DFXML's execution_environment
// block records alongside every MFT report this tool emits.
func GetExecEnv() ExecEnv {
	release, version := osRelease()

	host, err := os.Hostname()
	if err != nil {
		host = "unknown_host"
	}

	uid := 0
	if currentUser, err := user.Current(); err == nil {
		if uidInt, parseErr := strconv.Atoi(currentUser.Uid); parseErr == nil {
			uid = uidInt
		}
	}

	return ExecEnv{
		OS:      runtime.GOOS,
		Release: release,
		Version: version,
		Host:    host,
		Arch:    runtime.GOARCH,
		UID:     uid,
		Start:   time.Now().UTC().Format("2006-01-02T15:04:05Z"),
	}
}

func formatTimestamp(t ntfs.Timestamp) string {
	if t == 0 {
		return ""
	}
	return time.Unix(t.ToUnix(), 0).UTC().Format("2006-01-02T15:04:05Z")
}

// BuildDocument assembles a Document from a decoded MFT.
func BuildDocument(imageFilename string, sectorSize int, partitionStartingLBA uint64, appVersion string, records []ntfs.Record) Document {
	doc := Document{
		XMLOutput: XMLOutputVersion,
		Metadata:  DefaultMetadata,
		Creator: Creator{
			Package:              "imgscope",
			Version:              appVersion,
			ExecutionEnvironment: GetExecEnv(),
		},
		Source: Source{
			ImageFilename: imageFilename,
			SectorSize:    sectorSize,
			PartitionLBA:  partitionStartingLBA,
		},
	}

	for _, r := range records {
		fn, _, hasName := r.FileName()
		if !hasName {
			continue
		}
		si, _, hasSI := r.StandardInformation()

		obj := FileObject{
			Filename: fn.Name,
			FileSize: fn.RealSize,
			ByteRuns: ByteRuns{Runs: []ByteRun{{ImgOffset: r.ByteOffset, Length: uint64(sectorSize)}}},
		}
		if hasSI {
			obj.Created = formatTimestamp(si.Created)
			obj.Modified = formatTimestamp(si.Modified)
			obj.Accessed = formatTimestamp(si.Accessed)
			obj.MFTModified = formatTimestamp(si.MFTModified)
		}
		doc.FileObjects = append(doc.FileObjects, obj)
	}

	return doc
}

// Write encodes doc as indented XML, preceded by the standard XML
// declaration, to w.
func Write(w io.Writer, doc Document) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
