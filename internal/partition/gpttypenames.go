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

package partition

// gptTypeNames maps canonical-uppercase partition-type GUID strings to a
// descriptive name. Supplemented beyond the minimal set with common
// entries (Microsoft Reserved, Linux swap/LVM/RAID) drawn
// from common GPT type registries; additive only, it never changes
// decoding semantics.
var gptTypeNames = map[string]string{
	"C12A7328-F81F-11D2-BA4B-00A0C93EC93B": "EFI System",
	"024DEE41-33E7-11D3-9D69-0008C781F39F": "MBR partition scheme",
	"E3C9E316-0B5C-4DB8-817D-F92DF00215AE": "Microsoft Reserved",
	"EBD0A0A2-B9E5-4433-87C0-68B6B72699C7": "Microsoft basic data",
	"5808C8AA-7E8F-42E0-85D2-E1E90434CFB3": "Microsoft LDM metadata",
	"AF9B60A0-1431-4F62-BC68-3311714A69AD": "Microsoft LDM data",
	"DE94BBA4-06D1-4D40-A16A-BFD50179D6AC": "Windows Recovery Environment",
	"37AFFC90-EF7D-4E96-91C3-2D7AE055B174": "IBM General Parallel File System",
	"E75CAF8F-F680-4CEE-AFA3-B001E56EFC2D": "Storage Spaces",
	"75894C1E-3AEB-11D3-B7C1-7B03A0000000": "HP-UX data",
	"E2A1E728-32E3-11D6-A682-7B03A0000000": "HP-UX service",
	"0FC63DAF-8483-4772-8E79-3D69D8477DE4": "Linux filesystem",
	"A19D880F-05FC-4D3B-A006-743F0F84911E": "Linux RAID",
	"0657FD6D-A4AB-43C4-84E5-0933C84B4F4F": "Linux swap",
	"E6D6D379-F507-44C2-A23C-238F2A3DF928": "Linux LVM",
	"933AC7E1-2EB4-4F13-B844-0E14E2AEF915": "Linux /home",
	"3B8F8425-20E0-4F3B-907F-1A25A76F98E8": "Linux srv",
	"CA7D7CCB-63ED-4C53-861C-1742536059CC": "Linux LUKS",
	"8DA63339-0007-60C0-C436-083AC8230908": "Linux reserved",
	"83BD6B9D-7F41-11DC-BE0B-001560B84F0F": "FreeBSD boot",
	"516E7CB4-6ECF-11D6-8FF8-00022D09712B": "FreeBSD disklabel",
	"516E7CB5-6ECF-11D6-8FF8-00022D09712B": "FreeBSD swap",
	"516E7CB6-6ECF-11D6-8FF8-00022D09712B": "FreeBSD UFS",
	"516E7CB8-6ECF-11D6-8FF8-00022D09712B": "FreeBSD Vinum",
	"516E7CBA-6ECF-11D6-8FF8-00022D09712B": "FreeBSD ZFS",
	"48465300-0000-11AA-AA11-00306543ECAC": "Apple HFS+",
	"7C3457EF-0000-11AA-AA11-00306543ECAC": "Apple APFS",
	"55465300-0000-11AA-AA11-00306543ECAC": "Apple UFS",
	"6A898CC3-1DD2-11B2-99A6-080020736631": "Apple ZFS",
	"52414944-0000-11AA-AA11-00306543ECAC": "Apple RAID",
	"426F6F74-0000-11AA-AA11-00306543ECAC": "Apple Boot",
	"4D21B016-B534-45C2-A9FB-5C16E091FD2D": "Apple Core Storage",
	"5265696D-1966-11AA-AA11-00306543ECAC": "Apple Core Storage (reserved)",
	"EF02D7CB-2ED3-488A-ED11-0D34F4F29D8B": "BIOS boot",
	"D3BFE2DE-3DAF-11DF-BA40-E3A556D89593": "iFFS",
	"9E1A2D38-C612-4316-AA26-8B49521E5A8B": "PReP boot",
	"A8D8A0EE-FD01-4AC1-8C2F-3FD3A84B5B5E": "VMware VMFS",
	"9D275380-40AD-11DB-BF97-000C2911D1B8": "VMware reserved",
	"AA31E02A-400F-11DB-9590-000C2911D1B8": "VMware VMFS extent",
	"E6D6D379-F507-44C2-A23C-238F2A3DF929": "VMware swap",
}

// GPTTypeName resolves a canonical GUID string to a descriptive name,
// falling back to "Unknown Partition Type" for anything not in the
// closed mapping table.
func GPTTypeName(canonical string) string {
	if name, ok := gptTypeNames[canonical]; ok {
		return name
	}
	return "Unknown Partition Type"
}
