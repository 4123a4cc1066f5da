// Package disk discovers mounted volumes on EC2 instances through SSM
// run commands.
package disk

// Dimension names carried by per-disk alarm candidates.
const (
	DimDevice      = "device"
	DimFilesystem  = "fstype"
	DimPath        = "path"
	DimLogicalDisk = "LogicalDisk"
)

// Platform identifies the instance operating system family, which selects
// the SSM document and the output format to parse.
type Platform string

const (
	Linux   Platform = "Linux"
	Windows Platform = "Windows"
)

// Descriptor describes one discovered volume. Linux volumes carry device,
// filesystem type and mount path; Windows volumes carry the drive letter.
type Descriptor struct {
	Platform   Platform `json:"platform"`
	Device     string   `json:"device,omitempty"`
	Filesystem string   `json:"fstype,omitempty"`
	Path       string   `json:"path,omitempty"`
	Letter     string   `json:"logicalDisk,omitempty"`
}
