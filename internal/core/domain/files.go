package domain

import (
	"fmt"
	"time"
)

// Drive item types.
const (
	ItemFile   = "file"
	ItemFolder = "folder"
)

// Drive is a OneDrive or SharePoint document library.
type Drive struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	DriveType  string `json:"drive_type"`
	Owner      string `json:"owner,omitempty"`
	QuotaUsed  int64  `json:"quota_used,omitempty"`
	QuotaTotal int64  `json:"quota_total,omitempty"`
	WebURL     string `json:"web_url,omitempty"`
}

// DriveItem is a file or folder.
type DriveItem struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	Size          int64     `json:"size"`
	SizeFormatted string    `json:"size_formatted"`
	MIMEType      string    `json:"mime_type,omitempty"`
	ModifiedAt    time.Time `json:"modified_datetime"`
	CreatedAt     time.Time `json:"created_datetime,omitempty"`
	WebURL        string    `json:"web_url,omitempty"`
	DownloadURL   string    `json:"download_url,omitempty"`
	ParentPath    string    `json:"parent_path,omitempty"`
	ParentID      string    `json:"parent_id,omitempty"`
	DriveID       string    `json:"drive_id,omitempty"`
	CreatedBy     string    `json:"created_by,omitempty"`
	ChildCount    int       `json:"child_count,omitempty"`
}

// IsFolder reports whether the item is a folder.
func (i DriveItem) IsFolder() bool {
	return i.Type == ItemFolder
}

// FileQuery selects a folder listing.
type FileQuery struct {
	Path      string
	DriveID   string
	Recursive bool
	Since     time.Time
}

// FileSearch filters a drive search.
type FileSearch struct {
	Query   string
	DriveID string
	// Type is a file extension such as "pdf".
	Type  string
	Since time.Time
	Count int
}

// TransferResult reports a completed download or upload.
type TransferResult struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name"`
	Path          string `json:"path"`
	Size          int64  `json:"size"`
	SizeFormatted string `json:"size_formatted"`
	WebURL        string `json:"web_url,omitempty"`
}

// FormatSize renders a byte count with one decimal place.
func FormatSize(size int64) string {
	if size < 1024 {
		return fmt.Sprintf("%d B", size)
	}
	units := []string{"KB", "MB", "GB", "TB"}
	value := float64(size)
	for i, unit := range units {
		value /= 1024
		// Values that would print as 1024.0 move up a unit.
		if value < 1023.95 || i == len(units)-1 {
			return fmt.Sprintf("%.1f %s", value, unit)
		}
	}
	return fmt.Sprintf("%d B", size)
}

// DownloadRequest names a remote item and a local destination.
type DownloadRequest struct {
	// Source is a remote path; ignored when ItemID is set.
	Source  string
	ItemID  string
	DriveID string
	// Dest is a local directory or file path. Empty means the working directory.
	Dest      string
	Overwrite bool
}

// UploadRequest names a local file and a remote destination folder.
type UploadRequest struct {
	Source string
	// Dest is the remote folder; the file keeps its local name.
	Dest      string
	DriveID   string
	Overwrite bool
}
