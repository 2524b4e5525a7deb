package onedrive

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft"
	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

// DriveItem represents a OneDrive file or folder from the Graph API.
type DriveItem struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Size             int64            `json:"size"`
	WebURL           string           `json:"webUrl"`
	CreatedDateTime  string           `json:"createdDateTime"`
	ModifiedDateTime string           `json:"lastModifiedDateTime"`
	File             *FileInfo        `json:"file,omitempty"`
	Folder           *FolderInfo      `json:"folder,omitempty"`
	ParentReference  *ParentReference `json:"parentReference,omitempty"`
	CreatedBy        *IdentitySet     `json:"createdBy,omitempty"`
	DownloadURL      string           `json:"@microsoft.graph.downloadUrl,omitempty"`
}

// FileInfo contains file-specific metadata.
type FileInfo struct {
	MIMEType string `json:"mimeType"`
}

// FolderInfo contains folder-specific metadata.
type FolderInfo struct {
	ChildCount int `json:"childCount"`
}

// ParentReference contains parent folder information.
type ParentReference struct {
	DriveID   string `json:"driveId"`
	DriveType string `json:"driveType"`
	ID        string `json:"id"`
	Name      string `json:"name"`
	Path      string `json:"path"`
}

// IdentitySet names the user or application behind a change.
type IdentitySet struct {
	User *struct {
		DisplayName string `json:"displayName"`
		Email       string `json:"email"`
	} `json:"user,omitempty"`
}

// Drive is the Graph drive resource.
type Drive struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	DriveType string `json:"driveType"`
	WebURL    string `json:"webUrl"`
	Owner     *struct {
		User *struct {
			DisplayName string `json:"displayName"`
			Email       string `json:"email"`
		} `json:"user,omitempty"`
	} `json:"owner,omitempty"`
	Quota *struct {
		Used  int64 `json:"used"`
		Total int64 `json:"total"`
	} `json:"quota,omitempty"`
}

// IsFolder returns true if the item is a folder.
func (d *DriveItem) IsFolder() bool {
	return d.Folder != nil
}

// GetMIMEType returns the file's MIME type.
func (d *DriveItem) GetMIMEType() string {
	if d.File != nil && d.File.MIMEType != "" {
		return d.File.MIMEType
	}
	if d.IsFolder() {
		return ""
	}
	return "application/octet-stream"
}

var rootPrefix = regexp.MustCompile(`^/drives?(/[^/]+)?/root:`)

// ParentPath returns the parent folder relative to the drive root.
func (d *DriveItem) ParentPath() string {
	if d.ParentReference == nil {
		return "/"
	}
	p := rootPrefix.ReplaceAllString(d.ParentReference.Path, "")
	if p == "" {
		return "/"
	}
	return p
}

// ToDomain converts a Graph drive item.
func (d *DriveItem) ToDomain() domain.DriveItem {
	item := domain.DriveItem{
		ID:          d.ID,
		Name:        d.Name,
		Type:        domain.ItemFile,
		Size:        d.Size,
		MIMEType:    d.GetMIMEType(),
		ModifiedAt:  microsoft.MustParseDateTime(d.ModifiedDateTime),
		CreatedAt:   microsoft.MustParseDateTime(d.CreatedDateTime),
		WebURL:      d.WebURL,
		DownloadURL: d.DownloadURL,
		ParentPath:  d.ParentPath(),
	}
	if d.IsFolder() {
		item.Type = domain.ItemFolder
		item.ChildCount = d.Folder.ChildCount
	}
	if d.ParentReference != nil {
		item.DriveID = d.ParentReference.DriveID
		item.ParentID = d.ParentReference.ID
	}
	if d.CreatedBy != nil && d.CreatedBy.User != nil {
		item.CreatedBy = d.CreatedBy.User.DisplayName
	}
	item.SizeFormatted = "-"
	if d.Size > 0 {
		item.SizeFormatted = domain.FormatSize(d.Size)
	}
	return item
}

// ToDomain converts a Graph drive.
func (d *Drive) ToDomain() domain.Drive {
	out := domain.Drive{
		ID:        d.ID,
		Name:      d.Name,
		DriveType: d.DriveType,
		WebURL:    d.WebURL,
	}
	if d.Owner != nil && d.Owner.User != nil {
		out.Owner = d.Owner.User.DisplayName
		if d.Owner.User.Email != "" {
			out.Owner = strings.TrimSpace(out.Owner + " <" + d.Owner.User.Email + ">")
		}
	}
	if d.Quota != nil {
		out.QuotaUsed = d.Quota.Used
		out.QuotaTotal = d.Quota.Total
	}
	return out
}
