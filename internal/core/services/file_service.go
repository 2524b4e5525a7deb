package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driving"
	"github.com/custodia-labs/o365-cli/internal/filex"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// Ensure FileService implements the interface.
var _ driving.FileService = (*FileService)(nil)

// MaxSimpleUpload is the largest file sent in a single PUT. Graph needs an
// upload session above it.
const MaxSimpleUpload = 4 * 1024 * 1024

// DefaultSearchCount caps file searches without a count.
const DefaultSearchCount = 50

// FileService browses, searches and transfers OneDrive and SharePoint files.
type FileService struct {
	drive driven.DriveGateway
}

// NewFileService creates a file service.
func NewFileService(drive driven.DriveGateway) *FileService {
	return &FileService{drive: drive}
}

// ListDrives returns the personal OneDrive followed by every other
// reachable drive, de-duplicated by ID.
func (s *FileService) ListDrives(ctx context.Context) ([]domain.Drive, error) {
	mine, err := s.drive.MyDrive(ctx)
	if err != nil {
		return nil, err
	}
	others, err := s.drive.ListDrives(ctx)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{mine.ID: true}
	out := []domain.Drive{*mine}
	for _, d := range others {
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		out = append(out, d)
	}
	return out, nil
}

// ResolveDrive matches an exact drive ID first, then a unique
// case-insensitive name substring.
func (s *FileService) ResolveDrive(ctx context.Context, nameOrID string) (*domain.Drive, error) {
	drives, err := s.ListDrives(ctx)
	if err != nil {
		return nil, err
	}
	for i := range drives {
		if drives[i].ID == nameOrID {
			return &drives[i], nil
		}
	}

	var matches []domain.Drive
	for _, d := range drives {
		if containsFold(d.Name, nameOrID) {
			matches = append(matches, d)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: drive %q", domain.ErrNotFound, nameOrID)
	case 1:
		return &matches[0], nil
	}
	names := make([]string, len(matches))
	for i, d := range matches {
		names[i] = fmt.Sprintf("%s (ID: %s)", d.Name, d.ID)
	}
	return nil, fmt.Errorf("%w: multiple drives match %q: %s; use a more specific name or the drive ID",
		domain.ErrInvalidInput, nameOrID, strings.Join(names, ", "))
}

// List lists a folder. Recursive listings descend into every subfolder;
// q.Since keeps items modified at or after it.
func (s *FileService) List(ctx context.Context, q domain.FileQuery) ([]domain.DriveItem, error) {
	items, err := s.drive.Children(ctx, q.DriveID, q.Path)
	if err != nil {
		return nil, err
	}
	if !q.Recursive {
		return filterSince(items, q), nil
	}

	var out []domain.DriveItem
	queue := items
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		if q.Since.IsZero() || !item.ModifiedAt.Before(q.Since) {
			out = append(out, item)
		}
		if !item.IsFolder() {
			continue
		}
		children, err := s.drive.ChildrenByID(ctx, q.DriveID, item.ID)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", path.Join(item.ParentPath, item.Name), err)
		}
		queue = append(queue, children...)
	}
	return out, nil
}

func filterSince(items []domain.DriveItem, q domain.FileQuery) []domain.DriveItem {
	if q.Since.IsZero() {
		return items
	}
	out := items[:0:0]
	for _, it := range items {
		if !it.ModifiedAt.Before(q.Since) {
			out = append(out, it)
		}
	}
	return out
}

// Search finds items by name or content, filtered by extension and
// modification time and capped at q.Count (default 50).
func (s *FileService) Search(ctx context.Context, q domain.FileSearch) ([]domain.DriveItem, error) {
	if strings.TrimSpace(q.Query) == "" {
		return nil, fmt.Errorf("%w: search query is empty", domain.ErrInvalidInput)
	}
	items, err := s.drive.Search(ctx, q.DriveID, q.Query)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(q.Type)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	count := q.Count
	if count <= 0 {
		count = DefaultSearchCount
	}

	out := make([]domain.DriveItem, 0, min(len(items), count))
	for _, it := range items {
		if ext != "" && !strings.HasSuffix(strings.ToLower(it.Name), ext) {
			continue
		}
		if !q.Since.IsZero() && it.ModifiedAt.Before(q.Since) {
			continue
		}
		out = append(out, it)
		if len(out) >= count {
			break
		}
	}
	return out, nil
}

// Download saves a remote file locally. An existing local file is kept
// unless req.Overwrite is set.
func (s *FileService) Download(ctx context.Context, req domain.DownloadRequest) (*domain.TransferResult, error) {
	item, err := s.remoteItem(ctx, req)
	if err != nil {
		return nil, err
	}
	if item.IsFolder() {
		return nil, fmt.Errorf("%w: %q is a folder; only files can be downloaded", domain.ErrInvalidInput, item.Name)
	}

	dest, err := downloadTarget(req.Dest, item.Name)
	if err != nil {
		return nil, err
	}
	if filex.Exists(dest) && !req.Overwrite {
		return nil, fmt.Errorf("%w: file exists: %s", domain.ErrConflict, dest)
	}

	driveID := req.DriveID
	if driveID == "" {
		driveID = item.DriveID
	}
	n, err := s.writeLocal(ctx, driveID, item.ID, dest)
	if err != nil {
		return nil, err
	}
	logger.Debug("files: downloaded %s (%d bytes) to %s", item.Name, n, dest)
	return &domain.TransferResult{
		ID:            item.ID,
		Name:          item.Name,
		Path:          dest,
		Size:          n,
		SizeFormatted: domain.FormatSize(n),
		WebURL:        item.WebURL,
	}, nil
}

func (s *FileService) remoteItem(ctx context.Context, req domain.DownloadRequest) (*domain.DriveItem, error) {
	switch {
	case req.ItemID != "":
		return s.drive.GetItem(ctx, req.DriveID, req.ItemID)
	case strings.Trim(req.Source, "/") != "":
		return s.drive.GetItemByPath(ctx, req.DriveID, req.Source)
	}
	return nil, fmt.Errorf("%w: a remote path or item ID is required", domain.ErrInvalidInput)
}

// downloadTarget resolves dest: empty is the working directory and an
// existing directory receives the remote name.
func downloadTarget(dest, name string) (string, error) {
	dest = filex.ExpandHome(dest)
	if dest == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(wd, name), nil
	}
	if fi, err := os.Stat(dest); err == nil && fi.IsDir() {
		return filepath.Join(dest, name), nil
	}
	return dest, nil
}

// writeLocal streams the item into a temporary file beside dest and
// renames it into place.
func (s *FileService) writeLocal(ctx context.Context, driveID, itemID, dest string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("create destination directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".o365-download-*")
	if err != nil {
		return 0, fmt.Errorf("create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := s.drive.Download(ctx, driveID, itemID, tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return 0, fmt.Errorf("move download into place: %w", err)
	}
	return n, nil
}

// Upload sends a local file into the remote folder req.Dest with a simple
// upload. Files of MaxSimpleUpload bytes or more are rejected.
func (s *FileService) Upload(ctx context.Context, req domain.UploadRequest) (*domain.TransferResult, error) {
	src := filex.ExpandHome(req.Source)
	fi, err := os.Stat(src)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: file not found: %s", domain.ErrInvalidInput, req.Source)
	case err != nil:
		return nil, err
	case fi.IsDir():
		return nil, fmt.Errorf("%w: %s is a directory; only files can be uploaded", domain.ErrInvalidInput, req.Source)
	case fi.Size() >= MaxSimpleUpload:
		return nil, fmt.Errorf("%w: %s is %s; files of 4 MB or more need a resumable upload, which is not supported",
			domain.ErrInvalidInput, req.Source, domain.FormatSize(fi.Size()))
	}

	content, err := os.ReadFile(src)
	if err != nil {
		return nil, err
	}

	remote := filepath.Base(src)
	if folder := strings.Trim(req.Dest, "/"); folder != "" {
		remote = folder + "/" + remote
	}
	item, err := s.drive.Upload(ctx, req.DriveID, remote, content, req.Overwrite)
	if err != nil {
		return nil, err
	}
	return &domain.TransferResult{
		ID:            item.ID,
		Name:          item.Name,
		Path:          "/" + remote,
		Size:          item.Size,
		SizeFormatted: domain.FormatSize(item.Size),
		WebURL:        item.WebURL,
	}, nil
}
