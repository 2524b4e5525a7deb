package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driving"
	"github.com/custodia-labs/o365-cli/internal/filex"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// Ensure RecordingService implements the interface.
var _ driving.RecordingService = (*RecordingService)(nil)

// RecordingsFolder is where Teams stores meeting recordings in OneDrive.
const RecordingsFolder = "Recordings"

// DefaultRecordingCount caps recording listings without a count.
const DefaultRecordingCount = 50

// recordingName matches Teams recording file names such as
// "Weekly Sync-20240305_100203-Meeting Recording.mp4".
var recordingName = regexp.MustCompile(`^(.*?)-(\d{8}_\d{6})-Meeting Recording`)

// RecordingService finds Teams meeting recordings in OneDrive and reads
// their transcripts.
type RecordingService struct {
	drive driven.DriveGateway
	files *FileService
}

// NewRecordingService creates a recording service.
func NewRecordingService(drive driven.DriveGateway) *RecordingService {
	return &RecordingService{drive: drive, files: NewFileService(drive)}
}

// IsVideo reports whether an item is a video file.
func IsVideo(item domain.DriveItem) bool {
	if item.IsFolder() {
		return false
	}
	name := strings.ToLower(item.Name)
	return strings.Contains(item.MIMEType, "video") ||
		strings.HasSuffix(name, ".mp4") || strings.HasSuffix(name, ".webm")
}

// NewRecording derives meeting details from a drive item.
func NewRecording(item domain.DriveItem) domain.Recording {
	rec := domain.Recording{
		DriveItem:   item,
		MeetingName: strings.TrimSuffix(item.Name, filepath.Ext(item.Name)),
		RecordedAt:  item.CreatedAt,
		Organizer:   item.CreatedBy,
	}
	if m := recordingName.FindStringSubmatch(item.Name); m != nil {
		rec.MeetingName = strings.TrimSpace(m[1])
		if t, err := time.ParseInLocation("20060102_150405", m[2], time.UTC); err == nil && rec.RecordedAt.IsZero() {
			rec.RecordedAt = t
		}
	}
	return rec
}

// List lists recordings in the Recordings folder, newest first. A missing
// folder yields an empty list.
func (s *RecordingService) List(ctx context.Context, q domain.RecordingQuery) ([]domain.Recording, error) {
	items, err := s.drive.Children(ctx, "", RecordingsFolder)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Debug("recordings: no %s folder in OneDrive", RecordingsFolder)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	recs := s.filter(items, q, false)
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].RecordedAt.After(recs[j].RecordedAt) })
	return applyLimit(recs, recordingCount(q.Count)), nil
}

// Search finds recordings under the Recordings folder by name or content.
func (s *RecordingService) Search(ctx context.Context, q domain.RecordingQuery) ([]domain.Recording, error) {
	if strings.TrimSpace(q.Query) == "" {
		return nil, fmt.Errorf("%w: search query is empty", domain.ErrInvalidInput)
	}
	items, err := s.drive.Search(ctx, "", q.Query)
	if err != nil {
		return nil, err
	}
	return applyLimit(s.filter(items, q, true), recordingCount(q.Count)), nil
}

func recordingCount(n int) int {
	if n <= 0 {
		return DefaultRecordingCount
	}
	return n
}

func (s *RecordingService) filter(items []domain.DriveItem, q domain.RecordingQuery, underFolder bool) []domain.Recording {
	var out []domain.Recording
	for _, it := range items {
		if !IsVideo(it) {
			continue
		}
		if underFolder && !strings.Contains(it.ParentPath, RecordingsFolder) {
			continue
		}
		rec := NewRecording(it)
		if !q.Since.IsZero() && rec.RecordedAt.Before(q.Since) {
			continue
		}
		if !q.Before.IsZero() && rec.RecordedAt.After(q.Before) {
			continue
		}
		if q.Organizer != "" && !containsFold(rec.Organizer, q.Organizer) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Info returns a recording with its transcript availability.
func (s *RecordingService) Info(ctx context.Context, id string) (*domain.Recording, error) {
	item, err := s.drive.GetItem(ctx, "", id)
	if err != nil {
		return nil, err
	}
	rec := NewRecording(*item)
	vtt, err := s.findTranscript(ctx, item)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if vtt != nil {
		rec.HasTranscript = true
		rec.TranscriptID = vtt.ID
	}
	return &rec, nil
}

// Download saves a recording into the directory dest (default the working
// directory), named filename or the recording's own name.
func (s *RecordingService) Download(ctx context.Context, id, dest, filename string) (*domain.TransferResult, error) {
	item, err := s.drive.GetItem(ctx, "", id)
	if err != nil {
		return nil, err
	}
	if filename == "" {
		filename = item.Name
	}
	dir := filex.ExpandHome(dest)
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return nil, err
		}
	}
	target := filepath.Join(dir, filepath.Base(filename))

	n, err := s.files.writeLocal(ctx, item.DriveID, item.ID, target)
	if err != nil {
		return nil, err
	}
	return &domain.TransferResult{
		ID:            item.ID,
		Name:          filepath.Base(target),
		Path:          target,
		Size:          n,
		SizeFormatted: domain.FormatSize(n),
		WebURL:        item.WebURL,
	}, nil
}

// Transcript downloads and parses the .vtt file stored beside a recording.
func (s *RecordingService) Transcript(ctx context.Context, id string) (*domain.Transcript, error) {
	item, err := s.drive.GetItem(ctx, "", id)
	if err != nil {
		return nil, err
	}
	vtt, err := s.findTranscript(ctx, item)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := s.drive.Download(ctx, vtt.DriveID, vtt.ID, &buf); err != nil {
		return nil, fmt.Errorf("download transcript: %w", err)
	}
	raw := buf.String()
	return &domain.Transcript{
		RecordingID: item.ID,
		Name:        vtt.Name,
		Raw:         raw,
		Entries:     ParseVTT(raw),
	}, nil
}

// findTranscript looks for a .vtt sibling whose name contains the
// recording's base name.
func (s *RecordingService) findTranscript(ctx context.Context, item *domain.DriveItem) (*domain.DriveItem, error) {
	if item.ParentID == "" {
		return nil, fmt.Errorf("%w: no transcript found for %s", domain.ErrNotFound, item.Name)
	}
	siblings, err := s.drive.ChildrenByID(ctx, item.DriveID, item.ParentID)
	if err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(item.Name, filepath.Ext(item.Name))
	for i := range siblings {
		name := siblings[i].Name
		if strings.HasSuffix(strings.ToLower(name), ".vtt") && strings.Contains(name, base) {
			return &siblings[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no transcript found for %s", domain.ErrNotFound, item.Name)
}
