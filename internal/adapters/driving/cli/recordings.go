package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/filex"
)

var recordingsCmd = &cobra.Command{
	Use:   "recordings",
	Short: "List, download and transcribe Teams meeting recordings",
}

var recordingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List meeting recordings, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRecordingsList,
}

var recordingsSearchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search recordings by meeting name or keywords",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordingsSearch,
}

var recordingsDownloadCmd = &cobra.Command{
	Use:   "download ID [DEST]",
	Short: "Download a recording (default destination: current directory)",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runRecordingsDownload,
}

var recordingsTranscriptCmd = &cobra.Command{
	Use:   "transcript ID",
	Short: "Show the transcript of a recording",
	Example: `  o365 recordings transcript 01ABC --timestamps --speakers
  o365 recordings transcript 01ABC --format vtt --output meeting.vtt
  o365 recordings transcript 01ABC --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runRecordingsTranscript,
}

var recordingsInfoCmd = &cobra.Command{
	Use:   "info ID",
	Short: "Show recording details and transcript availability",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordingsInfo,
}

// Flags for recordings commands.
var (
	recSince      string
	recBefore     string
	recCount      int
	recOrganizer  string
	recFilename   string
	recFormat     string
	recOutput     string
	recTimestamps bool
	recSpeakers   bool
)

func init() {
	for _, c := range []*cobra.Command{recordingsListCmd, recordingsSearchCmd} {
		c.Flags().StringVar(&recSince, "since", "", "only recordings since EXPR")
		c.Flags().IntVarP(&recCount, "count", "n", 0, "maximum number of recordings (default 50)")
		c.Flags().StringVar(&recOrganizer, "organizer", "", "only recordings created by USER")
	}
	recordingsListCmd.Flags().StringVar(&recBefore, "before", "", "only recordings before EXPR")

	recordingsDownloadCmd.Flags().StringVar(&recFilename, "filename", "", "local file name (default the recording name)")

	f := recordingsTranscriptCmd.Flags()
	f.StringVar(&recFormat, "format", "txt", "output format: txt, vtt or json")
	f.StringVar(&recOutput, "output", "", "write the transcript to FILE")
	f.BoolVar(&recTimestamps, "timestamps", false, "prefix lines with cue start times (txt)")
	f.BoolVar(&recSpeakers, "speakers", false, "prefix lines with speaker names (txt)")

	recordingsCmd.AddCommand(recordingsListCmd, recordingsSearchCmd, recordingsDownloadCmd,
		recordingsTranscriptCmd, recordingsInfoCmd)
	rootCmd.AddCommand(recordingsCmd)
}

func recordingQuery(query string) (domain.RecordingQuery, error) {
	since, err := parseTime("since", recSince)
	if err != nil {
		return domain.RecordingQuery{}, err
	}
	before, err := parseTime("before", recBefore)
	if err != nil {
		return domain.RecordingQuery{}, err
	}
	return domain.RecordingQuery{
		Query:     query,
		Since:     since,
		Before:    before,
		Count:     recCount,
		Organizer: recOrganizer,
	}, nil
}

func runRecordingsList(cmd *cobra.Command, _ []string) error {
	if recordingService == nil {
		return errors.New("recording service not configured")
	}
	q, err := recordingQuery("")
	if err != nil {
		return err
	}
	recs, err := recordingService.List(cmd.Context(), q)
	if err != nil {
		return err
	}
	printRecordings(cmd.OutOrStdout(), recs, "No recordings found.")
	return nil
}

func runRecordingsSearch(cmd *cobra.Command, args []string) error {
	if recordingService == nil {
		return errors.New("recording service not configured")
	}
	q, err := recordingQuery(args[0])
	if err != nil {
		return err
	}
	recs, err := recordingService.Search(cmd.Context(), q)
	if err != nil {
		return err
	}
	printRecordings(cmd.OutOrStdout(), recs, fmt.Sprintf("No recordings found matching %q.", args[0]))
	return nil
}

func printRecordings(w io.Writer, recs []domain.Recording, empty string) {
	if len(recs) == 0 {
		fmt.Fprintln(w, empty)
		return
	}
	for i, r := range recs {
		fmt.Fprintf(w, "%d. %s\n", i+1, styles.title.Render(r.MeetingName))
		fmt.Fprintf(w, "   Date: %s  Size: %s", formatDateTime(r.RecordedAt), r.SizeFormatted)
		if r.Organizer != "" {
			fmt.Fprintf(w, "  By: %s", r.Organizer)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, styles.dim.Render("   ID: "+r.ID))
	}
	fmt.Fprintf(w, "\n%s. Use 'o365 recordings transcript ID' to read one.\n", plural(len(recs), "recording", "recordings"))
}

func runRecordingsDownload(cmd *cobra.Command, args []string) error {
	if recordingService == nil {
		return errors.New("recording service not configured")
	}
	dest := ""
	if len(args) == 2 {
		dest = args[1]
	}
	res, err := recordingService.Download(cmd.Context(), args[0], dest, recFilename)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Downloaded %s (%s) to %s\n",
		styles.ok.Render("✓"), res.Name, res.SizeFormatted, res.Path)
	return nil
}

func runRecordingsTranscript(cmd *cobra.Command, args []string) error {
	if recordingService == nil {
		return errors.New("recording service not configured")
	}
	switch recFormat {
	case "txt", "vtt", "json":
	default:
		return fmt.Errorf("%w: --format must be txt, vtt or json", domain.ErrInvalidInput)
	}

	tr, err := recordingService.Transcript(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	out, err := renderTranscript(tr, recFormat, recTimestamps, recSpeakers)
	if err != nil {
		return err
	}

	if recOutput == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), out)
		return err
	}
	if err := filex.WriteFileAtomic(filex.ExpandHome(recOutput), []byte(out), 0o644); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Transcript saved to %s\n", styles.ok.Render("✓"), recOutput)
	return nil
}

func renderTranscript(tr *domain.Transcript, format string, timestamps, speakers bool) (string, error) {
	switch format {
	case "vtt":
		return tr.Raw, nil
	case "json":
		var b strings.Builder
		if err := printJSON(&b, tr); err != nil {
			return "", err
		}
		return b.String(), nil
	}
	return tr.Text(timestamps, speakers), nil
}

func runRecordingsInfo(cmd *cobra.Command, args []string) error {
	if recordingService == nil {
		return errors.New("recording service not configured")
	}
	r, err := recordingService.Info(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	transcript := "Not available"
	if r.HasTranscript {
		transcript = "Available"
	}
	fmt.Fprintln(w, styles.title.Render(r.MeetingName))
	fmt.Fprintf(w, "Name:        %s\n", r.Name)
	fmt.Fprintf(w, "ID:          %s\n", r.ID)
	fmt.Fprintf(w, "Size:        %s\n", r.SizeFormatted)
	fmt.Fprintf(w, "Recorded:    %s\n", formatDateTime(r.RecordedAt))
	fmt.Fprintf(w, "Modified:    %s\n", formatDateTime(r.ModifiedAt))
	if r.Organizer != "" {
		fmt.Fprintf(w, "Created by:  %s\n", r.Organizer)
	}
	fmt.Fprintf(w, "Transcript:  %s\n", transcript)
	if r.WebURL != "" {
		fmt.Fprintf(w, "Web URL:     %s\n", r.WebURL)
	}
	return nil
}
