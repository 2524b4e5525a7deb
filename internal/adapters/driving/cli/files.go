package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Browse, search and transfer OneDrive and SharePoint files",
}

var filesDrivesCmd = &cobra.Command{
	Use:   "drives",
	Short: "List available drives (use -v for IDs)",
	Args:  cobra.NoArgs,
	RunE:  runFilesDrives,
}

var filesListCmd = &cobra.Command{
	Use:   "list [PATH]",
	Short: "List files in a folder",
	Example: `  o365 files list
  o365 files list Documents/Reports -l
  o365 files list --drive "Engineering" -r --since "1 week ago"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFilesList,
}

var filesSearchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search files by name or content",
	Example: `  o365 files search budget --type xlsx
  o365 files search "design doc" --drive Engineering -n 10`,
	Args: cobra.ExactArgs(1),
	RunE: runFilesSearch,
}

var filesDownloadCmd = &cobra.Command{
	Use:   "download SOURCE [DEST]",
	Short: "Download a file (default destination: current directory)",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runFilesDownload,
}

var filesUploadCmd = &cobra.Command{
	Use:   "upload SOURCE DEST",
	Short: "Upload a local file into a remote folder",
	Example: `  o365 files upload report.pdf Documents/Reports
  o365 files upload notes.txt / --overwrite`,
	Args: cobra.ExactArgs(2),
	RunE: runFilesUpload,
}

// Flags for files commands.
var (
	filesDrive     string
	filesLong      bool
	filesRecursive bool
	filesSince     string
	filesType      string
	filesCount     int
	filesOverwrite bool
)

func init() {
	for _, c := range []*cobra.Command{filesListCmd, filesSearchCmd, filesDownloadCmd, filesUploadCmd} {
		c.Flags().StringVar(&filesDrive, "drive", "", "drive name or ID (default your OneDrive)")
	}

	f := filesListCmd.Flags()
	f.BoolVarP(&filesLong, "long", "l", false, "show type, size and modification time")
	f.BoolVarP(&filesRecursive, "recursive", "r", false, "list subfolders recursively")
	f.StringVar(&filesSince, "since", "", "only items modified since EXPR")

	f = filesSearchCmd.Flags()
	f.StringVar(&filesType, "type", "", "only files with this extension, e.g. pdf")
	f.StringVar(&filesSince, "since", "", "only items modified since EXPR")
	f.IntVarP(&filesCount, "count", "n", 0, "maximum number of results (default 50)")

	filesDownloadCmd.Flags().BoolVar(&filesOverwrite, "overwrite", false, "replace an existing local file")
	filesUploadCmd.Flags().BoolVar(&filesOverwrite, "overwrite", false, "replace an existing remote file")

	filesCmd.AddCommand(filesDrivesCmd, filesListCmd, filesSearchCmd, filesDownloadCmd, filesUploadCmd)
	rootCmd.AddCommand(filesCmd)
}

// driveID resolves --drive to a drive ID; empty selects the default drive.
func driveID(ctx context.Context) (string, error) {
	if filesDrive == "" {
		return "", nil
	}
	d, err := fileService.ResolveDrive(ctx, filesDrive)
	if err != nil {
		return "", err
	}
	return d.ID, nil
}

func runFilesDrives(cmd *cobra.Command, _ []string) error {
	if fileService == nil {
		return errors.New("file service not configured")
	}
	drives, err := fileService.ListDrives(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(drives) == 0 {
		fmt.Fprintln(w, "No drives found.")
		return nil
	}
	if verbose {
		t := newTable(w, column{"Name", 0}, column{"Type", 16}, column{"Used", 10}, column{"ID", 40})
		t.header()
		for _, d := range drives {
			used := ""
			if d.QuotaTotal > 0 {
				used = domain.FormatSize(d.QuotaUsed)
			}
			t.row(d.Name, d.DriveType, used, d.ID)
		}
	} else {
		for _, d := range drives {
			line := fmt.Sprintf("  • %s (%s)", d.Name, d.DriveType)
			if d.Owner != "" {
				line += " - owned by " + d.Owner
			}
			fmt.Fprintln(w, line)
		}
	}
	fmt.Fprintf(w, "\n%s. Browse one with 'o365 files list --drive \"Drive Name\"'.\n", plural(len(drives), "drive", "drives"))
	return nil
}

func runFilesList(cmd *cobra.Command, args []string) error {
	if fileService == nil {
		return errors.New("file service not configured")
	}
	ctx := cmd.Context()
	id, err := driveID(ctx)
	if err != nil {
		return err
	}
	since, err := parseTime("since", filesSince)
	if err != nil {
		return err
	}
	p := "/"
	if len(args) == 1 {
		p = args[0]
	}

	items, err := fileService.List(ctx, domain.FileQuery{Path: p, DriveID: id, Recursive: filesRecursive, Since: since})
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintf(w, "No files found in %s.\n", p)
		return nil
	}

	if filesLong {
		t := newTable(w, column{"Type", 6}, column{"Size", 10}, column{"Modified", 16}, column{"Name", 0})
		t.header()
		for _, it := range items {
			t.row(it.Type, itemSize(it), formatDateTime(it.ModifiedAt), itemName(it))
		}
	} else {
		for _, it := range items {
			fmt.Fprintln(w, "  "+itemName(it))
		}
	}
	fmt.Fprintf(w, "\n%s in %s.\n", plural(len(items), "item", "items"), p)
	return nil
}

// itemName shows the path relative to the drive root for recursive
// listings, with a trailing slash on folders.
func itemName(it domain.DriveItem) string {
	name := it.Name
	if filesRecursive && it.ParentPath != "" && it.ParentPath != "/" {
		name = it.ParentPath + "/" + name
	}
	if it.IsFolder() {
		name += "/"
	}
	return name
}

func itemSize(it domain.DriveItem) string {
	if it.IsFolder() {
		return "-"
	}
	return it.SizeFormatted
}

func runFilesSearch(cmd *cobra.Command, args []string) error {
	if fileService == nil {
		return errors.New("file service not configured")
	}
	ctx := cmd.Context()
	id, err := driveID(ctx)
	if err != nil {
		return err
	}
	since, err := parseTime("since", filesSince)
	if err != nil {
		return err
	}

	items, err := fileService.Search(ctx, domain.FileSearch{
		Query:   args[0],
		DriveID: id,
		Type:    filesType,
		Since:   since,
		Count:   filesCount,
	})
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintf(w, "No files found matching %q.\n", args[0])
		return nil
	}
	t := newTable(w, column{"Type", 6}, column{"Size", 10}, column{"Modified", 16}, column{"Name", 0}, column{"Path", 30})
	t.header()
	for _, it := range items {
		parent := it.ParentPath
		if parent == "" {
			parent = "/"
		}
		t.row(it.Type, itemSize(it), formatDateTime(it.ModifiedAt), it.Name, parent)
	}
	fmt.Fprintf(w, "\n%s.\n", plural(len(items), "result", "results"))
	return nil
}

func runFilesDownload(cmd *cobra.Command, args []string) error {
	if fileService == nil {
		return errors.New("file service not configured")
	}
	ctx := cmd.Context()
	id, err := driveID(ctx)
	if err != nil {
		return err
	}
	req := domain.DownloadRequest{Source: args[0], DriveID: id, Overwrite: filesOverwrite}
	if len(args) == 2 {
		req.Dest = args[1]
	}

	res, err := fileService.Download(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Downloaded %s (%s) to %s\n",
		styles.ok.Render("✓"), res.Name, res.SizeFormatted, res.Path)
	return nil
}

func runFilesUpload(cmd *cobra.Command, args []string) error {
	if fileService == nil {
		return errors.New("file service not configured")
	}
	ctx := cmd.Context()
	id, err := driveID(ctx)
	if err != nil {
		return err
	}

	res, err := fileService.Upload(ctx, domain.UploadRequest{
		Source:    args[0],
		Dest:      args[1],
		DriveID:   id,
		Overwrite: filesOverwrite,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Uploaded %s (%s) to %s\n",
		styles.ok.Render("✓"), res.Name, res.SizeFormatted, res.Path)
	if res.WebURL != "" {
		fmt.Fprintln(cmd.OutOrStdout(), "  "+res.WebURL)
	}
	return nil
}
