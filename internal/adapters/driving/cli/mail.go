package cli

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

// DefaultLocalCount is the number of local messages listed by mail read.
const DefaultLocalCount = 10

var mailCmd = &cobra.Command{
	Use:   "mail",
	Short: "Sync, read, archive and send mail",
}

var mailSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync mail from Office 365 into the local Maildir",
	Example: `  o365 mail sync                              # Inbox, SentItems and Drafts
  o365 mail sync --folders Inbox --count 50   # last 50 messages from Inbox
  o365 mail sync --all --since "1 week ago"   # every folder, last week only
  o365 mail sync --list-folders`,
	Args: cobra.NoArgs,
	RunE: runMailSync,
}

var mailReadCmd = &cobra.Command{
	Use:   "read [ID...]",
	Short: "List and read mail from the local Maildir",
	Example: `  o365 mail read                        # 10 most recent messages
  o365 mail read --unread --since "2 days ago"
  o365 mail read -r 3                   # read message #3 of the listing
  o365 mail read 48608adc f1486a8d      # read messages by ID
  o365 mail read -s "invoice|payment"   # regex search on subject`,
	RunE: runMailRead,
}

var mailArchiveCmd = &cobra.Command{
	Use:   "archive ID...",
	Short: "Move messages to the Archive folder",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMailArchive,
}

var mailMarkReadCmd = &cobra.Command{
	Use:   "mark-read ID...",
	Short: "Mark messages as read",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMailMarkRead,
}

var mailSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a message",
	Example: `  echo "<p>Hello!</p>" | o365 mail send -r ann@contoso.com -S "Hi" -H -
  o365 mail send -r ann@contoso.com -c bob@contoso.com -S "Report" -T notes.txt -A report.pdf`,
	Args: cobra.NoArgs,
	RunE: runMailSend,
}

// Flags for mail commands.
var (
	syncFolders     []string
	syncCount       int
	syncSince       string
	syncAll         bool
	syncFocused     bool
	syncListFolders bool

	readCount  int
	readFolder string
	readNth    int
	readSearch string
	readField  string
	readSince  string
	readUnread bool
	readRead   bool
	readHTML   bool

	mailDryRun bool

	sendTo      []string
	sendCc      []string
	sendBcc     []string
	sendSubject string
	sendHTML    string
	sendText    string
	sendAttach  []string
)

func init() {
	f := mailSyncCmd.Flags()
	f.StringSliceVar(&syncFolders, "folders", nil, "folders to sync (default Inbox, SentItems, Drafts)")
	f.IntVar(&syncCount, "count", 0, "maximum messages to fetch per folder")
	f.StringVar(&syncSince, "since", "", "only messages received since EXPR (e.g. \"2 weeks ago\")")
	f.BoolVar(&syncAll, "all", false, "sync every folder")
	f.BoolVar(&syncFocused, "focused-inbox", false, "split Inbox into INBOX.Focused and INBOX.Other")
	f.BoolVar(&syncListFolders, "list-folders", false, "list mail folders and exit")

	f = mailReadCmd.Flags()
	f.IntVarP(&readCount, "count", "n", DefaultLocalCount, "number of messages to list")
	f.StringVarP(&readFolder, "folder", "f", "", "folder to read (default all folders)")
	f.IntVarP(&readNth, "read-email", "r", 0, "read message number N of the listing")
	f.StringVarP(&readSearch, "search", "s", "", "regular expression to search for")
	f.StringVar(&readField, "field", "subject", "field searched by --search: subject, from or to")
	f.StringVar(&readSince, "since", "", "only messages since EXPR")
	f.BoolVar(&readUnread, "unread", false, "only unread messages")
	f.BoolVar(&readRead, "read", false, "only read messages")
	f.BoolVar(&readHTML, "html", false, "show HTML bodies as-is")
	mailReadCmd.MarkFlagsMutuallyExclusive("unread", "read")

	mailArchiveCmd.Flags().BoolVar(&mailDryRun, "dry-run", false, "show what would change without changing it")
	mailMarkReadCmd.Flags().BoolVar(&mailDryRun, "dry-run", false, "show what would change without changing it")

	f = mailSendCmd.Flags()
	f.StringArrayVarP(&sendTo, "recipient", "r", nil, "recipient address (repeatable)")
	f.StringArrayVarP(&sendCc, "cc", "c", nil, "Cc address (repeatable)")
	f.StringArrayVarP(&sendBcc, "bcc", "b", nil, "Bcc address (repeatable)")
	f.StringVarP(&sendSubject, "subject", "S", "", "subject")
	f.StringVarP(&sendHTML, "html", "H", "", "HTML body file, or - for stdin")
	f.StringVarP(&sendText, "text", "T", "", "plain text body file, or - for stdin")
	f.StringArrayVarP(&sendAttach, "attach", "A", nil, "file to attach (repeatable)")
	_ = mailSendCmd.MarkFlagRequired("recipient")
	_ = mailSendCmd.MarkFlagRequired("subject")
	mailSendCmd.MarkFlagsMutuallyExclusive("html", "text")
	mailSendCmd.MarkFlagsOneRequired("html", "text")

	mailCmd.AddCommand(mailSyncCmd, mailReadCmd, mailArchiveCmd, mailMarkReadCmd, mailSendCmd)
	rootCmd.AddCommand(mailCmd)
}

func runMailSync(cmd *cobra.Command, _ []string) error {
	if mailSyncService == nil || mailService == nil {
		return errors.New("mail service not configured")
	}
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	if syncListFolders {
		folders, err := mailService.ListFolders(ctx)
		if err != nil {
			return err
		}
		t := newTable(w, column{"Folder", 0}, column{"Total", 8}, column{"Unread", 8})
		t.header()
		for _, f := range folders {
			t.row(f.DisplayName, fmt.Sprint(f.TotalItemCount), fmt.Sprint(f.UnreadItemCount))
		}
		return nil
	}

	since, err := parseTime("since", syncSince)
	if err != nil {
		return err
	}
	opts := domain.SyncOptions{
		Folders:      syncFolders,
		Count:        syncCount,
		Since:        since,
		All:          syncAll,
		FocusedInbox: syncFocused,
	}
	results, err := mailSyncService.Sync(ctx, opts, func(r domain.FolderSyncResult) {
		fmt.Fprintf(w, "%s %s → %s: %d fetched, %d new, %d already synced\n",
			styles.ok.Render("✓"), r.Folder, r.Maildir, r.Fetched, r.Downloaded, r.Skipped)
	})
	if err != nil {
		return err
	}

	total := 0
	for _, r := range results {
		total += r.Downloaded
	}
	fmt.Fprintf(w, "\nSynced %s from %s.\n", plural(total, "new message", "new messages"), plural(len(results), "folder", "folders"))
	return nil
}

func runMailRead(cmd *cobra.Command, args []string) error {
	if mailSyncService == nil {
		return errors.New("mail service not configured")
	}
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	for i, id := range args {
		if i > 0 {
			fmt.Fprintln(w, styles.dim.Render(strings.Repeat("═", min(termWidth(w), 80))))
		}
		msg, err := mailSyncService.OpenLocal(ctx, id, readHTML)
		if err != nil {
			return err
		}
		printLocalMessage(w, msg)
	}
	if len(args) > 0 {
		return nil
	}

	q, err := localQuery()
	if err != nil {
		return err
	}
	if readNth > 0 {
		q.Count = readNth
	}
	msgs, err := mailSyncService.ListLocal(ctx, q)
	if err != nil {
		return err
	}

	if readNth > 0 {
		if len(msgs) < readNth {
			return fmt.Errorf("%w: only %s match", domain.ErrNotFound, plural(len(msgs), "message", "messages"))
		}
		msg, err := mailSyncService.OpenLocal(ctx, msgs[readNth-1].ShortID, readHTML)
		if err != nil {
			return err
		}
		printLocalMessage(w, msg)
		return nil
	}

	if len(msgs) == 0 {
		fmt.Fprintln(w, "No messages found. Run 'o365 mail sync' to fetch mail.")
		return nil
	}
	t := newTable(w, column{"#", 3}, column{"ID", 8}, column{"Date", 16}, column{"From", 28}, column{"Subject", 0})
	t.header()
	for i, m := range msgs {
		subject := m.Subject
		if !m.Seen {
			subject = "● " + subject
		}
		t.row(fmt.Sprint(i+1), m.ShortID, formatDateTime(m.Date), m.From, subject)
	}
	fmt.Fprintf(w, "\n%s. Read one with 'o365 mail read ID' or 'o365 mail read -r N'.\n",
		plural(len(msgs), "message", "messages"))
	return nil
}

func localQuery() (domain.LocalQuery, error) {
	since, err := parseTime("since", readSince)
	if err != nil {
		return domain.LocalQuery{}, err
	}
	q := domain.LocalQuery{
		Folder: readFolder,
		Count:  readCount,
		Since:  since,
		Search: readSearch,
		Field:  readField,
	}
	switch {
	case readUnread:
		seen := false
		q.Seen = &seen
	case readRead:
		seen := true
		q.Seen = &seen
	}
	return q, nil
}

func printLocalMessage(w io.Writer, m *domain.LocalMessageContent) {
	fmt.Fprintln(w, styles.title.Render(m.Subject))
	fmt.Fprintf(w, "%s %s\n", styles.dim.Render("ID:     "), m.ShortID)
	fmt.Fprintf(w, "%s %s\n", styles.dim.Render("From:   "), m.From)
	fmt.Fprintf(w, "%s %s\n", styles.dim.Render("To:     "), m.To)
	if m.Cc != "" {
		fmt.Fprintf(w, "%s %s\n", styles.dim.Render("Cc:     "), m.Cc)
	}
	fmt.Fprintf(w, "%s %s\n", styles.dim.Render("Date:   "), formatDateTime(m.Date))
	fmt.Fprintf(w, "%s %s\n", styles.dim.Render("Folder: "), m.Folder)
	if len(m.Attachments) > 0 {
		fmt.Fprintf(w, "%s %s\n", styles.dim.Render("Attach: "), strings.Join(m.Attachments, ", "))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, m.Body)
}

func runMailArchive(cmd *cobra.Command, args []string) error {
	if mailService == nil {
		return errors.New("mail service not configured")
	}
	actions, err := mailService.Archive(cmd.Context(), args, mailDryRun)
	printActions(cmd.OutOrStdout(), "Archived", "Would archive", actions)
	return err
}

func runMailMarkRead(cmd *cobra.Command, args []string) error {
	if mailService == nil {
		return errors.New("mail service not configured")
	}
	actions, err := mailService.MarkRead(cmd.Context(), args, mailDryRun)
	printActions(cmd.OutOrStdout(), "Marked read", "Would mark read", actions)
	return err
}

func printActions(w io.Writer, done, dry string, actions []domain.MessageAction) {
	for _, a := range actions {
		verb := styles.ok.Render("✓") + " " + done
		if a.DryRun {
			verb = styles.dim.Render("[dry run]") + " " + dry
		}
		subject := a.Subject
		if subject == "" {
			subject = "(no subject)"
		}
		fmt.Fprintf(w, "%s %s: %s\n", verb, a.ID, subject)
	}
}

func runMailSend(cmd *cobra.Command, _ []string) error {
	if mailService == nil {
		return errors.New("mail service not configured")
	}
	mail := domain.OutgoingMail{
		To:              sendTo,
		Cc:              sendCc,
		Bcc:             sendBcc,
		Subject:         sendSubject,
		SaveToSentItems: true,
	}

	src := sendText
	if sendHTML != "" {
		src, mail.IsHTML = sendHTML, true
	}
	body, err := readBody(cmd.InOrStdin(), src)
	if err != nil {
		return err
	}
	mail.Body = body

	for _, path := range sendAttach {
		a, err := readAttachment(path)
		if err != nil {
			return err
		}
		mail.Attachments = append(mail.Attachments, a)
	}

	if err := mailService.Send(cmd.Context(), mail); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Sent %q to %s\n", styles.ok.Render("✓"), mail.Subject, strings.Join(mail.To, ", "))
	return nil
}

// readBody reads a message body from path, or from stdin when path is "-".
func readBody(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("%w: read body: %w", domain.ErrInvalidInput, err)
	}
	return string(data), nil
}

func readAttachment(path string) (domain.OutgoingAttachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.OutgoingAttachment{}, fmt.Errorf("%w: attachment: %w", domain.ErrInvalidInput, err)
	}
	ctype := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	return domain.OutgoingAttachment{Name: filepath.Base(path), ContentType: ctype, Data: data}, nil
}
