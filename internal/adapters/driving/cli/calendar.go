package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/timeexpr"
)

var calendarCmd = &cobra.Command{
	Use:     "calendar",
	Aliases: []string{"cal"},
	Short:   "List, create and delete calendar events",
}

var calendarListCmd = &cobra.Command{
	Use:   "list",
	Short: "List events in a date range",
	Long: `List calendar events. Without a range flag events from today through
the next 7 days are shown.`,
	Example: `  o365 calendar list --today
  o365 calendar list --week                  # Monday to Sunday
  o365 calendar list --after "2 days ago" --before "1 week"
  o365 calendar list --user quinn --today    # a calendar shared with you`,
	Args: cobra.NoArgs,
	RunE: runCalendarList,
}

var calendarCreateCmd = &cobra.Command{
	Use:   "create TITLE",
	Short: "Create an event",
	Example: `  o365 calendar create "Design review" --start "tomorrow 14:00" --duration 45m \
      --required ann@contoso.com --optional bob@contoso.com`,
	Args: cobra.ExactArgs(1),
	RunE: runCalendarCreate,
}

var calendarDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an event",
	Args:  cobra.ExactArgs(1),
	RunE:  runCalendarDelete,
}

// Flags for calendar commands.
var (
	calToday  bool
	calWeek   bool
	calMonth  bool
	calAfter  string
	calBefore string
	calUser   string

	calStart       string
	calDuration    string
	calRequired    []string
	calOptional    []string
	calDescription string
	calLocation    string
	calNoOnline    bool
)

func init() {
	f := calendarListCmd.Flags()
	f.BoolVar(&calToday, "today", false, "today's events")
	f.BoolVar(&calWeek, "week", false, "this week's events (Monday to Sunday)")
	f.BoolVar(&calMonth, "month", false, "this month's events")
	f.StringVar(&calAfter, "after", "", "events after EXPR (default start of today)")
	f.StringVar(&calBefore, "before", "", "events before EXPR (default 7 days after the start)")
	f.StringVar(&calUser, "user", "", "show the shared calendar of USER (name or email)")
	calendarListCmd.MarkFlagsMutuallyExclusive("today", "week", "month")

	f = calendarCreateCmd.Flags()
	f.StringVar(&calStart, "start", "", "start time, e.g. \"tomorrow 14:00\" or \"2025-01-15 09:30\"")
	f.StringVar(&calDuration, "duration", "1h", "duration, e.g. 30m, 1h30m, 2h")
	f.StringSliceVar(&calRequired, "required", nil, "required attendees")
	f.StringSliceVar(&calOptional, "optional", nil, "optional attendees")
	f.StringVar(&calDescription, "description", "", "event description")
	f.StringVar(&calLocation, "location", "", "event location")
	f.BoolVar(&calNoOnline, "no-online", false, "do not create a Teams meeting")
	_ = calendarCreateCmd.MarkFlagRequired("start")

	calendarCmd.AddCommand(calendarListCmd, calendarCreateCmd, calendarDeleteCmd)
	rootCmd.AddCommand(calendarCmd)
}

// calendarRange resolves the list flags to a [start, end) window.
func calendarRange(now time.Time) (time.Time, time.Time, error) {
	today := timeexpr.StartOfDay(now)
	switch {
	case calToday:
		return today, today.AddDate(0, 0, 1), nil
	case calWeek:
		monday := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
		return monday, monday.AddDate(0, 0, 7), nil
	case calMonth:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return first, first.AddDate(0, 1, 0), nil
	}

	start := today
	if calAfter != "" {
		t, err := timeexpr.Parse(calAfter, now)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: --after: %w", domain.ErrInvalidInput, err)
		}
		start = t
	}
	end := start.AddDate(0, 0, 7)
	if calBefore != "" {
		t, err := timeexpr.ParseFuture(calBefore, now)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: --before: %w", domain.ErrInvalidInput, err)
		}
		end = t
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: --before must be later than --after", domain.ErrInvalidInput)
	}
	return start, end, nil
}

func runCalendarList(cmd *cobra.Command, _ []string) error {
	if calendarService == nil {
		return errors.New("calendar service not configured")
	}
	start, end, err := calendarRange(time.Now())
	if err != nil {
		return err
	}
	events, err := calendarService.ListEvents(cmd.Context(), domain.EventQuery{Start: start, End: end, User: calUser})
	if err != nil {
		return err
	}
	printEvents(cmd.OutOrStdout(), events, start, end, calUser)
	return nil
}

func printEvents(w io.Writer, events []domain.Event, start, end time.Time, user string) {
	span := start.Local().Format("2006-01-02")
	if last := end.Add(-time.Nanosecond).Local().Format("2006-01-02"); last != span {
		span += " to " + last
	}
	who := ""
	if user != "" {
		who = " for " + user
	}
	if len(events) == 0 {
		fmt.Fprintf(w, "No events found%s (%s).\n", who, span)
		return
	}

	fmt.Fprintln(w, styles.title.Render(fmt.Sprintf("Events%s (%s)", who, span)))
	fmt.Fprintln(w)
	t := newTable(w, column{"Date", 10}, column{"Time", 11}, column{"Subject", 0}, column{"Location", 24}, column{"ID", 12})
	t.header()
	for _, e := range events {
		when := e.Start.Local().Format("15:04") + "-" + e.End.Local().Format("15:04")
		if e.IsAllDay {
			when = "all day"
		}
		subject := e.Subject
		if subject == "" {
			subject = "(no subject)"
		}
		if e.IsCancelled {
			subject = "[cancelled] " + subject
		}
		t.row(e.Start.Local().Format("2006-01-02"), when, subject, e.Location, shortEventID(e.ID))
	}
	fmt.Fprintf(w, "\nTotal: %s\n", plural(len(events), "event", "events"))
}

// shortEventID keeps the distinguishing tail of a Graph event ID.
func shortEventID(id string) string {
	const n = 12
	if len(id) <= n {
		return id
	}
	return "…" + id[len(id)-n+1:]
}

func runCalendarCreate(cmd *cobra.Command, args []string) error {
	if calendarService == nil {
		return errors.New("calendar service not configured")
	}
	now := time.Now()
	start, err := timeexpr.ParseFuture(calStart, now)
	if err != nil {
		return fmt.Errorf("%w: --start: %w", domain.ErrInvalidInput, err)
	}
	dur, err := timeexpr.ParseDuration(calDuration)
	if err != nil {
		return fmt.Errorf("%w: --duration: %w", domain.ErrInvalidInput, err)
	}

	ev, err := calendarService.CreateEvent(cmd.Context(), domain.NewEvent{
		Subject:       strings.TrimSpace(args[0]),
		Start:         start,
		Duration:      dur,
		Required:      calRequired,
		Optional:      calOptional,
		Description:   calDescription,
		Location:      calLocation,
		OnlineMeeting: !calNoOnline,
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s Created %q\n", styles.ok.Render("✓"), ev.Subject)
	fmt.Fprintf(w, "  When:  %s - %s\n", formatDateTime(ev.Start), ev.End.Local().Format("15:04"))
	if ev.Location != "" {
		fmt.Fprintf(w, "  Where: %s\n", ev.Location)
	}
	if ev.OnlineMeetingURL != "" {
		fmt.Fprintf(w, "  Join:  %s\n", ev.OnlineMeetingURL)
	}
	fmt.Fprintf(w, "  ID:    %s\n", ev.ID)
	return nil
}

func runCalendarDelete(cmd *cobra.Command, args []string) error {
	if calendarService == nil {
		return errors.New("calendar service not configured")
	}
	if err := calendarService.DeleteEvent(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted event %s\n", styles.ok.Render("✓"), args[0])
	return nil
}
