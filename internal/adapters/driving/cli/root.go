package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/o365-cli/internal/config"
	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driving"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

var (
	// Version is set by goreleaser ldflags.
	version = "dev"

	// Verbose enables debug logging.
	verbose bool

	// configPath overrides the config file location.
	configPath string

	// Services holds injected service implementations for CLI commands.
	authService      driving.AuthService
	mailService      driving.MailService
	mailSyncService  driving.MailSyncService
	calendarService  driving.CalendarService
	chatService      driving.ChatService
	fileService      driving.FileService
	contactService   driving.ContactService
	recordingService driving.RecordingService
	configHolder     *config.Holder
	closeServices    func() error

	builder Builder
)

// Services holds configuration for CLI commands.
type Services struct {
	Auth       driving.AuthService
	Mail       driving.MailService
	MailSync   driving.MailSyncService
	Calendar   driving.CalendarService
	Chat       driving.ChatService
	Files      driving.FileService
	Contacts   driving.ContactService
	Recordings driving.RecordingService
	Config     *config.Holder
	// Close releases resources such as the local mail index.
	Close func() error
}

// Builder creates the services once the config file is known.
type Builder func(cfg *config.Config) (*Services, error)

// SetServices injects service implementations for CLI commands.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	authService = s.Auth
	mailService = s.Mail
	mailSyncService = s.MailSync
	calendarService = s.Calendar
	chatService = s.Chat
	fileService = s.Files
	contactService = s.Contacts
	recordingService = s.Recordings
	configHolder = s.Config
	closeServices = s.Close
}

// SetBuilder registers the function that wires services after flags are
// parsed. Services injected with SetServices take precedence.
func SetBuilder(b Builder) {
	builder = b
}

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "o365",
	Short: "Office 365 from the command line",
	Long: `o365 reads and sends Outlook mail, manages calendar events, talks in Teams
chats, moves OneDrive files and fetches meeting recordings through Microsoft
Graph. The same features are available to AI assistants via 'o365 mcp'.

Get started:
  o365 config set auth.client_id <app-id>
  o365 config set auth.tenant <tenant-id>
  o365 auth login`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and reports a failure on stderr.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if closeServices != nil {
		if cerr := closeServices(); cerr != nil {
			logger.Debug("cli: close services: %v", cerr)
		}
	}
	if err != nil {
		printError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
}

// printError writes "Error: ..." and, when known, "Hint: ...".
func printError(w io.Writer, err error) {
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(w, styles.err.Render("Error:")+" cancelled")
		return
	}
	fmt.Fprintln(w, styles.err.Render("Error:")+" "+err.Error())
	if hint := domain.Hint(err); hint != "" {
		fmt.Fprintln(w, styles.hint.Render("Hint:")+" "+hint)
	}
}

// loadConfig reads the config file named by --config or the defaults.
func loadConfig() (*config.Config, error) {
	if configHolder != nil && configPath == "" {
		return configHolder.Current(), nil
	}
	return config.Load(configPath)
}

// wire builds services on first use when none were injected.
func wire(cmd *cobra.Command) error {
	if authService != nil || builder == nil {
		return nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := builder(cfg)
	if err != nil {
		return err
	}
	SetServices(s)
	logger.Debug("cli: services wired for %s (config %s)", cmd.CommandPath(), cfg.Path)
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose debug output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/o365/config)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		config.LoadDotenv()
		if skipWiring(cmd) {
			return nil
		}
		return wire(cmd)
	}
}

// skipWiring reports whether cmd runs without Graph services.
func skipWiring(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "config", "version", "help":
			return true
		}
	}
	return false
}
