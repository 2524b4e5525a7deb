package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/o365-cli/internal/adapters/driven/maildir"
	"github.com/custodia-labs/o365-cli/internal/adapters/driven/tokenstore"
	"github.com/custodia-labs/o365-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/o365-cli/internal/config"
	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft"
	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft/calendar"
	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft/onedrive"
	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft/outlook"
	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft/people"
	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft/teams"
	"github.com/custodia-labs/o365-cli/internal/core/services"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cli.SetVersion(version)
	cli.SetBuilder(build)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

// build wires the Graph connectors and core services for cfg.
func build(cfg *config.Config) (*cli.Services, error) {
	holder := config.NewHolder(cfg)

	// Auth
	store := tokenstore.New(cfg.TokenFile)
	oauth := microsoft.NewOAuthHandler(holder)
	tokens := services.NewTokenManager(store, oauth)

	// Graph connectors share one client and its rate limiters
	client := microsoft.NewClient(cfg.GraphURL, tokens)
	users := microsoft.NewUserService(client)
	mailbox := outlook.New(client)
	cal := calendar.New(client)
	drive := onedrive.New(client)
	chats := teams.New(client)
	contacts := people.New(client)

	// Local mail mirror, opened lazily on first use
	local := maildir.New(cfg.MailDir)

	contactSvc := services.NewContactService(contacts, cal)
	return &cli.Services{
		Auth:       services.NewAuthService(tokens, store, oauth, users),
		Mail:       services.NewMailService(mailbox, local),
		MailSync:   services.NewMailSyncService(mailbox, local),
		Calendar:   services.NewCalendarService(cal, contactSvc),
		Chat:       services.NewChatService(chats, contactSvc, users),
		Files:      services.NewFileService(drive),
		Contacts:   contactSvc,
		Recordings: services.NewRecordingService(drive),
		Config:     holder,
		Close:      local.Close,
	}, nil
}
