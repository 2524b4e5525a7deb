package mcpserver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/timeexpr"
)

// Resource URIs.
const (
	ConfigURI        = "config://current"
	UnreadMailURI    = "o365://mail/unread"
	TodayCalendarURI = "o365://calendar/today"
)

const unreadResourceLimit = 20

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         ConfigURI,
		Name:        "current_config",
		Description: "Active o365 configuration and sign-in state.",
		MIMEType:    "application/json",
	}, s.readConfig)
	s.server.AddResource(&mcp.Resource{
		URI:         UnreadMailURI,
		Name:        "unread_mail",
		Description: "Most recent unread Inbox messages.",
		MIMEType:    "application/json",
	}, s.readUnreadMail)
	s.server.AddResource(&mcp.Resource{
		URI:         TodayCalendarURI,
		Name:        "today_calendar",
		Description: "Today's calendar events.",
		MIMEType:    "application/json",
	}, s.readTodayCalendar)
}

type configView struct {
	ClientID      string    `json:"client_id"`
	Tenant        string    `json:"tenant"`
	Scopes        []string  `json:"scopes"`
	ConfigFile    string    `json:"config_file"`
	TokenFile     string    `json:"token_file"`
	MailDir       string    `json:"mail_dir"`
	GraphURL      string    `json:"graph_url"`
	Authenticated bool      `json:"authenticated"`
	Account       string    `json:"account,omitempty"`
	TokenExpires  time.Time `json:"token_expires,omitzero"`
}

func (s *Server) readConfig(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	var view configView
	if s.svc.Config != nil {
		cfg := s.svc.Config.Current()
		view = configView{
			ClientID:   notSet(cfg.ClientID),
			Tenant:     notSet(cfg.Tenant),
			Scopes:     cfg.Scopes,
			ConfigFile: cfg.Path,
			TokenFile:  cfg.TokenFile,
			MailDir:    cfg.MailDir,
			GraphURL:   cfg.GraphURL,
		}
	}
	if s.svc.Auth != nil {
		if st, err := s.svc.Auth.Status(ctx); err == nil && st.Authenticated {
			view.Authenticated = true
			view.Account = st.Account
			view.TokenExpires = st.ExpiresAt
		}
	}
	return jsonResource(req.Params.URI, view)
}

func notSet(v string) string {
	if v == "" {
		return "not set"
	}
	return v
}

func (s *Server) readUnreadMail(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	unread := true
	msgs, err := s.svc.Mail.ListMessages(ctx, domain.MessageQuery{
		Folder: "Inbox",
		Unread: &unread,
		Limit:  unreadResourceLimit,
	})
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return jsonResource(req.Params.URI, map[string]any{"count": len(msgs), "messages": msgs})
}

func (s *Server) readTodayCalendar(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	start := timeexpr.StartOfDay(now())
	events, err := s.svc.Calendar.ListEvents(ctx, domain.EventQuery{Start: start, End: start.AddDate(0, 0, 1)})
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []domain.Event{}
	}
	return jsonResource(req.Params.URI, map[string]any{
		"date":   start.Format("2006-01-02"),
		"count":  len(events),
		"events": events,
	})
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{{
		URI:      uri,
		MIMEType: "application/json",
		Text:     string(data),
	}}}, nil
}
