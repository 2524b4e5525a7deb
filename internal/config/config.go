// Package config loads o365 settings from ~/.config/o365/config (INI),
// environment variables and optional .env files.
//
// # Precedence
//
// Environment variables override the config file, which overrides the
// built-in defaults:
//
//	O365_CLIENT_ID   [auth] client_id
//	O365_TENANT      [auth] tenant
//	O365_SCOPES      [scopes] custom (comma separated)
//	O365_TOKEN_FILE  [paths] token_file
//	O365_MAIL_DIR    [paths] mail_dir
//	O365_CONFIG      location of the config file itself
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/filex"
)

const (
	// DefaultAuthority is the Azure AD login host.
	DefaultAuthority = "https://login.microsoftonline.com"
	// DefaultGraphURL is the Microsoft Graph v1.0 endpoint.
	DefaultGraphURL = "https://graph.microsoft.com/v1.0"

	graphScope = "https://graph.microsoft.com/"
)

// Scope groups enabled from the [scopes] section.
var (
	mailScopes = []string{
		graphScope + "Mail.ReadWrite",
		graphScope + "Mail.Send",
		graphScope + "MailboxSettings.Read",
	}
	calendarScopes = []string{
		graphScope + "Calendars.Read",
		graphScope + "Calendars.ReadWrite",
		graphScope + "Calendars.ReadWrite.Shared",
	}
	contactScopes = []string{
		graphScope + "Contacts.Read",
		graphScope + "Contacts.ReadWrite",
	}
	chatScopes = []string{
		graphScope + "Chat.Read",
		graphScope + "Chat.ReadWrite",
		graphScope + "ChatMessage.Send",
	}
	fileScopes = []string{
		graphScope + "Files.ReadWrite.All",
	}
	baseScopes = []string{
		graphScope + "User.Read",
		"offline_access",
	}
)

// DefaultScopes returns the scopes requested when nothing is configured.
func DefaultScopes() []string {
	var s []string
	s = append(s, calendarScopes...)
	s = append(s, contactScopes...)
	s = append(s, mailScopes...)
	s = append(s, chatScopes...)
	s = append(s, fileScopes...)
	s = append(s, baseScopes...)
	return s
}

// Config is the resolved runtime configuration.
type Config struct {
	ClientID     string   `json:"client_id"`
	Tenant       string   `json:"tenant"`
	Scopes       []string `json:"scopes"`
	TokenFile    string   `json:"token_file"`
	MailDir      string   `json:"mail_dir"`
	AuthorityURL string   `json:"authority"`
	GraphURL     string   `json:"graph_url"`
	// Path is the config file the values were read from.
	Path string `json:"config_file"`
}

// Dir returns the o365 configuration directory.
func Dir() string {
	return filex.ExpandHome("~/.config/o365")
}

// DefaultPath returns the config file location, honouring O365_CONFIG.
func DefaultPath() string {
	if p := strings.TrimSpace(os.Getenv("O365_CONFIG")); p != "" {
		return filex.ExpandHome(p)
	}
	return filepath.Join(Dir(), "config")
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Scopes:       DefaultScopes(),
		TokenFile:    filepath.Join(Dir(), "tokens.json"),
		MailDir:      filex.ExpandHome("~/.mail/office365"),
		AuthorityURL: DefaultAuthority,
		GraphURL:     DefaultGraphURL,
		Path:         DefaultPath(),
	}
}

// Load reads the config file at path (DefaultPath when empty) and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		cfg.Path = filex.ExpandHome(path)
	}

	if filex.Exists(cfg.Path) {
		f, err := ini.Load(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", cfg.Path, err)
		}
		if err := cfg.applyFile(f); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyFile(f *ini.File) error {
	auth := f.Section("auth")
	if v := strings.TrimSpace(auth.Key("client_id").String()); v != "" {
		c.ClientID = v
	}
	if v := strings.TrimSpace(auth.Key("tenant").String()); v != "" {
		c.Tenant = v
	}
	if v := strings.TrimSpace(auth.Key("authority").String()); v != "" {
		c.AuthorityURL = strings.TrimRight(v, "/")
	}

	if f.HasSection("scopes") {
		scopes, err := scopesFromSection(f.Section("scopes"))
		if err != nil {
			return err
		}
		c.Scopes = scopes
	}

	paths := f.Section("paths")
	if v := strings.TrimSpace(paths.Key("token_file").String()); v != "" {
		c.TokenFile = filex.ExpandHome(v)
	}
	if v := strings.TrimSpace(paths.Key("mail_dir").String()); v != "" {
		c.MailDir = filex.ExpandHome(v)
	}

	if v := strings.TrimSpace(f.Section("graph").Key("base_url").String()); v != "" {
		c.GraphURL = strings.TrimRight(v, "/")
	}
	return nil
}

// scopesFromSection builds the scope list from [scopes]. A custom list wins;
// otherwise each group flag (default true) contributes its scopes.
func scopesFromSection(sec *ini.Section) ([]string, error) {
	if sec.HasKey("custom") {
		return SplitList(sec.Key("custom").String()), nil
	}

	var scopes []string
	groups := []struct {
		key    string
		scopes []string
	}{
		{"mail", mailScopes},
		{"calendar", calendarScopes},
		{"contacts", contactScopes},
		{"chat", chatScopes},
		{"files", fileScopes},
	}
	for _, g := range groups {
		enabled := true
		if sec.HasKey(g.key) {
			v, err := sec.Key(g.key).Bool()
			if err != nil {
				return nil, fmt.Errorf("%w: scopes.%s must be true or false", domain.ErrInvalidInput, g.key)
			}
			enabled = v
		}
		if enabled {
			scopes = append(scopes, g.scopes...)
		}
	}
	return append(scopes, baseScopes...), nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("O365_CLIENT_ID")); v != "" {
		c.ClientID = v
	}
	if v := strings.TrimSpace(os.Getenv("O365_TENANT")); v != "" {
		c.Tenant = v
	}
	if v := strings.TrimSpace(os.Getenv("O365_SCOPES")); v != "" {
		c.Scopes = SplitList(v)
	}
	if v := strings.TrimSpace(os.Getenv("O365_TOKEN_FILE")); v != "" {
		c.TokenFile = filex.ExpandHome(v)
	}
	if v := strings.TrimSpace(os.Getenv("O365_MAIL_DIR")); v != "" {
		c.MailDir = filex.ExpandHome(v)
	}
	if v := strings.TrimSpace(os.Getenv("O365_AUTHORITY")); v != "" {
		c.AuthorityURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv("O365_GRAPH_URL")); v != "" {
		c.GraphURL = strings.TrimRight(v, "/")
	}
}

// Validate checks the settings needed to talk to Azure AD.
func (c *Config) Validate() error {
	var errs []error
	if c.ClientID == "" {
		errs = append(errs, fmt.Errorf("%w: OAuth client_id is not set", domain.ErrNotConfigured))
	}
	if c.Tenant == "" {
		errs = append(errs, fmt.Errorf("%w: OAuth tenant is not set", domain.ErrNotConfigured))
	}
	return errors.Join(errs...)
}

// TokenURL returns the OAuth2 token endpoint for the configured tenant.
func (c *Config) TokenURL() string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", c.AuthorityURL, c.tenantOrCommon())
}

// DeviceCodeURL returns the OAuth2 device authorisation endpoint.
func (c *Config) DeviceCodeURL() string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/devicecode", c.AuthorityURL, c.tenantOrCommon())
}

// AuthURL returns the OAuth2 authorisation endpoint.
func (c *Config) AuthURL() string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/authorize", c.AuthorityURL, c.tenantOrCommon())
}

func (c *Config) tenantOrCommon() string {
	if c.Tenant == "" {
		return "common"
	}
	return c.Tenant
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
