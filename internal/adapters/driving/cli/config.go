package cli

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/o365-cli/internal/config"
	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/filex"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and edit the config file",
	Long: `View and edit ~/.config/o365/config. Keys use section.option form:

  auth.client_id     Azure AD application (client) ID
  auth.tenant        tenant ID, domain or "common"
  scopes.mail        request mail scopes (true/false, also calendar,
                     contacts, chat, files)
  scopes.custom      comma-separated scope list replacing the groups
  paths.token_file   token cache location
  paths.mail_dir     Maildir mirror location

Environment variables (O365_CLIENT_ID, O365_TENANT, ...) override the file.`,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List settings in the config file",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset KEY",
	Short: "Remove a setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the config file in $VISUAL or $EDITOR",
	Args:  cobra.NoArgs,
	RunE:  runConfigEdit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), configFilePath())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configListCmd, configGetCmd, configSetCmd, configUnsetCmd, configEditCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func configFilePath() string {
	if configPath != "" {
		return filex.ExpandHome(configPath)
	}
	return config.DefaultPath()
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	f, err := config.OpenFile(configFilePath())
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	entries := f.Entries()
	if len(entries) == 0 {
		fmt.Fprintf(w, "No settings in %s; defaults are in use.\n", f.Path())
		return nil
	}

	fmt.Fprintln(w, styles.dim.Render("# " + f.Path()))
	section := ""
	for _, e := range entries {
		if e.Section != section {
			if section != "" {
				fmt.Fprintln(w)
			}
			section = e.Section
			fmt.Fprintln(w, styles.header.Render("[" + section + "]"))
		}
		value := e.Value
		if config.IsSecret(e.Key()) && value != "" {
			value = "********"
		}
		fmt.Fprintf(w, "%s = %s\n", e.Option, value)
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	f, err := config.OpenFile(configFilePath())
	if err != nil {
		return err
	}
	value, ok, err := f.Get(args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s is not set in %s", domain.ErrNotFound, args[0], f.Path())
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	path := configFilePath()
	f, err := config.OpenFile(path)
	if err != nil {
		return err
	}
	if err := f.Set(args[0], args[1]); err != nil {
		return err
	}
	if err := f.Save(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Set %s in %s\n", styles.ok.Render("✓"), strings.TrimSpace(args[0]), path)
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	f, err := config.OpenFile(configFilePath())
	if err != nil {
		return err
	}
	existed, err := f.Unset(args[0])
	if err != nil {
		return err
	}
	if !existed {
		fmt.Fprintf(cmd.OutOrStdout(), "%s was not set.\n", args[0])
		return nil
	}
	if err := f.Save(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Removed %s\n", styles.ok.Render("✓"), args[0])
	return nil
}

func runConfigEdit(cmd *cobra.Command, _ []string) error {
	path := configFilePath()
	if err := config.EnsureExists(path); err != nil {
		return err
	}
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	parts := strings.Fields(editor)
	c := exec.CommandContext(cmd.Context(), parts[0], append(parts[1:], path)...)
	c.Stdin = cmd.InOrStdin()
	c.Stdout = cmd.OutOrStdout()
	c.Stderr = cmd.ErrOrStderr()
	if err := c.Run(); err != nil {
		return fmt.Errorf("run editor %s: %w", editor, err)
	}
	if _, err := config.Load(path); err != nil {
		return fmt.Errorf("config file no longer parses: %w", err)
	}
	return nil
}
