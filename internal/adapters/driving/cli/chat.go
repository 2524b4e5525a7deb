package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Read, send and search Teams chats",
}

var chatListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent chats",
	Example: `  o365 chat list
  o365 chat list --with ann --since "1 week ago"`,
	Args: cobra.NoArgs,
	RunE: runChatList,
}

var chatReadCmd = &cobra.Command{
	Use:   "read [CHAT_ID]",
	Short: "Read the messages of a chat",
	Example: `  o365 chat read 19:abc123@unq.gbl.spaces
  o365 chat read --with ann -n 20`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChatRead,
}

var chatSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a message to a chat",
	Example: `  o365 chat send --to ann -m "Running 5 minutes late"
  o365 chat send --chat 19:abc123@unq.gbl.spaces -m "Done"`,
	Args: cobra.NoArgs,
	RunE: runChatSend,
}

var chatSearchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search messages in recent chats",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatSearch,
}

// Flags for chat commands.
var (
	chatCount   int
	chatWith    string
	chatSince   string
	chatID      string
	chatTo      string
	chatMessage string
)

func init() {
	for _, c := range []*cobra.Command{chatListCmd, chatReadCmd, chatSearchCmd} {
		c.Flags().IntVarP(&chatCount, "count", "n", 0, "maximum number of results (default 50)")
		c.Flags().StringVar(&chatWith, "with", "", "only chats with USER (name, email or topic)")
		c.Flags().StringVar(&chatSince, "since", "", "only activity since EXPR")
	}

	f := chatSendCmd.Flags()
	f.StringVar(&chatID, "chat", "", "chat ID to send to")
	f.StringVar(&chatTo, "to", "", "send to the chat with USER")
	f.StringVarP(&chatMessage, "message", "m", "", "message text")
	_ = chatSendCmd.MarkFlagRequired("message")
	chatSendCmd.MarkFlagsMutuallyExclusive("chat", "to")
	chatSendCmd.MarkFlagsOneRequired("chat", "to")

	chatCmd.AddCommand(chatListCmd, chatReadCmd, chatSendCmd, chatSearchCmd)
	rootCmd.AddCommand(chatCmd)
}

func chatQuery() (domain.ChatQuery, error) {
	since, err := parseTime("since", chatSince)
	if err != nil {
		return domain.ChatQuery{}, err
	}
	return domain.ChatQuery{Count: chatCount, With: chatWith, Since: since}, nil
}

func runChatList(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}
	q, err := chatQuery()
	if err != nil {
		return err
	}
	chats, err := chatService.ListChats(cmd.Context(), q)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(chats) == 0 {
		if q.With != "" {
			fmt.Fprintf(w, "No chats found with %q.\n", q.With)
			return nil
		}
		fmt.Fprintln(w, "No chats found.")
		return nil
	}
	t := newTable(w, column{"Type", 9}, column{"Name", 0}, column{"Last message", 16})
	t.header()
	for _, c := range chats {
		t.row(c.ChatType, c.DisplayName, formatDateTime(c.LastMessageAt))
		fmt.Fprintln(w, styles.dim.Render("  "+c.ID))
	}
	fmt.Fprintf(w, "\n%s. Read one with 'o365 chat read CHAT_ID'.\n", plural(len(chats), "chat", "chats"))
	return nil
}

// resolveChatID returns id, or the single chat matching with.
func resolveChatID(cmd *cobra.Command, id, with string) (string, error) {
	if id != "" {
		return id, nil
	}
	if with == "" {
		return "", fmt.Errorf("%w: give a chat ID or --with USER", domain.ErrInvalidInput)
	}
	chat, err := chatService.ResolveChat(cmd.Context(), with)
	if err != nil {
		return "", err
	}
	return chat.ID, nil
}

func runChatRead(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}
	q, err := chatQuery()
	if err != nil {
		return err
	}
	var id string
	if len(args) == 1 {
		id = args[0]
	}
	id, err = resolveChatID(cmd, id, q.With)
	if err != nil {
		return err
	}

	msgs, err := chatService.ReadMessages(cmd.Context(), id, q.Count, q.Since)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if len(msgs) == 0 {
		fmt.Fprintln(w, "No messages found.")
		return nil
	}
	for _, m := range msgs {
		printChatMessage(w, m, "")
	}
	return nil
}

func printChatMessage(w io.Writer, m domain.ChatMessage, prefix string) {
	from := m.From
	if from == "" {
		from = "Unknown"
	}
	fmt.Fprintf(w, "%s %s%s\n", styles.dim.Render("["+formatDateTime(m.CreatedAt)+"]"), prefix, styles.title.Render(from))
	for _, line := range strings.Split(m.Content, "\n") {
		fmt.Fprintln(w, "  "+line)
	}
	fmt.Fprintln(w)
}

func runChatSend(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}
	id, err := resolveChatID(cmd, chatID, chatTo)
	if err != nil {
		return err
	}
	if _, err := chatService.SendMessage(cmd.Context(), id, chatMessage); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Message sent\n", styles.ok.Render("✓"))
	return nil
}

func runChatSearch(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}
	q, err := chatQuery()
	if err != nil {
		return err
	}
	msgs, err := chatService.SearchMessages(cmd.Context(), args[0], q)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(msgs) == 0 {
		fmt.Fprintf(w, "No messages found matching %q.\n", args[0])
		return nil
	}
	fmt.Fprintln(w, styles.title.Render(fmt.Sprintf("Search results for %q (%d found)", args[0], len(msgs))))
	fmt.Fprintln(w)
	for _, m := range msgs {
		m.Content = truncate(oneLine(m.Content), 100)
		printChatMessage(w, m, m.ChatName+" - ")
	}
	return nil
}
