package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const checkUnreadPrompt = `Please check my unread emails and give me a summary of:
1. How many unread emails I have
2. Any urgent or important emails (based on subject and sender)
3. A brief summary of what they're about

Use the read_emails tool with unread=true.`

const todaysSchedulePrompt = `Please show me my calendar for today and tell me:
1. What meetings I have scheduled
2. When they start and end
3. Who the attendees are
4. If there are any conflicts or back-to-back meetings

Use the list_calendar_events tool with start_date="today" and end_date="today".`

const searchChatsPrompt = `Please help me search my recent Teams chats for:
%s

Use the search_teams_messages tool and summarize the results.`

func (s *Server) registerPrompts() {
	s.server.AddPrompt(&mcp.Prompt{
		Name:        "check_unread_emails",
		Description: "Summarise unread email.",
	}, staticPrompt("Check unread emails", checkUnreadPrompt))

	s.server.AddPrompt(&mcp.Prompt{
		Name:        "todays_schedule",
		Description: "Review today's calendar.",
	}, staticPrompt("Today's schedule", todaysSchedulePrompt))

	s.server.AddPrompt(&mcp.Prompt{
		Name:        "search_recent_chats",
		Description: "Search recent Teams chats for a topic.",
		Arguments: []*mcp.PromptArgument{{
			Name:        "query",
			Description: "what to look for",
			Required:    true,
		}},
	}, searchRecentChats)
}

func staticPrompt(description, text string) mcp.PromptHandler {
	return func(context.Context, *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return userPrompt(description, text), nil
	}
}

func searchRecentChats(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	query := strings.TrimSpace(req.Params.Arguments["query"])
	if query == "" {
		query = "[describe what to look for]"
	}
	return userPrompt("Search recent chats", fmt.Sprintf(searchChatsPrompt, query)), nil
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{{
			Role:    "user",
			Content: &mcp.TextContent{Text: text},
		}},
	}
}
