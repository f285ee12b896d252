package graph

import (
	"strings"

	"github.com/turnwise/turnwise/core"
)

// Reduce rewrites a history into a form that is always a legal input for a
// text-only model call. Chat APIs reject tool-role messages that are not
// preceded by an assistant message carrying the matching tool calls, so:
//
//   - a standalone tool message with no preceding tool-call request is dropped;
//   - an assistant message that issued tool calls is collapsed together with
//     its immediately following tool result messages into a single assistant
//     message whose text is the original content plus a labeled block of the
//     result contents (or a placeholder when the assistant had no text).
//
// The output contains no tool roles and no tool calls, which makes Reduce
// idempotent: applying it twice equals applying it once.
func Reduce(msgs []core.Message) []core.Message {
	out := make([]core.Message, 0, len(msgs))
	i := 0
	for i < len(msgs) {
		m := msgs[i]

		if m.Role == core.RoleTool {
			i++
			continue
		}

		if m.Role == core.RoleAssistant && len(m.ToolCalls) > 0 {
			text := strings.TrimSpace(m.Text)

			var results []string
			j := i + 1
			for j < len(msgs) && msgs[j].Role == core.RoleTool {
				if msgs[j].Text != "" {
					results = append(results, msgs[j].Text)
				}
				j++
			}

			switch {
			case len(results) > 0 && text != "":
				text = text + "\n\n[Tool results]:\n" + strings.Join(results, "\n")
			case len(results) > 0:
				text = "[Tool results]:\n" + strings.Join(results, "\n")
			case text == "":
				text = "(Used tools in this turn.)"
			}

			out = append(out, core.AssistantMessage(text))
			i = j
			continue
		}

		out = append(out, core.Message{Role: m.Role, Text: m.Text})
		i++
	}
	return out
}

// tail returns the last n messages (or all of them when fewer).
func tail(msgs []core.Message, n int) []core.Message {
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
