package windowing

import (
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
)

// Step is the span [Start, End) of one model round-trip in a run's
// conversation: the assistant reply and, when it asked for tools, the user
// message carrying their results. Steps are kept or evicted whole so a
// tool_use is never sent without its tool_result.
type Step struct {
	Start int
	End   int
}

// SplitSteps partitions the messages after the task prompt (msgs[0]) into
// steps. An assistant message with tool_use blocks pairs with the following
// user message when its leading tool_result blocks answer exactly those ids,
// in the same order. Any other message forms a one-message step.
func SplitSteps(msgs []anthropic.MessageParam) []Step {
	if len(msgs) < 2 {
		return nil
	}
	steps := make([]Step, 0, len(msgs)/2)
	for i := 1; i < len(msgs); {
		if ids := toolUseIDs(msgs[i]); len(ids) > 0 {
			if i+1 < len(msgs) && answers(msgs[i+1], ids) {
				steps = append(steps, Step{Start: i, End: i + 2})
				i += 2
				continue
			}
			vlogf("unanswered tool_use idx=%d ids=%d", i, len(ids))
		}
		steps = append(steps, Step{Start: i, End: i + 1})
		i++
	}
	return steps
}

// toolUseIDs lists the tool_use ids of an assistant message in order.
func toolUseIDs(m anthropic.MessageParam) []string {
	if m.Role != anthropic.MessageParamRoleAssistant {
		return nil
	}
	var ids []string
	for _, blk := range m.Content {
		if tu := blk.OfToolUse; tu != nil && tu.ID != "" {
			ids = append(ids, tu.ID)
		}
	}
	return ids
}

// answers reports whether m is a user message whose tool_result blocks come
// first and match ids one for one. Text after the results is allowed.
func answers(m anthropic.MessageParam, ids []string) bool {
	if m.Role != anthropic.MessageParamRoleUser {
		return false
	}
	n := 0
	for _, blk := range m.Content {
		tr := blk.OfToolResult
		if tr == nil {
			break
		}
		if n >= len(ids) || tr.ToolUseID != ids[n] {
			return false
		}
		n++
	}
	if n != len(ids) {
		return false
	}
	for _, blk := range m.Content[n:] {
		if blk.OfToolResult != nil {
			return false
		}
	}
	return true
}

// vlogf reports windowing decisions at debug level.
func vlogf(format string, args ...any) {
	slog.Debug(fmt.Sprintf(format, args...), "component", "windowing")
}
