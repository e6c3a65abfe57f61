package windowing

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/anthropics/anthropic-sdk-go"
)

// TokenCounter estimates input-token cost for messages.
type TokenCounter interface {
	CountMessage(m anthropic.MessageParam) int
	CountMessages(msgs []anthropic.MessageParam) int
}

// HeuristicCounter is the current default deterministic estimator.
// Rules:
// - text blocks: rune count of TextBlockParam.Text
// - tool_use blocks: rune count of the raw JSON input plus the tool name
// - tool_result blocks:
//   - nested ([]anthropic.ContentBlockParamUnion): sum nested text runes
//   - non-nested (e.g. string): count runes of the string representation
//     Add a small per-block overhead to account for minimal formatting.
type HeuristicCounter struct{}

// Fixed per-block overhead for deterministic counts; changing this requires updating the guard test.
const blockOverhead = 4

func (HeuristicCounter) CountMessage(m anthropic.MessageParam) int {
	total := 0
	for _, blk := range m.Content {
		total += countBlock(blk)
	}
	return total
}

func (h HeuristicCounter) CountMessages(msgs []anthropic.MessageParam) int {
	total := 0
	for _, m := range msgs {
		total += h.CountMessage(m)
	}
	return total
}

// Helpers

func countBlock(blk anthropic.ContentBlockParamUnion) int {
	// text block
	if tb := blk.OfText; tb != nil {
		return utf8.RuneCountInString(tb.Text) + blockOverhead
	}

	// tool_result block
	if tr := blk.OfToolResult; tr != nil {
		// Handle nested content
		if nested, ok := any(tr.Content).([]anthropic.ToolResultBlockParamContentUnion); ok {
			subtotal := 0
			for _, nb := range nested {
				if nt := nb.OfText; nt != nil {
					subtotal += utf8.RuneCountInString(nt.Text)
				}
				// Non-text nested blocks contribute only via parent overhead.
			}
			return subtotal + blockOverhead
		}
		// Not-nested (use string representation)
		if s, ok := any(tr.Content).(string); ok {
			return utf8.RuneCountInString(s) + blockOverhead
		}

		// Fallback: unsupported non-nested tool_result payload - count overhead only (logs when verbose).
		vlogf("counter: unsupported_tool_result_payload type=%T using=overhead_only", tr.Content)
		return blockOverhead
	}

	// tool_use block: the echoed input can be large (edit_file carries whole snippets)
	if tu := blk.OfToolUse; tu != nil {
		switch in := tu.Input.(type) {
		case json.RawMessage:
			return utf8.RuneCount(in) + len(tu.Name) + blockOverhead
		case nil:
			return len(tu.Name) + blockOverhead
		default:
			if b, err := json.Marshal(in); err == nil {
				return utf8.RuneCount(b) + len(tu.Name) + blockOverhead
			}
		}
		return len(tu.Name) + blockOverhead
	}

	// Default for other blocks (thinking, images/documents in user messages, etc.) -
	// count overhead only in this minimal heuristic.
	return blockOverhead
}
