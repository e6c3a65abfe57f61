package windowing

import "github.com/anthropics/anthropic-sdk-go"

// Stats summarizes the result of window preparation.
//
// Fields:
// - Total: estimated tokens of the window, task prompt included.
// - Budget: the input token budget used.
// - IncludedSteps: steps sent after the task prompt.
// - SkippedSteps: steps evicted from the window.
// - OverBudgetNewest: true when the task prompt plus the newest step exceed Budget.
type Stats struct {
	Total            int
	Budget           int
	IncludedSteps    int
	SkippedSteps     int
	OverBudgetNewest bool
}

// PrepareSendWindow returns the messages to send for one model round-trip.
// msgs[0] is the task prompt; the rest are steps as built by the runner.
//
// Rules:
//   - The task prompt is always sent and never evicted.
//   - The newest step is always sent alongside it; if the two together exceed
//     budget the window is empty and OverBudgetNewest is set.
//   - Older steps are then added newest to oldest, whole, while the total fits.
//     Scanning stops at the first step that does not fit so the window stays
//     a contiguous suffix after the task prompt.
//   - A budget <= 0 yields an empty window with OverBudgetNewest set.
func PrepareSendWindow(msgs []anthropic.MessageParam, budget int, c TokenCounter) ([]anthropic.MessageParam, Stats) {
	if len(msgs) == 0 {
		return nil, Stats{Budget: budget}
	}

	steps := SplitSteps(msgs)
	overBudget := Stats{Budget: budget, SkippedSteps: len(steps), OverBudgetNewest: true}
	if budget <= 0 {
		return nil, overBudget
	}

	total := c.CountMessage(msgs[0])
	if len(steps) == 0 {
		if total > budget {
			vlogf("reason=over_budget_task budget=%d cost=%d", budget, total)
			return nil, overBudget
		}
		return msgs, Stats{Total: total, Budget: budget}
	}

	cost := func(s Step) int { return c.CountMessages(msgs[s.Start:s.End]) }

	newest := len(steps) - 1
	n := cost(steps[newest])
	if total+n > budget {
		vlogf("reason=over_budget_newest_step budget=%d task=%d newest=%d", budget, total, n)
		return nil, overBudget
	}
	total += n
	first := newest
	for i := newest - 1; i >= 0; i-- {
		n = cost(steps[i])
		if total+n > budget {
			break
		}
		total += n
		first = i
	}

	included := len(steps) - first
	stats := Stats{
		Total:         total,
		Budget:        budget,
		IncludedSteps: included,
		SkippedSteps:  len(steps) - included,
	}
	if first > 0 {
		vlogf("evicted steps=%d budget=%d total=%d", first, budget, total)
	}

	start := steps[first].Start
	if start == 1 {
		return msgs, stats
	}
	window := make([]anthropic.MessageParam, 0, 1+len(msgs)-start)
	window = append(window, msgs[0])
	window = append(window, msgs[start:]...)
	return window, stats
}
