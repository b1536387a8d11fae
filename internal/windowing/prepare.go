package windowing

import (
	"github.com/rs/zerolog/log"

	"github.com/petasbytes/course-rag/memory"
)

// Stats summarizes the result of window preparation.
//
// Fields:
// - Total: estimated cost of included groups only.
// - Budget: the budget used.
// - IncludedGroups: number of groups included.
// - SkippedGroups: total groups minus IncludedGroups.
// - OverBudgetNewest: true when the newest single group alone exceeds Budget.
type Stats struct {
	Total            int
	Budget           int
	IncludedGroups   int
	SkippedGroups    int
	OverBudgetNewest bool
}

// PrepareSendWindow returns a suffix of msgs (oldest→newest) that fits within
// budget using the TokenCounter, without splitting groups.
//
// Rules:
// - Include whole groups scanning newest→oldest while total ≤ budget.
// - If the newest group alone exceeds budget, return an empty window and set OverBudgetNewest.
// - If budget ≤ 0, return an empty window (OverBudgetNewest set when any groups exist).
func PrepareSendWindow(msgs []memory.Message, budget int, c TokenCounter) ([]memory.Message, Stats) {
	if len(msgs) == 0 {
		return nil, Stats{Budget: budget}
	}

	groups := GroupExchanges(msgs)

	if budget <= 0 {
		return nil, Stats{Budget: budget, SkippedGroups: len(groups), OverBudgetNewest: len(groups) > 0}
	}

	total := 0
	included := 0
	startIdx := len(groups) // exclusive sentinel; lowered as groups are included

	for gi := len(groups) - 1; gi >= 0; gi-- {
		cost := c.CountGroup(groups[gi], msgs)
		if included == 0 && cost > budget {
			log.Debug().Int("budget", budget).Int("cost", cost).Msg("windowing: newest group over budget")
			return nil, Stats{
				Budget:           budget,
				SkippedGroups:    len(groups),
				OverBudgetNewest: true,
			}
		}
		if total+cost > budget {
			break
		}
		total += cost
		included++
		startIdx = gi
	}

	return msgs[groups[startIdx].Start:], Stats{
		Total:          total,
		Budget:         budget,
		IncludedGroups: included,
		SkippedGroups:  len(groups) - included,
	}
}

// HistoryWindow returns a memory.Window that keeps the newest exchanges
// fitting budget. A non-positive budget disables trimming.
func HistoryWindow(budget int) memory.Window {
	return func(msgs []memory.Message) []memory.Message {
		if budget <= 0 {
			return msgs
		}
		window, _ := PrepareSendWindow(msgs, budget, HeuristicCounter{})
		return window
	}
}
