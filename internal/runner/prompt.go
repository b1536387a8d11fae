package runner

import (
	"fmt"
	"strconv"
)

const DefaultRoundBudget = 2

// Round is the position of a model call in a run: an integer round in
// [1, Budget] or the terminal final round.
type Round struct {
	Index  int
	Budget int
	final  bool
}

func FirstRound(budget int) Round { return Round{Index: 1, Budget: budget} }

func FinalRound(budget int) Round { return Round{Index: budget + 1, Budget: budget, final: true} }

func (r Round) Final() bool { return r.final }

// Next is the following integer round. Past the budget it is the final round.
func (r Round) Next() Round {
	if r.final || r.Index >= r.Budget {
		return FinalRound(r.Budget)
	}
	return Round{Index: r.Index + 1, Budget: r.Budget}
}

// ToolsAvailable reports whether tools are offered in this round.
func (r Round) ToolsAvailable() bool {
	return !r.final && r.Index >= 1 && r.Index <= r.Budget
}

func (r Round) String() string {
	if r.final {
		return "final"
	}
	return strconv.Itoa(r.Index) + "/" + strconv.Itoa(r.Budget)
}

const finalRoundInstructions = "You have completed all tool calling rounds. " +
	"Synthesize all the information gathered from the previous tool results into a single, " +
	"complete answer to the user's question. Do not request any further tool calls."

// BuildSystemPrompt appends round-specific instructions to base.
func BuildSystemPrompt(base string, r Round) string {
	var suffix string
	if r.Final() {
		suffix = finalRoundInstructions
	} else {
		suffix = fmt.Sprintf("Current round: %d/%d\n"+
			"You can use tools in this round to gather information. "+
			"After you see the results you may call tools again in a later round, "+
			"or answer directly once you have enough information.", r.Index, r.Budget)
		if r.Index == r.Budget {
			suffix += " This is the last round in which tools are available."
		}
	}
	if base == "" {
		return suffix
	}
	return base + "\n\n" + suffix
}
