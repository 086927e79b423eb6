// Package budget selects and truncates ordered candidate sources to fit a
// hard size limit. Allocation is a single forward pass with no
// backtracking, which makes the included set deterministic and monotone in
// the budget: anything included at a smaller budget is included at a
// larger one.
package budget

import (
	"strings"
	"unicode/utf8"

	"github.com/agentctx/agentctx/pkg/sources"
	"github.com/agentctx/agentctx/pkg/types/resolution"
)

// contentSeparator joins included payloads in the assembled context.
const contentSeparator = "\n\n"

// Allocate walks candidates in priority order and includes each source
// whose full size still fits the remaining budget.
//
// Inclusion is atomic for every scope except skill: partial instructions
// are worse than none, so a non-fitting source is dropped whole with a
// DroppedForBudget diagnostic (SourceExceedsBudget when it could never fit
// any budget of this size). Skill content is explicitly advisory and is
// the one scope eligible for partial truncation into the remaining space.
func Allocate(candidates []*sources.Source, budgetLimit int) *resolution.Result {
	result := &resolution.Result{
		Entries: make([]resolution.Entry, 0, len(candidates)),
	}

	var included []string
	total := 0
	for _, src := range candidates {
		if total+src.Size <= budgetLimit {
			result.Entries = append(result.Entries, resolution.Entry{SourceID: src.ID, Included: true})
			included = append(included, src.Content)
			total += src.Size
			continue
		}

		if src.Scope == sources.ScopeSkill {
			if remaining := budgetLimit - total; remaining > 0 {
				result.Entries = append(result.Entries, resolution.Entry{
					SourceID:  src.ID,
					Included:  true,
					Truncated: true,
				})
				included = append(included, truncateContent(src.Content, src.Size, remaining))
				total = budgetLimit
				result.Diagnostics = append(result.Diagnostics, resolution.Diagnostic{
					Code:     resolution.SkillTruncated,
					SourceID: src.ID,
				})
				continue
			}
		}

		code := resolution.DroppedForBudget
		if src.Size > budgetLimit {
			code = resolution.SourceExceedsBudget
		}
		result.Entries = append(result.Entries, resolution.Entry{SourceID: src.ID})
		result.Diagnostics = append(result.Diagnostics, resolution.Diagnostic{
			Code:     code,
			SourceID: src.ID,
		})
	}

	result.Content = strings.Join(included, contentSeparator)
	return result
}

// truncateContent keeps the leading share of content proportional to the
// remaining budget, cut back to a rune boundary.
func truncateContent(content string, size, remaining int) string {
	if size <= 0 || remaining >= size {
		return content
	}
	keep := len(content) * remaining / size
	if keep >= len(content) {
		return content
	}
	for keep > 0 && !utf8.RuneStart(content[keep]) {
		keep--
	}
	return content[:keep]
}
