// Package rationale composes the human-readable justification for a platform decision.
package rationale

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/platform-decider/internal/types"
)

const (
	clauseSeparator = "; "
	terminator      = "."
)

var audienceClauses = map[types.TargetAudience]string{
	types.AudienceOfficeWorkers: "Target users are mainly office workers, a better fit for desktop environments",
	types.AudienceMobileUsers:   "Target users are mainly mobile users who need a mobile experience",
	types.AudienceAllUsers:      "Target users span every scenario, which calls for both web and mobile",
}

// factorClause emits a fixed sentence when its condition holds
type factorClause struct {
	when func(types.FactorRecord) bool
	text string
}

// Clauses that follow the native feature clause, in output order
var factorClauses = []factorClause{
	{
		when: func(f types.FactorRecord) bool { return f.Features.ComplexForms },
		text: "Includes complex form handling, which suits the web platform",
	},
	{
		when: func(f types.FactorRecord) bool { return f.Features.OfflineSupport },
		text: "Requires offline support, where the mobile platform has the advantage",
	},
	{
		when: func(f types.FactorRecord) bool { return f.Technical.WebComplexity == types.ComplexityHigh },
		text: "Web implementation complexity is high",
	},
	{
		when: func(f types.FactorRecord) bool { return f.Technical.MobileComplexity == types.ComplexityHigh },
		text: "Mobile implementation complexity is high",
	},
	{
		when: func(f types.FactorRecord) bool { return f.Constraints.DevelopmentTime == types.TimeTight },
		text: "Development time is tight, so the core platform ships first",
	},
	{
		when: func(f types.FactorRecord) bool { return f.Constraints.TeamCapability == types.TeamWebOnly },
		text: "The team only has web development capability",
	},
}

// Compose builds the rationale string: one clause per triggered factor in a
// fixed order, then the scores and the decision, joined by "; " and ending
// with a period.
func Compose(record types.FactorRecord, scores types.ScorePair, platforms []types.Platform, priority types.Priority) string {
	return strings.Join(Clauses(record, scores, platforms, priority), clauseSeparator) + terminator
}

// Clauses returns the ordered rationale clauses without joining them.
// The last two clauses are always the scores and the decision.
func Clauses(record types.FactorRecord, scores types.ScorePair, platforms []types.Platform, priority types.Priority) []string {
	clauses := make([]string, 0, len(factorClauses)+4)

	if text, ok := audienceClauses[record.User.TargetAudience]; ok {
		clauses = append(clauses, text)
	}

	if n := record.NativeFeatureCount(); n > 0 {
		clauses = append(clauses, fmt.Sprintf("Requires %d native feature(s) (%s), a better fit for mobile",
			n, strings.Join(record.Features.NativeFeatures, ", ")))
	}

	for _, c := range factorClauses {
		if c.when(record) {
			clauses = append(clauses, c.text)
		}
	}

	clauses = append(clauses,
		fmt.Sprintf("Scores: Web=%s, Mobile=%s", FormatScore(scores.Web), FormatScore(scores.Mobile)),
		fmt.Sprintf("Decision: build %s, %s strategy", JoinPlatforms(platforms), priority),
	)
	return clauses
}

// FormatScore renders a score with no trailing zeros (65, 72.5, -10)
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// JoinPlatforms joins platform names with " + "
func JoinPlatforms(platforms []types.Platform) string {
	names := make([]string, len(platforms))
	for i, p := range platforms {
		names[i] = string(p)
	}
	return strings.Join(names, " + ")
}
