package source

import (
	"regexp"
	"strings"

	"github.com/curago/curago/model"
)

// relevantDFARSPrefixes lists the DFARS clauses that concern
// cybersecurity, CUI or CMMC. Everything else under 48 CFR 252 is
// contracting boilerplate and would only dilute the corpus.
var relevantDFARSPrefixes = []string{
	"252.204-7008",
	"252.204-7009",
	"252.204-7012",
	"252.204-7019",
	"252.204-7020",
	"252.204-7021",
	"252.204-7024",
	"252.204-7025",
	"252.239-7009",
	"252.239-7010",
}

var dfarsClauseRe = regexp.MustCompile(`^(252\.\d+-\d+)`)

// RelevanceStats counts relevance filter outcomes.
type RelevanceStats struct {
	Total   int
	Kept    int
	Removed int
}

// isRelevantECFR reports whether an eCFR record belongs in the corpus:
//   - 32 CFR 170, the CMMC program rule, always
//   - 45 CFR 164, the HIPAA Security Rule, always
//   - 48 CFR 252, DFARS, only the cyber-relevant clauses
//   - anything else is kept by default
func isRelevantECFR(raw model.Raw) bool {
	cfrTitle := raw.Int("cfr_title")
	cfrPart := raw.Int("cfr_part")

	if cfrTitle == 32 && cfrPart == 170 {
		return true
	}
	if cfrTitle == 45 && cfrPart == 164 {
		return true
	}
	if cfrTitle == 48 && cfrPart == 252 {
		clause := ""
		if m := dfarsClauseRe.FindStringSubmatch(raw.Text("title")); m != nil {
			clause = m[1]
		}
		for _, prefix := range relevantDFARSPrefixes {
			if strings.HasPrefix(clause, prefix) {
				return true
			}
		}
		return false
	}
	return true
}

// FilterRelevance removes records that are within a scraped CFR
// title/part but not actually about cybersecurity compliance. Only the
// "ecfr" source is filtered; other sources pass through unchanged.
func FilterRelevance(raws []model.Raw, sourceName string) ([]model.Raw, RelevanceStats) {
	stats := RelevanceStats{Total: len(raws)}
	if sourceName != "ecfr" {
		stats.Kept = len(raws)
		return raws, stats
	}

	kept := make([]model.Raw, 0, len(raws))
	for _, raw := range raws {
		if isRelevantECFR(raw) {
			kept = append(kept, raw)
			stats.Kept++
		} else {
			stats.Removed++
		}
	}
	return kept, stats
}
