package ingestion

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/aeonmind/mcore/internal/types"
)

// relativeTimeParser resolves free-text occurred_at values ("yesterday",
// "last Tuesday") recovered from original_source/src/core/memory/ingestion/
// pipeline.rs, which accepted either an RFC3339 timestamp or natural-language
// text for chat-sourced signals. olebedev/when is a direct dependency of the
// teacher's go.mod; this is its one wiring site.
var relativeTimeParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// ParseOccurredAt resolves text to a time relative to base. It first tries
// RFC3339, then falls back to relativeTimeParser. An empty result (no match)
// returns base unchanged, matching the original's "undated signals occur now"
// default.
func ParseOccurredAt(text string, base time.Time) time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return base
	}
	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return t.UTC()
	}
	r, err := relativeTimeParser.Parse(text, base)
	if err != nil || r == nil {
		return base
	}
	return r.Time.UTC()
}

// riskTable and topicTable are the rule-based substring classifiers of spec
// §4.6 step 2, recovered from original_source/src/core/memory/ingestion/
// classifier.rs's keyword lists. Classify scans them in table order and
// returns the matched flags and topics sorted alphabetically; a signal can
// carry more than one flag or topic.
var riskTable = []struct {
	flag     string
	keywords []string
}{
	{"rumor", []string{"i heard", "allegedly", "rumor", "rumour", "supposedly", "unconfirmed"}},
	{"sensitive", []string{"ssn", "social security", "password", "credit card", "medical", "diagnosis"}},
	{"policy_risky", []string{"illegal", "hack into", "bypass security", "exploit", "circumvent"}},
}

var topicTable = []struct {
	topic    string
	keywords []string
}{
	{"security", []string{"vulnerability", "breach", "exploit", "cve", "patch", "security"}},
	{"release", []string{"released", "launch", "ship", "version", "rollout", "deploy"}},
	{"market", []string{"price", "market", "valuation", "funding", "revenue", "stock"}},
	{"community", []string{"discord", "community", "meetup", "forum", "contributor"}},
	{"personal", []string{"birthday", "favorite", "prefers", "allergic", "hobby"}},
	{"schedule", []string{"deadline", "meeting", "appointment", "tomorrow", "next week"}},
}

// Classification is the rule-based classifier's output (spec §4.6 step 2).
type Classification struct {
	RiskFlags []string
	Topics    []string
}

// Classify scans content for the configured risk and topic keyword tables.
// Matching is case-insensitive substring search; this is intentionally a
// coarse first pass, not an NLP classifier (original_source's classifier.rs
// is itself a keyword-table lookup, not a model call).
func Classify(content string) Classification {
	lower := strings.ToLower(content)

	var c Classification
	for _, r := range riskTable {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				c.RiskFlags = append(c.RiskFlags, r.flag)
				break
			}
		}
	}
	for _, t := range topicTable {
		for _, kw := range t.keywords {
			if strings.Contains(lower, kw) {
				c.Topics = append(c.Topics, t.topic)
				break
			}
		}
	}
	sort.Strings(c.RiskFlags)
	sort.Strings(c.Topics)
	return c
}

// ProvenanceReference builds the classifier:<topic>,<risk> suffix appended
// to Provenance.Reference (spec §5.6), so a downstream reader can recover the
// classifier's verdict without a second pass over content. base is the
// caller-supplied reference (e.g. a message URL); empty topics/risk flags
// omit the suffix entirely.
func ProvenanceReference(base string, c Classification) string {
	if len(c.Topics) == 0 && len(c.RiskFlags) == 0 {
		return base
	}
	suffix := fmt.Sprintf("classifier:%s,%s", strings.Join(c.Topics, "|"), strings.Join(c.RiskFlags, "|"))
	if base == "" {
		return suffix
	}
	return base + " " + suffix
}

// InferEntityHint returns a best-effort entity_id suggestion for signals
// that arrive without one (spec §4.6 step 2: "entity hint inference for
// signals lacking an explicit entity_id"). It looks for an explicit
// metadata["entity_id"] first, then falls back to "" (caller must supply
// one; the pipeline rejects ingestion otherwise per Normalize).
func InferEntityHint(e *types.SignalEnvelope) string {
	if e.EntityID != "" {
		return e.EntityID
	}
	if v, ok := metadataString(e.Metadata, "entity_id"); ok {
		return v
	}
	return ""
}
