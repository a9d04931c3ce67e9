package ingestion

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aeonmind/mcore/internal/types"
)

var langPattern = regexp.MustCompile(`^[a-z]{2,3}(-[A-Z]{2})?$`)

// Normalize enforces spec §4.6 step 1's field bounds in place and returns
// an error naming the first violated bound, plus the
// original_source-recovered Lang restricted charset (spec §5.6:
// "[a-z]{2,3}(-[A-Z]{2})?").
func Normalize(e *types.SignalEnvelope) error {
	if len(e.SourceRef) > 256 {
		return fmt.Errorf("source_ref exceeds 256 chars")
	}
	if len(e.EntityID) == 0 || len(e.EntityID) > 128 {
		return fmt.Errorf("entity_id must be 1-128 chars")
	}
	if len(e.Language) > 16 {
		return fmt.Errorf("language exceeds 16 chars")
	}
	if e.Language != "" && !langPattern.MatchString(e.Language) {
		return fmt.Errorf("language %q does not match restricted charset", e.Language)
	}

	e.Content = foldWhitespace(e.Content)
	if e.Content == "" {
		return fmt.Errorf("content must be non-empty after whitespace folding")
	}

	if e.IngestedAt.IsZero() {
		e.IngestedAt = time.Now().UTC()
	} else {
		e.IngestedAt = e.IngestedAt.UTC()
	}
	return nil
}

// foldWhitespace collapses runs of whitespace to a single space and trims
// the result (spec §4.6 step 1: "content whitespace-folded & non-empty").
func foldWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
