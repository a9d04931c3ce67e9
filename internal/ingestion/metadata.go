package ingestion

import (
	"encoding/json"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// metadataJSON round-trips env.Metadata through JSON so gjson/sjson path
// expressions can touch nested free-form fields without a struct shape
// (spec's free-form SignalEnvelope.metadata is otherwise untyped JSON; the
// teacher's RPC layer takes the same gjson/sjson approach for its own
// untyped request params).
func metadataJSON(meta map[string]any) (string, error) {
	if meta == nil {
		return "{}", nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// setClassification writes the classifier's verdict into
// metadata.classifier.{topics,risk_flags} so a downstream reader (governance
// inspect, the hygiene sweep) can recover it without re-running Classify.
func setClassification(meta map[string]any, c Classification) (map[string]any, error) {
	raw, err := metadataJSON(meta)
	if err != nil {
		return meta, err
	}
	for _, step := range []struct {
		path string
		vals []string
	}{
		{"classifier.topics", c.Topics},
		{"classifier.risk_flags", c.RiskFlags},
	} {
		raw, err = sjson.Set(raw, step.path, step.vals)
		if err != nil {
			return meta, err
		}
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return meta, err
	}
	return out, nil
}

// metadataString reads a dotted gjson path out of meta, returning ("",
// false) if absent or not a string.
func metadataString(meta map[string]any, path string) (string, bool) {
	raw, err := metadataJSON(meta)
	if err != nil {
		return "", false
	}
	r := gjson.Get(raw, path)
	if !r.Exists() || r.Type != gjson.String {
		return "", false
	}
	return r.String(), true
}
