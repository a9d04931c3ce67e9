// Package policy implements the write policy gate (spec §4.7): one
// Validator per named write path, selected by a classifier over the event
// input's shape, composed by a single router function — the same "one
// small function per named rule behind a router" shape as the teacher's
// per-command files under cmd/bd/*.go.
package policy

import (
	"fmt"
	"strings"

	"github.com/aeonmind/mcore/internal/mcerrors"
	"github.com/aeonmind/mcore/internal/types"
)

// Path names one of the seven write paths spec §4.7 classifies writes into.
type Path string

const (
	PathPersonaLongTerm   Path = "persona_long_term"
	PathToolMemory        Path = "tool_memory"
	PathExternalAutosave  Path = "external_autosave"
	PathAgentAutosave     Path = "agent_autosave"
	PathInference         Path = "inference"
	PathVerifyRepair      Path = "verify_repair"
	PathIngestion         Path = "ingestion"
)

// Validator checks one EventInput against a path's rules, returning a
// wrapped mcerrors.ErrPolicyDenied naming the first violated rule, or nil.
type Validator func(types.EventInput) error

var validators = map[Path]Validator{
	PathPersonaLongTerm:  validatePersonaLongTerm,
	PathToolMemory:       validateToolMemory,
	PathExternalAutosave: validateExternalAutosave,
	PathAgentAutosave:    validateAgentAutosave,
	PathInference:        validateInference,
	PathVerifyRepair:     validateVerifyRepair,
	PathIngestion:        validateIngestion,
}

// Classify selects the write path an EventInput's shape belongs to (spec
// §4.7: "classified... by source_kind/event_type/slot_key shape"). Returns
// ("", false) if the input matches none of the seven named paths.
func Classify(in types.EventInput) (Path, bool) {
	switch {
	case isPersonaLongTerm(in):
		return PathPersonaLongTerm, true
	case isVerifyRepair(in):
		return PathVerifyRepair, true
	case isAgentAutosave(in):
		return PathAgentAutosave, true
	case isExternalAutosave(in):
		return PathExternalAutosave, true
	case isInference(in):
		return PathInference, true
	case isIngestion(in):
		return PathIngestion, true
	case isToolMemory(in):
		return PathToolMemory, true
	default:
		return "", false
	}
}

// Validate classifies in and runs the matching Validator. An input that
// matches no named path is denied outright (spec §4.7 implies the seven
// paths are exhaustive for accepted writes).
func Validate(in types.EventInput) error {
	path, ok := Classify(in)
	if !ok {
		return fmt.Errorf("%w: event input matches no recognized write path", mcerrors.ErrPolicyDenied)
	}
	if err := validateCommon(in); err != nil {
		return err
	}
	return validators[path](in)
}

// validateCommon enforces the rule shared by all seven paths: non-empty
// source_ref and provenance.source_class == source (spec §4.7 final
// paragraph).
func validateCommon(in types.EventInput) error {
	if strings.TrimSpace(in.SourceRef) == "" {
		return fmt.Errorf("%w: source_ref must be non-empty", mcerrors.ErrPolicyDenied)
	}
	if in.Provenance.SourceClass != in.Source {
		return fmt.Errorf("%w: provenance.source_class (%s) must equal source (%s)", mcerrors.ErrPolicyDenied, in.Provenance.SourceClass, in.Source)
	}
	return nil
}

func isPersonaLongTerm(in types.EventInput) bool {
	if in.Source != types.SourceSystem || in.PrivacyLevel != types.PrivacyPrivate || in.SourceKind != types.SourceKindManual {
		return false
	}
	if strings.HasPrefix(in.SlotKey, "persona.writeback.") && in.EventType == types.EventSummaryCompacted {
		return true
	}
	if strings.HasPrefix(in.SlotKey, "persona/") && strings.Contains(in.SlotKey, "/state_header/") && in.EventType == types.EventFactUpdated {
		return true
	}
	return false
}

func validatePersonaLongTerm(in types.EventInput) error {
	if !strings.HasPrefix(in.EntityID, "person:") {
		return fmt.Errorf("%w: persona_long_term requires entity_id prefixed \"person:\", got %q", mcerrors.ErrPolicyDenied, in.EntityID)
	}
	return nil
}

func isToolMemory(in types.EventInput) bool {
	return in.SourceKind == types.SourceKindManual && in.PrivacyLevel != types.PrivacySecret
}

func validateToolMemory(in types.EventInput) error {
	if in.Provenance.SourceClass != in.Source {
		return fmt.Errorf("%w: tool_memory requires provenance.source_class == source", mcerrors.ErrPolicyDenied)
	}
	return nil
}

func isExternalAutosave(in types.EventInput) bool {
	if in.Source != types.SourceExplicitUser || in.PrivacyLevel != types.PrivacyPrivate {
		return false
	}
	switch in.SourceKind {
	case types.SourceKindAPI, types.SourceKindConversation, types.SourceKindDiscord, types.SourceKindTelegram, types.SourceKindSlack:
		return true
	default:
		return false
	}
}

func validateExternalAutosave(in types.EventInput) error {
	return nil
}

func isAgentAutosave(in types.EventInput) bool {
	if in.SourceKind != types.SourceKindConversation || in.EventType != types.EventFactAdded {
		return false
	}
	if in.SlotKey != "conversation.user_msg" && in.SlotKey != "conversation.assistant_resp" {
		return false
	}
	return in.Source == types.SourceExplicitUser || in.Source == types.SourceSystem
}

func validateAgentAutosave(in types.EventInput) error {
	return nil
}

func isInference(in types.EventInput) bool {
	if in.Source != types.SourceInferred && in.Source != types.SourceSystem {
		return false
	}
	return in.EventType == types.EventInferredClaim || in.EventType == types.EventContradictionMarked
}

func validateInference(in types.EventInput) error {
	return nil
}

func isVerifyRepair(in types.EventInput) bool {
	return in.Source == types.SourceSystem &&
		in.SlotKey == "autonomy.verify_repair.escalation" &&
		in.EventType == types.EventSummaryCompacted
}

func validateVerifyRepair(in types.EventInput) error {
	return nil
}

func isIngestion(in types.EventInput) bool {
	if in.EventType != types.EventFactAdded || !strings.HasPrefix(in.SlotKey, "external.") {
		return false
	}
	switch in.Source {
	case types.SourceExplicitUser, types.SourceExternalPrimary, types.SourceExternalSecondary:
		return true
	default:
		return false
	}
}

func validateIngestion(in types.EventInput) error {
	return nil
}
