package policy

import (
	"errors"
	"testing"

	"github.com/aeonmind/mcore/internal/mcerrors"
	"github.com/aeonmind/mcore/internal/types"
)

func baseInput() types.EventInput {
	return types.EventInput{
		EntityID:   "person:alice",
		SourceRef:  "ref-1",
		Source:     types.SourceSystem,
		Provenance: types.Provenance{SourceClass: types.SourceSystem},
	}
}

func TestValidatePersonaLongTermAccepts(t *testing.T) {
	in := baseInput()
	in.SlotKey = "persona.writeback.goals"
	in.EventType = types.EventSummaryCompacted
	in.PrivacyLevel = types.PrivacyPrivate
	in.SourceKind = types.SourceKindManual

	if err := Validate(in); err != nil {
		t.Fatalf("expected persona_long_term write to be accepted, got %v", err)
	}
}

func TestValidatePersonaLongTermRejectsBadEntity(t *testing.T) {
	in := baseInput()
	in.EntityID = "not-a-person"
	in.SlotKey = "persona.writeback.goals"
	in.EventType = types.EventSummaryCompacted
	in.PrivacyLevel = types.PrivacyPrivate
	in.SourceKind = types.SourceKindManual

	err := Validate(in)
	if !errors.Is(err, mcerrors.ErrPolicyDenied) {
		t.Fatalf("expected ErrPolicyDenied, got %v", err)
	}
}

func TestValidateRejectsProvenanceMismatch(t *testing.T) {
	in := baseInput()
	in.SlotKey = "persona.writeback.goals"
	in.EventType = types.EventSummaryCompacted
	in.PrivacyLevel = types.PrivacyPrivate
	in.SourceKind = types.SourceKindManual
	in.Provenance.SourceClass = types.SourceInferred

	if err := Validate(in); !errors.Is(err, mcerrors.ErrPolicyDenied) {
		t.Fatalf("expected provenance mismatch to be denied, got %v", err)
	}
}

func TestValidateIngestionAccepts(t *testing.T) {
	in := baseInput()
	in.Source = types.SourceExternalPrimary
	in.Provenance.SourceClass = types.SourceExternalPrimary
	in.SlotKey = "external.news.headline"
	in.EventType = types.EventFactAdded

	if err := Validate(in); err != nil {
		t.Fatalf("expected ingestion write to be accepted, got %v", err)
	}
}

func TestValidateUnmatchedPathDenied(t *testing.T) {
	in := baseInput()
	in.SlotKey = "nonsense"
	in.EventType = types.EventFactAdded

	if err := Validate(in); !errors.Is(err, mcerrors.ErrPolicyDenied) {
		t.Fatalf("expected unmatched input to be denied, got %v", err)
	}
}

func TestValidateRejectsEmptySourceRef(t *testing.T) {
	in := baseInput()
	in.SourceRef = ""
	in.SlotKey = "external.news.headline"
	in.EventType = types.EventFactAdded
	in.Source = types.SourceExternalPrimary
	in.Provenance.SourceClass = types.SourceExternalPrimary

	if err := Validate(in); !errors.Is(err, mcerrors.ErrPolicyDenied) {
		t.Fatalf("expected empty source_ref to be denied, got %v", err)
	}
}
