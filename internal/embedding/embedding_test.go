package embedding

import (
	"context"
	"testing"
	"time"
)

func TestDeterministicEmbedStableAndNormalized(t *testing.T) {
	v1, err := DeterministicEmbed(context.Background(), "voyage-3", "hello world")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	v2, err := DeterministicEmbed(context.Background(), "voyage-3", "hello world")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(v1) != 1024 {
		t.Fatalf("expected 1024 dims, got %d", len(v1))
	}
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatalf("expected deterministic output, differs at %d: %v vs %v", i, v1[i], v2[i])
		}
	}
}

func TestDeterministicEmbedDiffersByText(t *testing.T) {
	a, _ := DeterministicEmbed(context.Background(), "voyage-3", "alpha")
	b, _ := DeterministicEmbed(context.Background(), "voyage-3", "beta")
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("expected distinct embeddings for distinct text")
	}
}

type fakeUpdater struct {
	done chan string
}

func (f *fakeUpdater) UpdateDocEmbedding(ctx context.Context, docID string, embedding []float32) error {
	f.done <- docID
	return nil
}

func TestBackfillQueueProcessesJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	embedder := NewAnthropicEmbedder("test-key", "voyage-3", 1024, DeterministicEmbed)
	updater := &fakeUpdater{done: make(chan string, 1)}
	q := NewBackfillQueue(ctx, embedder, updater, 8, 1)

	q.Enqueue("default:profile.x", "some text")

	select {
	case docID := <-updater.done:
		if docID != "default:profile.x" {
			t.Fatalf("unexpected doc_id: %s", docID)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for backfill to process job")
	}
}
