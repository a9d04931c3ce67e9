package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aeonmind/mcore/internal/audit"
	"github.com/aeonmind/mcore/internal/config"
	"github.com/aeonmind/mcore/internal/embedding"
	"github.com/aeonmind/mcore/internal/governance"
	"github.com/aeonmind/mcore/internal/ingestion"
	"github.com/aeonmind/mcore/internal/memory"
	"github.com/aeonmind/mcore/internal/storage"
	"github.com/aeonmind/mcore/internal/storage/sqlite"
)

// workspaceDir resolves the Memory Core's persisted state directory (spec
// §6 "Persisted state layout"): ./.mcore under the current directory
// unless overridden by --workspace.
func workspaceDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}
	return filepath.Join(cwd, ".mcore"), nil
}

// openBackend opens the configured storage backend under workspace,
// creating the directory if needed.
func openBackend(ctx context.Context, workspace string) (storage.Backend, error) {
	if err := os.MkdirAll(filepath.Join(workspace, "memory"), 0750); err != nil {
		return nil, fmt.Errorf("create memory dir: %w", err)
	}
	switch config.StorageBackend() {
	case config.BackendMarkdown:
		return nil, fmt.Errorf("markdown backend: not wired into the CLI yet")
	default:
		dbPath := filepath.Join(workspace, "memory", "brain.db")
		return sqlite.Open(ctx, dbPath, sqlite.WithRetentionDays(config.RetentionDays()))
	}
}

// coreFor wraps an already-open backend in a memory.Core, wiring the
// ingestion pipeline with the configured dedup_cache_capacity and the
// embedding backfill queue when an API key is available.
func coreFor(ctx context.Context, backend storage.Backend) *memory.Core {
	opts := []memory.Option{
		memory.WithIngestionPipeline(ingestion.NewPipeline(config.GetInt("dedup_cache_capacity"))),
	}
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		emb := embedding.NewAnthropicEmbedder(apiKey, config.GetString("embedding_model"), config.GetInt("embedding_dimensions"), nil)
		queue := embedding.NewBackfillQueue(ctx, emb, backend, config.GetInt("embedding_backfill_queue_size"), config.GetInt("embedding_backfill_workers"))
		opts = append(opts, memory.WithBackfillQueue(queue), memory.WithEmbedder(emb))
	}
	return memory.New(backend, opts...)
}

// openCore opens the configured backend under workspace and wraps it in a
// memory.Core for the agent-facing write/recall paths.
func openCore(ctx context.Context, workspace string) (*memory.Core, error) {
	backend, err := openBackend(ctx, workspace)
	if err != nil {
		return nil, err
	}
	return coreFor(ctx, backend), nil
}

// openGovernance opens the configured backend and wraps it in a
// governance.Surface, logging to the workspace-rooted audit/ directory.
// Governance bypasses Core's policy gate and entity locking, which apply
// only to the agent-facing write/recall paths, not operator actions.
func openGovernance(ctx context.Context, workspace string) (*governance.Surface, storage.Backend, error) {
	backend, err := openBackend(ctx, workspace)
	if err != nil {
		return nil, nil, err
	}
	log, err := audit.Open(workspace)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit log: %w", err)
	}
	return governance.New(backend, log), backend, nil
}
