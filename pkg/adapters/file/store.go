// Package file stores dialog stacks as JSON files, one per conversation.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/aretw0/corebot/pkg/domain"
)

const ext = ".json"

// Store implements ports.StackStore on the local filesystem.
// Files are replaced atomically, so a crash never leaves a torn stack behind.
type Store struct {
	BasePath string
}

// New creates a Store rooted at basePath (default ".corebot/sessions").
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".corebot", "sessions")
	}
	return &Store{BasePath: basePath}
}

// path escapes the id so that any conversation id maps to a single file name.
func (s *Store) path(conversationID string) string {
	return filepath.Join(s.BasePath, url.PathEscape(conversationID)+ext)
}

// Save writes the stack to a temporary file and renames it into place.
func (s *Store) Save(ctx context.Context, conversationID string, stack *domain.Stack) error {
	if conversationID == "" {
		return fmt.Errorf("conversationID cannot be empty")
	}
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure session directory: %w", err)
	}

	data, err := json.MarshalIndent(stack, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stack: %w", err)
	}

	pf, err := renameio.NewPendingFile(s.path(conversationID), renameio.WithPermissions(0o600))
	if err != nil {
		return fmt.Errorf("failed to create pending file: %w", err)
	}
	defer func() { _ = pf.Cleanup() }()

	if _, err := pf.Write(data); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// Load reads the stack of a conversation.
func (s *Store) Load(ctx context.Context, conversationID string) (*domain.Stack, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("conversationID cannot be empty")
	}

	data, err := os.ReadFile(s.path(conversationID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var stack domain.Stack
	if err := json.Unmarshal(data, &stack); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stack: %w", err)
	}
	return &stack, nil
}

// Delete removes the session file.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		return fmt.Errorf("conversationID cannot be empty")
	}
	if err := os.Remove(s.path(conversationID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// List returns the ids of all stored conversations.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext {
			continue
		}
		id, err := url.PathUnescape(strings.TrimSuffix(name, ext))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
