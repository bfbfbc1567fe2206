package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/sflsweep/pkg/domain"
)

// DefaultDir is where progress files live when no directory is configured.
var DefaultDir = filepath.Join(".sflsweep", "progress")

// Store implements ports.ProgressStore using the local filesystem.
// It stores one JSON file per sweep in a configured directory.
type Store struct {
	BasePath string
}

// NewStore creates a new Store with the given base path.
// If basePath is empty, it defaults to DefaultDir.
func NewStore(basePath string) *Store {
	if basePath == "" {
		basePath = DefaultDir
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(sweep string) (string, error) {
	if sweep == "" {
		return "", fmt.Errorf("sweep name cannot be empty")
	}
	if strings.ContainsAny(sweep, `/\`) || sweep == "." || sweep == ".." {
		return "", fmt.Errorf("sweep name %q is not a valid file name", sweep)
	}
	return filepath.Join(s.BasePath, sweep+".json"), nil
}

// Save persists the progress to a JSON file.
// The file is written to a temporary name and renamed, so a crash mid-write
// never leaves a truncated progress file behind.
func (s *Store) Save(ctx context.Context, sweep string, progress domain.Progress) error {
	path, err := s.path(sweep)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure progress directory: %w", err)
	}

	data, err := json.MarshalIndent(progress, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	tmp, err := os.CreateTemp(s.BasePath, sweep+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create progress file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write progress file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write progress file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace progress file: %w", err)
	}
	return nil
}

// Load retrieves the progress from its JSON file.
func (s *Store) Load(ctx context.Context, sweep string) (domain.Progress, error) {
	path, err := s.path(sweep)
	if err != nil {
		return domain.Progress{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Progress{}, domain.ErrProgressNotFound
		}
		return domain.Progress{}, fmt.Errorf("failed to read progress file: %w", err)
	}

	var progress domain.Progress
	if err := json.Unmarshal(data, &progress); err != nil {
		return domain.Progress{}, fmt.Errorf("failed to unmarshal progress: %w", err)
	}
	return progress, nil
}

// Delete removes the progress file.
func (s *Store) Delete(ctx context.Context, sweep string) error {
	path, err := s.path(sweep)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete progress file: %w", err)
	}
	return nil
}

// List returns the names of all sweeps with saved progress, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list progress directory: %w", err)
	}

	var sweeps []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		sweeps = append(sweeps, strings.TrimSuffix(name, ".json"))
	}
	return sweeps, nil
}
