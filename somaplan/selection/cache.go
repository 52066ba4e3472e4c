package selection

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/somaplan/somaplan-sdk-go/somaplan/types"
)

// FileCache persists the selection snapshot as a JSON file, the same
// write-then-rename scheme the credential store uses.
type FileCache struct {
	mu   sync.Mutex
	path string
}

// NewFileCache creates a FileCache at the given path. When path is empty
// it defaults to somaplan/selections.json under the user config dir.
func NewFileCache(path string) (*FileCache, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("cannot resolve config dir: %w", err)
		}
		path = filepath.Join(dir, "somaplan", "selections.json")
	}
	return &FileCache{path: path}, nil
}

// Path returns the backing file path.
func (c *FileCache) Path() string {
	return c.path
}

func (c *FileCache) SaveSelections(items []types.Selection) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(items) == 0 {
		err := os.Remove(c.path)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal selections: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write selections: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("failed to replace selections: %w", err)
	}
	return nil
}

func (c *FileCache) LoadSelections() ([]types.Selection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read selections: %w", err)
	}

	var items []types.Selection
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("corrupt selections file %s: %w", c.path, err)
	}
	return items, nil
}
