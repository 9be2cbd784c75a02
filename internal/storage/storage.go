// Package storage persists a task.List as a YAML document or in SQLite.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"todo/internal/config"
	"todo/internal/task"
)

// Store loads and saves the whole task list.
type Store interface {
	Load() (*task.List, error)
	Save(*task.List) error
	// Location describes where the list lives, for logs and messages.
	Location() string
	Close() error
}

// Candidate file names probed in the working directory, in order.
var todoFileNames = []string{"TODO.yaml", "TODO.yml", "todo.yaml", "todo.yml"}

// DataDir is the fallback home of the todo file and database.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("storage: home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", "guidebook", "guidebook-todo"), nil
}

// ResolveTodoPath returns explicit when set, otherwise the first todo file
// found in dir, otherwise the file under DataDir.
func ResolveTodoPath(explicit, dir string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	for _, name := range todoFileNames {
		p := filepath.Join(dir, name)
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			return p, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("storage: stat %s: %w", p, err)
		}
	}
	data, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(data, "todo.yaml"), nil
}

// Open builds the backend selected by cfg. dir is the directory used for
// todo file discovery, normally the working directory.
func Open(cfg config.Config, dir string) (Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		path := cfg.DBPath
		if path == "" {
			data, err := DataDir()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(data, config.DefaultDBName)
		}
		return OpenSQLite(path)
	case config.BackendYAML, "":
		path, err := ResolveTodoPath(cfg.TodoPath, dir)
		if err != nil {
			return nil, err
		}
		return NewYAMLFile(path), nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}
