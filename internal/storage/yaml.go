package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"todo/internal/task"
)

// YAMLFile keeps the list as a single YAML document.
type YAMLFile struct {
	path string
}

func NewYAMLFile(path string) *YAMLFile {
	return &YAMLFile{path: path}
}

func (f *YAMLFile) Location() string {
	return f.path
}

func (f *YAMLFile) Close() error {
	return nil
}

// Load reads the document. A missing or empty file is an empty list.
func (f *YAMLFile) Load() (*task.List, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return task.NewList(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", f.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return task.NewList(), nil
	}

	list := task.NewList()
	if err := yaml.Unmarshal(data, list); err != nil {
		return nil, fmt.Errorf("storage: parse %s: %w", f.path, err)
	}
	if list.Todos == nil {
		list.Todos = []task.Task{}
	}
	if list.NextID < 1 {
		list.NextID = 1
	}
	for _, t := range list.Todos {
		if t.ID >= list.NextID {
			list.NextID = t.ID + 1
		}
	}
	return list, nil
}

// Save writes atomically: temp file, fsync, rename.
func (f *YAMLFile) Save(list *task.List) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(list); err != nil {
		return fmt.Errorf("storage: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("storage: encode: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".todo-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}
