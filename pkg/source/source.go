// Package source loads judgment text by case number from a local directory
// or an S3 bucket.
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/coolbeans/hanrei/pkg/types"
)

// Extension is the file suffix of judgment text objects.
const Extension = ".txt"

// Reader yields the extracted text of a judgment.
type Reader interface {
	// ReadText returns the text for number. A missing text wraps
	// types.ErrNotFound.
	ReadText(ctx context.Context, number string) (string, error)
	// List returns the case numbers available, sorted.
	List(ctx context.Context) ([]string, error)
}

// Config selects and configures a Reader.
type Config struct {
	Type      string `toml:"type"` // "local" or "s3"
	Directory string `toml:"directory"`
	Bucket    string `toml:"bucket"`
	Prefix    string `toml:"prefix"`
	Region    string `toml:"region"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
}

// New builds the Reader described by cfg.
func New(ctx context.Context, cfg Config) (Reader, error) {
	switch cfg.Type {
	case "", "local":
		if cfg.Directory == "" {
			return nil, fmt.Errorf("local source: directory is required")
		}
		return NewLocal(cfg.Directory), nil
	case "s3":
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Type)
	}
}

// Local reads <number>.txt files from a directory.
type Local struct {
	directory string
}

// NewLocal creates a reader over directory.
func NewLocal(directory string) *Local {
	return &Local{directory: directory}
}

// Path returns the file path holding the text of number.
func (l *Local) Path(number string) string {
	return filepath.Join(l.directory, number+Extension)
}

// ReadText implements Reader.
func (l *Local) ReadText(ctx context.Context, number string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(l.Path(number))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("text for %s: %w", number, types.ErrNotFound)
		}
		return "", fmt.Errorf("reading text for %s: %w", number, err)
	}
	return string(data), nil
}

// List implements Reader.
func (l *Local) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.directory)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", l.directory, err)
	}
	var numbers []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Extension) {
			continue
		}
		numbers = append(numbers, strings.TrimSuffix(entry.Name(), Extension))
	}
	sort.Strings(numbers)
	return numbers, nil
}

// NumberFromPath returns the case number a text file path stands for, or
// false when the path is not a text file.
func NumberFromPath(path string) (string, bool) {
	name := filepath.Base(path)
	if !strings.HasSuffix(name, Extension) || name == Extension {
		return "", false
	}
	return strings.TrimSuffix(name, Extension), true
}

// Memory serves texts held in memory.
type Memory struct {
	texts map[string]string
}

// NewMemory creates a reader over texts keyed by case number.
func NewMemory(texts map[string]string) *Memory {
	return &Memory{texts: texts}
}

// ReadText implements Reader.
func (m *Memory) ReadText(ctx context.Context, number string) (string, error) {
	text, ok := m.texts[number]
	if !ok {
		return "", fmt.Errorf("text for %s: %w", number, types.ErrNotFound)
	}
	return text, nil
}

// List implements Reader.
func (m *Memory) List(ctx context.Context) ([]string, error) {
	numbers := make([]string, 0, len(m.texts))
	for number := range m.texts {
		numbers = append(numbers, number)
	}
	sort.Strings(numbers)
	return numbers, nil
}
