// Package store persists case corpora as the index.json file consumed by
// renderers and in an SQLite database.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/coolbeans/hanrei/pkg/types"
)

// LoadIndex reads an index.json file into a corpus, keeping file order.
func LoadIndex(path string) (*types.Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	return DecodeIndex(data)
}

// DecodeIndex parses index.json content.
func DecodeIndex(data []byte) (*types.Corpus, error) {
	var cases []*types.Case
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("failed to unmarshal index: %w", err)
	}
	for i, c := range cases {
		if c == nil || c.Number == "" {
			return nil, fmt.Errorf("index entry %d has no number", i)
		}
	}
	return types.NewCorpus(cases), nil
}

// EncodeIndex renders the corpus as a list of case objects sorted by
// number, indented by two spaces, with non-ASCII text left unescaped.
func EncodeIndex(corpus *types.Corpus) ([]byte, error) {
	cases := corpus.Cases()
	sort.SliceStable(cases, func(i, j int) bool {
		return cases[i].Number < cases[j].Number
	})
	for _, c := range cases {
		c.Normalize()
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cases); err != nil {
		return nil, fmt.Errorf("failed to marshal index: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveIndex writes the corpus to path, replacing it atomically.
func SaveIndex(path string, corpus *types.Corpus) error {
	data, err := EncodeIndex(corpus)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing index: %w", err)
	}
	return nil
}
