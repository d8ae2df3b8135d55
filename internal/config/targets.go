package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	yaml "go.yaml.in/yaml/v3"
)

// Targets is the optional YAML file listing what to submit:
//
//	host: example.com
//	key_location: https://example.com/indexnow-key.txt
//	urls:
//	  - https://example.com/
//	endpoints:
//	  - api.indexnow.org
//	indexing_urls:
//	  - https://example.com/
//
// The shared key is deliberately not read from this file; it comes from
// INDEXNOW_KEY only.
type Targets struct {
	Host         string   `yaml:"host"`
	KeyLocation  string   `yaml:"key_location"`
	URLs         []string `yaml:"urls"`
	Endpoints    []string `yaml:"endpoints"`
	IndexingURLs []string `yaml:"indexing_urls"`
}

func LoadTargets(path string) (*Targets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var t Targets
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("yaml decode %s: %w", path, err)
	}
	return &t, nil
}
