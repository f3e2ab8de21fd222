package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMalformedChecks возвращается, если файл проверок не является массивом строк
var ErrMalformedChecks = errors.New("malformed checks file")

// LoadChecks загружает список CSS селекторов из JSON массива строк.
// Файлы .yaml/.yml читаются как YAML последовательность строк.
func LoadChecks(filePath string) ([]string, error) {
	if filePath == "" {
		return nil, fmt.Errorf("checks file path is empty")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read checks file: %w", err)
	}

	var checks []string
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		checks, err = parseYAMLChecks(data)
	default:
		checks, err = parseJSONChecks(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedChecks, filePath, err)
	}

	for i, check := range checks {
		if strings.TrimSpace(check) == "" {
			return nil, fmt.Errorf("%w: %s: element %d is an empty selector", ErrMalformedChecks, filePath, i)
		}
	}

	return checks, nil
}

func parseJSONChecks(data []byte) ([]string, error) {
	// null и объекты json.Unmarshal в срез пропускает молча
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		return nil, fmt.Errorf("expected a JSON array of strings")
	}

	var checks []string
	if err := json.Unmarshal(data, &checks); err != nil {
		return nil, err
	}
	if checks == nil {
		checks = []string{}
	}
	return checks, nil
}

func parseYAMLChecks(data []byte) ([]string, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("expected a YAML sequence of strings")
	}

	seq := root.Content[0]
	if seq.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected a YAML sequence of strings")
	}

	checks := make([]string, 0, len(seq.Content))
	for i, item := range seq.Content {
		if item.Kind != yaml.ScalarNode || item.ShortTag() != "!!str" {
			return nil, fmt.Errorf("element %d is not a string", i)
		}
		checks = append(checks, item.Value)
	}
	return checks, nil
}
