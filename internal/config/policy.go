package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PolicyFile — таблица правил анализа сбоев в виде YAML:
//
//	rules:
//	  - type: weather
//	    detail: heavy_rain
//	    affects: [VisitPOI]
//	    prefer: [Indoor]
type PolicyFile struct {
	Rules []PolicyRule `yaml:"rules"`
}

type PolicyRule struct {
	Type    string   `yaml:"type"`
	Detail  string   `yaml:"detail"`
	Affects []string `yaml:"affects"`
	Prefer  []string `yaml:"prefer"`
}

// LoadPolicyFile читает и валидирует файл правил.
func LoadPolicyFile(path string) (*PolicyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return ParsePolicy(data)
}

func ParsePolicy(data []byte) (*PolicyFile, error) {
	var pf PolicyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}

	for i, r := range pf.Rules {
		if strings.TrimSpace(r.Type) == "" || strings.TrimSpace(r.Detail) == "" {
			return nil, fmt.Errorf("policy rule #%d: type and detail are required", i+1)
		}
		if len(r.Affects) == 0 {
			return nil, fmt.Errorf("policy rule #%d (%s/%s): affects must not be empty", i+1, r.Type, r.Detail)
		}
	}
	return &pf, nil
}
