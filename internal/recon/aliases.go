package recon

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dvloznov/statement-recon/internal/domain"
)

// aliasFile is the on-disk shape of an alias override file:
//
//	replace: false
//	aliases:
//	  Date: ["booking date"]
//	  Amount: ["paid out", "paid in"]
type aliasFile struct {
	Replace bool                `yaml:"replace"`
	Aliases map[string][]string `yaml:"aliases"`
}

// LoadAliases reads an alias override file and applies it on top of base.
// An empty path returns a copy of base unchanged.
func LoadAliases(path string, base AliasTable) (AliasTable, error) {
	if path == "" {
		return base.Clone(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadAliases: reading %s: %w", path, err)
	}
	table, err := ParseAliases(data, base)
	if err != nil {
		return nil, fmt.Errorf("LoadAliases: %s: %w", path, err)
	}
	return table, nil
}

// ParseAliases applies YAML alias overrides to a copy of base. By default the new
// aliases are appended after the existing ones so built-in spellings keep priority;
// with replace set the listed fields are overwritten.
func ParseAliases(data []byte, base AliasTable) (AliasTable, error) {
	var f aliasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding alias yaml: %w", err)
	}

	table := base.Clone()
	for name, aliases := range f.Aliases {
		field, ok := canonicalFieldByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown field %q", name)
		}
		if f.Replace {
			table[field] = nil
		}
		for _, a := range aliases {
			a = foldHeader(a)
			if a == "" || containsAlias(table[field], a) {
				continue
			}
			table[field] = append(table[field], a)
		}
	}
	return table, nil
}

func canonicalFieldByName(name string) (domain.CanonicalField, bool) {
	for _, f := range domain.RequiredFields {
		if strings.EqualFold(string(f), strings.TrimSpace(name)) {
			return f, true
		}
	}
	return "", false
}

func containsAlias(aliases []string, a string) bool {
	for _, existing := range aliases {
		if foldHeader(existing) == a {
			return true
		}
	}
	return false
}
