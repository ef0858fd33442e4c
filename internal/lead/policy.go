package lead

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed policy.yaml
var defaultPolicyYAML []byte

// Policy carries the keyword signals the classifier matches against customer
// text, alongside the structured flags the extractor emits. Keeping the lists
// in YAML lets the sales team tune them without a rebuild.
type Policy struct {
	HotKeywords  []string `yaml:"hot_keywords"`
	WarmKeywords []string `yaml:"warm_keywords"`
}

// LoadPolicy reads the classification policy from path, falling back to the
// embedded default when path is empty.
func LoadPolicy(path string) (Policy, error) {
	raw := defaultPolicyYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Policy{}, fmt.Errorf("read classification policy: %w", err)
		}
		raw = b
	}

	var p Policy
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Policy{}, fmt.Errorf("parse classification policy: %w", err)
	}
	if len(p.HotKeywords) == 0 && len(p.WarmKeywords) == 0 {
		return Policy{}, fmt.Errorf("classification policy has no keywords")
	}
	return p, nil
}
