package profiles

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/metadex/metadex/internal/metadata"
)

// SeedFile is the YAML document of profiles imported at startup.
type SeedFile struct {
	Profiles []metadata.Profile `yaml:"profiles"`
}

// LoadSeedFile reads profiles from a YAML seed file.
func LoadSeedFile(path string) ([]*metadata.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a YAML seed document.
func ParseSeed(data []byte) ([]*metadata.Profile, error) {
	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	out := make([]*metadata.Profile, 0, len(file.Profiles))
	for i := range file.Profiles {
		p := file.Profiles[i]
		if p.ID == "" {
			return nil, fmt.Errorf("seed profile %d (%q) has no id", i, p.Name)
		}
		out = append(out, &p)
	}
	return out, nil
}
