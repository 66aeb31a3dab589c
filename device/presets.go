package device

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// presetFile is the on-disk shape of a custom preset list.
type presetFile struct {
	Devices []Config `yaml:"devices"`
}

// LoadPresets reads additional device configs from a yaml file.
//
//	devices:
//	  - name: SmallPhone
//	    size: {width: 320, height: 568}
//	    scale: 2
//	    traits: {color_scheme: 1}
func LoadPresets(path string) ([]Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}

	var f presetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse presets %s: %w", path, err)
	}

	for i, c := range f.Devices {
		if c.Name == "" {
			return nil, fmt.Errorf("presets %s: device %d has no name", path, i)
		}
		if c.Size != nil && (c.Size.Width <= 0 || c.Size.Height <= 0) {
			return nil, fmt.Errorf("presets %s: device %q has non-positive size", path, c.Name)
		}
		if c.Scale < 0 {
			return nil, fmt.Errorf("presets %s: device %q has negative scale", path, c.Name)
		}
	}
	return f.Devices, nil
}
