package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	productsFile = "products.yaml"
	eventsFile   = "events.yaml"
)

type fixtureSet struct {
	Products []Product `yaml:"products"`
	Events   []Event   `yaml:"events"`
}

// loadFixtures reads products.yaml and events.yaml under dir. Missing files are treated
// as empty; malformed files are reported.
func loadFixtures(dir string) (fixtureSet, error) {
	var set fixtureSet
	var products struct {
		Products []Product `yaml:"products"`
	}
	if err := readYAML(filepath.Join(dir, productsFile), &products); err != nil {
		return fixtureSet{}, err
	}
	var events struct {
		Events []Event `yaml:"events"`
	}
	if err := readYAML(filepath.Join(dir, eventsFile), &events); err != nil {
		return fixtureSet{}, err
	}
	set.Products = products.Products
	set.Events = events.Events
	return set, nil
}

func readYAML(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("catalog: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	return nil
}
