package slide

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Deck is the YAML document describing the full hero rotation.
type Deck struct {
	Version string       `yaml:"version"`
	Slides  []Descriptor `yaml:"slides"`
}

// ReadDeck reads a deck from a YAML file.
func ReadDeck(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var deck Deck
	if err := yaml.Unmarshal(data, &deck); err != nil {
		return nil, err
	}

	if len(deck.Slides) == 0 {
		return nil, fmt.Errorf("колода %s не содержит слайдов", path)
	}

	return &deck, nil
}

// WriteDeck writes a deck to a YAML file.
func WriteDeck(deck *Deck, path string) error {
	data, err := yaml.Marshal(deck)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
