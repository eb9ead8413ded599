// Package gazetteer holds the static catalog of districts the rest of the
// application resolves user input against.
package gazetteer

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"pothikbondhu/internal/domain/models"
)

//go:embed data/districts.yaml
var districtsYAML []byte

type document struct {
	Districts []models.Location `yaml:"districts"`
}

// Gazetteer is read-only after construction and safe for concurrent use.
type Gazetteer struct {
	entries []models.Location
	byName  map[string]int
}

// Load parses the embedded district catalog.
func Load() (*Gazetteer, error) {
	return LoadFrom(bytes.NewReader(districtsYAML))
}

// MustLoad is Load for package-level initialisation in commands and tests.
func MustLoad() *Gazetteer {
	g, err := Load()
	if err != nil {
		panic(err)
	}
	return g
}

func LoadFrom(r io.Reader) (*Gazetteer, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode gazetteer: %w", err)
	}
	return New(doc.Districts)
}

// New validates entries and indexes them by canonical name.
func New(entries []models.Location) (*Gazetteer, error) {
	g := &Gazetteer{
		entries: make([]models.Location, 0, len(entries)),
		byName:  make(map[string]int, len(entries)),
	}
	for i, loc := range entries {
		loc.Name = strings.TrimSpace(loc.Name)
		if loc.Name == "" {
			return nil, fmt.Errorf("gazetteer entry %d: empty name", i)
		}
		if !loc.Coordinates.Valid() {
			return nil, fmt.Errorf("gazetteer entry %q: coordinates out of range", loc.Name)
		}
		if _, dup := g.byName[loc.Name]; dup {
			return nil, fmt.Errorf("gazetteer entry %q: duplicate name", loc.Name)
		}
		g.byName[loc.Name] = len(g.entries)
		g.entries = append(g.entries, loc)
	}
	return g, nil
}

// All returns entries in catalog order. The slice must not be modified.
func (g *Gazetteer) All() []models.Location {
	return g.entries
}

func (g *Gazetteer) Len() int { return len(g.entries) }

func (g *Gazetteer) ByName(name string) (models.Location, bool) {
	i, ok := g.byName[strings.TrimSpace(name)]
	if !ok {
		return models.Location{}, false
	}
	return g.entries[i], true
}

// Regions lists distinct regions in first-seen order.
func (g *Gazetteer) Regions() []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, loc := range g.entries {
		if _, ok := seen[loc.Region]; ok {
			continue
		}
		seen[loc.Region] = struct{}{}
		out = append(out, loc.Region)
	}
	return out
}
