// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package variables

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Category groups variables in the picker.
type Category struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Color string `json:"color" yaml:"color"`
}

// Variable is one entry of the catalog.
type Variable struct {
	ID       string `json:"id" yaml:"id"`
	Label    string `json:"label" yaml:"label"`
	Token    string `json:"token" yaml:"token"`
	Category string `json:"categoria" yaml:"categoria"`
}

// Group is a category together with its variables, in catalog order.
type Group struct {
	Category
	Variables []Variable `json:"variables"`
}

// Catalog is the read-only registry of recognised tokens.
type Catalog struct {
	Categories []Category `yaml:"categories"`
	Variables  []Variable `yaml:"variables"`
}

// ParseCatalog reads a catalog from YAML and checks that every variable
// belongs to a declared category.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	known := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		known[cat.ID] = true
	}
	seen := make(map[string]bool, len(c.Variables))
	for _, v := range c.Variables {
		if !known[v.Category] {
			return nil, fmt.Errorf("parse catalog: variable %q uses unknown category %q", v.ID, v.Category)
		}
		if seen[v.Token] {
			return nil, fmt.Errorf("parse catalog: duplicate token %q", v.Token)
		}
		seen[v.Token] = true
	}
	return &c, nil
}

var (
	defaultCatalogOnce sync.Once
	defaultCatalog     *Catalog
)

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		c, err := ParseCatalog(catalogYAML)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Groups returns the variables grouped by category, preserving order.
func (c *Catalog) Groups() []Group {
	groups := make([]Group, 0, len(c.Categories))
	index := make(map[string]int, len(c.Categories))
	for _, cat := range c.Categories {
		index[cat.ID] = len(groups)
		groups = append(groups, Group{Category: cat})
	}
	for _, v := range c.Variables {
		i := index[v.Category]
		groups[i].Variables = append(groups[i].Variables, v)
	}
	return groups
}

// Lookup finds a variable by its token.
func (c *Catalog) Lookup(token string) (Variable, bool) {
	for _, v := range c.Variables {
		if v.Token == token {
			return v, true
		}
	}
	return Variable{}, false
}
