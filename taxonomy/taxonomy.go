// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package taxonomy

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/poiesic/imagecat/core"
)

// Taxonomy is an immutable, flattened view of a category tree.
type Taxonomy struct {
	roots []*Node
	paths []core.CategoryPath
	index map[core.CategoryPath]struct{}
	fold  map[string]core.CategoryPath
}

// Groups is the taxonomy partitioned the way the selection UI presents it.
type Groups struct {
	Main            []core.CategoryPath `json:"main"`
	Colors          []core.CategoryPath `json:"colors"`
	Mockups         []core.CategoryPath `json:"mockups"`
	Orientation     []core.CategoryPath `json:"orientation"`
	CopySpace       []core.CategoryPath `json:"copy_space"`
	People          []core.CategoryPath `json:"people"`
	PeopleMain      []core.CategoryPath `json:"people_main"`
	PeopleAge       []core.CategoryPath `json:"people_age"`
	PeopleCount     []core.CategoryPath `json:"people_count"`
	PeopleEthnicity []core.CategoryPath `json:"people_ethnicity"`
}

// New flattens roots into a Taxonomy.
func New(roots []*Node) (*Taxonomy, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: no roots", ErrInvalidTaxonomy)
	}
	t := &Taxonomy{
		roots: roots,
		index: make(map[core.CategoryPath]struct{}),
		fold:  make(map[string]core.CategoryPath),
	}
	for _, root := range roots {
		if root == nil || strings.TrimSpace(root.Name) == "" {
			return nil, fmt.Errorf("%w: root with empty name", ErrInvalidTaxonomy)
		}
		if err := t.walk(core.CategoryPath(strings.TrimSpace(root.Name)), root.Children); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Taxonomy) walk(parent core.CategoryPath, children []*Node) error {
	for _, child := range children {
		if child == nil || strings.TrimSpace(child.Name) == "" {
			return fmt.Errorf("%w: empty name under %q", ErrInvalidTaxonomy, parent)
		}
		p := parent + core.PathSeparator + core.CategoryPath(strings.TrimSpace(child.Name))
		if _, ok := t.index[p]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicatePath, p)
		}
		t.index[p] = struct{}{}
		t.paths = append(t.paths, p)
		t.fold[foldKey(string(p))] = p
		if err := t.walk(p, child.Children); err != nil {
			return err
		}
	}
	return nil
}

// Default returns the built-in taxonomy.
func Default() *Taxonomy {
	t, err := New(DefaultRoots())
	if err != nil {
		panic(err)
	}
	return t
}

type file struct {
	Roots []*Node `toml:"root"`
}

// Load reads a taxonomy from a TOML file of nested [[root]] tables:
//
//	[[root]]
//	name = "Colors"
//	children = [{ name = "Black" }, { name = "Blue" }]
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy: %w", err)
	}
	return Parse(data)
}

// Parse decodes a TOML taxonomy document.
func Parse(data []byte) (*Taxonomy, error) {
	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTaxonomy, err)
	}
	return New(f.Roots)
}

// Encode renders the taxonomy as a TOML document accepted by Parse.
func (t *Taxonomy) Encode() ([]byte, error) {
	return toml.Marshal(file{Roots: t.roots})
}

// Roots returns the top-level nodes.
func (t *Taxonomy) Roots() []*Node {
	return t.roots
}

// Len returns the number of selectable paths.
func (t *Taxonomy) Len() int {
	return len(t.paths)
}

// Contains reports whether p is a selectable path.
func (t *Taxonomy) Contains(p core.CategoryPath) bool {
	_, ok := t.index[p]
	return ok
}

// Lookup resolves loosely formatted text to a canonical path, ignoring case
// and spacing around separators.
func (t *Taxonomy) Lookup(s string) (core.CategoryPath, bool) {
	if p := core.CategoryPath(s); t.Contains(p) {
		return p, true
	}
	p, ok := t.fold[foldKey(s)]
	return p, ok
}

// Resolve maps user-supplied names onto canonical paths and validates the
// result as a selection. Unknown names are reported together.
func (t *Taxonomy) Resolve(names []string) ([]core.CategoryPath, error) {
	paths := make([]core.CategoryPath, 0, len(names))
	var unknown []string
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		p, ok := t.Lookup(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		paths = append(paths, p)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %w: %s", core.ErrInvalidCategory, core.ErrUnknownCategory, strings.Join(unknown, ", "))
	}
	if err := core.ValidateSelection(paths, t.Contains); err != nil {
		return nil, err
	}
	return paths, nil
}

// Paths returns every selectable path in definition order.
func (t *Taxonomy) Paths() []core.CategoryPath {
	out := make([]core.CategoryPath, len(t.paths))
	copy(out, t.paths)
	return out
}

// Family returns the paths of one family in definition order.
func (t *Taxonomy) Family(f core.Family) []core.CategoryPath {
	var out []core.CategoryPath
	for _, p := range t.paths {
		if p.Family() == f {
			out = append(out, p)
		}
	}
	return out
}

// Filter splits paths into those known to the taxonomy and those that are not.
func (t *Taxonomy) Filter(paths []core.CategoryPath) (known, unknown []core.CategoryPath) {
	for _, p := range paths {
		if t.Contains(p) {
			known = append(known, p)
		} else {
			unknown = append(unknown, p)
		}
	}
	return known, unknown
}

// Groups partitions the taxonomy for display.
func (t *Taxonomy) Groups() Groups {
	var g Groups
	for _, p := range t.paths {
		switch p.Family() {
		case core.FamilyMain:
			g.Main = append(g.Main, p)
		case core.FamilyColors:
			g.Colors = append(g.Colors, p)
		case core.FamilyMockups:
			g.Mockups = append(g.Mockups, p)
		case core.FamilyOrientation:
			g.Orientation = append(g.Orientation, p)
		case core.FamilyCopySpace:
			g.CopySpace = append(g.CopySpace, p)
		case core.FamilyPeople:
			g.People = append(g.People, p)
			switch p.Subfamily() {
			case core.SubfamilyAge:
				g.PeopleAge = append(g.PeopleAge, p)
			case core.SubfamilyCount:
				g.PeopleCount = append(g.PeopleCount, p)
			case core.SubfamilyEthnicity:
				g.PeopleEthnicity = append(g.PeopleEthnicity, p)
			default:
				g.PeopleMain = append(g.PeopleMain, p)
			}
		}
	}
	return g
}

// Describe renders the taxonomy as one line per family for prompts.
func (t *Taxonomy) Describe() string {
	var sb strings.Builder
	for _, root := range t.roots {
		var paths []string
		prefix := core.CategoryPath(root.Name)
		for _, p := range t.paths {
			if p.IsUnder(prefix) {
				paths = append(paths, string(p))
			}
		}
		fmt.Fprintf(&sb, "%s: %s\n", root.Name, strings.Join(paths, ", "))
	}
	return sb.String()
}

func foldKey(s string) string {
	segs := core.CategoryPath(s).Segments()
	return strings.ToLower(strings.Join(segs, core.PathSeparator))
}
