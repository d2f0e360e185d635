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


package core

import (
	"encoding/binary"
	"slices"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a deterministic 64-bit identifier derived from content.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// PathSeparator separates the segments of a CategoryPath.
const PathSeparator = " > "

// CategoryPath is a hierarchical category of the form "GROUP > Subgroup > Leaf".
// Paths are compared by exact string equality.
type CategoryPath string

// Well-known paths the reconciliation rules depend on.
const (
	PathNoPeople     CategoryPath = "PEOPLE > No People"
	PathAnyAge       CategoryPath = "PEOPLE > Any Age"
	PathAnyEthnicity CategoryPath = "PEOPLE > Any Ethnicity"
	PathAnyPeople    CategoryPath = "PEOPLE > Any People"
	PathHorizontal   CategoryPath = "ORIENTATION > Horizontal"
	PathVertical     CategoryPath = "ORIENTATION > Vertical"
)

// Segments splits the path into its trimmed components.
func (p CategoryPath) Segments() []string {
	parts := strings.Split(string(p), strings.TrimSpace(PathSeparator))
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Root returns the first segment of the path.
func (p CategoryPath) Root() string {
	segs := p.Segments()
	if len(segs) == 0 {
		return ""
	}
	return segs[0]
}

// Leaf returns the last segment of the path.
func (p CategoryPath) Leaf() string {
	segs := p.Segments()
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

// Parent returns the path with its last segment removed, or "" for a root.
func (p CategoryPath) Parent() CategoryPath {
	idx := strings.LastIndex(string(p), PathSeparator)
	if idx < 0 {
		return ""
	}
	return p[:idx]
}

// IsUnder reports whether p is a strict descendant of ancestor.
func (p CategoryPath) IsUnder(ancestor CategoryPath) bool {
	return ancestor != "" && strings.HasPrefix(string(p), string(ancestor)+PathSeparator)
}

// CollapseParents drops the generic people parents ("Any Age", "Any People",
// "Any Ethnicity") from paths when a more specific child is also present.
func CollapseParents(paths []CategoryPath) []CategoryPath {
	out := make([]CategoryPath, 0, len(paths))
	for _, p := range paths {
		if p == PathAnyAge || p == PathAnyPeople || p == PathAnyEthnicity {
			if slices.ContainsFunc(paths, func(q CategoryPath) bool { return q.IsUnder(p) }) {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// Family returns the top-level family the path belongs to.
func (p CategoryPath) Family() Family {
	return FamilyFromRoot(p.Root())
}

// Subfamily returns the people subgroup of the path, if any.
func (p CategoryPath) Subfamily() Subfamily {
	switch {
	case p.IsUnder(PathAnyAge):
		return SubfamilyAge
	case p.IsUnder(PathAnyEthnicity):
		return SubfamilyEthnicity
	case p.IsUnder(PathAnyPeople):
		return SubfamilyCount
	}
	return SubfamilyNone
}

// String implements fmt.Stringer.
func (p CategoryPath) String() string {
	return string(p)
}

// Family identifies a top-level group of the taxonomy.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyMain
	FamilyColors
	FamilyPeople
	FamilyOrientation
	FamilyMockups
	FamilyCopySpace
)

var familyRoots = map[string]Family{
	"Category":    FamilyMain,
	"Colors":      FamilyColors,
	"PEOPLE":      FamilyPeople,
	"ORIENTATION": FamilyOrientation,
	"MOCKUPS":     FamilyMockups,
	"Copy Space":  FamilyCopySpace,
}

// FamilyFromRoot maps the first segment of a path to its Family.
func FamilyFromRoot(root string) Family {
	if f, ok := familyRoots[root]; ok {
		return f
	}
	return FamilyUnknown
}

// Families returns every known family in display order.
func Families() []Family {
	return []Family{FamilyMain, FamilyColors, FamilyMockups, FamilyOrientation, FamilyCopySpace, FamilyPeople}
}

func (f Family) String() string {
	switch f {
	case FamilyMain:
		return "main"
	case FamilyColors:
		return "colors"
	case FamilyPeople:
		return "people"
	case FamilyOrientation:
		return "orientation"
	case FamilyMockups:
		return "mockups"
	case FamilyCopySpace:
		return "copy_space"
	}
	return "unknown"
}

// Subfamily identifies a group beneath PEOPLE.
type Subfamily int

const (
	SubfamilyNone Subfamily = iota
	SubfamilyAge
	SubfamilyEthnicity
	SubfamilyCount
)

// Exclusive reports whether at most one path of the subfamily may be kept.
func (s Subfamily) Exclusive() bool {
	return s == SubfamilyAge || s == SubfamilyEthnicity
}

func (s Subfamily) String() string {
	switch s {
	case SubfamilyAge:
		return "age"
	case SubfamilyEthnicity:
		return "ethnicity"
	case SubfamilyCount:
		return "count"
	}
	return "none"
}

// Dimensions holds pixel size in display orientation.
type Dimensions struct {
	Width  int
	Height int
}

// Valid reports whether both sides are positive.
func (d Dimensions) Valid() bool {
	return d.Width > 0 && d.Height > 0
}

// Orientation derives the orientation path. Square images are horizontal.
func (d Dimensions) Orientation() CategoryPath {
	if d.Width >= d.Height {
		return PathHorizontal
	}
	return PathVertical
}

// ImageRecord is one data row of the input CSV.
type ImageRecord struct {
	Index       int            // 0-based data row index (header excluded)
	URL         string         // Image source URL
	Description string         // Optional free-text description
	Existing    []CategoryPath // Categories already present on the row
	Fields      []string       // Original column values in header order
}

// Suggestion is the vision service's answer for one image.
type Suggestion struct {
	Categories []CategoryPath
	NoPeople   bool
	Rationale  string // Logged only
	Model      string
}

// Checkpoint records how far a run got through an input file so it can be resumed.
type Checkpoint struct {
	InputPath  string
	OutputPath string
	NextRow    int
	TotalRows  int
	RunID      string
	UpdatedAt  time.Time
}
