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


package reconcile

import (
	"log/slog"
	"slices"

	"github.com/poiesic/imagecat/core"
	"github.com/samber/lo"
)

// Input is everything known about one image at reconciliation time.
type Input struct {
	Manual     []core.CategoryPath
	AI         []core.CategoryPath
	// Existing holds categories already stored on the row. They join the
	// union at the lowest priority and go through every later rule.
	Existing   []core.CategoryPath
	NoPeople   bool
	Dimensions *core.Dimensions // nil when the image could not be measured
}

// Rule is one named step of the pipeline.
type Rule struct {
	Name  string
	Apply func(in Input, current []core.CategoryPath) []core.CategoryPath
}

// DefaultRules returns the standard pipeline in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "union", Apply: unionRule},
		{Name: "orientation", Apply: orientationRule},
		{Name: "people", Apply: peopleRule},
		{Name: "manual-priority", Apply: manualPriorityRule},
		{Name: "harmonize", Apply: harmonizeRule},
	}
}

// MergeRules returns the pipeline for adding a selection to rows whose
// images are not fetched. The row's stored orientation is carried over
// instead of being derived from dimensions.
func MergeRules() []Rule {
	return []Rule{
		{Name: "union", Apply: unionRule},
		{Name: "carried-orientation", Apply: carriedOrientationRule},
		{Name: "people", Apply: peopleRule},
		{Name: "manual-priority", Apply: manualPriorityRule},
		{Name: "harmonize", Apply: harmonizeRule},
	}
}

// Engine runs a rule pipeline.
type Engine struct {
	rules  []Rule
	logger *slog.Logger
}

// New creates an Engine. With no rules the default pipeline is used.
func New(rules ...Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Engine{
		rules:  rules,
		logger: slog.Default().With("component", "reconcile"),
	}
}

// Rules returns the names of the configured rules in order.
func (e *Engine) Rules() []string {
	return lo.Map(e.rules, func(r Rule, _ int) string { return r.Name })
}

// Reconcile applies every rule and returns the sorted final set.
func (e *Engine) Reconcile(in Input) []core.CategoryPath {
	var current []core.CategoryPath
	for _, rule := range e.rules {
		current = rule.Apply(in, current)
	}
	out := lo.Uniq(current)
	slices.Sort(out)
	e.logger.Debug("reconciled categories", "manual", len(in.Manual), "ai", len(in.AI), "final", len(out))
	return out
}

var defaultEngine = New()

// Reconcile runs the default pipeline.
func Reconcile(in Input) []core.CategoryPath {
	return defaultEngine.Reconcile(in)
}

func unionRule(in Input, _ []core.CategoryPath) []core.CategoryPath {
	all := make([]core.CategoryPath, 0, len(in.Manual)+len(in.AI)+len(in.Existing))
	all = append(all, in.Manual...)
	all = append(all, in.AI...)
	all = append(all, in.Existing...)
	return lo.Uniq(all)
}

func orientationRule(in Input, current []core.CategoryPath) []core.CategoryPath {
	out := lo.Reject(current, func(p core.CategoryPath, _ int) bool {
		return p.Family() == core.FamilyOrientation
	})
	if in.Dimensions != nil && in.Dimensions.Valid() {
		out = append(out, in.Dimensions.Orientation())
	}
	return out
}

// carriedOrientationRule ignores selected orientations and keeps at most one
// from the row's stored categories.
func carriedOrientationRule(in Input, current []core.CategoryPath) []core.CategoryPath {
	isOrientation := func(p core.CategoryPath, _ int) bool { return p.Family() == core.FamilyOrientation }
	out := lo.Reject(current, isOrientation)
	if stored := lo.Filter(in.Existing, isOrientation); len(stored) > 0 {
		out = append(out, slices.Min(stored))
	}
	return out
}

func peopleRule(in Input, current []core.CategoryPath) []core.CategoryPath {
	if in.NoPeople {
		out := lo.Reject(current, func(p core.CategoryPath, _ int) bool {
			return p.Family() == core.FamilyPeople
		})
		return append(out, core.PathNoPeople)
	}

	// A stale "No People" carried on the row gives way to people picked now.
	if lo.Contains(current, core.PathNoPeople) && !lo.Contains(in.Manual, core.PathNoPeople) && !lo.Contains(in.AI, core.PathNoPeople) {
		if lo.SomeBy(current, func(p core.CategoryPath) bool {
			return p.Family() == core.FamilyPeople && p != core.PathNoPeople
		}) {
			current = lo.Without(current, core.PathNoPeople)
		}
	}

	for _, sub := range []core.Subfamily{core.SubfamilyAge, core.SubfamilyEthnicity} {
		members := lo.Filter(current, func(p core.CategoryPath, _ int) bool {
			return p.Subfamily() == sub
		})
		if len(members) < 2 {
			continue
		}
		keep := pickExclusive(members, in)
		current = lo.Reject(current, func(p core.CategoryPath, _ int) bool {
			return p.Subfamily() == sub && p != keep
		})
	}
	return core.CollapseParents(current)
}

// pickExclusive chooses the lexically first manual member, then the
// lexically first AI member, then the lexically first member overall.
func pickExclusive(members []core.CategoryPath, in Input) core.CategoryPath {
	for _, source := range [][]core.CategoryPath{in.Manual, in.AI} {
		if picks := lo.Intersect(source, members); len(picks) > 0 {
			return slices.Min(picks)
		}
	}
	return slices.Min(members)
}

func manualPriorityRule(in Input, current []core.CategoryPath) []core.CategoryPath {
	for _, fam := range []core.Family{core.FamilyMockups, core.FamilyCopySpace} {
		inFamily := func(p core.CategoryPath, _ int) bool { return p.Family() == fam }
		if !lo.SomeBy(in.Manual, func(p core.CategoryPath) bool { return inFamily(p, 0) }) {
			continue
		}
		current = lo.Reject(current, func(p core.CategoryPath, i int) bool {
			return inFamily(p, i) && !lo.Contains(in.Manual, p)
		})
	}
	return current
}

func harmonizeRule(_ Input, current []core.CategoryPath) []core.CategoryPath {
	return lo.Uniq(current)
}
