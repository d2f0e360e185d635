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


package ai

import (
	"slices"
	"strings"

	"github.com/poiesic/imagecat/core"
)

type keywordRule struct {
	keywords []string
	path     core.CategoryPath
}

var ethnicityRules = []keywordRule{
	{[]string{"asian"}, "PEOPLE > Any Ethnicity > Asian"},
	{[]string{"african", "black woman", "black man", "black person", "black people", "black family"}, "PEOPLE > Any Ethnicity > Black / African American"},
	{[]string{"hispanic", "latina", "latino"}, "PEOPLE > Any Ethnicity > Hispanic / Latina/o"},
	{[]string{"indigenous", "native american"}, "PEOPLE > Any Ethnicity > Indigenous / Native American"},
	{[]string{"caucasian", "white woman", "white man", "white person", "white people", "white family"}, "PEOPLE > Any Ethnicity > White / Caucasian"},
}

var ageRules = []keywordRule{
	{[]string{"young adult", "20s", "twenties"}, "PEOPLE > Any Age > 20s"},
	{[]string{"child", "kid", "young", "teen"}, "PEOPLE > Any Age > < 20"},
	{[]string{"30s", "thirties"}, "PEOPLE > Any Age > 30s"},
	{[]string{"40s", "forties"}, "PEOPLE > Any Age > 40s"},
	{[]string{"50s", "fifties"}, "PEOPLE > Any Age > 50s"},
	{[]string{"60", "sixties", "senior", "elderly"}, "PEOPLE > Any Age > 60+"},
}

var countRules = []keywordRule{
	{[]string{"three", "multiple", "group"}, "PEOPLE > Any People > 3+ People"},
	{[]string{"two", "couple", "pair"}, "PEOPLE > Any People > 2 People"},
}

// InferPeople fills in missing people details from the catalog description.
// It only acts on suggestions that report people; age and ethnicity default
// to their generic parents when the description is silent, and the people
// count defaults to "Any People". Paths absent from known are never added.
func InferPeople(s *core.Suggestion, description string, known func(core.CategoryPath) bool) {
	if s == nil || s.NoPeople || slices.Contains(s.Categories, core.PathNoPeople) {
		return
	}
	hasPeople := slices.ContainsFunc(s.Categories, func(p core.CategoryPath) bool {
		return p.Family() == core.FamilyPeople
	})
	if !hasPeople {
		return
	}

	desc := strings.ToLower(description)
	add := func(p core.CategoryPath) {
		if (known == nil || known(p)) && !slices.Contains(s.Categories, p) {
			s.Categories = append(s.Categories, p)
		}
	}
	has := func(parent core.CategoryPath) bool {
		return slices.ContainsFunc(s.Categories, func(p core.CategoryPath) bool {
			return p.IsUnder(parent)
		})
	}

	if !has(core.PathAnyEthnicity) && desc != "" {
		add(matchRule(desc, ethnicityRules, core.PathAnyEthnicity))
	}
	if !has(core.PathAnyAge) && desc != "" {
		add(matchRule(desc, ageRules, core.PathAnyAge))
	}
	if !has(core.PathAnyPeople) {
		count := core.PathAnyPeople
		if strings.Contains(desc, "people") || strings.Contains(desc, "persons") || strings.Contains(desc, "group") {
			count = matchRule(desc, countRules, core.PathAnyPeople)
		}
		add(count)
	}
}

func matchRule(desc string, rules []keywordRule, fallback core.CategoryPath) core.CategoryPath {
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(desc, kw) {
				return r.path
			}
		}
	}
	return fallback
}
