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

// Node is one entry of the category tree.
type Node struct {
	Name     string  `toml:"name" json:"name"`
	Children []*Node `toml:"children,omitempty" json:"children,omitempty"`
}

func leaves(names ...string) []*Node {
	nodes := make([]*Node, len(names))
	for i, n := range names {
		nodes[i] = &Node{Name: n}
	}
	return nodes
}

// DefaultRoots returns the built-in category tree.
func DefaultRoots() []*Node {
	return []*Node{
		{
			Name: "Category",
			Children: leaves(
				"Workspace",
				"Lifestyle",
				"Parenting + Motherhood",
				"Fall + Winter",
				"Fashion + Beauty",
				"Flowers + Greenery",
				"Food + Beverage",
				"Health + Fitness",
				"Home + Interiors",
				"Mockups",
				"Nature + Landscapes",
				"Holidays",
				"Travel",
				"Weddings + Celebrations",
				"Self-Care + Wellness",
				"Spring + Summer",
			),
		},
		{
			Name: "Colors",
			Children: leaves(
				"Black", "Blue", "Light Blue", "Dark Blue", "Coral", "Cream",
				"Gold", "Gray", "Green", "Dark Green", "Light Pink", "Bright Pink",
				"Rose Pink", "Orange", "Peach", "Purple", "Red", "Rose Gold",
				"Silver", "Dark Brown", "Tan", "Turquoise", "White", "Yellow",
			),
		},
		{
			Name:     "MOCKUPS",
			Children: leaves("Computer", "Frame", "Mug", "Other", "Phone", "Stationery", "Tablet"),
		},
		{
			Name:     "ORIENTATION",
			Children: leaves("Horizontal", "Vertical"),
		},
		{
			Name: "PEOPLE",
			Children: []*Node{
				{Name: "No People"},
				{Name: "Faceless"},
				{
					Name:     "Any Age",
					Children: leaves("< 20", "20s", "30s", "40s", "50s", "60+"),
				},
				{
					Name:     "Any People",
					Children: leaves("2 People", "3+ People"),
				},
				{
					Name: "Any Ethnicity",
					Children: leaves(
						"Asian",
						"Black / African American",
						"Hispanic / Latina/o",
						"Indigenous / Native American",
						"Multiracial",
						"White / Caucasian",
					),
				},
			},
		},
		{
			Name:     "Copy Space",
			Children: leaves("Large", "Small"),
		},
	}
}
