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
	"encoding/json"
	"slices"
	"strings"

	"github.com/poiesic/imagecat/core"
	"github.com/samber/lo"
)

// Separator joins categories in the persisted cell.
const Separator = ", "

// Join renders paths as a sorted, de-duplicated, comma-joined string.
func Join(paths []core.CategoryPath) string {
	out := lo.Uniq(paths)
	slices.Sort(out)
	return strings.Join(lo.Map(out, func(p core.CategoryPath, _ int) string { return string(p) }), Separator)
}

// Split parses a persisted category cell. JSON array cells are accepted too.
func Split(s string) []core.CategoryPath {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var parts []string
	if strings.HasPrefix(s, "[") {
		if err := json.Unmarshal([]byte(s), &parts); err != nil {
			parts = strings.Split(strings.Trim(s, "[]"), ",")
		}
	} else {
		parts = strings.Split(s, ",")
	}
	out := make([]core.CategoryPath, 0, len(parts))
	for _, part := range parts {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part != "" {
			out = append(out, core.CategoryPath(part))
		}
	}
	return lo.Uniq(out)
}
