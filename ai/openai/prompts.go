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


package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/imagecat/taxonomy"
)

const answerSchema = `{
  "type": "object",
  "properties": {
    "categories": {
      "type": "array",
      "items": { "type": "string" }
    },
    "no_people": { "type": "boolean" },
    "rationale": { "type": "string" }
  },
  "required": ["categories", "no_people"],
  "additionalProperties": false
}`

const systemPromptTemplate = `You are an expert product photo curator. You tag stock and product images with
categories from a fixed taxonomy so they can be imported into an e-commerce catalog.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Allowed categories, grouped by family:

%s
Rules:
- Every entry of "categories" must be copied exactly, full path included, from the allowed list above.
- Choose 1-2 main categories from "Category", the 2-3 most dominant colors from "Colors",
  and any matching "MOCKUPS" and "Copy Space" entries.
- If a person or any part of a person is visible, choose the people count, an age range and an ethnicity
  only when they are clearly visible. Use "PEOPLE > Faceless" when faces are not shown.
- If no people are visible, set "no_people" to true and include "PEOPLE > No People".
- Do not guess orientation; it is measured separately.
- "rationale" is one short sentence explaining the choice.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.`

const userPromptTemplate = `Categorize this image.%s`

// buildSystemPrompt renders the system prompt for a taxonomy.
func buildSystemPrompt(tax *taxonomy.Taxonomy) string {
	return fmt.Sprintf(systemPromptTemplate, answerSchema, tax.Describe())
}

// buildUserPrompt renders the per-image instruction.
func buildUserPrompt(description string) string {
	description = strings.TrimSpace(description)
	if description == "" {
		return fmt.Sprintf(userPromptTemplate, "")
	}
	return fmt.Sprintf(userPromptTemplate, "\nCatalog description: "+description)
}
