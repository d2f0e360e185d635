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


package run

import (
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/imagecat/core"
)

// Mode selects where AI suggestions come from.
type Mode string

const (
	// ModeLive calls the configured AI provider.
	ModeLive Mode = "live"
	// ModeMock uses the deterministic stub provider.
	ModeMock Mode = "mock"
	// ModeOff applies the manual selection only.
	ModeOff Mode = "off"
)

// ParseMode parses a mode name. An empty string means ModeLive.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeLive:
		return ModeLive, nil
	case ModeMock:
		return ModeMock, nil
	case ModeOff:
		return ModeOff, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Job describes one run over an input file.
type Job struct {
	// InputPath is the catalog CSV to read.
	InputPath string

	// OutputPath is where categorized rows go. Defaults to
	// "<stem>_categorized<ext>" next to the input.
	OutputPath string

	// StartRow is the 0-based data row to start from.
	StartRow int

	// BatchSize overrides Config.BatchSize when non-zero.
	BatchSize int

	// Manual is applied to every image in the run.
	Manual []core.CategoryPath

	// Mode selects the AI source.
	Mode Mode

	// Append keeps rows already present in the output file.
	Append bool

	// KeepExisting merges each row's existing categories into the result.
	KeepExisting bool
}

// Snapshot is an immutable copy of a run's state.
type Snapshot struct {
	RunID      string    `json:"run_id"`
	Current    int       `json:"current"`
	Total      int       `json:"total"`
	Message    string    `json:"message"`
	Success    bool      `json:"success"`
	Complete   bool      `json:"complete"`
	Running    bool      `json:"running"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	StartRow   int       `json:"start_row"`
	InputFile  string    `json:"input_file"`
	OutputFile string    `json:"output_file"`
	StartedAt  time.Time `json:"started_at,omitzero"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

const (
	readyMessage    = "Ready"
	startingMessage = "Starting..."
	stoppedMessage  = "Processing stopped by user."
)

func readyState() Snapshot {
	return Snapshot{Message: readyMessage}
}
