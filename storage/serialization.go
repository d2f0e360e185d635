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


package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/poiesic/imagecat/core"
)

// checkpointRecord is the stored form of a core.Checkpoint.
type checkpointRecord struct {
	InputPath  string    `json:"input_path"`
	OutputPath string    `json:"output_path"`
	NextRow    int       `json:"next_row"`
	TotalRows  int       `json:"total_rows"`
	RunID      string    `json:"run_id"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// suggestionRecord is the stored form of a core.Suggestion.
type suggestionRecord struct {
	Categories []string  `json:"categories"`
	NoPeople   bool      `json:"no_people"`
	Rationale  string    `json:"rationale,omitempty"`
	Model      string    `json:"model"`
	CachedAt   time.Time `json:"cached_at"`
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(checkpoint *core.Checkpoint) ([]byte, error) {
	data, err := json.Marshal(checkpointRecord{
		InputPath:  checkpoint.InputPath,
		OutputPath: checkpoint.OutputPath,
		NextRow:    checkpoint.NextRow,
		TotalRows:  checkpoint.TotalRows,
		RunID:      checkpoint.RunID,
		UpdatedAt:  checkpoint.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	var rec checkpointRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &core.Checkpoint{
		InputPath:  rec.InputPath,
		OutputPath: rec.OutputPath,
		NextRow:    rec.NextRow,
		TotalRows:  rec.TotalRows,
		RunID:      rec.RunID,
		UpdatedAt:  rec.UpdatedAt,
	}, nil
}

// MarshalSuggestion serializes a Suggestion to bytes.
func MarshalSuggestion(suggestion *core.Suggestion) ([]byte, error) {
	rec := suggestionRecord{
		Categories: make([]string, len(suggestion.Categories)),
		NoPeople:   suggestion.NoPeople,
		Rationale:  suggestion.Rationale,
		Model:      suggestion.Model,
		CachedAt:   time.Now().UTC(),
	}
	for i, c := range suggestion.Categories {
		rec.Categories[i] = string(c)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalSuggestion deserializes a Suggestion from bytes.
func UnmarshalSuggestion(data []byte) (*core.Suggestion, error) {
	var rec suggestionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	s := &core.Suggestion{
		Categories: make([]core.CategoryPath, len(rec.Categories)),
		NoPeople:   rec.NoPeople,
		Rationale:  rec.Rationale,
		Model:      rec.Model,
	}
	for i, c := range rec.Categories {
		s.Categories[i] = core.CategoryPath(c)
	}
	return s, nil
}
