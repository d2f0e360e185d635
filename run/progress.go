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
	"io"
	"strings"
	"sync"
	"time"
)

const progressBarWidth = 24

// ProgressTracker draws a one-line progress bar for a run on a terminal.
type ProgressTracker struct {
	mu        sync.Mutex
	w         io.Writer
	total     int
	done      int
	failed    int
	every     int
	lastShown int
	began     time.Time
	active    bool
}

// NewProgressTracker creates a tracker for total images that redraws every
// `every` images. A nil writer discards output.
func NewProgressTracker(w io.Writer, total, every int) *ProgressTracker {
	if w == nil {
		w = io.Discard
	}
	return &ProgressTracker{w: w, total: total, every: max(every, 1)}
}

// Start resets the counters and the clock.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.began = time.Now()
	p.active = true
	p.done, p.failed, p.lastShown = 0, 0, 0
}

// Record counts one finished image.
func (p *ProgressTracker) Record(failed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return
	}
	if p.done < p.total {
		p.done++
	}
	if failed {
		p.failed++
	}
	if p.done-p.lastShown >= p.every || p.done == p.total {
		p.draw()
		p.lastShown = p.done
	}
}

// Finish draws the final line, keeping the count a stopped run reached.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return
	}
	p.draw()
	fmt.Fprintln(p.w)
	p.active = false
}

// Elapsed returns the time since Start.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.began.IsZero() {
		return 0
	}
	return time.Since(p.began)
}

// draw must be called with the lock held.
func (p *ProgressTracker) draw() {
	elapsed := time.Since(p.began)

	fraction := 1.0
	if p.total > 0 {
		fraction = float64(p.done) / float64(p.total)
	}
	filled := int(fraction * progressBarWidth)
	bar := strings.Repeat("#", filled) + strings.Repeat(".", progressBarWidth-filled)

	rate := 0.0
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(p.done) / secs
	}
	eta := "--"
	if rate > 0 && p.done < p.total {
		eta = (time.Duration(float64(p.total-p.done)/rate) * time.Second).Round(time.Second).String()
	}

	fmt.Fprintf(p.w, "\r[%s] %d/%d images (%.0f%%) | %d failed | %.2f img/s | ETA %s",
		bar, p.done, p.total, fraction*100, p.failed, rate, eta)
}
