// Package audio measures the decoded duration of synthesized files.
package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/tcolgate/mp3"

	"github.com/AdrianRomo/Influencer-Automation/internal/ports"
)

// MP3Prober sums frame durations of an MP3 file.
type MP3Prober struct{}

var _ ports.DurationProber = (*MP3Prober)(nil)

// NewMP3Prober returns a stateless prober.
func NewMP3Prober() *MP3Prober {
	return &MP3Prober{}
}

// DurationSeconds decodes the file frame by frame and returns the rounded
// total duration.
func (p *MP3Prober) DurationSeconds(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	decoder := mp3.NewDecoder(file)

	var (
		frame   mp3.Frame
		skipped int
		total   time.Duration
	)
	for {
		err := decoder.Decode(&frame, &skipped)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Trailing junk after valid frames is common in streamed
			// MP3; keep what was decoded so far.
			if total > 0 {
				break
			}
			return 0, fmt.Errorf("decode mp3: %w", err)
		}
		total += frame.Duration()
	}

	if total <= 0 {
		return 0, fmt.Errorf("no mp3 frames in %s", path)
	}

	return int(math.Round(total.Seconds())), nil
}
