package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/AdrianRomo/Influencer-Automation/internal/ports"
)

// CountWords counts whitespace-separated tokens; it is the word metric used
// consistently across sizing, correction, and calibration.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// WordsForSeconds converts a duration into a word count at the given
// speaking rate.
func WordsForSeconds(seconds int, wpm float64) int {
	return int(math.Round(float64(seconds) * wpm / 60.0))
}

// SizeRequest describes one script-sizing call.
type SizeRequest struct {
	Title          string
	Body           string
	LanguageHint   string
	OutputLanguage string
	TargetSeconds  int
	WPM            float64
	Scenes         int
}

// SizedScript is the produced script together with the word-count window
// that was requested for it.
type SizedScript struct {
	ports.ScriptBundle
	TargetWords    int
	ToleranceWords int
}

// Sizer converts a target duration into a word-count window using the
// current pacing estimate and requests a script for it. It does not
// reconcile scripts that land outside the window; that is the convergence
// loop's job.
type Sizer struct {
	writer           ports.ScriptWriter
	toleranceSeconds int
}

// NewSizer wires the script-generation client with the tolerance window.
func NewSizer(writer ports.ScriptWriter, toleranceSeconds int) *Sizer {
	if toleranceSeconds <= 0 {
		toleranceSeconds = 30
	}
	return &Sizer{writer: writer, toleranceSeconds: toleranceSeconds}
}

// Size computes the word-count window and requests one script.
func (s *Sizer) Size(ctx context.Context, req SizeRequest) (SizedScript, error) {
	targetWords := WordsForSeconds(req.TargetSeconds, req.WPM)
	toleranceWords := WordsForSeconds(s.toleranceSeconds, req.WPM)

	bundle, err := s.writer.Script(ctx, ports.ScriptRequest{
		Title:          req.Title,
		Body:           req.Body,
		LanguageHint:   req.LanguageHint,
		OutputLanguage: req.OutputLanguage,
		TargetSeconds:  req.TargetSeconds,
		TargetWords:    targetWords,
		ToleranceWords: toleranceWords,
		Scenes:         req.Scenes,
	})
	if err != nil {
		return SizedScript{}, fmt.Errorf("generate script: %w", err)
	}

	if bundle.WordCount == 0 {
		bundle.WordCount = CountWords(bundle.Script)
	}

	return SizedScript{
		ScriptBundle:   bundle,
		TargetWords:    targetWords,
		ToleranceWords: toleranceWords,
	}, nil
}
