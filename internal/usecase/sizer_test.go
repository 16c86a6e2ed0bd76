package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdrianRomo/Influencer-Automation/internal/ports"
)

func TestWordsForSeconds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 420, WordsForSeconds(180, 140))
	assert.Equal(t, 70, WordsForSeconds(30, 140))
	assert.Equal(t, 465, WordsForSeconds(180, 155))
}

func TestCountWords(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, CountWords("   "))
	assert.Equal(t, 3, CountWords("hola   mundo\ncruel"))
}

func TestSizeComputesWindowFromEstimate(t *testing.T) {
	t.Parallel()

	writer := &fakeWriter{}
	sizer := NewSizer(writer, 30)

	var got ports.ScriptRequest
	writer.scriptFn = func(_ context.Context, req ports.ScriptRequest) (ports.ScriptBundle, error) {
		got = req
		return ports.ScriptBundle{Script: words(req.TargetWords)}, nil
	}

	sized, err := sizer.Size(context.Background(), SizeRequest{
		Title:          "Titular",
		Body:           "cuerpo del articulo",
		OutputLanguage: "es-MX",
		TargetSeconds:  180,
		WPM:            140,
	})
	require.NoError(t, err)

	assert.Equal(t, 420, got.TargetWords)
	assert.Equal(t, 70, got.ToleranceWords)
	assert.Equal(t, 420, sized.TargetWords)
	assert.Equal(t, 70, sized.ToleranceWords)
	assert.Equal(t, 420, sized.WordCount)
}

func TestSizeBackfillsWordCount(t *testing.T) {
	t.Parallel()

	writer := &fakeWriter{
		scriptFn: func(context.Context, ports.ScriptRequest) (ports.ScriptBundle, error) {
			return ports.ScriptBundle{Script: "uno dos tres"}, nil
		},
	}
	sizer := NewSizer(writer, 30)

	sized, err := sizer.Size(context.Background(), SizeRequest{TargetSeconds: 180, WPM: 140})
	require.NoError(t, err)
	assert.Equal(t, 3, sized.WordCount)
}
