package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func articlePage() string {
	paragraph := strings.TrimSpace(strings.Repeat("palabra clave del estudio ", 40))
	return `<html><head><title>Estudio</title></head><body>
	<article>
	<h1>Resultados del estudio</h1>
	<p>` + paragraph + `</p>
	<p>` + paragraph + `</p>
	</article>
	</body></html>`
}

func TestExtractReturnsPageBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articlePage()))
	}))
	defer server.Close()

	ex := NewExtractor(server.Client(), nil)
	text := ex.Extract(context.Background(), server.URL, "fallback summary")

	assert.Contains(t, text, "palabra clave del estudio")
	assert.NotEqual(t, "fallback summary", text)
	assert.GreaterOrEqual(t, len(strings.Fields(text)), minWords)
}

func TestExtractFallsBackOnFetchError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	ex := NewExtractor(server.Client(), nil)
	text := ex.Extract(context.Background(), server.URL, "  fallback   summary  ")

	assert.Equal(t, "fallback summary", text)
}

func TestExtractFallsBackOnPDF(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7 binary"))
	}))
	defer server.Close()

	ex := NewExtractor(server.Client(), nil)
	text := ex.Extract(context.Background(), server.URL, "feed summary")

	assert.Equal(t, "feed summary", text)
}

func TestExtractFallsBackOnThinPage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><p>Too short.</p></body></html>"))
	}))
	defer server.Close()

	ex := NewExtractor(server.Client(), nil)
	text := ex.Extract(context.Background(), server.URL, "feed summary")

	assert.Equal(t, "feed summary", text)
}

func TestCleanCapsLength(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", maxChars+500)
	assert.Len(t, clean(long), maxChars)

	assert.Equal(t, "a b\n\nc", clean("a    b\n\n\n\n\nc"))
}
