// Package summarizer provides AI-powered article analysis implementations.
// It includes adapters for Groq (OpenAI-compatible) and Claude (Anthropic)
// APIs with reliability patterns, plus a heuristic fallback that needs no
// network at all.
package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"newsxpress/internal/domain/entity"
)

// maxActors caps how many named actors an analysis may carry.
const maxActors = 5

// ErrAnalysisParseFailed indicates the model reply was not usable JSON.
var ErrAnalysisParseFailed = errors.New("analysis response is not valid JSON")

// ArticleAnalyzer turns a raw headline into a structured analysis: a short
// summary plus sentiment, actors, and topical classification.
type ArticleAnalyzer interface {
	Analyze(ctx context.Context, article entity.RawArticle, category string) (entity.Analysis, error)
}

// buildAnalysisPrompt constructs the analysis prompt. The model is asked for
// a single JSON object so the reply can be machine-parsed.
func buildAnalysisPrompt(article entity.RawArticle, category string, wordLimit, maxInputChars int) string {
	content := article.Snippet
	if content == "" {
		content = article.Title
	}
	if len(content) > maxInputChars {
		content = content[:maxInputChars] + "..."
	}

	var b strings.Builder
	b.WriteString("You are a news analyst. Analyze the following ")
	b.WriteString(category)
	b.WriteString(" news article and respond with ONLY a JSON object, no prose, with these keys:\n")
	fmt.Fprintf(&b, `{"summary": "neutral summary in at most %d words", `, wordLimit)
	b.WriteString(`"sentiment": number between -1 and 1, `)
	fmt.Fprintf(&b, `"actors": ["up to %d people or organizations involved"], `, maxActors)
	b.WriteString(`"place": "primary location or empty string", `)
	b.WriteString(`"topic": "broad topic", "subtopic": "narrow topic"}`)
	b.WriteString("\n\nTitle: ")
	b.WriteString(article.Title)
	if article.Source != "" {
		b.WriteString("\nSource: ")
		b.WriteString(article.Source)
	}
	b.WriteString("\nContent: ")
	b.WriteString(content)
	return b.String()
}

// analysisPayload is the wire shape of the model reply.
type analysisPayload struct {
	Summary   string   `json:"summary"`
	Sentiment float64  `json:"sentiment"`
	Actors    []string `json:"actors"`
	Place     string   `json:"place"`
	Topic     string   `json:"topic"`
	Subtopic  string   `json:"subtopic"`
}

// parseAnalysisResponse extracts the JSON object from a model reply. Models
// routinely wrap JSON in markdown fences or lead-in text, so the parser
// slices from the first '{' to the last '}' before unmarshalling.
func parseAnalysisResponse(reply string) (entity.Analysis, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start == -1 || end <= start {
		return entity.Analysis{}, fmt.Errorf("%w: no JSON object in reply", ErrAnalysisParseFailed)
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(reply[start:end+1]), &payload); err != nil {
		return entity.Analysis{}, fmt.Errorf("%w: %v", ErrAnalysisParseFailed, err)
	}
	if strings.TrimSpace(payload.Summary) == "" {
		return entity.Analysis{}, fmt.Errorf("%w: empty summary", ErrAnalysisParseFailed)
	}

	return entity.Analysis{
		Summary:   strings.TrimSpace(payload.Summary),
		Sentiment: clampSentiment(payload.Sentiment),
		Actors:    cleanActors(payload.Actors),
		Place:     strings.TrimSpace(payload.Place),
		Topic:     strings.TrimSpace(payload.Topic),
		Subtopic:  strings.TrimSpace(payload.Subtopic),
	}, nil
}

func clampSentiment(s float64) float64 {
	if s < -1 {
		return -1
	}
	if s > 1 {
		return 1
	}
	return s
}

func cleanActors(actors []string) []string {
	cleaned := make([]string, 0, maxActors)
	for _, actor := range actors {
		actor = strings.TrimSpace(actor)
		if actor == "" {
			continue
		}
		cleaned = append(cleaned, actor)
		if len(cleaned) == maxActors {
			break
		}
	}
	return cleaned
}

