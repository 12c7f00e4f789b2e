package textmodel

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	domain "github.com/careerlog/server/internal/assistant/model"
)

// basic safety limits to avoid pathological model outputs
const (
	maxContentLen     = 64 * 1024
	maxUserMessageLen = 2000
	maxValueLen       = 500
)

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// extractJSONObject pulls the first balanced-looking JSON object out of model
// output, tolerating code fences and prose around it.
func extractJSONObject(content string) (string, error) {
	if content == "" {
		return "", fmt.Errorf("empty model output")
	}
	if len(content) > maxContentLen {
		content = content[:maxContentLen]
	}
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start < 0 || end <= start {
		return "", fmt.Errorf("no json object in model output")
	}
	return content[start : end+1], nil
}

func validConfidence(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func parseClassification(content string) (domain.Classification, error) {
	raw, err := extractJSONObject(content)
	if err != nil {
		return domain.Classification{}, err
	}

	var out struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return domain.Classification{}, fmt.Errorf("classification parse: %w", err)
	}
	if strings.TrimSpace(out.Label) == "" {
		return domain.Classification{}, fmt.Errorf("classification missing label")
	}
	return domain.Classification{
		Label:      strings.TrimSpace(out.Label),
		Confidence: validConfidence(out.Confidence),
	}, nil
}

func parseExtraction(content string) (domain.Extraction, error) {
	raw, err := extractJSONObject(content)
	if err != nil {
		return domain.Extraction{}, err
	}

	var out domain.Extraction
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return domain.Extraction{}, fmt.Errorf("extraction parse: %w", err)
	}

	switch out.Intent {
	case domain.ExtractAnswer, domain.ExtractClarification, domain.ExtractSkip, domain.ExtractInvalid:
	case "":
		return domain.Extraction{}, fmt.Errorf("extraction missing intent")
	default:
		// unknown intent labels degrade to invalid rather than failing the turn
		out.Intent = domain.ExtractInvalid
	}

	out.Value = truncate(strings.TrimSpace(out.Value), maxValueLen)
	out.Confidence = validConfidence(out.Confidence)
	return out, nil
}
