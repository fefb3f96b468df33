package anomaly

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// GeminiModel calls the Gemini API for JSON output.
type GeminiModel struct {
	client *genai.Client
	model  string
}

// NewGeminiModel creates a Gemini-backed Model.
func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, errors.New("GenAI API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiModel{client: client, model: model}, nil
}

// Generate sends req and returns the model's JSON text.
func (m *GeminiModel) Generate(ctx context.Context, req Request) ([]byte, error) {
	resp, err := m.client.Models.GenerateContent(ctx, m.model,
		genai.Text(req.Prompt),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   responseSchema(req.Fields),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, errors.New("GenAI returned no text")
	}
	return []byte(text), nil
}

func responseSchema(fields []Field) *genai.Schema {
	s := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(fields)),
	}
	for _, f := range fields {
		prop := &genai.Schema{Type: genai.TypeString, Description: f.Description}
		if f.Type == FieldArray {
			prop = &genai.Schema{
				Type:        genai.TypeArray,
				Description: f.Description,
				Items:       &genai.Schema{Type: genai.TypeString},
			}
		}
		s.Properties[f.Name] = prop
		s.Required = append(s.Required, f.Name)
		s.PropertyOrdering = append(s.PropertyOrdering, f.Name)
	}
	return s
}
