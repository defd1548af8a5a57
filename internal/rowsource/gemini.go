package rowsource

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

const geminiPrompt = "You are a bank statement table extractor.\n\n" +
	"Task:\n" +
	"- Read EVERY transaction row in the attached PDF bank statement.\n" +
	"- Output STRICT JSON only: an array of objects, one per row, in statement order.\n\n" +
	"Each object must have exactly these string fields:\n" +
	"- \"Date\": the date exactly as printed\n" +
	"- \"Description\": the narration or particulars\n" +
	"- \"Amount\": the transaction amount as printed, without currency symbols\n" +
	"- \"Type\": \"Debit\" for money out, \"Credit\" for money in\n\n" +
	"Rules:\n" +
	"- Skip opening/closing balance lines and page headers.\n" +
	"- If the statement has separate withdrawal/deposit columns, use whichever is filled and set Type accordingly.\n\n" +
	"Return ONLY valid raw JSON.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Output must begin with \"[\" and end with \"]\".\n"

// ContentGenerator is the part of the genai models API the extractor needs.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiExtractor asks a Gemini model to read the statement table out of a PDF.
type GeminiExtractor struct {
	Models ContentGenerator
	Model  string
}

// NewGeminiExtractor creates a GenAI client using the ambient credentials.
func NewGeminiExtractor(ctx context.Context, model string) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiExtractor: create genai client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiExtractor{Models: client.Models, Model: model}, nil
}

// Extract implements PDFExtractor.
func (g *GeminiExtractor) Extract(ctx context.Context, filename string, data []byte) (*Table, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: geminiPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: "application/pdf",
						Data:     data,
					},
				},
			},
		},
	}

	resp, err := g.Models.GenerateContent(ctx, g.Model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("generate content for %s: %w", filename, err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(cleanModelJSON(rawText)), &entries); err != nil {
		return nil, fmt.Errorf("unmarshal model JSON: %w", err)
	}
	return tableFromEntries(entries)
}

// cleanModelJSON strips Markdown fences and any chatter around the JSON array.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
