// Package aiparse turns free-pasted notes into draft transactions using the
// Gemini API. Drafts are suggestions for the user to review; every field is
// untrusted model output and is validated before it leaves this package, and
// again by the normal transaction path if the user saves a draft.
package aiparse

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"github.com/salinmt/salin/internal/domain"
)

// DefaultModelName is the Gemini model used for parsing.
const DefaultModelName = "gemini-2.5-flash"

// Draft is one AI-suggested transaction awaiting user confirmation.
type Draft struct {
	Title    string                 `json:"title"`
	Amount   decimal.Decimal        `json:"amount"`
	Type     domain.TransactionType `json:"type"`
	Date     domain.Date            `json:"date"`
	Category *string                `json:"category"`
}

// Parser wraps a shared genai client.
type Parser struct {
	client *genai.Client
	model  string
}

// New creates a parser. Fails when the API key is empty.
func New(ctx context.Context, apiKey string) (*Parser, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("aiparse.New: API key is not configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("aiparse.New: creating genai client: %w", err)
	}
	return &Parser{client: client, model: DefaultModelName}, nil
}

// ParseTransactions sends the text to the model and returns validated
// drafts. categoryNames are the user's category names; the model may only
// pick from them, anything else comes back as a nil category.
func (p *Parser) ParseTransactions(ctx context.Context, text string, categoryNames []string) ([]Draft, error) {
	prompt := buildPrompt(text, categoryNames, time.Now())

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("ParseTransactions: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("ParseTransactions: empty response from model")
	}

	drafts, err := decodeDrafts(cleanModelJSON(rawText), categoryNames, domain.Today())
	if err != nil {
		return nil, fmt.Errorf("ParseTransactions: %w", err)
	}
	return drafts, nil
}

func buildPrompt(text string, categoryNames []string, now time.Time) string {
	today := now.Format("2006-01-02")
	return "You are an expert financial transaction parser for a money tracker app.\n" +
		"Analyze the following text and convert each distinct financial activity into a JSON object within a JSON array.\n\n" +
		"Rules:\n" +
		"1. The current date is " + today + ".\n" +
		"2. If \"yesterday\" is mentioned, use the date for yesterday. If no date is mentioned, use today's date.\n" +
		"3. All amounts must be positive numbers.\n" +
		"4. Determine the \"type\" as either \"income\" or \"expense\".\n" +
		"5. Assign a \"category\" from this specific list ONLY: [" + strings.Join(categoryNames, ", ") + "]. If no clear category matches, assign null.\n" +
		"6. The \"title\" should be a concise summary of the activity.\n" +
		"7. Each object has the fields \"title\", \"amount\", \"type\", \"date\" (ISO YYYY-MM-DD) and \"category\".\n" +
		"8. Output STRICT JSON only: a JSON array, no code fences, no extra text.\n\n" +
		"Text to parse:\n\"" + text + "\""
}

// cleanModelJSON strips Markdown fences and surrounding junk when the model
// ignores the output instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Keep only the outermost array if junk remains around it.
	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}

type rawDraft struct {
	Title    string          `json:"title"`
	Amount   decimal.Decimal `json:"amount"`
	Type     string          `json:"type"`
	Date     string          `json:"date"`
	Category *string         `json:"category"`
}

// decodeDrafts parses the model output and keeps only drafts that survive
// validation: non-empty title, positive amount, known type, and a category
// drawn from the supplied list or nil. Unparseable dates default to today.
func decodeDrafts(clean string, categoryNames []string, today domain.Date) ([]Draft, error) {
	var raw []rawDraft
	if err := json.Unmarshal([]byte(clean), &raw); err != nil {
		return nil, fmt.Errorf("decoding model output: %w", err)
	}

	allowed := make(map[string]string, len(categoryNames))
	for _, name := range categoryNames {
		allowed[strings.ToLower(name)] = name
	}

	drafts := make([]Draft, 0, len(raw))
	for _, r := range raw {
		title := strings.TrimSpace(r.Title)
		if title == "" || !r.Amount.IsPositive() {
			continue
		}
		draftType := domain.TransactionType(strings.ToLower(strings.TrimSpace(r.Type)))
		if !draftType.Valid() {
			continue
		}

		date, err := domain.ParseDate(r.Date)
		if err != nil {
			date = today
		}

		var category *string
		if r.Category != nil {
			if canonical, ok := allowed[strings.ToLower(strings.TrimSpace(*r.Category))]; ok {
				category = &canonical
			}
		}

		drafts = append(drafts, Draft{
			Title:    title,
			Amount:   r.Amount,
			Type:     draftType,
			Date:     date,
			Category: category,
		})
	}
	return drafts, nil
}
