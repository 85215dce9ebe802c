package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/Leganyst/travel-core/internal/model"
	"github.com/Leganyst/travel-core/internal/repository"
)

// ErrMalformedOutput — ответ модели не удалось разобрать как список активностей.
var ErrMalformedOutput = errors.New("malformed planner output")

// contentGenerator — часть genai.Models, которой пользуется генератор.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator просит модель Gemini выбрать активности из мест реестра.
type GeminiGenerator struct {
	models contentGenerator
	model  string
	places repository.PlaceRepository
}

func NewGeminiGenerator(ctx context.Context, apiKey, modelName string, places repository.PlaceRepository) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiGenerator{models: client.Models, model: modelName, places: places}, nil
}

type promptPlace struct {
	PlaceIDSuggestion string `json:"place_id_suggestion"`
	Name              string `json:"name"`
	Category          string `json:"category"`
}

type llmActivity struct {
	Type              string `json:"type"`
	PlaceName         string `json:"place_name"`
	PlaceIDSuggestion string `json:"place_id_suggestion"`
}

func (g *GeminiGenerator) Generate(ctx context.Context, prefs Preferences, c Constraints) ([]CandidateActivity, error) {
	known, err := g.places.FindByInterests(ctx, prefs.Interests)
	if err != nil {
		return nil, fmt.Errorf("find places: %w", err)
	}
	if len(known) == 0 {
		return nil, nil
	}

	available := make([]promptPlace, 0, len(known))
	for _, p := range known {
		available = append(available, promptPlace{PlaceIDSuggestion: p.ID.String(), Name: p.Name, Category: p.Category})
	}
	prompt, err := buildPrompt(prefs, c, available)
	if err != nil {
		return nil, err
	}

	result, err := g.models.GenerateContent(
		ctx,
		g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr(float32(0.2)),
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("generate candidates: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: no content generated", ErrMalformedOutput)
	}

	return parseCandidates(result.Candidates[0].Content.Parts[0].Text, c)
}

func buildPrompt(prefs Preferences, c Constraints, available []promptPlace) (string, error) {
	placesJSON, err := json.MarshalIndent(available, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode places: %w", err)
	}
	constraintsJSON, err := json.Marshal(prefs.Constraints)
	if err != nil {
		return "", fmt.Errorf("encode constraints: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a pragmatic travel planner. Recommend 5-7 activities for the traveller.\n\n")
	fmt.Fprintf(&b, "Interests: %s\n", strings.Join(prefs.Interests, ", "))
	fmt.Fprintf(&b, "Travel style: %s\n", prefs.TravelStyle)
	fmt.Fprintf(&b, "Travel pace: %s\n", prefs.TravelPace)
	fmt.Fprintf(&b, "Constraints: %s\n", constraintsJSON)
	if len(c.ExcludeTypes) > 0 {
		fmt.Fprintf(&b, "Do not suggest activities of type: %s\n", joinTypes(c.ExcludeTypes))
	}
	if len(c.PreferTypes) > 0 {
		fmt.Fprintf(&b, "Prefer activities of type: %s\n", joinTypes(c.PreferTypes))
	}
	fmt.Fprintf(&b, "\nAvailable places (use only these):\n%s\n\n", placesJSON)
	b.WriteString(`Return ONLY a JSON array. Each element must have keys "type" ` +
		`(one of VisitPOI, Meal, Indoor), "place_name" and "place_id_suggestion" ` +
		`(copied from the available places).`)
	return b.String(), nil
}

func joinTypes(ts []model.ActivityType) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

// parseCandidates разбирает ответ модели. Элемент с битым идентификатором места
// остаётся кандидатом без места: его отбросит проверка по реестру.
func parseCandidates(text string, c Constraints) ([]CandidateActivity, error) {
	var items []llmActivity
	if err := json.Unmarshal([]byte(extractJSONFromMarkdown(text)), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	out := make([]CandidateActivity, 0, len(items))
	for _, it := range items {
		cand := CandidateActivity{Type: normalizeType(it.Type), PlaceName: it.PlaceName}
		if id, err := uuid.Parse(it.PlaceIDSuggestion); err == nil {
			cand.SuggestedPlaceID = &id
		}
		out = append(out, cand)
	}
	return applyConstraints(out, c), nil
}

func normalizeType(s string) model.ActivityType {
	switch model.ActivityType(s) {
	case model.ActivityTypeVisitPOI, model.ActivityTypeMeal, model.ActivityTypeIndoor, model.ActivityTypeTransit:
		return model.ActivityType(s)
	default:
		return model.ActivityTypeOther
	}
}

// extractJSONFromMarkdown снимает обёртку ```json ... ```, если модель её добавила.
func extractJSONFromMarkdown(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") && strings.HasSuffix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
		return strings.TrimSpace(text)
	}

	if strings.HasPrefix(text, "```") && strings.HasSuffix(text, "```") {
		lines := strings.Split(text, "\n")
		if len(lines) > 1 {
			return strings.Join(lines[1:len(lines)-1], "\n")
		}
	}

	return text
}
