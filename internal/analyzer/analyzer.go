package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sozercan/idea-mapper/apimodels"
	"github.com/sozercan/idea-mapper/internal/llm"
)

// Completer returns the model's reply to a piece of user text.
type Completer interface {
	Complete(ctx context.Context, text string) (*llm.Response, error)
}

type Analyzer struct {
	completer Completer
	now       func() time.Time
}

func New(completer Completer) *Analyzer {
	return &Analyzer{
		completer: completer,
		now:       time.Now,
	}
}

// Analyze runs one completion for req.Text and reshapes the reply. Errors
// from the completer are returned unchanged so callers can match
// llm.ErrRateLimitExhausted; reshaping failures match ErrMalformedResponse.
func (a *Analyzer) Analyze(ctx context.Context, req apimodels.AnalysisRequest) (*apimodels.AnalysisResponse, error) {
	slog.Info("Starting analysis", "text_length", len(req.Text))
	slog.Debug("Analysis input", "text", req.Text)
	startTime := a.now()

	resp, err := a.completer.Complete(ctx, req.Text)
	if err != nil {
		return nil, err
	}
	slog.Debug("Raw LLM response", "content", resp.Content)

	analysis, err := Reshape(resp.Content)
	if err != nil {
		return nil, err
	}
	logAnalysis(analysis)

	finished := a.now()
	return &apimodels.AnalysisResponse{
		Analysis: analysis,
		Metadata: apimodels.AnalysisMetadata{
			ID:         uuid.NewString(),
			CreatedAt:  finished.UTC(),
			Duration:   finished.Sub(startTime).String(),
			Model:      resp.Model,
			TokensUsed: resp.Usage.TotalTokens,
		},
	}, nil
}

func logAnalysis(a *apimodels.Analysis) {
	slog.Info("Parsed analysis",
		"main_ideas", len(a.CoreIdeas.MainIdeas),
		"supporting_ideas", len(a.CoreIdeas.SupportingIdeas),
		"contextual_elements", len(a.CoreIdeas.ContextualElements),
		"counterpoints", len(a.CoreIdeas.Counterpoints),
		"main_idea_relationships", len(a.CoreIdeas.RelationshipsBetweenMainIdeas),
		"relationships", len(a.Relationships.Items),
		"analogies", len(a.Analogies.Items),
	)

	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	for _, item := range a.CoreIdeas.MainIdeas {
		slog.Debug("Main idea", "id", item.ID, "content", item.Content)
	}
	for _, item := range a.CoreIdeas.SupportingIdeas {
		slog.Debug("Supporting idea", "main_idea_id", item.MainIdeaID, "content", item.Content)
	}
	for _, item := range a.CoreIdeas.ContextualElements {
		slog.Debug("Contextual element", "id", item.ID, "content", item.Content)
	}
	for _, item := range a.CoreIdeas.Counterpoints {
		slog.Debug("Counterpoint", "main_idea_id", item.MainIdeaID, "content", item.Content)
	}
	for _, item := range a.CoreIdeas.RelationshipsBetweenMainIdeas {
		slog.Debug("Main idea relationship", "summary", fmt.Sprintf("%s %s %s", item.Idea1, item.Type, item.Idea2), "description", item.Description)
	}
	for _, item := range a.Relationships.Items {
		slog.Debug("Relationship", "type", item.Type, "description", item.Description)
	}
	for _, item := range a.Analogies.Items {
		slog.Debug("Analogy", "id", item.ID, "comparison", item.Comparison, "support", item.Support, "implications", item.Implications)
	}
	slog.Debug("Insights",
		"evolution", string(a.Insights.Evolution),
		"key_takeaways", string(a.Insights.KeyTakeaways),
		"tradeoffs", string(a.Insights.Tradeoffs),
		"broader_themes", string(a.Insights.BroaderThemes),
	)
}
