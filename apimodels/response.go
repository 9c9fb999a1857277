package apimodels

import (
	"encoding/json"
	"time"
)

type AnalysisResponse struct {
	// The reshaped analysis consumed by the accordion UI
	Analysis *Analysis `json:"analysis"`

	// Metadata about the analysis
	Metadata AnalysisMetadata `json:"metadata"`
}

type AnalysisMetadata struct {
	// Unique identifier of this analysis
	ID string `json:"id"`

	// When the analysis finished
	CreatedAt time.Time `json:"created_at"`

	// Time taken for analysis
	Duration string `json:"duration"`

	// Model used for analysis
	Model string `json:"model"`

	// Tokens used in analysis
	TokensUsed int64 `json:"tokens_used"`
}

// Analysis is the UI-shaped result. It carries exactly the data of the
// model's reply, renamed and regrouped.
type Analysis struct {
	CoreIdeas     CoreIdeas        `json:"core_ideas"`
	Relationships RelationshipList `json:"relationships"`
	Analogies     AnalogyList      `json:"analogies"`
	Insights      Insights         `json:"insights"`
}

type CoreIdeas struct {
	MainIdeas                     []Idea             `json:"main_ideas"`
	SupportingIdeas               []LinkedIdea       `json:"supporting_ideas"`
	ContextualElements            []Idea             `json:"contextual_elements"`
	Counterpoints                 []LinkedIdea       `json:"counterpoints"`
	RelationshipsBetweenMainIdeas []IdeaRelationship `json:"relationships_between_main_ideas"`
}

type Idea struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// LinkedIdea is attached to a main idea by its identifier.
type LinkedIdea struct {
	MainIdeaID string `json:"main_idea_id"`
	Content    string `json:"content"`
}

type IdeaRelationship struct {
	Idea1       string `json:"idea1"`
	Idea2       string `json:"idea2"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type RelationshipList struct {
	Items []Relationship `json:"items"`
}

type Relationship struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type AnalogyList struct {
	Items []Analogy `json:"items"`
}

type Analogy struct {
	ID           string `json:"id"`
	Comparison   string `json:"comparison"`
	Support      string `json:"support"`
	Implications string `json:"implications"`
}

// Insights fields are free-form and passed through as raw JSON.
type Insights struct {
	Evolution     json.RawMessage `json:"evolution"`
	KeyTakeaways  json.RawMessage `json:"key_takeaways"`
	Tradeoffs     json.RawMessage `json:"tradeoffs"`
	BroaderThemes json.RawMessage `json:"broader_themes"`
}

// RateLimitResponse is returned instead of an analysis when the upstream
// rate limit could not be waited out.
type RateLimitResponse struct {
	Status     string `json:"status"`
	Error      string `json:"error"`
	RetryAfter int    `json:"retry_after"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}
