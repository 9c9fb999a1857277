package apimodels

type AnalysisRequest struct {
	// Text is the free-form material to analyze
	Text string `json:"text"`
}
