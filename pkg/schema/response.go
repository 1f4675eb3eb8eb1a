package schema

import "fable/pkg/diff"

// Wire shapes shared by the HTTP handlers and the Go client. Every endpoint
// returns one of these: either Success is true and the payload fields are
// populated, or Error carries a safe message.

type StoryResponse struct {
	Success       bool         `json:"success,omitempty"`
	Error         string       `json:"error,omitempty"`
	Metadata      Metadata     `json:"metadata,omitempty"`
	GlobalContext string       `json:"globalContext,omitempty"`
	Cover         *CoverResult `json:"cover,omitempty"`
	TotalPages    int          `json:"totalPages,omitempty"`
	Pages         []StoryPage  `json:"pages,omitempty"`
}

type PageResponse struct {
	Success         bool          `json:"success,omitempty"`
	Error           string        `json:"error,omitempty"`
	EnhancedContent string        `json:"enhancedContent,omitempty"`
	ImagePrompt     string        `json:"imagePrompt,omitempty"`
	Suggestions     []string      `json:"suggestions,omitempty"`
	Image           *ImagePayload `json:"image,omitempty"`
	Changes         []diff.Delta  `json:"changes,omitempty"`
	PageNumber      int           `json:"pageNumber,omitempty"`
	TotalPages      int           `json:"totalPages,omitempty"`
}

type CoverResponse struct {
	Success bool         `json:"success,omitempty"`
	Error   string       `json:"error,omitempty"`
	Cover   *CoverResult `json:"cover,omitempty"`
}

type HealthResponse struct {
	OK bool `json:"ok"`
}
