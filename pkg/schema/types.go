package schema

// Metadata describes the book being generated. All fields are optional;
// planners substitute placeholders for anything blank.
type Metadata struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Genre       string `json:"genre,omitempty"`
	TargetAge   string `json:"targetAge,omitempty"`
}

// PagePlan is the planning output for a single page: polished prose, a
// prompt for the illustration, and exactly three improvement suggestions.
type PagePlan struct {
	EnhancedContent string   `json:"enhancedContent"`
	ImagePrompt     string   `json:"imagePrompt"`
	Suggestions     []string `json:"suggestions"`
}

// CoverPlan is the planning output for the front cover.
type CoverPlan struct {
	CoverTitle    string `json:"coverTitle"`
	CoverSubtitle string `json:"coverSubtitle"`
	ImagePrompt   string `json:"imagePrompt"`
}

// StoryPage is one finished page of a whole-story run. Image is nil when
// illustration failed or produced nothing; the page is still complete.
type StoryPage struct {
	PageNumber  int           `json:"pageNumber"`
	PageContent string        `json:"pageContent"`
	ImagePrompt string        `json:"imagePrompt"`
	Image       *ImagePayload `json:"image,omitempty"`
}

// CoverResult is the finished cover, with or without an illustration.
type CoverResult struct {
	Title       string        `json:"title"`
	Subtitle    string        `json:"subtitle"`
	ImagePrompt string        `json:"imagePrompt"`
	Image       *ImagePayload `json:"image,omitempty"`
}

// StoryResult is the outcome of a whole-story run.
type StoryResult struct {
	Metadata      Metadata     `json:"metadata"`
	GlobalContext string       `json:"globalContext,omitempty"`
	Cover         *CoverResult `json:"cover,omitempty"`
	TotalPages    int          `json:"totalPages"`
	Pages         []StoryPage  `json:"pages"`
}

// PageResult is the outcome of a single-page run.
type PageResult struct {
	EnhancedContent string        `json:"enhancedContent"`
	ImagePrompt     string        `json:"imagePrompt"`
	Suggestions     []string      `json:"suggestions"`
	Image           *ImagePayload `json:"image,omitempty"`
	PageNumber      int           `json:"pageNumber"`
	TotalPages      int           `json:"totalPages"`
}

// StoryRequest is a whole-story generation request. FullScript may be empty
// when Scenes are supplied by the caller; at least one of the two is
// required. ReferenceImage, when present, seeds the continuity anchor.
type StoryRequest struct {
	Metadata       Metadata
	FullScript     string
	Scenes         []string
	GlobalContext  string
	ReferenceImage *GeneratedImage
}

// PageRequest is a single-page generation request.
type PageRequest struct {
	PageContent         string
	ImagePrompt         string
	StoryContext        string
	PageNumber          int
	TotalPages          int
	GlobalContext       string
	PrevImage           *GeneratedImage
	PrevPageContent     string
	PrevPageImagePrompt string
	ReferenceImage      *GeneratedImage
}

// CoverRequest is a standalone cover generation request.
type CoverRequest struct {
	Metadata       Metadata
	GlobalContext  string
	PrevImage      *GeneratedImage
	ReferenceImage *GeneratedImage
}
