package model

// QueryRequest is the body of POST /query on the assistant API.
type QueryRequest struct {
	Query             string `json:"query"`
	IncludeCitations  bool   `json:"include_citations"`
	IncludeConfidence bool   `json:"include_confidence"`
	MaxResults        int    `json:"max_results"`
	SessionID         string `json:"session_id,omitempty"` // omitted so the API generates one
}

type SessionCreateRequest struct {
	UserID   string `json:"user_id"`
	Platform string `json:"platform"`
}

// SubmitRequest is what the web surface accepts from its own callers.
type SubmitRequest struct {
	Query string `json:"query" form:"query"`
}
