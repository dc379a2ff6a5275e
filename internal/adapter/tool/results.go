package tool

type CreateSessionResult struct {
	SessionID string `json:"sessionId,omitempty"`
	DebugURL  string `json:"debugUrl,omitempty"`
	ToolName  string `json:"toolName"`
	Error     string `json:"error,omitempty"`
}

type WebSearchResult struct {
	ToolName      string `json:"toolName"`
	Content       string `json:"content"`
	DataCollected bool   `json:"dataCollected"`
}

type PageContentResult struct {
	ToolName string `json:"toolName"`
	Content  string `json:"content"`
}
