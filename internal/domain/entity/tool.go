package entity

type ToolName string

const (
	ToolCreateSession       ToolName = "create-session"
	ToolRequestConfirmation ToolName = "request-confirmation"
	ToolWebSearch           ToolName = "web-search"
	ToolFetchPageContent    ToolName = "fetch-page-content"
)

// Labels shown to the user next to a running tool.
const (
	LabelCreateSession    = "Creating a new session"
	LabelWebSearch        = "Searching Google"
	LabelFetchPageContent = "Getting page content"
)

func (t ToolName) String() string {
	return string(t)
}

// KnownTools lists every tool variant the registry accepts.
var KnownTools = []ToolName{
	ToolCreateSession,
	ToolRequestConfirmation,
	ToolWebSearch,
	ToolFetchPageContent,
}

func (t ToolName) Valid() bool {
	for _, k := range KnownTools {
		if k == t {
			return true
		}
	}
	return false
}
