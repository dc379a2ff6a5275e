package entity

// BrowserSession is a remote browser provisioned by the session provider.
// The id is a capability token: this service never closes the session.
type BrowserSession struct {
	ID       string `json:"id"`
	DebugURL string `json:"debugUrl"`
}

type SessionPage struct {
	ID                    string `json:"id"`
	URL                   string `json:"url"`
	Title                 string `json:"title"`
	DebuggerURL           string `json:"debuggerUrl"`
	DebuggerFullscreenURL string `json:"debuggerFullscreenUrl"`
}

// SessionDebugInfo holds the live observation URLs of a session.
type SessionDebugInfo struct {
	DebuggerFullscreenURL string        `json:"debuggerFullscreenUrl"`
	DebuggerURL           string        `json:"debuggerUrl"`
	WSURL                 string        `json:"wsUrl"`
	Pages                 []SessionPage `json:"pages,omitempty"`
}
