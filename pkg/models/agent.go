package models

// AgentMessage is emitted to the agent socket as a send_message event.
type AgentMessage struct {
	ID           string `json:"id,omitempty"`
	Message      string `json:"message"`
	Agent        string `json:"agent"`
	AnalysisType string `json:"analysisType"`
}

// AgentReply is received from the agent socket as a receive_message event.
type AgentReply struct {
	ID           string `json:"id,omitempty"`
	Type         string `json:"type"`
	Content      string `json:"content"`
	AnalysisType string `json:"analysisType"`
}

// Reply types sent by the agent backend.
const (
	AgentReplyResponse = "response"
	AgentReplyError    = "error"
)
