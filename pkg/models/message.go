package models

import "time"

// AgentName identifies a pipeline stage in the swarm.
type AgentName string

const (
	AgentCoordinator      AgentName = "Coordinator"
	AgentProjectManager   AgentName = "Project Manager"
	AgentTenderPoster     AgentName = "Tender Poster"
	AgentContentGenerator AgentName = "Content Generator"
	AgentEvaluator        AgentName = "Evaluator"
	AgentAssembler        AgentName = "Assembler"
)

// AgentNames lists every pipeline agent in execution order.
var AgentNames = []AgentName{
	AgentCoordinator,
	AgentProjectManager,
	AgentTenderPoster,
	AgentContentGenerator,
	AgentEvaluator,
	AgentAssembler,
}

// MessageType classifies an agent status message.
type MessageType string

const (
	MessageInfo     MessageType = "info"
	MessageSuccess  MessageType = "success"
	MessageWarning  MessageType = "warning"
	MessageError    MessageType = "error"
	MessageThinking MessageType = "thinking"
	MessageAction   MessageType = "action"
)

// Valid returns true if the message type is a known value.
func (t MessageType) Valid() bool {
	switch t {
	case MessageInfo, MessageSuccess, MessageWarning, MessageError, MessageThinking, MessageAction:
		return true
	default:
		return false
	}
}

// AgentMessage is a timestamped, agent-attributed line on the event stream.
type AgentMessage struct {
	// ID is the unique identifier for this message.
	ID string `json:"id"`
	// Agent is the stage that produced the message.
	Agent AgentName `json:"agent"`
	// Message is the human-readable text.
	Message string `json:"message"`
	// Type classifies the message for display purposes.
	Type MessageType `json:"type"`
	// Timestamp is when the message was emitted.
	Timestamp time.Time `json:"timestamp"`
	// Metadata carries optional structured context.
	Metadata map[string]any `json:"metadata,omitempty"`
}
