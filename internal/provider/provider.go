// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package provider

import (
	"context"
)

// Provider is the boundary interface to a chat-completion model service.
// One method serves both usage modes of the ask loop: query generation
// (declared function schema via Request.Tool) and answer validation
// (Request.JSONOnly). The Result is a tagged union — exactly one of Text
// or Call is meaningful, and Call wins when present.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Result, error)
	Close() error
}

// Request describes one blocking completion round trip.
type Request struct {
	SystemPrompt string
	Messages     []Message

	// Tool, when set, declares a function schema the model may choose to
	// call instead of answering in free text.
	Tool *ToolDefinition

	// JSONOnly asks the model to respond with a single JSON object.
	JSONOnly bool

	Temperature float64
	MaxTokens   int
}

// Message is one role-tagged conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role identifies a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ToolDefinition declares a function schema the model may invoke.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Result is the tagged outcome of a completion. Call != nil means the model
// chose the declared function; otherwise Text carries its free-form reply.
type Result struct {
	Text  string
	Call  *ToolCall
	Usage *Usage
}

// ToolCall is a structured function invocation emitted by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // JSON object text
}

// Usage tracks token consumption of one round trip.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// UserMessage is a convenience constructor for a user turn.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage is a convenience constructor for an assistant turn.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
