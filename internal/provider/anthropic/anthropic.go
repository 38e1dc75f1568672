// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

// Package anthropic implements provider.Provider using the Anthropic
// Messages API. It is the alternate backend to azure; generation uses tool
// use, and JSON-only mode is enforced through the system prompt since the
// Messages API has no response-format switch.
package anthropic

import (
	"context"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/querent-dev/querent/internal/provider"
	qerr "github.com/querent-dev/querent/pkg/errors"
)

const jsonOnlyInstruction = "Respond with a single JSON object and nothing else: no prose, no code fences."

func init() {
	provider.RegisterBackend(provider.BackendAnthropic, func(s provider.Settings) (provider.Provider, error) {
		return New(s)
	})
}

// Compile-time interface check.
var _ provider.Provider = (*Provider)(nil)

// Provider is an Anthropic model behind the provider.Provider seam.
type Provider struct {
	client anthropicsdk.Client
	model  string
}

// New creates an Anthropic provider. Settings.Deployment names the model.
func New(s provider.Settings) (*Provider, error) {
	if s.APIKey == "" {
		return nil, qerr.New(qerr.CodeProviderRequestInvalid, "anthropic: missing api key")
	}
	if s.Deployment == "" {
		return nil, qerr.New(qerr.CodeProviderRequestInvalid, "anthropic: missing model name")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(s.APIKey),
	}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}

	return &Provider{
		client: anthropicsdk.NewClient(opts...),
		model:  s.Deployment,
	}, nil
}

func (p *Provider) Name() string { return "anthropic" }

func (p *Provider) Close() error { return nil }

// Complete performs one blocking Messages round trip.
func (p *Provider) Complete(ctx context.Context, req provider.Request) (*provider.Result, error) {
	params, err := buildParams(p.model, req)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, qerr.Wrapf(err, qerr.CodeProviderUpstreamFailure, "anthropic message")
	}

	result := &provider.Result{
		Usage: &provider.Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}

	var text strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			if result.Call == nil {
				result.Call = &provider.ToolCall{
					ID:        block.ID,
					Name:      block.Name,
					Arguments: string(block.Input),
				}
			}
		}
	}
	result.Text = text.String()

	return result, nil
}

// buildParams converts a provider.Request into Anthropic MessageNewParams.
func buildParams(model string, req provider.Request) (anthropicsdk.MessageNewParams, error) {
	msgs, err := convertMessages(req.Messages)
	if err != nil {
		return anthropicsdk.MessageNewParams{}, err
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropicsdk.MessageNewParams{
		Model:       anthropicsdk.Model(model),
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: anthropicsdk.Float(req.Temperature),
	}

	system := req.SystemPrompt
	if req.JSONOnly {
		if system != "" {
			system += "\n\n"
		}
		system += jsonOnlyInstruction
	}
	if system != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: system}}
	}

	if req.Tool != nil {
		params.Tools = []anthropicsdk.ToolUnionParam{{
			OfTool: &anthropicsdk.ToolParam{
				Name:        req.Tool.Name,
				Description: anthropicsdk.Opt(req.Tool.Description),
				InputSchema: extractSchema(req.Tool.InputSchema),
			},
		}}
	}

	return params, nil
}

func convertMessages(msgs []provider.Message) ([]anthropicsdk.MessageParam, error) {
	var result []anthropicsdk.MessageParam

	for _, msg := range msgs {
		switch msg.Role {
		case provider.RoleUser:
			result = append(result, anthropicsdk.NewUserMessage(
				anthropicsdk.NewTextBlock(msg.Content),
			))
		case provider.RoleAssistant:
			result = append(result, anthropicsdk.NewAssistantMessage(
				anthropicsdk.NewTextBlock(msg.Content),
			))
		case provider.RoleSystem:
			// System turns ride the top-level system param.
			continue
		default:
			return nil, qerr.New(qerr.CodeProviderRequestInvalid, "anthropic: unsupported message role "+string(msg.Role))
		}
	}

	return result, nil
}

// extractSchema maps a full JSON Schema object into the SDK's
// ToolInputSchemaParam, which wants properties and required split out.
func extractSchema(raw map[string]any) anthropicsdk.ToolInputSchemaParam {
	schema := anthropicsdk.ToolInputSchemaParam{}
	if props, ok := raw["properties"]; ok {
		schema.Properties = props
	}
	if req, ok := raw["required"]; ok {
		switch arr := req.(type) {
		case []string:
			schema.Required = arr
		case []any:
			strs := make([]string, 0, len(arr))
			for _, v := range arr {
				if s, ok := v.(string); ok {
					strs = append(strs, s)
				}
			}
			schema.Required = strs
		}
	}
	return schema
}
