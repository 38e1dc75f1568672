// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

// Package azure implements provider.Provider using the Azure OpenAI chat
// completions API via the official OpenAI Go SDK.
package azure

import (
	"context"

	openaisdk "github.com/openai/openai-go"
	azuresdk "github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/querent-dev/querent/internal/provider"
	qerr "github.com/querent-dev/querent/pkg/errors"
)

const defaultAPIVersion = "2024-02-15-preview"

func init() {
	provider.RegisterBackend(provider.BackendAzure, func(s provider.Settings) (provider.Provider, error) {
		return New(s)
	})
}

// Compile-time interface check.
var _ provider.Provider = (*Provider)(nil)

// Provider is an Azure OpenAI deployment behind the provider.Provider seam.
type Provider struct {
	client     openaisdk.Client
	deployment string
}

// New creates an Azure OpenAI provider from Settings. Deployment names the
// Azure model deployment and doubles as the model parameter on each call.
func New(s provider.Settings) (*Provider, error) {
	if s.APIKey == "" {
		return nil, qerr.New(qerr.CodeProviderRequestInvalid, "azure: missing api key")
	}
	if s.Deployment == "" {
		return nil, qerr.New(qerr.CodeProviderRequestInvalid, "azure: missing deployment name")
	}

	apiVersion := s.APIVersion
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}

	var opts []option.RequestOption
	switch {
	case s.BaseURL != "":
		// Test override: talk plain OpenAI protocol to the given URL.
		opts = append(opts, option.WithBaseURL(s.BaseURL), option.WithAPIKey(s.APIKey))
	default:
		if s.Endpoint == "" {
			return nil, qerr.New(qerr.CodeProviderRequestInvalid, "azure: missing endpoint")
		}
		opts = append(opts,
			azuresdk.WithEndpoint(s.Endpoint, apiVersion),
			azuresdk.WithAPIKey(s.APIKey),
		)
	}

	return &Provider{
		client:     openaisdk.NewClient(opts...),
		deployment: s.Deployment,
	}, nil
}

func (p *Provider) Name() string { return "azure" }

func (p *Provider) Close() error { return nil }

// Complete performs one blocking chat completion round trip.
func (p *Provider) Complete(ctx context.Context, req provider.Request) (*provider.Result, error) {
	params, err := buildParams(p.deployment, req)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, qerr.Wrapf(err, qerr.CodeProviderUpstreamFailure, "azure chat completion")
	}

	if len(resp.Choices) == 0 {
		return nil, qerr.New(qerr.CodeProviderResponseInvalid, "azure: response carried no choices")
	}

	msg := resp.Choices[0].Message
	result := &provider.Result{
		Text: msg.Content,
		Usage: &provider.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}

	if len(msg.ToolCalls) > 0 {
		tc := msg.ToolCalls[0]
		result.Call = &provider.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}
	}

	return result, nil
}

// buildParams converts a provider.Request into SDK chat completion params.
func buildParams(deployment string, req provider.Request) (openaisdk.ChatCompletionNewParams, error) {
	msgs, err := convertMessages(req.Messages, req.SystemPrompt)
	if err != nil {
		return openaisdk.ChatCompletionNewParams{}, err
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:       shared.ChatModel(deployment),
		Messages:    msgs,
		Temperature: param.NewOpt(req.Temperature),
	}

	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}

	if req.Tool != nil {
		params.Tools = []openaisdk.ChatCompletionToolParam{{
			Function: shared.FunctionDefinitionParam{
				Name:        req.Tool.Name,
				Description: param.NewOpt(req.Tool.Description),
				Parameters:  shared.FunctionParameters(req.Tool.InputSchema),
			},
		}}
	}

	if req.JSONOnly {
		params.ResponseFormat = openaisdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	return params, nil
}

func convertMessages(msgs []provider.Message, systemPrompt string) ([]openaisdk.ChatCompletionMessageParamUnion, error) {
	var result []openaisdk.ChatCompletionMessageParamUnion

	if systemPrompt != "" {
		result = append(result, openaisdk.SystemMessage(systemPrompt))
	}

	for _, msg := range msgs {
		switch msg.Role {
		case provider.RoleUser:
			result = append(result, openaisdk.UserMessage(msg.Content))
		case provider.RoleAssistant:
			result = append(result, openaisdk.AssistantMessage(msg.Content))
		case provider.RoleSystem:
			result = append(result, openaisdk.SystemMessage(msg.Content))
		default:
			return nil, qerr.New(qerr.CodeProviderRequestInvalid, "azure: unsupported message role "+string(msg.Role))
		}
	}

	return result, nil
}
