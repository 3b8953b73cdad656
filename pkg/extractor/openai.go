package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/pdplab/pdplab-go/pkg/models"
)

const extractionInstructions = `You are a data extraction engine for a family systems assessment tool.
You receive a conversation history, the family model built so far, and one new statement.
Emit ONLY the changes that the new statement implies, as deltas against the current model:
- "people": people to add or modify. Use negative ids for people introduced by this statement, and the existing positive id to modify someone already in the model. Only include fields the statement establishes.
- "events": life events to add or modify, with kind one of shift, birth, adopted, bonded, married, separated, divorced, moved, death. Use "shift" for changes in symptom, anxiety, functioning (up/down/same) or relationship (conflict/distance/reciprocity/childfocus/triangle); set those variables only on shift events and only when the statement supports them.
- "pair_bonds": romantic bonds between two people, with married/separated/divorced flags when stated.
- "delete": ids of records the statement retracts.
Reference people in events and bonds by id, including negative ids from this same response. Leave lists empty when the statement adds nothing to them.`

type payload struct {
	SpeakerName  string      `json:"speaker_name"`
	History      []Utterance `json:"history"`
	CurrentModel models.PDP  `json:"current_model"`
	Statement    string      `json:"statement"`
}

// deltasSchema is reflected once; models.Deltas is the wire contract.
var deltasSchema = GenerateSchema[models.Deltas]()

// OpenAI extracts deltas through a structured-output Responses call
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an extractor backed by the OpenAI Responses API
func NewOpenAI(apiKey, model string) *OpenAI {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAI{client: &client, model: model}
}

// Extract implements Extractor
func (e *OpenAI) Extract(ctx context.Context, req Request) (*models.Deltas, error) {
	if e.client == nil {
		return nil, errors.New("extractor: client is nil")
	}
	if e.model == "" {
		return nil, errors.New("extractor: model is empty")
	}

	body, err := json.Marshal(payload{
		SpeakerName:  req.SpeakerName,
		History:      req.History,
		CurrentModel: req.Current,
		Statement:    req.Text,
	})
	if err != nil {
		return nil, err
	}

	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "PDPDeltas",
			Schema:      deltasSchema,
			Strict:      openai.Bool(true),
			Description: openai.String("Deltas against the current family model"),
			Type:        "json_schema",
		},
	}

	input := []responses.ResponseInputItemUnionParam{
		responses.ResponseInputItemParamOfMessage(string(body), responses.EasyInputMessageRoleUser),
	}
	params := responses.ResponseNewParams{
		Model:           e.model,
		MaxOutputTokens: openai.Int(4000),
		Instructions:    openai.String(extractionInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: input,
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}

	resp, err := callWithRetry(ctx, e.client, params)
	if err != nil {
		return nil, fmt.Errorf("extraction call: %w", err)
	}

	raw, err := extractObject(resp.OutputText())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedDelta, err)
	}
	return models.ParseDeltasJSON(raw)
}

func callWithRetry(ctx context.Context, client *openai.Client, params responses.ResponseNewParams) (*responses.Response, error) {
	const maxRetries = 3
	rateLimitWaitTimes := []time.Duration{65 * time.Second, 100 * time.Second, 135 * time.Second}
	serverErrorWaitTimes := []time.Duration{5 * time.Second, 30 * time.Second, 60 * time.Second}

	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err := client.Responses.New(ctx, params)
		if err != nil {
			if isRateLimitError(err) {
				if attempt < maxRetries-1 {
					time.Sleep(rateLimitWaitTimes[attempt])
					continue
				}
			} else if isServerError(err) {
				if attempt < maxRetries-1 {
					time.Sleep(serverErrorWaitTimes[attempt])
					continue
				}
			}
			return nil, err
		}
		return resp, nil
	}
	return nil, fmt.Errorf("failed after %d attempts due to OpenAI API issues", maxRetries)
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "server_error")
}

// extractObject returns the first top-level JSON object from model output.
// Strict mode should always yield bare JSON, but fenced or prefixed output
// still happens with some models.
func extractObject(outputText string) ([]byte, error) {
	s := strings.TrimSpace(outputText)
	if s == "" {
		return nil, errors.New("empty model output")
	}
	if json.Valid([]byte(s)) {
		return []byte(s), nil
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object found in model output (len=%d)", len(s))
	}
	return []byte(s[start : end+1]), nil
}
