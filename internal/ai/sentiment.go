package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/openai/openai-go"
	"github.com/sleighlabs/nicelist/internal/ai/client"
	"github.com/sleighlabs/nicelist/internal/social"
	"github.com/sleighlabs/nicelist/pkg/utils"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/json"
	"go.uber.org/zap"
)

// ApplicationJSON is the MIME type used for JSON minification.
const ApplicationJSON = "application/json"

const (
	// SentimentSystemPrompt instructs the model to rate an account from its posts.
	SentimentSystemPrompt = `Instruction:
You are a friendly assistant for Santa Claus! You are helping Santa Claus figure out if
someone is nice or naughty based on their posts. Santa has trouble understanding sarcasm
and internet jargon, so he needs your help analyzing the posts.

Input format:
{
  "handle": "account handle",
  "posts": [
    {
      "id": "post id",
      "text": "post text"
    }
  ]
}

Output format:
{
  "most_positive_post_id": "id of the single most positive post",
  "most_negative_post_id": "id of the single most negative post",
  "rating": "nice" or "naughty",
  "score": 0-100
}

Key instructions:
1. You MUST pick both ids from the posts in the input; never invent an id
2. The rating reflects the overall sentiment across all posts, not just the two picks
3. The score is how nice the account is overall: 0 is entirely naughty, 100 is entirely nice
4. Judge the underlying intent; sarcasm and jokes are not automatically naughty`

	// SentimentRequestPrompt reminds the model of the output contract before the input.
	SentimentRequestPrompt = `Rate this account as nice or naughty from its posts.

Remember:
1. Both post ids must come from the input
2. Score 0-100, higher is nicer
3. Return only the structured result

Input:
`
)

var (
	// ErrModelResponse indicates the model returned no usable content.
	ErrModelResponse = errors.New("unexpected model response")
	// ErrInvalidClassification indicates the model output failed shape validation.
	ErrInvalidClassification = errors.New("classification failed validation")
)

// Rating values produced by the classifier and stored per handle.
const (
	RatingNice    = "nice"
	RatingNaughty = "naughty"
)

// Classification is the structured verdict for one account.
// The JSON schema is used to ensure consistent responses from the model.
type Classification struct {
	MostPositivePostID string  `json:"most_positive_post_id" jsonschema_description:"ID of the most positive post"`
	MostNegativePostID string  `json:"most_negative_post_id" jsonschema_description:"ID of the most negative post"`
	Rating             string  `json:"rating"                jsonschema:"enum=nice,enum=naughty" jsonschema_description:"Overall rating of the account"`
	Score              float64 `json:"score"                 jsonschema:"minimum=0,maximum=100"  jsonschema_description:"Niceness score from 0 to 100"`
}

// SentimentAnalysisSchema is the JSON schema for the classification response.
var SentimentAnalysisSchema = utils.GenerateSchema[Classification]()

// SentimentAnalyzer delegates sentiment classification to the hosted model.
type SentimentAnalyzer struct {
	chat   client.ChatCompletions
	minify *minify.M
	logger *zap.Logger
	model  string
}

// NewSentimentAnalyzer creates a SentimentAnalyzer using the given chat client.
func NewSentimentAnalyzer(chat client.ChatCompletions, model string, logger *zap.Logger) *SentimentAnalyzer {
	// Create a minifier for JSON optimization
	m := minify.New()
	m.AddFunc(ApplicationJSON, json.Minify)

	return &SentimentAnalyzer{
		chat:   chat,
		minify: m,
		logger: logger.Named("ai_sentiment"),
		model:  model,
	}
}

// Classify asks the model for the most positive and most negative post plus an
// overall rating and score. The returned ids are not resolved against the post
// set here; the caller owns that check. Shape violations are rejected as a
// classifier failure, never partially accepted.
func (a *SentimentAnalyzer) Classify(ctx context.Context, handle string, posts []social.Post) (*Classification, error) {
	type postSummary struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	}

	type accountSummary struct {
		Handle string        `json:"handle"`
		Posts  []postSummary `json:"posts"`
	}

	summary := accountSummary{
		Handle: handle,
		Posts:  make([]postSummary, 0, len(posts)),
	}
	for _, post := range posts {
		summary.Posts = append(summary.Posts, postSummary{ID: post.ID, Text: post.Text})
	}

	// Convert to JSON
	summaryJSON, err := sonic.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal posts: %w", err)
	}

	// Minify JSON to reduce token usage
	summaryJSON, err = a.minify.Bytes(ApplicationJSON, summaryJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to minify posts: %w", err)
	}

	resp, err := a.chat.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SentimentSystemPrompt),
			openai.UserMessage(SentimentRequestPrompt + string(summaryJSON)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "sentimentAnalysis",
					Description: openai.String("Nice or naughty verdict for an account"),
					Schema:      SentimentAnalysisSchema,
					Strict:      openai.Bool(true),
				},
			},
		},
		Model:       a.model,
		Temperature: openai.Float(0.2),
		TopP:        openai.Float(0.4),
	})
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}

	// Check for empty response
	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.Content) == 0 {
		return nil, fmt.Errorf("%w: no response from model", ErrModelResponse)
	}

	// Parse response from AI
	var classification Classification
	if err := sonic.Unmarshal([]byte(resp.Choices[0].Message.Content), &classification); err != nil {
		return nil, fmt.Errorf("%w: JSON unmarshal error: %w", ErrInvalidClassification, err)
	}

	if err := classification.validate(); err != nil {
		return nil, err
	}

	a.logger.Debug("Received sentiment classification",
		zap.String("handle", handle),
		zap.Int("posts", len(posts)),
		zap.String("rating", classification.Rating),
		zap.Float64("score", classification.Score))

	return &classification, nil
}

// validate enforces the response shape the schema promises. Models behind
// permissive gateways occasionally ignore strict mode, so the bounds are
// checked again here.
func (c *Classification) validate() error {
	if c.MostPositivePostID == "" || c.MostNegativePostID == "" {
		return fmt.Errorf("%w: missing post id", ErrInvalidClassification)
	}

	if c.Rating != RatingNice && c.Rating != RatingNaughty {
		return fmt.Errorf("%w: rating %q", ErrInvalidClassification, c.Rating)
	}

	if c.Score < 0 || c.Score > 100 {
		return fmt.Errorf("%w: score %.2f out of range", ErrInvalidClassification, c.Score)
	}

	return nil
}
