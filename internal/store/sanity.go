package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sleighlabs/nicelist/internal/setup/config"
	"go.uber.org/zap"
)

// ErrMutationRejected indicates the document store rejected a mutation.
var ErrMutationRejected = errors.New("document store rejected mutation")

// statusDocType is the document type holding per-handle status records.
const statusDocType = "child"

// findQuery selects the single status document for a handle.
const findQuery = `*[_type == "child" && handle == $handle][0]`

// Sanity is a StatusStore over the Sanity content API: GROQ queries for
// reads and the mutation endpoint for writes. Record ids are the opaque
// document _id values Sanity assigns.
type Sanity struct {
	baseURL    string
	dataset    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewSanity creates a Sanity-backed status store.
func NewSanity(cfg *config.Sanity, logger *zap.Logger) *Sanity {
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = "2023-05-03"
	}

	return &Sanity{
		baseURL:    fmt.Sprintf("https://%s.api.sanity.io/v%s", cfg.ProjectID, apiVersion),
		dataset:    cfg.Dataset,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger.Named("sanity"),
	}
}

// NewSanityWithBaseURL creates a Sanity store against an explicit endpoint.
// Used by tests to point at a local server.
func NewSanityWithBaseURL(baseURL, dataset, token string, logger *zap.Logger) *Sanity {
	return &Sanity{
		baseURL:    baseURL,
		dataset:    dataset,
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger.Named("sanity"),
	}
}

// statusDocument mirrors the wire shape of a status document.
type statusDocument struct {
	ID     string  `json:"_id,omitempty"`
	Type   string  `json:"_type"`
	Handle string  `json:"handle"`
	Status string  `json:"status"`
	Score  float64 `json:"score"`
}

func (d *statusDocument) toRecord() *Record {
	return &Record{
		ID:     d.ID,
		Handle: d.Handle,
		Status: d.Status,
		Score:  d.Score,
	}
}

// Find implements StatusStore using a GROQ query. A null result means no
// record exists and is not an error.
func (s *Sanity) Find(ctx context.Context, handle string) (*Record, error) {
	handleParam, err := sonic.Marshal(handle)
	if err != nil {
		return nil, fmt.Errorf("failed to encode handle param: %w", err)
	}

	params := url.Values{}
	params.Set("query", findQuery)
	params.Set("$handle", string(handleParam))

	endpoint := fmt.Sprintf("%s/data/query/%s?%s", s.baseURL, s.dataset, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build query request: %w", err)
	}

	s.auth(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("query returned status %d", resp.StatusCode)
	}

	var queryResp struct {
		Result *statusDocument `json:"result"`
	}

	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
		return nil, fmt.Errorf("failed to decode query response: %w", err)
	}

	if queryResp.Result == nil {
		return nil, nil
	}

	return queryResp.Result.toRecord(), nil
}

// Create implements StatusStore with a create mutation, returning the
// document id Sanity assigned.
func (s *Sanity) Create(ctx context.Context, record *Record) (string, error) {
	mutation := map[string]any{
		"mutations": []map[string]any{
			{
				"create": statusDocument{
					Type:   statusDocType,
					Handle: record.Handle,
					Status: record.Status,
					Score:  record.Score,
				},
			},
		},
	}

	results, err := s.mutate(ctx, mutation)
	if err != nil {
		return "", err
	}

	if len(results) == 0 || results[0].ID == "" {
		return "", fmt.Errorf("%w: no document id returned", ErrMutationRejected)
	}

	s.logger.Debug("Created status document",
		zap.String("handle", record.Handle),
		zap.String("id", results[0].ID))

	return results[0].ID, nil
}

// Patch implements StatusStore by setting only the status and score fields,
// leaving the document identity stable.
func (s *Sanity) Patch(ctx context.Context, id, status string, score float64) error {
	mutation := map[string]any{
		"mutations": []map[string]any{
			{
				"patch": map[string]any{
					"id": id,
					"set": map[string]any{
						"status": status,
						"score":  score,
					},
				},
			},
		},
	}

	if _, err := s.mutate(ctx, mutation); err != nil {
		return err
	}

	s.logger.Debug("Patched status document",
		zap.String("id", id),
		zap.String("status", status),
		zap.Float64("score", score))

	return nil
}

type mutationResult struct {
	ID        string `json:"id"`
	Operation string `json:"operation"`
}

// mutate posts a mutation payload and returns the per-mutation results.
func (s *Sanity) mutate(ctx context.Context, payload map[string]any) ([]mutationResult, error) {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mutation: %w", err)
	}

	endpoint := fmt.Sprintf("%s/data/mutate/%s?returnIds=true", s.baseURL, s.dataset)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build mutation request: %w", err)
	}

	req.Header.Set("Content-Type", ApplicationJSON)
	s.auth(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mutation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return nil, fmt.Errorf("%w: status %d: %s", ErrMutationRejected, resp.StatusCode, detail)
	}

	var mutateResp struct {
		TransactionID string           `json:"transactionId"`
		Results       []mutationResult `json:"results"`
	}

	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&mutateResp); err != nil {
		return nil, fmt.Errorf("failed to decode mutation response: %w", err)
	}

	return mutateResp.Results, nil
}

// ApplicationJSON is the content type for mutation payloads.
const ApplicationJSON = "application/json"

func (s *Sanity) auth(req *http.Request) {
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
}
