package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/foodpin/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "FoodPin/1.0"

	// APIPrefix is the path of the public database of the default container
	APIPrefix = "/v1/database/public"

	// MaxLookupRecords is the most record names a single lookup accepts
	MaxLookupRecords = 200
)

// ServerError is a non-2xx reply from the record database
type ServerError struct {
	Status int
	Code   string
	Reason string
}

func (e *ServerError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("cloud: %s (status %d)", e.Code, e.Status)
	}
	return fmt.Sprintf("cloud: %s: %s (status %d)", e.Code, e.Reason, e.Status)
}

// Client implements domain.RecordDatabase over the record database HTTP API
type Client struct {
	baseURL    string
	token      string
	assetDir   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new record database client.
// Downloaded assets are written below assetDir.
func NewClient(baseURL, token, assetDir string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		assetDir: assetDir,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// doRequest performs an authenticated JSON request and returns the response body
func (c *Client) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	reqURL := c.baseURL + path

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("cloud request", "method", method, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Error("cloud request failed", "error", err)
		return nil, domain.ErrServerOffline
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, domain.ErrAuthFailed
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("cloud request error", "status", resp.StatusCode, "body", string(respBody))
		serr := parseServerError(resp.StatusCode, respBody)
		if serr.Code == CodeServiceUnavail {
			return nil, fmt.Errorf("%w: %w", domain.ErrServerOffline, serr)
		}
		return nil, serr
	}

	return respBody, nil
}

func parseServerError(status int, body []byte) *ServerError {
	serr := &ServerError{Status: status}
	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.ServerErrorCode != "" {
		serr.Code = er.ServerErrorCode
		serr.Reason = er.Reason
	} else {
		serr.Code = http.StatusText(status)
	}
	return serr
}

// Query returns one page of records matching op.Query
func (c *Client) Query(ctx context.Context, op domain.QueryOperation) (domain.QueryPage, error) {
	limit := op.ResultsLimit
	if limit <= 0 {
		limit = domain.DefaultResultsLimit
	}

	req := QueryRequest{
		Query:              queryToDTO(op.Query),
		DesiredKeys:        op.DesiredKeys,
		ResultsLimit:       limit,
		ContinuationMarker: string(op.Cursor),
	}

	body, err := c.doRequest(ctx, http.MethodPost, APIPrefix+"/records/query", req)
	if err != nil {
		var serr *ServerError
		if !op.Cursor.IsEmpty() && errors.As(err, &serr) && serr.Code == CodeBadRequest {
			return domain.QueryPage{}, fmt.Errorf("%w: %s", domain.ErrInvalidCursor, serr.Reason)
		}
		return domain.QueryPage{}, err
	}

	var resp QueryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return domain.QueryPage{}, fmt.Errorf("failed to parse response: %w", err)
	}

	records, err := MapRecords(resp.Records)
	if err != nil {
		return domain.QueryPage{}, err
	}

	return domain.QueryPage{
		Records: records,
		Cursor:  domain.Cursor(resp.ContinuationMarker),
	}, nil
}

// QueryAll follows continuation cursors until the query is exhausted.
// onPage is called after every page with the running record count.
func (c *Client) QueryAll(ctx context.Context, op domain.QueryOperation, onPage func(page domain.QueryPage, loaded int)) ([]*domain.Record, error) {
	var all []*domain.Record
	for {
		page, err := c.Query(ctx, op)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Records...)
		if onPage != nil {
			onPage(page, len(all))
		}
		if page.Cursor.IsEmpty() {
			return all, nil
		}
		op.Cursor = page.Cursor
	}
}

// FetchRecords looks up records by id. One result per id, in request order.
func (c *Client) FetchRecords(ctx context.Context, ids []domain.RecordID, desiredKeys []string) ([]domain.FetchResult, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxLookupRecords {
		return nil, fmt.Errorf("lookup of %d records exceeds limit of %d", len(ids), MaxLookupRecords)
	}

	req := LookupRequest{DesiredKeys: desiredKeys}
	for _, id := range ids {
		req.Records = append(req.Records, RecordRefDTO{RecordName: string(id)})
	}

	body, err := c.doRequest(ctx, http.MethodPost, APIPrefix+"/records/lookup", req)
	if err != nil {
		return nil, err
	}

	var resp LookupResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// Index by name so a server that reorders still yields request order
	byName := make(map[string]RecordDTO, len(resp.Records))
	for _, dto := range resp.Records {
		byName[dto.RecordName] = dto
	}

	results := make([]domain.FetchResult, 0, len(ids))
	for _, id := range ids {
		res := domain.FetchResult{ID: id}
		dto, ok := byName[string(id)]
		switch {
		case !ok || dto.ServerErrorCode == CodeNotFound:
			res.Err = domain.ErrRecordNotFound
		case dto.ServerErrorCode != "":
			res.Err = &ServerError{Status: http.StatusOK, Code: dto.ServerErrorCode, Reason: dto.Reason}
		default:
			res.Record, res.Err = MapRecord(dto)
		}
		results = append(results, res)
	}
	return results, nil
}

// FetchRecord looks up a single record
func (c *Client) FetchRecord(ctx context.Context, id domain.RecordID, desiredKeys []string) (*domain.Record, error) {
	results, err := c.FetchRecords(ctx, []domain.RecordID{id}, desiredKeys)
	if err != nil {
		return nil, err
	}
	if results[0].Err != nil {
		return nil, results[0].Err
	}
	return results[0].Record, nil
}

// SaveRecords creates or replaces records and returns them as stored.
// Records without an ID get a server-assigned one.
func (c *Client) SaveRecords(ctx context.Context, records []*domain.Record) ([]*domain.Record, error) {
	req := ModifyRequest{}
	for _, rec := range records {
		dto, err := RecordToDTO(rec)
		if err != nil {
			return nil, err
		}
		op := OpForceReplace
		if rec.ID == "" {
			op = OpCreate
		}
		req.Operations = append(req.Operations, OperationDTO{OperationType: op, Record: dto})
	}
	return c.modify(ctx, req)
}

// DeleteRecord removes a record. Deleting a missing record returns ErrRecordNotFound.
func (c *Client) DeleteRecord(ctx context.Context, id domain.RecordID) error {
	req := ModifyRequest{Operations: []OperationDTO{{
		OperationType: OpForceDelete,
		Record:        RecordDTO{RecordName: string(id)},
	}}}
	_, err := c.modify(ctx, req)
	return err
}

func (c *Client) modify(ctx context.Context, req ModifyRequest) ([]*domain.Record, error) {
	body, err := c.doRequest(ctx, http.MethodPost, APIPrefix+"/records/modify", req)
	if err != nil {
		return nil, err
	}

	var resp ModifyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	records := make([]*domain.Record, 0, len(resp.Records))
	for _, dto := range resp.Records {
		switch dto.ServerErrorCode {
		case "":
		case CodeNotFound:
			return nil, fmt.Errorf("%s: %w", dto.RecordName, domain.ErrRecordNotFound)
		default:
			return nil, &ServerError{Status: http.StatusOK, Code: dto.ServerErrorCode, Reason: dto.Reason}
		}
		if dto.Deleted {
			continue
		}
		rec, err := MapRecord(dto)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Ping checks that the server is reachable and the token is accepted
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Query(ctx, domain.QueryOperation{
		Query:        domain.NewQuery(domain.RecordTypeRestaurant),
		DesiredKeys:  []string{domain.FieldName},
		ResultsLimit: 1,
	})
	return err
}

// Health checks that a record server answers at the base URL, without authentication
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/healthz", nil)
	return err
}
