package ledgerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	ledgerhttp "ballotbox/contexts/governance/voting-ledger/transport/http"
)

const callerHeader = "X-Caller-Address"

// APIError is a non-2xx answer from the ledger host.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("ledger api: status %d", e.Status)
	}
	return fmt.Sprintf("ledger api: %s: %s", e.Code, e.Message)
}

// Client talks to the ledger HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    httpClient,
	}
}

func (c *Client) Deploy(ctx context.Context, admin string) (ledgerhttp.DeployLedgerResponse, error) {
	var out ledgerhttp.DeployLedgerResponse
	err := c.do(ctx, http.MethodPost, "/v1/ledgers", "", ledgerhttp.DeployLedgerRequest{Admin: admin}, &out)
	return out, err
}

func (c *Client) Ledger(ctx context.Context, address string) (ledgerhttp.LedgerResponse, error) {
	var out ledgerhttp.LedgerResponse
	err := c.do(ctx, http.MethodGet, ledgerPath(address, ""), "", nil, &out)
	return out, err
}

func (c *Client) Owner(ctx context.Context, address string) (string, error) {
	var out ledgerhttp.OwnerResponse
	err := c.do(ctx, http.MethodGet, ledgerPath(address, "/owner"), "", nil, &out)
	return out.Owner, err
}

func (c *Client) Candidates(ctx context.Context, address string) ([]ledgerhttp.CandidateResponse, error) {
	var out ledgerhttp.CandidatesResponse
	err := c.do(ctx, http.MethodGet, ledgerPath(address, "/candidates"), "", nil, &out)
	return out.Items, err
}

func (c *Client) Candidate(ctx context.Context, address string, candidateID uint64) (ledgerhttp.CandidateResponse, error) {
	var out ledgerhttp.CandidateResponse
	err := c.do(ctx, http.MethodGet, ledgerPath(address, "/candidates/"+formatUint(candidateID)), "", nil, &out)
	return out, err
}

func (c *Client) CandidateData(ctx context.Context, address string, candidateID uint64) (ledgerhttp.CandidateDataResponse, error) {
	var out ledgerhttp.CandidateDataResponse
	err := c.do(ctx, http.MethodGet, ledgerPath(address, "/candidates/"+formatUint(candidateID)+"/data"), "", nil, &out)
	return out, err
}

func (c *Client) CandidatesCount(ctx context.Context, address string) (uint64, error) {
	var out ledgerhttp.CountResponse
	err := c.do(ctx, http.MethodGet, ledgerPath(address, "/candidates-count"), "", nil, &out)
	return out.Count, err
}

func (c *Client) CurrentSession(ctx context.Context, address string) (uint64, error) {
	var out ledgerhttp.SessionResponse
	err := c.do(ctx, http.MethodGet, ledgerPath(address, "/session"), "", nil, &out)
	return out.Session, err
}

func (c *Client) VoteCount(ctx context.Context, address string, session uint64, candidateID uint64) (uint64, error) {
	var out ledgerhttp.VoteCountResponse
	path := ledgerPath(address, "/sessions/"+formatUint(session)+"/candidates/"+formatUint(candidateID)+"/votes")
	err := c.do(ctx, http.MethodGet, path, "", nil, &out)
	return out.Count, err
}

func (c *Client) AddCandidate(ctx context.Context, address string, caller string, name string) (ledgerhttp.AddCandidateResponse, error) {
	var out ledgerhttp.AddCandidateResponse
	err := c.do(ctx, http.MethodPost, ledgerPath(address, "/candidates"), caller, ledgerhttp.AddCandidateRequest{Name: name}, &out)
	return out, err
}

func (c *Client) Vote(ctx context.Context, address string, caller string, candidateID uint64) (ledgerhttp.VoteResponse, error) {
	var out ledgerhttp.VoteResponse
	err := c.do(ctx, http.MethodPost, ledgerPath(address, "/votes"), caller, ledgerhttp.VoteRequest{CandidateID: candidateID}, &out)
	return out, err
}

func (c *Client) ResetVotes(ctx context.Context, address string, caller string) (ledgerhttp.ResetVotesResponse, error) {
	var out ledgerhttp.ResetVotesResponse
	err := c.do(ctx, http.MethodPost, ledgerPath(address, "/reset"), caller, nil, &out)
	return out, err
}

func (c *Client) Events(ctx context.Context, address string, after uint64, limit int) ([]ledgerhttp.EventResponse, error) {
	query := url.Values{}
	query.Set("after", formatUint(after))
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var out ledgerhttp.EventsResponse
	err := c.do(ctx, http.MethodGet, ledgerPath(address, "/events")+"?"+query.Encode(), "", nil, &out)
	return out.Items, err
}

func (c *Client) do(ctx context.Context, method string, path string, caller string, body any, out any) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if caller != "" {
		req.Header.Set(callerHeader, caller)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var problem ledgerhttp.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&problem); err == nil {
			apiErr.Code = problem.Code
			apiErr.Message = problem.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func ledgerPath(address string, suffix string) string {
	return "/v1/ledgers/" + url.PathEscape(strings.TrimSpace(address)) + suffix
}

func formatUint(value uint64) string {
	return strconv.FormatUint(value, 10)
}
