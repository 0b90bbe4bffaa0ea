package scheme

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/finbridge/lps-adaptor/internal/models"
)

// Client issues the named outbound interoperability calls. Every request
// carries the fspiop-source/destination, date and content-type headers the
// scheme requires.
type Client struct {
	baseURL string
	fspID   string
	http    *http.Client
}

func NewClient(baseURL, fspID string) *Client {
	return &Client{
		baseURL: baseURL,
		fspID:   fspID,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) GetParties(ctx context.Context, idType, idValue string) error {
	path := fmt.Sprintf("/parties/%s/%s", url.PathEscape(idType), url.PathEscape(idValue))
	return c.do(ctx, http.MethodGet, path, "", nil)
}

func (c *Client) PostTransactionRequests(ctx context.Context, destination string, body *models.TransactionRequestsPost) error {
	return c.do(ctx, http.MethodPost, "/transactionRequests", destination, body)
}

func (c *Client) PutTransactionRequestsError(ctx context.Context, destination, transactionRequestID string, e *models.ErrorInformation) error {
	path := fmt.Sprintf("/transactionRequests/%s/error", url.PathEscape(transactionRequestID))
	return c.do(ctx, http.MethodPut, path, destination, errorBody(e))
}

func (c *Client) PostQuotes(ctx context.Context, destination string, body *models.QuotesPost) error {
	return c.do(ctx, http.MethodPost, "/quotes", destination, body)
}

func (c *Client) PutQuotes(ctx context.Context, destination, quoteID string, body *models.QuotesPutResponse) error {
	return c.do(ctx, http.MethodPut, "/quotes/"+url.PathEscape(quoteID), destination, body)
}

func (c *Client) PutQuotesError(ctx context.Context, destination, quoteID string, e *models.ErrorInformation) error {
	path := fmt.Sprintf("/quotes/%s/error", url.PathEscape(quoteID))
	return c.do(ctx, http.MethodPut, path, destination, errorBody(e))
}

func (c *Client) PostTransfers(ctx context.Context, destination string, body *models.TransfersPost) error {
	return c.do(ctx, http.MethodPost, "/transfers", destination, body)
}

func (c *Client) PutTransfers(ctx context.Context, destination, transferID string, body *models.TransfersPutResponse) error {
	return c.do(ctx, http.MethodPut, "/transfers/"+url.PathEscape(transferID), destination, body)
}

func (c *Client) PutTransfersError(ctx context.Context, destination, transferID string, e *models.ErrorInformation) error {
	path := fmt.Sprintf("/transfers/%s/error", url.PathEscape(transferID))
	return c.do(ctx, http.MethodPut, path, destination, errorBody(e))
}

func (c *Client) PutAuthorizations(ctx context.Context, destination, transactionRequestID string, body *models.AuthorizationsPutResponse) error {
	path := "/authorizations/" + url.PathEscape(transactionRequestID)
	return c.do(ctx, http.MethodPut, path, destination, body)
}

func (c *Client) PutAuthorizationsError(ctx context.Context, destination, transactionRequestID string, e *models.ErrorInformation) error {
	path := fmt.Sprintf("/authorizations/%s/error", url.PathEscape(transactionRequestID))
	return c.do(ctx, http.MethodPut, path, destination, errorBody(e))
}

func errorBody(e *models.ErrorInformation) map[string]*models.ErrorInformation {
	return map[string]*models.ErrorInformation{"errorInformation": e}
}

func (c *Client) do(ctx context.Context, method, path, destination string, body any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("date", time.Now().UTC().Format(http.TimeFormat))
	req.Header.Set("fspiop-source", c.fspID)
	if destination != "" {
		req.Header.Set("fspiop-destination", destination)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	return nil
}
