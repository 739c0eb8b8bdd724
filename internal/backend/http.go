package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/osse101/banklink/internal/domain"
	"github.com/osse101/banklink/internal/logger"
)

// HTTPClient talks to the payments backend over JSON.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a client for baseURL. A zero timeout uses DefaultTimeout.
func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type submitBody struct {
	Attributes Attributes `json:"attributes"`
}

type linkedBankResponse struct {
	ID         string `json:"id"`
	Partner    string `json:"partner"`
	Currency   string `json:"currency"`
	State      string `json:"state"`
	Error      string `json:"error"`
	Attributes *struct {
		AuthorisationURL string `json:"authorisationUrl"`
		CallbackPath     string `json:"callbackPath"`
	} `json:"attributes"`
	Details *struct {
		BankName        string `json:"bankName"`
		AccountName     string `json:"accountName"`
		AccountNumber   string `json:"accountNumber"`
		BankAccountType string `json:"bankAccountType"`
	} `json:"details"`
}

func (r linkedBankResponse) toDomain() domain.LinkedBank {
	rec := domain.LinkedBank{
		ID:          r.ID,
		Partner:     domain.Partner(strings.ToUpper(r.Partner)),
		Currency:    r.Currency,
		State:       domain.ParseLinkedBankState(r.State),
		ErrorStatus: domain.ParseLinkedBankErrorStatus(r.Error),
	}
	if r.Attributes != nil {
		rec.AuthorisationURL = r.Attributes.AuthorisationURL
		rec.CallbackPath = r.Attributes.CallbackPath
	}
	if r.Details != nil {
		rec.BankName = r.Details.BankName
		rec.AccountName = r.Details.AccountName
		rec.AccountNumber = r.Details.AccountNumber
		rec.AccountType = r.Details.BankAccountType
	}
	return rec
}

type refreshResponse struct {
	ID         string `json:"id"`
	Partner    string `json:"partner"`
	Attributes struct {
		LinkToken      string    `json:"linkToken"`
		LinkURL        string    `json:"linkUrl"`
		TokenExpiresAt time.Time `json:"tokenExpiresAt"`
	} `json:"attributes"`
}

// SubmitAccountSelection implements Client.
func (c *HTTPClient) SubmitAccountSelection(ctx context.Context, req SubmitRequest) (*domain.LinkedBank, error) {
	var resp linkedBankResponse
	path := pathBankTransfer + url.PathEscape(req.AttemptID) + pathUpdate
	found, err := c.do(ctx, http.MethodPut, path, submitBody{Attributes: req.Attributes}, &resp)
	if err != nil {
		return nil, err
	}
	if !found || resp.ID == "" {
		return nil, nil
	}
	rec := resp.toDomain()
	return &rec, nil
}

// GetLinkedBank implements Client.
func (c *HTTPClient) GetLinkedBank(ctx context.Context, attemptID string) (domain.LinkedBank, error) {
	var resp linkedBankResponse
	if _, err := c.do(ctx, http.MethodGet, pathBankTransfer+url.PathEscape(attemptID), nil, &resp); err != nil {
		return domain.LinkedBank{}, err
	}
	return resp.toDomain(), nil
}

// UpdateApprovalCallback implements Client.
func (c *HTTPClient) UpdateApprovalCallback(ctx context.Context, callbackPath string) error {
	_, err := c.do(ctx, http.MethodPost, callbackPath, struct{}{}, nil)
	return err
}

// GetApprovalStatus implements Client.
func (c *HTTPClient) GetApprovalStatus(ctx context.Context, callbackPath string) (domain.LinkedBank, error) {
	var resp linkedBankResponse
	if _, err := c.do(ctx, http.MethodGet, callbackPath, nil, &resp); err != nil {
		return domain.LinkedBank{}, err
	}
	return resp.toDomain(), nil
}

// RefreshSDKToken implements Client.
func (c *HTTPClient) RefreshSDKToken(ctx context.Context, accountID string) (domain.RefreshInfo, error) {
	var resp refreshResponse
	path := pathBankTransfer + url.PathEscape(accountID) + pathRefresh
	if _, err := c.do(ctx, http.MethodPost, path, struct{}{}, &resp); err != nil {
		return domain.RefreshInfo{}, err
	}
	return domain.RefreshInfo{
		AccountID:      resp.ID,
		Partner:        domain.Partner(strings.ToUpper(resp.Partner)),
		LinkToken:      resp.Attributes.LinkToken,
		LinkURL:        resp.Attributes.LinkURL,
		TokenExpiresAt: resp.Attributes.TokenExpiresAt,
	}, nil
}

// do performs one request. It reports whether a response body was decoded.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) (bool, error) {
	log := logger.FromContext(ctx)

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return false, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return false, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set(headerAccept, contentTypeJSON)
	if in != nil {
		req.Header.Set(headerContentType, contentTypeJSON)
	}
	if c.token != "" {
		req.Header.Set(headerAuthorization, bearerPrefix+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn(LogMsgRequestFailed, LogKeyMethod, method, LogKeyPath, path, "error", err)
		return false, fmt.Errorf("%w: %s %s: %v", domain.ErrBackendUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return false, decodeError(ctx, resp.StatusCode, raw)
	}

	log.Debug(LogMsgRequestComplete, LogKeyMethod, method, LogKeyPath, path, LogKeyStatus, resp.StatusCode)

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return false, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return false, nil
		}
		return false, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return true, nil
}

// decodeError turns a failed response into a ServerError when the body carries
// a ux descriptor, and into ErrBackendUnavailable otherwise.
func decodeError(ctx context.Context, status int, raw []byte) error {
	if gjson.ValidBytes(raw) {
		title := gjson.GetBytes(raw, gjsonUXTitle)
		message := gjson.GetBytes(raw, gjsonUXMessage)
		if title.Exists() || message.Exists() {
			serverErr := &domain.ServerError{
				StatusCode: status,
				Title:      title.String(),
				Message:    message.String(),
			}
			for _, path := range []string{gjsonUXIcon, gjsonUXStatusIcon} {
				if icon := gjson.GetBytes(raw, path); icon.String() != "" {
					serverErr.Icons = append(serverErr.Icons, icon.String())
				}
			}
			logger.FromContext(ctx).Warn(LogMsgServerError, LogKeyStatus, status, "title", serverErr.Title)
			return serverErr
		}
	}
	return fmt.Errorf("%w: status %d", domain.ErrBackendUnavailable, status)
}
