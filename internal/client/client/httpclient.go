package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/elnormous/contenttype"
	"github.com/google/uuid"
)

var jsonMediaType = contenttype.NewMediaType("application/json")

const healthyStatus = "healthy"

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// Request describes one API call. Form takes precedence over Body and is
// sent url-encoded; Body is sent as JSON. An empty Token sends no
// Authorization header.
type Request struct {
	Method string
	Path   string
	Token  string
	Body   any
	Form   url.Values
}

// HTTPClient implements Client over net/http.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	log        logging.Logger
	maxBody    int64
}

func NewHTTPClient(baseURL string, timeout time.Duration, log logging.Logger) *HTTPClient {
	if log == nil {
		log = logging.Discard()
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
		maxBody:    maxResponseBytes,
	}
}

// Request performs r and decodes a JSON response into out. It reports
// whether a body was decoded: a 2xx with an empty body leaves out untouched
// and returns (false, nil).
func (c *HTTPClient) Request(ctx context.Context, r Request, out any) (bool, error) {
	var (
		body        io.Reader
		contentType string
	)
	switch {
	case r.Form != nil:
		body = strings.NewReader(r.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case r.Body != nil:
		b, err := json.Marshal(r.Body)
		if err != nil {
			return false, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, c.baseURL+r.Path, body)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if r.Token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+r.Token)
	}
	requestID := uuid.NewString()
	req.Header.Set(common.RequestIDHeaderName, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug(ctx, "http request failed", "method", r.Method, "path", r.Path, "request_id", requestID, "error", err)
		return false, &NetworkError{Op: r.Method + " " + r.Path, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	c.log.Debug(ctx, "http request", "method", r.Method, "path", r.Path, "status", resp.StatusCode,
		"request_id", requestID, "duration", time.Since(start))
	if err != nil {
		return false, &NetworkError{Op: r.Method + " " + r.Path, Err: err}
	}
	if int64(len(payload)) > c.maxBody {
		return false, fmt.Errorf("%w: response body exceeds %d bytes", ErrUnexpectedContent, c.maxBody)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(payload)}
	}

	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(payload)) == 0 {
		return false, nil
	}
	if out == nil {
		return false, nil
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mt, err := contenttype.GetMediaType(&http.Request{Header: resp.Header})
		if err != nil || !mt.Matches(jsonMediaType) {
			return false, fmt.Errorf("%w: %q", ErrUnexpectedContent, ct)
		}
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}
	return true, nil
}

// errorMessage extracts the server's explanation. FastAPI reports either
// {"detail": "..."} or {"detail": [{"msg": "..."}, ...]}.
func errorMessage(payload []byte) string {
	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return DefaultErrorMessage
	}

	if len(body.Detail) > 0 {
		var s string
		if err := json.Unmarshal(body.Detail, &s); err == nil && s != "" {
			return s
		}
		var list []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(body.Detail, &list); err == nil {
			msgs := make([]string, 0, len(list))
			for _, d := range list {
				if d.Msg != "" {
					msgs = append(msgs, d.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	if body.Message != "" {
		return body.Message
	}
	if body.Error != "" {
		return body.Error
	}
	return DefaultErrorMessage
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if _, err := c.Request(ctx, Request{Method: http.MethodGet, Path: "/health"}, &resp); err != nil {
		return err
	}
	if resp.Status != "" && resp.Status != healthyStatus {
		return fmt.Errorf("%w: health status %q", ErrUnavailable, resp.Status)
	}
	return nil
}

// Login performs the form-encoded credential exchange. 400, 401 and 403 are
// reported as ErrInvalidCredentials wrapping the APIError.
func (c *HTTPClient) Login(ctx context.Context, username, password string) (*models.TokenResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var tok models.TokenResponse
	ok, err := c.Request(ctx, Request{Method: http.MethodPost, Path: "/auth/token", Form: form}, &tok)
	if err != nil {
		switch StatusCode(err) {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return nil, err
	}
	if !ok || tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: no access token in response", ErrInvalidCredentials)
	}
	return &tok, nil
}

func (c *HTTPClient) Register(ctx context.Context, r models.RegisterRequest) (*models.User, error) {
	return decodeOne[models.User](ctx, c, Request{Method: http.MethodPost, Path: "/auth/register", Body: r})
}

func (c *HTTPClient) Me(ctx context.Context, token string) (*models.User, error) {
	u, err := decodeOne[models.User](ctx, c, Request{Method: http.MethodGet, Path: "/auth/me", Token: token})
	if err == nil && u == nil {
		return nil, errors.New("empty identity response")
	}
	return u, err
}

// VerifyAge accepts either a bare user record or {access_token, token_type,
// user}. The returned AgeVerification always has User set on success.
func (c *HTTPClient) VerifyAge(ctx context.Context, token string) (*models.AgeVerification, error) {
	var raw json.RawMessage
	ok, err := c.Request(ctx, Request{Method: http.MethodPost, Path: "/age-verification/verify-age", Token: token}, &raw)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("empty age verification response")
	}

	var av models.AgeVerification
	if err := json.Unmarshal(raw, &av); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if av.User == nil {
		var u models.User
		if err := json.Unmarshal(raw, &u); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		av = models.AgeVerification{User: &u}
	}
	return &av, nil
}

func (c *HTTPClient) MinimumAge(ctx context.Context, token string) (int, error) {
	var resp struct {
		MinimumAge int `json:"minimum_age"`
	}
	if _, err := c.Request(ctx, Request{Method: http.MethodGet, Path: "/age-verification/minimun-age", Token: token}, &resp); err != nil {
		return 0, err
	}
	return resp.MinimumAge, nil
}

func (c *HTTPClient) ListProducts(ctx context.Context) ([]models.Product, error) {
	var list []models.Product
	if _, err := c.Request(ctx, Request{Method: http.MethodGet, Path: "/products"}, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return decodeOne[models.Product](ctx, c, Request{Method: http.MethodGet, Path: "/products/" + url.PathEscape(id)})
}

func (c *HTTPClient) GetCart(ctx context.Context, token string) (*models.Cart, error) {
	return decodeOne[models.Cart](ctx, c, Request{Method: http.MethodGet, Path: "/cart/", Token: token})
}

func (c *HTTPClient) AddToCart(ctx context.Context, token string, item models.CartItemRequest) (*models.Cart, error) {
	return decodeOne[models.Cart](ctx, c, Request{Method: http.MethodPost, Path: "/cart/add", Token: token, Body: item})
}

func (c *HTTPClient) UpdateCartItem(ctx context.Context, token string, item models.CartItemRequest) (*models.Cart, error) {
	return decodeOne[models.Cart](ctx, c, Request{Method: http.MethodPut, Path: "/cart/update", Token: token, Body: item})
}

func (c *HTTPClient) RemoveFromCart(ctx context.Context, token string, productID string) (*models.Cart, error) {
	return decodeOne[models.Cart](ctx, c, Request{Method: http.MethodDelete, Path: "/cart/remove/" + url.PathEscape(productID), Token: token})
}

func (c *HTTPClient) ClearCart(ctx context.Context, token string) (*models.Cart, error) {
	return decodeOne[models.Cart](ctx, c, Request{Method: http.MethodDelete, Path: "/cart/clear", Token: token})
}

func (c *HTTPClient) CreateOrder(ctx context.Context, token string, r models.OrderRequest) (*models.Order, error) {
	o, err := decodeOne[models.Order](ctx, c, Request{Method: http.MethodPost, Path: "/orders/", Token: token, Body: r})
	if err != nil {
		return nil, err
	}
	if o == nil || o.ID == "" {
		return nil, errors.New("order response has no id")
	}
	return o, nil
}

func (c *HTTPClient) ListOrders(ctx context.Context, token string) ([]models.Order, error) {
	var list []models.Order
	if _, err := c.Request(ctx, Request{Method: http.MethodGet, Path: "/orders/me", Token: token}, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) GetOrder(ctx context.Context, token string, id string) (*models.Order, error) {
	return decodeOne[models.Order](ctx, c, Request{Method: http.MethodGet, Path: "/orders/" + url.PathEscape(id), Token: token})
}

func (c *HTTPClient) CreatePaymentPreference(ctx context.Context, token string, orderID string) (*models.PaymentPreference, error) {
	return decodeOne[models.PaymentPreference](ctx, c, Request{
		Method: http.MethodPost,
		Path:   "/payments/create-preference/" + url.PathEscape(orderID),
		Token:  token,
	})
}

// decodeOne returns nil, nil for an empty 2xx body.
func decodeOne[T any](ctx context.Context, c *HTTPClient, r Request) (*T, error) {
	var v T
	ok, err := c.Request(ctx, r, &v)
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}
