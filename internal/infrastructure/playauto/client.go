// Package playauto implements the marketplace hub API client. The hub
// aggregates orders from every registered sales channel behind a
// token-authenticated, paginated REST API.
package playauto

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/orderpulse/backend/internal/domain/commerce"
	"github.com/orderpulse/backend/internal/infrastructure/config"
)

const (
	// maxResponseSize limits response body reads (10MB)
	maxResponseSize = 10 * 1024 * 1024

	timestampLayout = "2006-01-02 15:04:05"
)

// Client talks to the hub API. Safe for concurrent use; the auth token
// is cached until shortly before it expires.
type Client struct {
	cfg        config.PlayautoConfig
	httpClient *http.Client
	logger     *zap.Logger
	loc        *time.Location

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient creates a hub API client.
func NewClient(cfg config.PlayautoConfig, loc *time.Location, logger *zap.Logger) *Client {
	if loc == nil {
		loc = time.Local
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		logger: logger.Named("playauto"),
		loc:    loc,
	}
}

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
}

type shopResponse struct {
	ShopCode   string `json:"shop_cd"`
	ShopName   string `json:"shop_name"`
	SellerNick string `json:"seller_nick"`
	ShopID     string `json:"shop_id"`
}

type orderResponse struct {
	Uniq         string `json:"uniq"`
	ShopCode     string `json:"shop_cd"`
	ShopName     string `json:"shop_name"`
	SellerNick   string `json:"seller_nick"`
	ShopSaleName string `json:"shop_sale_name"`
	ShopOptName  string `json:"shop_opt_name"`
	SetName      string `json:"set_name"`
	SaleCode     string `json:"c_sale_cd"`
	OrdStatus    string `json:"ord_status"`
	SaleCount    int    `json:"sale_cnt"`
	PackUnit     int    `json:"pack_unit"`
	PayAmount    int64  `json:"pay_amt"`
	Sales        int64  `json:"sales"`
	OrdTime      string `json:"ord_time"`
	PayTime      string `json:"pay_time"`
	OrderName    string `json:"order_name"`
	ShopOrderNo  string `json:"shop_ord_no"`
}

type orderPageRequest struct {
	DateType string `json:"date_type"`
	SDate    string `json:"sdate"`
	EDate    string `json:"edate"`
	Start    int    `json:"start"`
	Length   int    `json:"length"`
}

type orderPageResponse struct {
	Results      []orderResponse `json:"results"`
	RecordsTotal int             `json:"recordsTotal"`
}

// Authenticate returns a valid auth token, requesting a fresh one only
// when the cached token is absent or expired.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/auth", authRequest{
		Email:    c.cfg.Email,
		Password: c.cfg.Password,
	}, "")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	var resp []authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(resp) == 0 || resp[0].Token == "" {
		return "", ErrEmptyToken
	}

	c.token = resp[0].Token
	c.tokenExpiry = time.Now().Add(c.cfg.TokenTTL)
	c.logger.Info("Hub token refreshed",
		zap.Time("expires_at", c.tokenExpiry),
	)
	return c.token, nil
}

// ListShops returns the channel registrations in use on the account.
func (c *Client) ListShops(ctx context.Context) ([]commerce.Shop, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	body, err := c.doRequest(ctx, http.MethodGet, "/shops?used=true", nil, token)
	if err != nil {
		return nil, err
	}

	var resp []shopResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	shops := make([]commerce.Shop, len(resp))
	now := time.Now().In(c.loc)
	for i, s := range resp {
		shops[i] = commerce.Shop{
			Code:       s.ShopCode,
			Name:       s.ShopName,
			SellerNick: s.SellerNick,
			ExternalID: s.ShopID,
			UpdatedAt:  now,
		}
	}
	return shops, nil
}

// FetchOrdersPage retrieves one page of orders placed in [start, end].
// The offset is the zero-based row offset; the server also reports the
// total row count for the window.
func (c *Client) FetchOrdersPage(ctx context.Context, start, end time.Time, offset int) ([]commerce.Order, int, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, 0, err
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/orders", orderPageRequest{
		DateType: "wdate",
		SDate:    start.Format("2006-01-02"),
		EDate:    end.Format("2006-01-02"),
		Start:    offset,
		Length:   c.cfg.PageSize,
	}, token)
	if err != nil {
		return nil, 0, err
	}

	var resp orderPageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	orders := make([]commerce.Order, 0, len(resp.Results))
	for _, o := range resp.Results {
		orders = append(orders, c.toOrder(o))
	}
	return orders, resp.RecordsTotal, nil
}

// FetchAllOrders pages through every order in the window, pausing the
// configured delay between pages to stay inside the hub rate limit.
func (c *Client) FetchAllOrders(ctx context.Context, start, end time.Time, progress chan<- commerce.FetchProgress) ([]commerce.Order, error) {
	var all []commerce.Order
	total := 0

	for offset := 0; ; {
		page, reported, err := c.FetchOrdersPage(ctx, start, end, offset)
		if err != nil {
			return nil, err
		}
		if reported > 0 {
			total = reported
		}
		all = append(all, page...)
		offset += len(page)

		reportProgress(progress, len(all), total)

		// A short page means the window is exhausted.
		if len(page) < c.cfg.PageSize {
			break
		}

		if c.cfg.PageDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.cfg.PageDelay):
			}
		}
	}

	c.logger.Debug("Order window fetched",
		zap.String("sdate", start.Format("2006-01-02")),
		zap.String("edate", end.Format("2006-01-02")),
		zap.Int("orders", len(all)),
	)
	return all, nil
}

func reportProgress(progress chan<- commerce.FetchProgress, fetched, total int) {
	if progress == nil {
		return
	}
	p := commerce.FetchProgress{Fetched: fetched, Total: total}
	if total > 0 {
		p.Percent = fetched * 100 / total
	}
	select {
	case progress <- p:
	default:
		// Slow consumers never stall the fetch loop.
	}
}

func (c *Client) toOrder(o orderResponse) commerce.Order {
	order := commerce.Order{
		UniqueID:    o.Uniq,
		ShopCode:    o.ShopCode,
		ShopName:    o.ShopName,
		SellerNick:  o.SellerNick,
		SaleName:    o.ShopSaleName,
		OptionName:  o.ShopOptName,
		SetName:     o.SetName,
		SaleCode:    o.SaleCode,
		Status:      mapOrderStatus(o.OrdStatus),
		Quantity:    o.SaleCount,
		PackUnit:    o.PackUnit,
		PaidAmount:  o.PayAmount,
		SalesAmount: o.Sales,
		BuyerName:   o.OrderName,
		ShopOrderNo: o.ShopOrderNo,
	}
	if t, err := time.ParseInLocation(timestampLayout, o.OrdTime, c.loc); err == nil {
		order.OrderedAt = t
	}
	if t, err := time.ParseInLocation(timestampLayout, o.PayTime, c.loc); err == nil {
		order.PaidAt = &t
	}
	return order
}

// doRequest performs an HTTP request against the hub API and returns
// the raw body for successful responses.
func (c *Client) doRequest(ctx context.Context, method, path string, payload any, token string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: HTTP %d on %s %s", ErrRequestFailed, resp.StatusCode, method, path)
	}
	return data, nil
}

// Compile-time interface check
var _ commerce.PlatformClient = (*Client)(nil)
