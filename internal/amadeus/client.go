package amadeus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"flightwatch/internal/obs"
)

const (
	tokenPath  = "/v1/security/oauth2/token"
	offersPath = "/v2/shopping/flight-offers"
)

// Client работает с Amadeus Self-Service API (flight offers).
type Client struct {
	http      Doer
	baseURL   string
	apiKey    string
	apiSecret string
	location  *time.Location
	logger    *log.Logger
}

type Options struct {
	BaseURL   string
	APIKey    string
	APISecret string
	// зона, в которой показываем время сегментов
	Location *time.Location
	Logger   *log.Logger
}

func NewClient(doer Doer, opts Options) (*Client, error) {
	if opts.APIKey == "" || opts.APISecret == "" {
		return nil, errors.New("amadeus api key and secret are required")
	}
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	return &Client{
		http:      doer,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		apiKey:    opts.APIKey,
		apiSecret: opts.APISecret,
		location:  opts.Location,
		logger:    opts.Logger,
	}, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Token меняет ключ и секрет на bearer-токен.
func (c *Client) Token(ctx context.Context) (_ string, err error) {
	defer obs.Time(ctx, c.logger, "amadeus.Token")(&err)

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.apiKey)
	form.Set("client_secret", c.apiSecret)

	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", errors.New("token response has no access_token")
	}

	return tr.AccessToken, nil
}

// Query - один поиск рейсов.
type Query struct {
	Origin      string
	Destination string
	Date        string
	Adults      int
	Max         int
	Currency    string
}

func (q Query) values() url.Values {
	v := url.Values{}
	v.Set("originLocationCode", q.Origin)
	v.Set("destinationLocationCode", q.Destination)
	v.Set("departureDate", q.Date)
	v.Set("adults", strconv.Itoa(max(q.Adults, 1)))
	v.Set("max", strconv.Itoa(max(q.Max, 1)))
	if q.Currency != "" {
		v.Set("currencyCode", q.Currency)
	}
	return v
}

// SearchOffers выполняет один поиск. Ошибка означает сбой самого запроса
// (транспорт или не-2xx). Непонятный ответ возвращается как Failure.
func (c *Client) SearchOffers(ctx context.Context, token string, q Query) (_ Result, err error) {
	defer obs.Time(ctx, c.logger, "amadeus.SearchOffers")(&err)

	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL+offersPath+"?"+q.values().Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("search %s-%s on %s: %w", q.Origin, q.Destination, q.Date, err)
	}

	return parseOffers(body, c.location), nil
}
