// Package retroachievements implements the RetroAchievements API client
// used to enrich reports with game metadata (title, console, box art).
// Enrichment is strictly optional: every failure path resolves to the
// absent sentinel (nil info) so a flaky upstream can never fail a report.
package retroachievements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/marquessam/select-start-api/pkg/circuitbreaker"
	"github.com/marquessam/select-start-api/pkg/logger"
	"github.com/marquessam/select-start-api/pkg/retry"
)

// ErrUnavailable is returned when the API could not produce game info in
// time. Callers treat it as "no enrichment", never as a request failure.
var ErrUnavailable = errors.New("retroachievements: api unavailable")

// GameInfo is the metadata attached to reports when enrichment succeeds.
type GameInfo struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	ConsoleName string `json:"console_name"`
	ImageIcon   string `json:"image_icon"`
	ImageBoxArt string `json:"image_box_art"`
}

// Config contains configuration for the RetroAchievements client.
type Config struct {
	// BaseURL is the API base URL.
	BaseURL string

	// Username and APIKey are the credentials every API call carries.
	Username string
	APIKey   string

	// Timeout bounds each request, retries included, so a slow upstream
	// never holds a report hostage.
	Timeout time.Duration

	// MaxRetries is the number of attempts per lookup.
	MaxRetries int

	// FailureThreshold is the consecutive-failure count that opens the
	// circuit.
	FailureThreshold int

	// RecoveryTimeout is how long the circuit stays open before probing.
	RecoveryTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:          "https://retroachievements.org/API",
		Timeout:          5 * time.Second,
		MaxRetries:       2,
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
	}
}

// Client is the RetroAchievements API client.
type Client struct {
	config     Config
	httpClient *http.Client
	retrier    *retry.Retrier
	breaker    *circuitbreaker.CircuitBreaker
	logger     *logger.Logger
}

// New creates a new Client.
func New(cfg Config, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Default()
	}
	log = log.With(logger.Component("retroachievements"))

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		retrier: retry.New(
			retry.WithMaxAttempts(cfg.MaxRetries),
			retry.WithInitialDelay(200*time.Millisecond),
			retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
				log.Debug("retrying game lookup",
					logger.Int("attempt", attempt),
					logger.Duration("delay", delay),
					logger.Err(err))
			}),
		),
		breaker: circuitbreaker.New("retroachievements",
			circuitbreaker.WithFailureThreshold(cfg.FailureThreshold),
			circuitbreaker.WithTimeout(cfg.RecoveryTimeout),
			circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
				log.Warn("circuit state changed",
					logger.String("breaker", name),
					logger.String("from", from.String()),
					logger.String("to", to.String()))
			}),
		),
		logger: log,
	}
}

// Enabled reports whether credentials are configured. Without them every
// lookup resolves to the absent sentinel immediately.
func (c *Client) Enabled() bool {
	return c.config.APIKey != "" && c.config.Username != ""
}

// GameInfo fetches metadata for a RetroAchievements game id. The lookup is
// bounded by the configured timeout and guarded by the circuit breaker;
// any failure returns (nil, ErrUnavailable).
func (c *Client) GameInfo(ctx context.Context, gameID int) (*GameInfo, error) {
	if !c.Enabled() || gameID == 0 {
		return nil, ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var info *GameInfo
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			g, err := c.fetchGame(ctx, gameID)
			if err != nil {
				return err
			}
			info = g
			return nil
		})
	})
	if err != nil {
		c.logger.Warn("game metadata lookup failed",
			logger.GameID(gameID), logger.Err(err))
		return nil, ErrUnavailable
	}
	return info, nil
}

// fetchGame performs one API_GetGame.php call.
func (c *Client) fetchGame(ctx context.Context, gameID int) (*GameInfo, error) {
	endpoint, err := url.Parse(c.config.BaseURL + "/API_GetGame.php")
	if err != nil {
		return retryPermanent(fmt.Errorf("parse endpoint: %w", err))
	}

	q := endpoint.Query()
	q.Set("i", strconv.Itoa(gameID))
	q.Set("z", c.config.Username)
	q.Set("y", c.config.APIKey)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return retryPermanent(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, retry.Retryable(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, retry.Retryable(err)
	}

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, retry.Retryable(fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return retryPermanent(fmt.Errorf("status %d", resp.StatusCode))
	}

	var dto gameDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return retryPermanent(fmt.Errorf("decode response: %w", err))
	}

	return &GameInfo{
		ID:          gameID,
		Title:       dto.Title,
		ConsoleName: dto.ConsoleName,
		ImageIcon:   dto.ImageIcon,
		ImageBoxArt: dto.ImageBoxArt,
	}, nil
}

func retryPermanent(err error) (*GameInfo, error) {
	return nil, retry.Permanent(err)
}
