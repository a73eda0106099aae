package fxrate

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Simplici0/sourcing/internal/apperr"
	"github.com/Simplici0/sourcing/internal/metrics"
	"github.com/Simplici0/sourcing/internal/pricing"
)

// Options configures an HTTPProvider.
type Options struct {
	URL      string
	Currency string
	Timeout  time.Duration
	Fallback pricing.Rate
}

// HTTPProvider reads the rate from a JSON feed shaped like
// {"result": "success", "rates": {"CNY": 5.35}}.
type HTTPProvider struct {
	client   *http.Client
	opts     Options
	log      *zap.Logger
	recorder *metrics.Recorder
}

// NewHTTPProvider creates a provider with its own client timeout.
func NewHTTPProvider(opts Options, log *zap.Logger, recorder *metrics.Recorder) *HTTPProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPProvider{
		client:   &http.Client{Timeout: opts.Timeout},
		opts:     opts,
		log:      log,
		recorder: recorder,
	}
}

type feedResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

// Current fetches the live rate, or returns the fallback rate when the
// feed fails in any way.
func (p *HTTPProvider) Current(ctx context.Context) Quote {
	rate, err := p.fetch(ctx)
	if err != nil {
		p.log.Warn("exchange rate feed unavailable, using fallback",
			zap.Error(err),
			zap.Float64("fallback", float64(p.opts.Fallback)),
		)
		p.recorder.RecordRateSource(string(SourceFallback))
		return Quote{Rate: p.opts.Fallback, Source: SourceFallback, FetchedAt: time.Now().UTC()}
	}

	p.recorder.RecordRateSource(string(SourceLive))
	return Quote{Rate: rate, Source: SourceLive, FetchedAt: time.Now().UTC()}
}

func (p *HTTPProvider) fetch(ctx context.Context) (pricing.Rate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.opts.URL, nil)
	if err != nil {
		return 0, apperr.Upstream("build rate request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, apperr.Upstream("request rate feed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, apperr.Upstream(fmt.Sprintf("rate feed returned status %d", resp.StatusCode), nil)
	}

	var body feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, apperr.Upstream("decode rate feed", err)
	}
	if body.Result != "" && body.Result != "success" {
		return 0, apperr.Upstream(fmt.Sprintf("rate feed result %q", body.Result), nil)
	}

	v, ok := body.Rates[p.opts.Currency]
	if !ok {
		return 0, apperr.Upstream(fmt.Sprintf("rate feed has no %s rate", p.opts.Currency), nil)
	}
	if !(v > 0) || math.IsInf(v, 0) {
		return 0, apperr.Upstream(fmt.Sprintf("rate feed returned unusable rate %v", v), nil)
	}
	return pricing.Rate(v), nil
}
