package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/davidkirwan/asset-monitoring/internal/fetch"
	"github.com/davidkirwan/asset-monitoring/internal/model"
)

type pairSpec struct {
	Symbol     string
	Name       string
	Currencies []string
}

// pairs lists the tracked trading pairs in output order.
var pairs = []pairSpec{
	{Symbol: "BTC", Name: "Bitcoin", Currencies: []string{"USD", "EUR"}},
	{Symbol: "ETH", Name: "Ethereum", Currencies: []string{"USD", "EUR"}},
}

var currencyNames = map[string]string{
	"USD": "US Dollar",
	"EUR": "Euro",
}

// Coinbase fetches spot prices for the tracked crypto pairs. A failing pair
// is skipped by default; with failFast the first failure aborts the source.
type Coinbase struct {
	baseURL  string
	client   *fetch.Client
	failFast bool
	log      *logrus.Logger
}

// NewCoinbase creates the crypto source.
func NewCoinbase(baseURL string, client *fetch.Client, failFast bool, log *logrus.Logger) *Coinbase {
	return &Coinbase{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
		failFast: failFast,
		log:      log,
	}
}

func (c *Coinbase) ID() string   { return "coinbase" }
func (c *Coinbase) Name() string { return "Coinbase" }
func (c *Coinbase) Description() string {
	return "Bitcoin and Ethereum spot prices"
}

// Fetch retrieves one spot price per (symbol, currency) pair. If every pair
// fails the source as a whole fails: an empty result would hide an upstream
// contract violation.
func (c *Coinbase) Fetch(ctx context.Context) ([]model.MetricSample, error) {
	c.log.Debug("[coinbase] fetching spot prices")

	var samples []model.MetricSample
	for _, pair := range pairs {
		for _, currency := range pair.Currencies {
			sample, err := c.fetchPair(ctx, pair, currency)
			if err != nil {
				if c.failFast {
					return nil, &model.SourceError{Source: c.ID(), Err: err}
				}
				c.log.Warnf("[coinbase] skipping %s-%s: %v", pair.Symbol, currency, err)
				continue
			}
			samples = append(samples, sample)
		}
	}

	if len(samples) == 0 {
		return nil, &model.SourceError{
			Source: c.ID(),
			Err:    &model.ParseError{Reason: "no spot price data found"},
		}
	}
	return samples, nil
}

func (c *Coinbase) fetchPair(ctx context.Context, pair pairSpec, currency string) (model.MetricSample, error) {
	url := fmt.Sprintf("%s/%s-%s/spot", c.baseURL, pair.Symbol, currency)
	body, err := c.client.Get(ctx, url)
	if err != nil {
		return model.MetricSample{}, err
	}

	var payload struct {
		Data struct {
			Amount string `json:"amount"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return model.MetricSample{}, &model.ParseError{Reason: "Invalid response format"}
	}
	amount := payload.Data.Amount
	if amount == "" {
		return model.MetricSample{}, &model.ParseError{Reason: "Invalid response format"}
	}
	if _, err := strconv.ParseFloat(amount, 64); err != nil {
		return model.MetricSample{}, &model.ParseError{
			Reason: fmt.Sprintf("Invalid response format: amount %q is not numeric", amount),
		}
	}

	currencyName := currencyDisplayName(currency)
	return model.MetricSample{
		Name: "crypto_" + strings.ToLower(pair.Symbol) + "_" + strings.ToLower(currency),
		Help: fmt.Sprintf("The spot price of %s in %s", pair.Name, currencyName),
		Labels: []model.Label{
			model.L("currency1", pair.Name),
			model.L("ticker1", pair.Symbol),
			model.L("currency2", currencyName),
			model.L("ticker2", currency),
			model.L("exchange", "Coinbase"),
		},
		Value: amount,
	}, nil
}

func currencyDisplayName(code string) string {
	if name, ok := currencyNames[code]; ok {
		return name
	}
	return code
}
