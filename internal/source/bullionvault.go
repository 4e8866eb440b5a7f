package source

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/davidkirwan/asset-monitoring/internal/fetch"
	"github.com/davidkirwan/asset-monitoring/internal/model"
)

type exchangeInfo struct {
	Commodity string
	Exchange  string
}

// exchanges maps BullionVault security identifiers to commodity and market.
// Instruments outside this table are not tracked and their pitches are
// skipped.
var exchanges = map[string]exchangeInfo{
	"AUXZU": {"Gold", "Zurich"},
	"AUXLN": {"Gold", "London"},
	"AUXNY": {"Gold", "New York"},
	"AUXTR": {"Gold", "Toronto"},
	"AUXSG": {"Gold", "Singapore"},
	"AGXZU": {"Silver", "Zurich"},
	"AGXLN": {"Silver", "London"},
	"AGXTR": {"Silver", "Toronto"},
	"AGXSG": {"Silver", "Singapore"},
	"PTXLN": {"Platinum", "London"},
}

// BullionVault fetches the precious-metals market snapshot and emits
// buy/sell price and quantity gauges per tracked exchange.
type BullionVault struct {
	url    string
	client *fetch.Client
	log    *logrus.Logger
}

// NewBullionVault creates the precious-metals source.
func NewBullionVault(url string, client *fetch.Client, log *logrus.Logger) *BullionVault {
	return &BullionVault{url: url, client: client, log: log}
}

func (b *BullionVault) ID() string   { return "bullionvault" }
func (b *BullionVault) Name() string { return "BullionVault" }
func (b *BullionVault) Description() string {
	return "Gold, silver and platinum spot prices per exchange"
}

// Fetch retrieves and parses the market document. It fails on network errors
// and on documents carrying zero pitch records; individual unparsable or
// untracked pitches are skipped.
func (b *BullionVault) Fetch(ctx context.Context) ([]model.MetricSample, error) {
	b.log.Debug("[bullionvault] fetching market data")

	body, err := b.client.Get(ctx, b.url)
	if err != nil {
		return nil, &model.SourceError{Source: b.ID(), Err: err}
	}

	pitches, err := parseMarket(body)
	if err != nil {
		return nil, &model.SourceError{Source: b.ID(), Err: err}
	}
	if len(pitches) == 0 {
		return nil, &model.SourceError{
			Source: b.ID(),
			Err:    &model.ParseError{Reason: "Invalid XML: no pitch data found"},
		}
	}

	var samples []model.MetricSample
	for _, p := range pitches {
		samples = append(samples, b.parsePitch(p)...)
	}
	return samples, nil
}

type pitchXML struct {
	SecurityID string       `xml:"securityId,attr"`
	Currency   string       `xml:"considerationCurrency,attr"`
	BuyPrices  priceListXML `xml:"buyPrices"`
	SellPrices priceListXML `xml:"sellPrices"`
}

type priceListXML struct {
	Prices []priceXML `xml:"price"`
}

type priceXML struct {
	Limit    string `xml:"limit,attr"`
	Quantity string `xml:"quantity,attr"`
}

// parseMarket scans the document for pitch elements at any depth. A token
// error means the document itself is unparsable; a pitch that fails to
// decode is dropped without affecting its siblings.
func parseMarket(body []byte) ([]pitchXML, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	var pitches []pitchXML
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &model.ParseError{Reason: fmt.Sprintf("unable to parse market document: %v", err)}
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "pitch" {
			continue
		}
		var p pitchXML
		if err := dec.DecodeElement(&p, &start); err != nil {
			continue
		}
		pitches = append(pitches, p)
	}
	return pitches, nil
}

// parsePitch converts one pitch record into its four gauge samples. Untracked
// securities and pitches without a settlement currency yield nothing; a
// missing price sub-field yields an empty value, which the encoder omits.
func (b *BullionVault) parsePitch(p pitchXML) []model.MetricSample {
	info, ok := exchanges[p.SecurityID]
	if !ok {
		b.log.Debugf("[bullionvault] skipping untracked security %q", p.SecurityID)
		return nil
	}
	if p.Currency == "" {
		b.log.Debugf("[bullionvault] skipping %s: no settlement currency", p.SecurityID)
		return nil
	}

	currency := strings.ToLower(p.Currency)
	gauge := "bullion_" + strings.ToLower(info.Commodity) + "_" +
		strings.ReplaceAll(strings.ToLower(info.Exchange), " ", "") + "_"
	labels := []model.Label{
		model.L("security_id", p.SecurityID),
		model.L("commodity", info.Commodity),
		model.L("exchange", info.Exchange),
		model.L("currency", currency),
	}

	buy := p.BuyPrices.first()
	sell := p.SellPrices.first()
	cur := strings.ToUpper(currency)

	return []model.MetricSample{
		{
			Name:   gauge + "buy_" + currency,
			Help:   fmt.Sprintf("The buy spot price of %s in %s in %s", info.Commodity, info.Exchange, cur),
			Labels: labels,
			Value:  buy.Limit,
		},
		{
			Name:   gauge + "buy_" + currency + "_qty",
			Help:   fmt.Sprintf("Quantity of %s bought in %s in %s (kg)", info.Commodity, info.Exchange, cur),
			Labels: labels,
			Value:  buy.Quantity,
		},
		{
			Name:   gauge + "sell_" + currency,
			Help:   fmt.Sprintf("The sell spot price of %s in %s in %s", info.Commodity, info.Exchange, cur),
			Labels: labels,
			Value:  sell.Limit,
		},
		{
			Name:   gauge + "sell_" + currency + "_qty",
			Help:   fmt.Sprintf("Quantity of %s sold in %s in %s (kg)", info.Commodity, info.Exchange, cur),
			Labels: labels,
			Value:  sell.Quantity,
		},
	}
}

func (l priceListXML) first() priceXML {
	if len(l.Prices) == 0 {
		return priceXML{}
	}
	return l.Prices[0]
}
