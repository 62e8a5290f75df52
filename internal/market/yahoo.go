package market

import (
	"fmt"

	"github.com/piquette/finance-go/quote"

	"macro-trader/internal/errors"
)

// Quoter returns the latest traded price for a symbol.
type Quoter interface {
	Price(symbol string) (float64, error)
}

// YahooQuoter fetches quotes from Yahoo Finance.
type YahooQuoter struct{}

// Price returns the regular-market price for symbol.
func (YahooQuoter) Price(symbol string) (float64, error) {
	q, err := quote.Get(symbol)
	if err != nil {
		return 0, errors.NewDataError(symbol, err)
	}
	if q == nil || q.RegularMarketPrice == 0 {
		return 0, errors.NewDataError(symbol, fmt.Errorf("no market price"))
	}
	return q.RegularMarketPrice, nil
}

// goldPrice resolves spot gold in USD/oz. The GLD ETF trades at roughly
// a tenth of spot, so its quote is scaled; the futures contract is the
// direct fallback.
func goldPrice(quotes Quoter) (float64, error) {
	if v, err := quotes.Price("GLD"); err == nil {
		return v * 10, nil
	}
	return quotes.Price("GC=F")
}

// dxyLevel resolves the dollar index. The index itself comes first,
// then the UUP and USDU dollar ETFs with their approximate scale
// factors back to index points.
func dxyLevel(quotes Quoter) (float64, error) {
	if v, err := quotes.Price("DX-Y.NYB"); err == nil {
		return v, nil
	}
	if v, err := quotes.Price("UUP"); err == nil {
		return v * 3.7, nil
	}
	v, err := quotes.Price("USDU")
	if err != nil {
		return 0, err
	}
	return v * 3.9, nil
}
