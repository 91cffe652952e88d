// Package markets fetches spot prices used as factual context for posts.
package markets

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"blogr/app"
)

// Endpoint is the CryptoCompare multi-price API.
var Endpoint = "https://min-api.cryptocompare.com/data/pricemulti"

var client = &http.Client{
	Timeout: 15 * time.Second,
}

// Tickers are the coins quoted in every post.
var Tickers = []string{"BTC", "ETH", "BNB"}

// Prices returns USD spot prices for the given tickers.
func Prices(tickers ...string) map[string]string {
	if len(tickers) == 0 {
		tickers = Tickers
	}

	// read at call time so .env loading in main is picked up
	key := os.Getenv("CRYPTOCOMPARE_API_KEY")
	url := fmt.Sprintf("%s?fsyms=%s&tsyms=USD&api_key=%s", Endpoint, strings.Join(tickers, ","), key)

	start := time.Now()
	rsp, err := client.Get(url)
	if err != nil {
		app.RecordAPICall("cryptocompare", "GET", Endpoint, 0, time.Since(start), err)
		app.Log("markets", "Failed to fetch prices: %v", err)
		return nil
	}
	defer rsp.Body.Close()
	app.RecordAPICall("cryptocompare", "GET", Endpoint, rsp.StatusCode, time.Since(start), nil)

	b, err := io.ReadAll(rsp.Body)
	if err != nil {
		return nil
	}

	var res map[string]map[string]float64
	if err := json.Unmarshal(b, &res); err != nil {
		app.Log("markets", "Failed to parse price response: %v", err)
		return nil
	}

	prices := map[string]string{}
	for _, t := range tickers {
		if usd, ok := res[t]["USD"]; ok {
			prices[t] = fmt.Sprintf("%v", usd)
		}
	}
	if len(prices) == 0 {
		return nil
	}
	return prices
}

// Format renders a fetched price map as a single context line, or "" when
// no prices are available.
func Format(prices map[string]string) string {
	if len(prices) == 0 {
		return ""
	}

	tickers := make([]string, 0, len(prices))
	for t := range prices {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	parts := make([]string, 0, len(tickers))
	for _, t := range tickers {
		parts = append(parts, fmt.Sprintf("%s $%s", t, prices[t]))
	}
	return strings.Join(parts, ", ")
}
