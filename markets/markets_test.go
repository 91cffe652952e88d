package markets

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func withServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	old := Endpoint
	Endpoint = srv.URL
	t.Cleanup(func() { Endpoint = old })
}

func TestPrices(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("fsyms"); got != "BTC,ETH" {
			t.Errorf("fsyms = %q", got)
		}
		w.Write([]byte(`{"BTC": {"USD": 64250.5}, "ETH": {"USD": 3120}}`))
	})

	prices := Prices("BTC", "ETH")
	if prices == nil {
		t.Fatal("expected prices")
	}
	if prices["BTC"] != "64250.5" {
		t.Errorf("BTC = %q", prices["BTC"])
	}
	if prices["ETH"] != "3120" {
		t.Errorf("ETH = %q", prices["ETH"])
	}
}

func TestPricesPartialResponse(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"BTC": {"USD": 64000}}`))
	})

	prices := Prices("BTC", "DOGE")
	if len(prices) != 1 {
		t.Fatalf("expected only BTC, got %v", prices)
	}
}

func TestPricesBadResponse(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	if prices := Prices("BTC"); prices != nil {
		t.Errorf("expected nil on parse failure, got %v", prices)
	}
}

func TestPricesReadsKeyAtCallTime(t *testing.T) {
	t.Setenv("CRYPTOCOMPARE_API_KEY", "late-key")

	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("api_key"); got != "late-key" {
			t.Errorf("api_key = %q", got)
		}
		w.Write([]byte(`{"BTC": {"USD": 64000}}`))
	})

	if prices := Prices("BTC"); prices == nil {
		t.Fatal("expected prices")
	}
}

func TestFormat(t *testing.T) {
	snap := Format(map[string]string{"BTC": "64000", "ETH": "3100", "BNB": "580"})
	if !strings.Contains(snap, "BTC $64000") {
		t.Errorf("snapshot = %q", snap)
	}
	// sorted tickers, comma separated
	if !strings.HasPrefix(snap, "BNB ") {
		t.Errorf("expected sorted tickers, got %q", snap)
	}

	if got := Format(nil); got != "" {
		t.Errorf("expected empty line for no prices, got %q", got)
	}
}
