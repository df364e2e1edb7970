package yahoo

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"time"

	"finpipe/pkg/provider"
)

// chartResponse mirrors the /v8/finance/chart payload. Price arrays carry
// explicit nulls for sessions the venue has no value for, hence pointers.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Currency string `json:"currency"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *chartError) Error() string {
	return fmt.Sprintf("yahoo: chart error %s: %s", e.Code, e.Description)
}

// DailyBars fetches daily OHLCV bars for symbol within [start, end).
// A session the venue did not trade yields an empty slice, not an error.
func (c *Client) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]provider.Bar, error) {
	query := url.Values{}
	query.Set("interval", "1d")
	query.Set("period1", strconv.FormatInt(start.UTC().Unix(), 10))
	query.Set("period2", strconv.FormatInt(end.UTC().Unix(), 10))
	query.Set("includeAdjustedClose", "true")

	var response chartResponse
	path := "/v8/finance/chart/" + url.PathEscape(symbol)
	if err := c.doRequest(ctx, path, query, &response); err != nil {
		return nil, err
	}
	if response.Chart.Error != nil {
		if response.Chart.Error.Code == "Not Found" {
			return nil, ErrSymbolNotFound
		}
		return nil, response.Chart.Error
	}
	if len(response.Chart.Result) == 0 {
		return nil, nil
	}

	result := response.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		// Holiday or venue gap: no date axis means no session data.
		return nil, nil
	}
	quote := result.Indicators.Quote[0]

	var adjClose []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjClose = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]provider.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		bars = append(bars, provider.Bar{
			Date:     time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Open:     deref(quote.Open, i),
			High:     deref(quote.High, i),
			Low:      deref(quote.Low, i),
			Close:    deref(quote.Close, i),
			AdjClose: deref(adjClose, i),
			Volume:   deref(quote.Volume, i),
		})
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})
	return bars, nil
}

// deref reads index i from a nullable price array, returning NaN for nulls
// and for rows the array is too short to cover.
func deref(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return math.NaN()
	}
	return *values[i]
}
