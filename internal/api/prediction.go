package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"stockportal/pkg/logging"
)

// Prediction is the portal's forecast for one ticker.
type Prediction struct {
	Ticker string `json:"ticker,omitempty" yaml:"ticker,omitempty"`
	Status string `json:"status" yaml:"status"`

	// Plots are base64 PNG data URLs.
	PlotImage      string `json:"plot_img" yaml:"-"`
	Plot100DMA     string `json:"plot_100_dma" yaml:"-"`
	Plot200DMA     string `json:"plot_200_dma" yaml:"-"`
	PlotPrediction string `json:"plot_prediction" yaml:"-"`

	MSE  decimal.Decimal `json:"mse" yaml:"mse"`
	RMSE decimal.Decimal `json:"rmse" yaml:"rmse"`
	R2   decimal.Decimal `json:"r2" yaml:"r2"`

	TomorrowPrediction decimal.Decimal `json:"tomorrow_prediction" yaml:"tomorrowPrediction"`
	TodayPrice         decimal.Decimal `json:"today_price" yaml:"todayPrice"`

	Summary []string `json:"prediction_summary" yaml:"summary"`
}

// ChangePercent is the predicted move from today's price, rounded to two
// decimals. It is zero when today's price is unknown.
func (p *Prediction) ChangePercent() decimal.Decimal {
	if p.TodayPrice.IsZero() {
		return decimal.Zero
	}
	return p.TomorrowPrediction.Sub(p.TodayPrice).
		Div(p.TodayPrice).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}

// Direction is "increase" or "decrease".
func (p *Prediction) Direction() string {
	if p.ChangePercent().IsPositive() {
		return "increase"
	}
	return "decrease"
}

// predictionEnvelope detects the portal's error shape, {"error", "status"},
// which arrives with HTTP 200.
type predictionEnvelope struct {
	Error  string          `json:"error"`
	Status json.RawMessage `json:"status"`
}

// Predict requests a forecast for ticker.
func (c *Client) Predict(ctx context.Context, ticker string) (*Prediction, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		verr := NewFieldError(map[string]string{"ticker": "This field may not be blank."})
		verr.Endpoint = c.Endpoint(PathPredict)
		return nil, verr
	}

	var raw json.RawMessage
	if err := c.doAuthed(ctx, http.MethodPost, PathPredict, map[string]string{"ticker": ticker}, &raw); err != nil {
		return nil, err
	}

	var envelope predictionEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &TransportError{Endpoint: c.Endpoint(PathPredict), Type: TransportErrorDecode, Err: err}
	}
	if envelope.Error != "" {
		status, _ := strconv.Atoi(strings.Trim(string(envelope.Status), `"`))
		logging.Warn("API", "Prediction for %s failed: %s", ticker, envelope.Error)
		return nil, &PredictionError{Ticker: ticker, Status: status, Message: envelope.Error}
	}

	var prediction Prediction
	if err := json.Unmarshal(raw, &prediction); err != nil {
		return nil, &TransportError{Endpoint: c.Endpoint(PathPredict), Type: TransportErrorDecode, Err: err}
	}
	prediction.Ticker = ticker
	return &prediction, nil
}

// SavePlots writes the prediction's plots as PNG files into dir and
// returns the written paths. Missing plots are skipped.
func (p *Prediction) SavePlots(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create plot directory: %w", err)
	}

	plots := []struct {
		name string
		data string
	}{
		{p.Ticker + "_plot.png", p.PlotImage},
		{p.Ticker + "_100_dma.png", p.Plot100DMA},
		{p.Ticker + "_200_dma.png", p.Plot200DMA},
		{p.Ticker + "_final_prediction.png", p.PlotPrediction},
	}

	var written []string
	for _, plot := range plots {
		if plot.data == "" {
			continue
		}
		img, err := decodeDataURL(plot.data)
		if err != nil {
			return written, fmt.Errorf("failed to decode %s: %w", plot.name, err)
		}
		path := filepath.Join(dir, plot.name)
		if err := os.WriteFile(path, img, 0644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// decodeDataURL decodes "data:image/png;base64,<payload>" or a bare payload.
func decodeDataURL(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		idx := strings.Index(s, ",")
		if idx < 0 {
			return nil, fmt.Errorf("malformed data URL")
		}
		if !strings.HasSuffix(s[:idx], ";base64") {
			return nil, fmt.Errorf("unsupported data URL encoding")
		}
		s = s[idx+1:]
	}
	return base64.StdEncoding.DecodeString(s)
}
