package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func dataURL(b []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(b)
}

func TestPredict(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/predict/", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		switch body["ticker"] {
		case "AAPL":
			_, _ = w.Write([]byte(`{
				"status": "success",
				"plot_img": "` + dataURL(pngBytes) + `",
				"plot_100_dma": "",
				"plot_200_dma": "",
				"plot_prediction": "` + dataURL(pngBytes) + `",
				"mse": 12.3456,
				"rmse": 3.5136,
				"r2": 0.9712,
				"tomorrow_prediction": 203.1,
				"today_price": 200.0,
				"prediction_summary": ["The model predicts a 1.55% increase based on recent price patterns."]
			}`))
		default:
			_, _ = w.Write([]byte(`{"error": "No data found for ticker 'ZZZZ'. Please check if it's a valid stock symbol.", "status": 404}`))
		}
	})

	prediction, err := client.Predict(context.Background(), " aapl ")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", prediction.Ticker)
	assert.Equal(t, "success", prediction.Status)
	assert.True(t, prediction.RMSE.Equal(decimal.RequireFromString("3.5136")))
	assert.True(t, prediction.TodayPrice.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, "1.55", prediction.ChangePercent().StringFixed(2))
	assert.Equal(t, "increase", prediction.Direction())
	assert.Len(t, prediction.Summary, 1)

	_, err = client.Predict(context.Background(), "ZZZZ")
	var perr *PredictionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "ZZZZ", perr.Ticker)
	assert.Equal(t, http.StatusNotFound, perr.Status)
	assert.Contains(t, perr.Message, "No data found")
}

func TestPredict_BlankTicker(t *testing.T) {
	client, err := New("http://portal.test")
	require.NoError(t, err)

	_, err = client.Predict(context.Background(), "   ")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.First("ticker"))
}

func TestChangePercent(t *testing.T) {
	p := &Prediction{
		TodayPrice:         decimal.RequireFromString("150.00"),
		TomorrowPrediction: decimal.RequireFromString("147.00"),
	}
	assert.Equal(t, "-2.00", p.ChangePercent().StringFixed(2))
	assert.Equal(t, "decrease", p.Direction())

	empty := &Prediction{}
	assert.True(t, empty.ChangePercent().IsZero())
}

func TestSavePlots(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plots")
	p := &Prediction{
		Ticker:         "AAPL",
		PlotImage:      dataURL(pngBytes),
		Plot100DMA:     base64.StdEncoding.EncodeToString(pngBytes),
		PlotPrediction: dataURL(pngBytes),
	}

	written, err := p.SavePlots(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "AAPL_plot.png"),
		filepath.Join(dir, "AAPL_100_dma.png"),
		filepath.Join(dir, "AAPL_final_prediction.png"),
	}, written)

	data, err := os.ReadFile(filepath.Join(dir, "AAPL_plot.png"))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

func TestSavePlots_Malformed(t *testing.T) {
	p := &Prediction{Ticker: "AAPL", PlotImage: "data:image/png,rawbytes"}
	_, err := p.SavePlots(t.TempDir())
	assert.ErrorContains(t, err, "unsupported data URL encoding")

	p = &Prediction{Ticker: "AAPL", PlotImage: "data:image/png;base64,!!!"}
	_, err = p.SavePlots(t.TempDir())
	assert.ErrorContains(t, err, "failed to decode AAPL_plot.png")
}
