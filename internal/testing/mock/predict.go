package mock

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func (s *PortalServer) handlePredict(c *gin.Context) {
	var req struct {
		Ticker string `json:"ticker"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Ticker) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ticker": []string{msgRequired}})
		return
	}
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))

	today, ok := s.config.Tickers[ticker]
	if !ok {
		// The real backend reports failures in a 200 body.
		c.JSON(http.StatusOK, gin.H{
			"error":  fmt.Sprintf("No data found for ticker '%s'. Please check if it's a valid stock symbol.", ticker),
			"status": http.StatusNotFound,
		})
		return
	}

	c.JSON(http.StatusOK, syntheticPrediction(ticker, today))
}

// syntheticPrediction derives a stable forecast from the ticker name.
func syntheticPrediction(ticker string, today float64) gin.H {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ticker))
	seed := h.Sum32()

	// A move between -3% and +3%.
	movePct := float64(int(seed%601)-300) / 100
	todayPrice := decimal.NewFromFloat(today).Round(2)
	tomorrow := todayPrice.Mul(decimal.NewFromFloat(1 + movePct/100)).Round(2)
	ma100 := todayPrice.Mul(decimal.NewFromFloat(0.97)).Round(2)
	ma200 := todayPrice.Mul(decimal.NewFromFloat(0.93)).Round(2)

	mse := decimal.NewFromFloat(float64(seed%5000)/100 + 1).Round(4)
	rmse := decimal.NewFromFloat(math.Sqrt(mse.InexactFloat64())).Round(4)
	r2 := decimal.NewFromFloat(0.90 + float64(seed%90)/1000).Round(4)

	direction := "increase"
	if movePct <= 0 {
		direction = "decrease"
	}
	summary := []string{
		fmt.Sprintf("The model predicts a %.2f%% %s based on recent price patterns.", math.Abs(movePct), direction),
		"Short-term momentum is neutral (sideways movement).",
		fmt.Sprintf("Price is above 100-day moving average ($%s), indicating bullish trend.", ma100.StringFixed(2)),
		fmt.Sprintf("Price is above 200-day moving average ($%s), a long-term bullish signal.", ma200.StringFixed(2)),
		"Golden Cross pattern: 100 DMA is above 200 DMA, typically bullish.",
	}

	return gin.H{
		"status":              "success",
		"plot_img":            plotDataURL(color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}),
		"plot_100_dma":        plotDataURL(color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}),
		"plot_200_dma":        plotDataURL(color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}),
		"plot_prediction":     plotDataURL(color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}),
		"mse":                 mse.InexactFloat64(),
		"rmse":                rmse.InexactFloat64(),
		"r2":                  r2.InexactFloat64(),
		"tomorrow_prediction": tomorrow.InexactFloat64(),
		"today_price":         todayPrice.InexactFloat64(),
		"prediction_summary":  summary,
	}
}

// plotDataURL renders a tiny solid PNG as a base64 data URL.
func plotDataURL(fill color.Color) string {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}
