package cmd

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"stockportal/internal/api"
	"stockportal/internal/cli"
	"stockportal/internal/routes"
)

func newPredictCmd(root *rootOptions) *cobra.Command {
	var plotDir string

	cmd := &cobra.Command{
		Use:   "predict TICKER",
		Short: "Forecast tomorrow's closing price for a ticker",
		Long: `Request a price forecast for a ticker. Requires a session.

Examples:
  stockportal predict AAPL
  stockportal predict msft -o wide
  stockportal predict TSLA --save-plots ./plots`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, root)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.requireRoute(routes.RouteDashboard); err != nil {
				return &cli.AuthRequiredError{Endpoint: s.svc.Client.Endpoint(api.PathPredict)}
			}

			var prediction *api.Prediction
			err = s.out.Progress("Predicting "+strings.ToUpper(args[0])+"...", func() error {
				var predictErr error
				prediction, predictErr = s.svc.Client.Predict(cmd.Context(), args[0])
				return predictErr
			})
			if err != nil {
				return cli.Translate(err)
			}

			if plotDir != "" {
				files, err := prediction.SavePlots(plotDir)
				if err != nil {
					return err
				}
				for _, f := range files {
					s.out.Printf("%s\n", cli.FormatSuccess("Saved "+f))
				}
			}

			return s.out.Render(prediction, predictionTable(prediction))
		},
	}

	cmd.Flags().StringVar(&plotDir, "save-plots", "", "Directory to write the forecast plots to")
	return cmd
}

func predictionTable(p *api.Prediction) cli.Table {
	change := p.ChangePercent()
	changeText := change.StringFixed(2) + "%"
	if change.IsPositive() {
		changeText = text.FgGreen.Sprint("+" + changeText)
	} else if change.IsNegative() {
		changeText = text.FgRed.Sprint(changeText)
	}

	return cli.Table{
		Columns: []cli.Column{
			{Header: "Ticker"},
			{Header: "Today"},
			{Header: "Tomorrow"},
			{Header: "Change"},
			{Header: "RMSE", Wide: true},
			{Header: "R2", Wide: true},
			{Header: "MSE", Wide: true},
			{Header: "Summary", Wide: true},
		},
		Rows: [][]string{{
			p.Ticker,
			p.TodayPrice.StringFixed(2),
			p.TomorrowPrediction.StringFixed(2),
			changeText,
			p.RMSE.StringFixed(4),
			p.R2.StringFixed(4),
			p.MSE.StringFixed(4),
			strings.Join(p.Summary, " "),
		}},
	}
}
