// Command ingecap evaluates Argentine bond metrics and options forward curves
// from the terminal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/bonds"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/cashflow"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/config"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/fetch"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/service"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/types"
)

var rootCmd = &cobra.Command{
	Use:           "ingecap",
	Short:         "Bond yield curves and options-implied forward curves",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			log.SetLevel(log.DebugLevel)
		} else {
			log.SetLevel(log.WarnLevel)
		}
	},
}

var bondsCmd = &cobra.Command{
	Use:   "bonds",
	Short: "Yield, modified duration and parity of every priced bond",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		path, _ := cmd.Flags().GetString("cashflows")
		if path == "" {
			path = cfg.CashFlowFile
		}
		if path == "" {
			return fmt.Errorf("a cash-flow file is required (--cashflows or CASHFLOW_FILE)")
		}

		family, err := parseFamily(cmd)
		if err != nil {
			return err
		}

		svc := service.NewBondService(
			fetch.NewData912Client(cfg.Data912URL, fetch.WithTimeout(cfg.RequestTimeout)),
			cashflow.NewFileSource(path),
			nil,
			cfg.CacheTTL,
		)

		metrics, err := svc.Metrics(cmd.Context())
		if err != nil {
			return err
		}
		if family != types.CurveNone {
			metrics = bonds.Filter(metrics, family)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), metrics)
		}
		renderBonds(cmd.OutOrStdout(), metrics)
		return nil
	},
}

var curveCmd = &cobra.Command{
	Use:   "curve TICKER",
	Short: "Options-implied forward curve of one ticker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if horizon, _ := cmd.Flags().GetInt("horizon"); horizon > 0 {
			cfg.HorizonMonths = horizon
		}

		svc := service.NewOptionsService(
			fetch.NewDeribitClient(cfg.DeribitURL, fetch.WithTimeout(cfg.RequestTimeout)),
			fetch.NewCBOEClient(cfg.CBOEURL, fetch.WithTimeout(cfg.RequestTimeout)),
			cfg.Tickers,
			cfg.HorizonMonths,
			cfg.CacheTTL,
		)

		curve, err := svc.Curve(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), curve)
		}
		renderCurve(cmd.OutOrStdout(), curve)
		return nil
	},
}

var tickersCmd = &cobra.Command{
	Use:   "tickers",
	Short: "List the tickers with options forward curves",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(config.Load().Tickers, " "))
	},
}

func parseFamily(cmd *cobra.Command) (types.CurveFamily, error) {
	raw, _ := cmd.Flags().GetString("curve")
	switch types.CurveFamily(strings.ToUpper(strings.TrimSpace(raw))) {
	case types.CurveNone:
		return types.CurveNone, nil
	case types.CurveAL:
		return types.CurveAL, nil
	case types.CurveGD:
		return types.CurveGD, nil
	default:
		return types.CurveNone, fmt.Errorf("unknown curve %q (want AL or GD)", raw)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("json", false, "print JSON instead of a table")

	bondsCmd.Flags().String("cashflows", "", "CSV file with ticker,type,payment_date,cash_flow columns")
	bondsCmd.Flags().String("curve", "", "restrict to one curve family (AL or GD)")

	curveCmd.Flags().Int("horizon", 0, "number of monthly expiries")

	rootCmd.AddCommand(bondsCmd, curveCmd, tickersCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Errorf("Error: %v", err)
		os.Exit(1)
	}
}
