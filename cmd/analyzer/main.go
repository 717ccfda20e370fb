package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"carbonlens/internal/align"
	"carbonlens/internal/estimate"
	"carbonlens/internal/gate"
	"carbonlens/internal/model"
	"carbonlens/internal/stats"
	"carbonlens/internal/store"
	"carbonlens/internal/store/sqlite"
)

const rollingWindow = 12

type report struct {
	GeneratedAt string                        `json:"generated_at"`
	Window      windowBlock                   `json:"cbam_window"`
	Preparation gate.Prepared                 `json:"preparation"`
	LagVerdict  gate.LagVerdict               `json:"lag_verdict"`
	Baseline    estimate.Result               `json:"baseline"`
	Lagged      estimate.Result               `json:"lagged"`
	Interaction estimate.Result               `json:"interaction"`
	Comparison  estimate.Comparison           `json:"pre_post_comparison"`
	Summaries   map[string]stats.SummaryStats `json:"summaries"`
	RollingCorr []float64                     `json:"rolling_correlation,omitempty"`
}

type windowBlock struct {
	StartYear int `json:"start_year"`
	EndYear   int `json:"end_year"`
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "run":
		run(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func run(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	dbPath := fs.String("db", "carbonlens.db", "sqlite database path")
	outPath := fs.String("out", "results.json", "output report path")
	windowSpec := fs.String("window", "2023:2025", "CBAM window as start:end years")
	maxLags := fs.Int("lags", 12, "requested maximum lag length (gate may tighten)")
	exact := fs.Bool("exact", false, "use exact t-distribution p-values and inverse-based standard errors")
	verbose := fs.Bool("verbose", false, "debug logging")
	fs.Parse(args)

	if err := runAnalyzer(*dbPath, *outPath, *windowSpec, *maxLags, *exact, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "analyzer run failed:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: analyzer run [options]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "options:")
	fmt.Fprintln(os.Stderr, "  -db       sqlite database path (default: carbonlens.db)")
	fmt.Fprintln(os.Stderr, "  -out      output report path (default: results.json)")
	fmt.Fprintln(os.Stderr, "  -window   CBAM window as start:end years (default: 2023:2025)")
	fmt.Fprintln(os.Stderr, "  -lags     requested maximum lag length (default: 12)")
	fmt.Fprintln(os.Stderr, "  -exact    exact p-values and standard errors instead of legacy approximations")
	fmt.Fprintln(os.Stderr, "  -verbose  debug logging")
}

func runAnalyzer(dbPath, outPath, windowSpec string, maxLags int, exact, verbose bool) error {
	window, err := parseWindow(windowSpec)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx := context.Background()
	st, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	series, err := loadSeries(ctx, st)
	if err != nil {
		return err
	}

	panel := align.Merge(series, window)
	if len(panel) == 0 {
		return errors.New("no observations in any series")
	}

	prepared := gate.PrepareDataset(panel, window)
	fmt.Printf("frequency=%s overlap=%d (%s)\n", prepared.Frequency, prepared.Overlap, prepared.Message)

	opts := stats.Options{}
	if exact {
		opts = stats.Options{PValueMode: stats.PValueExact, ExactSE: true}
	}
	engine := estimate.NewEngine(window, opts, logger)

	lagVerdict := gate.FeasibleLagLength(prepared.Overlap, prepared.Frequency)

	out := report{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Window:      windowBlock{StartYear: window.StartYear, EndYear: window.EndYear},
		Preparation: prepared,
		LagVerdict:  lagVerdict,
		Baseline:    engine.Baseline(prepared.Panel, prepared.Frequency),
		Lagged:      engine.Lagged(prepared.Panel, maxLags, prepared.Frequency),
		Interaction: engine.Interaction(prepared.Panel, prepared.Frequency),
		Comparison:  engine.DescriptiveComparison(prepared.Panel),
		Summaries:   make(map[string]stats.SummaryStats),
	}

	for _, variable := range []string{
		model.VarImportQuantity, model.VarImportValue, model.VarUnitValue,
		model.VarCarbonPrice, model.VarActivityIndex,
	} {
		summary, err := engine.SummaryStats(prepared.Panel, variable)
		if err != nil {
			logger.Debug("summary unavailable", "variable", variable, "error", err)
			continue
		}
		out.Summaries[variable] = summary
	}

	price := make([]*float64, len(prepared.Panel))
	logQuantity := make([]*float64, len(prepared.Panel))
	for i, row := range prepared.Panel {
		price[i] = row.CarbonPrice
		logQuantity[i] = row.LogImportQuantity
	}
	if rolling, err := stats.RollingCorrelation(price, logQuantity, rollingWindow); err == nil {
		out.RollingCorr = rolling
	}

	if err := writeJSON(outPath, out); err != nil {
		return err
	}
	if err := persistResults(ctx, st, prepared.Frequency, out); err != nil {
		return err
	}

	printResult(out.Baseline)
	printResult(out.Lagged)
	printResult(out.Interaction)
	fmt.Printf("analyzer run complete (report=%s)\n", outPath)
	return nil
}

func printResult(result estimate.Result) {
	if !result.Feasible {
		fmt.Printf("%s: not estimable (%s)\n", result.Model, result.Reason)
		return
	}
	fmt.Printf("%s: n=%d r2=%.4f\n", result.Model, result.N, result.RSquared)
	for i, term := range result.Terms {
		fmt.Printf("  %-24s coef=%+.6f se=%.6f t=%+.3f p=%.4f\n",
			term, result.Coefficients[i], result.StandardErrors[i], result.TStats[i], result.PValues[i])
	}
}

func loadSeries(ctx context.Context, st store.Store) (map[string]*model.Series, error) {
	variables, err := st.ListVariables(ctx)
	if err != nil {
		return nil, err
	}
	if len(variables) == 0 {
		return nil, errors.New("store holds no series; run ingest first")
	}

	series := make(map[string]*model.Series, len(variables))
	for _, variable := range variables {
		observations, err := st.ListObservations(ctx, variable)
		if err != nil {
			return nil, err
		}
		s := model.NewSeries(variable)
		for _, observation := range observations {
			if observation.Value == nil {
				continue
			}
			s.Set(observation.Period, *observation.Value)
		}
		series[variable] = s
	}
	return series, nil
}

func persistResults(ctx context.Context, st store.Store, frequency model.Frequency, out report) error {
	now := time.Now().UTC()
	for _, result := range []estimate.Result{out.Baseline, out.Lagged, out.Interaction} {
		payload, err := json.Marshal(result)
		if err != nil {
			return err
		}
		record := store.ResultRecord{
			Model:      result.Model,
			Frequency:  frequency,
			ComputedAt: now,
			Payload:    payload,
		}
		if err := st.UpsertResult(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func parseWindow(value string) (model.CBAMWindow, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return model.CBAMWindow{}, fmt.Errorf("invalid window %q, want start:end", value)
	}
	start, errStart := strconv.Atoi(strings.TrimSpace(parts[0]))
	end, errEnd := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errStart != nil || errEnd != nil || start > end {
		return model.CBAMWindow{}, fmt.Errorf("invalid window %q, want start:end", value)
	}
	return model.CBAMWindow{StartYear: start, EndYear: end}, nil
}

func openStore(path string) (store.Store, error) {
	if strings.TrimSpace(path) == "" {
		return &store.NopStore{}, nil
	}
	return sqlite.New(path)
}

func writeJSON(path string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
