package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"carbonlens/internal/model"
	"carbonlens/internal/store"
	"carbonlens/internal/store/sqlite"
)

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
	csvPath := fs.String("csv", "", "path to observations csv (variable,period,value)")
	dbPath := fs.String("db", "carbonlens.db", "sqlite database path")
	verbose := fs.Bool("verbose", false, "print each observation")
	fs.Parse(args)

	if err := runIngest(*csvPath, *dbPath, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "ingest run failed:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: ingest run [options]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "options:")
	fmt.Fprintln(os.Stderr, "  -csv      path to observations csv with variable,period,value rows")
	fmt.Fprintln(os.Stderr, "  -db       sqlite database path (default: carbonlens.db)")
	fmt.Fprintln(os.Stderr, "  -verbose  print each observation")
}

func runIngest(csvPath, dbPath string, verbose bool) error {
	if strings.TrimSpace(csvPath) == "" {
		return errors.New("csv path is required")
	}

	observations, skipped, err := loadObservations(csvPath)
	if err != nil {
		return err
	}
	if len(observations) == 0 {
		return errors.New("no observations parsed")
	}

	if verbose {
		for _, observation := range observations {
			if observation.Value == nil {
				fmt.Printf("%s %s missing\n", observation.Variable, observation.Period)
				continue
			}
			fmt.Printf("%s %s %.4f\n", observation.Variable, observation.Period, *observation.Value)
		}
	}

	ctx := context.Background()
	st, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.UpsertObservations(ctx, observations); err != nil {
		return err
	}

	fmt.Printf("ingest run complete (stored=%d skipped=%d)\n", len(observations), skipped)
	return nil
}

// loadObservations reads the fixed three-column format: variable,period,value.
// Blank lines and # comments are skipped; a header row is recognized by its
// first field. An empty value field is an explicitly missing observation,
// not zero.
func loadObservations(path string) ([]model.Observation, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	observations := make([]model.Observation, 0)
	skipped := 0
	lineNumber := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) != 3 {
			return nil, 0, fmt.Errorf("line %d: expected variable,period,value, got %q", lineNumber, line)
		}

		variable := strings.ToLower(strings.TrimSpace(fields[0]))
		if variable == "variable" {
			continue // header
		}
		if !knownVariable(variable) {
			skipped++
			fmt.Fprintf(os.Stderr, "line %d: skip unknown variable %q\n", lineNumber, variable)
			continue
		}

		period, err := model.ParsePeriod(fields[1])
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", lineNumber, err)
		}

		observation := model.Observation{Variable: variable, Period: period}
		rawValue := strings.TrimSpace(fields[2])
		if rawValue != "" {
			value, err := strconv.ParseFloat(rawValue, 64)
			if err != nil {
				return nil, 0, fmt.Errorf("line %d: invalid value %q", lineNumber, rawValue)
			}
			observation.Value = model.Float(value)
		}
		observations = append(observations, observation)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	return observations, skipped, nil
}

func knownVariable(variable string) bool {
	switch variable {
	case model.VarImportQuantity, model.VarImportValue, model.VarUnitValue,
		model.VarCarbonPrice, model.VarActivityIndex:
		return true
	default:
		return false
	}
}

func openStore(path string) (store.Store, error) {
	if strings.TrimSpace(path) == "" {
		return &store.NopStore{}, nil
	}
	return sqlite.New(path)
}
