package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/cloudx-io/gspbidding/bidapi"
	"github.com/cloudx-io/gspbidding/config"
	"github.com/cloudx-io/gspbidding/core"
	"github.com/cloudx-io/gspbidding/history"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func newFlagSet(stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("round-recorder", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.String("config", "", "Config file (yaml, json or toml)")
	fs.String("bids", "", "Round input: file path or inline JSON {\"bids\":[...],\"clicks\":[...]}")
	fs.Float64("reserve", 0, "Reserve price per click")
	fs.Int("slots", 3, "Slot count when the input carries no clicks")
	fs.String("history", "", "History file (.cbor for binary, JSON otherwise)")
	fs.String("format", "text", "Output format: text or json")
	fs.String("log-level", "info", "Log level: debug, info, warn or error")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "GSP round recorder")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Runs one GSP auction round on the submitted bids and appends it to a history file.")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Usage:")
		fmt.Fprintln(stderr, "  round-recorder --bids <file|json> [options]")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, fs.FlagUsages())
		fmt.Fprintln(stderr, "Every flag can also be set with a BB_ environment variable, e.g. BB_AUCTION_RESERVE or BB_BIDS.")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Exit Codes:")
		fmt.Fprintln(stderr, "  0 - Round recorded")
		fmt.Fprintln(stderr, "  1 - Invalid configuration")
		fmt.Fprintln(stderr, "  2 - Invalid input or runtime error")
	}
	return fs
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet(stderr)
	cfg, err := config.Load(fs, args)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error loading configuration: %v\n", err)
		return 2
	}
	if err := cfg.ValidateRecorder(); err != nil {
		fmt.Fprintf(stderr, "Invalid configuration: %v\n", err)
		return 1
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(stderr, "Error creating logger: %v\n", err)
		return 2
	}
	logger.SetOutput(stderr)

	input, err := bidapi.ParseRoundInput(cfg.Bids)
	if err != nil {
		logger.WithError(err).Error("invalid round input")
		return 2
	}

	store, err := history.Load(cfg.History)
	if err != nil {
		logger.WithError(err).Error("failed to load history")
		return 2
	}

	round, err := record(cfg, store, input)
	if err != nil {
		logger.WithError(err).Error("failed to run round")
		return 2
	}

	if err := history.Save(cfg.History, store); err != nil {
		logger.WithError(err).Error("failed to save history")
		return 2
	}

	logger.WithFields(logrus.Fields{
		"history_id": store.ID,
		"round":      round.Index,
		"bids":       len(round.Bids),
		"occupants":  len(round.Occupants),
		"rejected":   len(round.Rejected),
	}).Info("round recorded")

	summary := bidapi.NewRoundSummary(store.ID, round)
	if cfg.Format == "json" {
		return outputJSON(stdout, stderr, summary)
	}
	outputText(stdout, summary)
	return 0
}

// record runs the next round of store on input and appends it.
// Clicks default to the position click model for the new round index.
func record(cfg *config.Configuration, store *history.Store, input *bidapi.RoundInput) (core.Round, error) {
	clicks := input.Clicks
	if clicks == nil {
		clicks = core.PositionClicks(store.Len(), cfg.Auction.Slots)
	}

	mechanism := &core.GSP{
		Reserve:           cfg.Auction.Reserve,
		AdjustmentFactors: cfg.Auction.AdjustmentFactors,
	}
	round, err := mechanism.RunRound(store.Len(), input.Bids, clicks)
	if err != nil {
		return core.Round{}, err
	}

	index := store.Append(*round)
	return store.Round(index)
}

func outputText(w io.Writer, s bidapi.RoundSummary) {
	fmt.Fprintln(w, "GSP Round Recorded")
	fmt.Fprintln(w, "==================")
	fmt.Fprintf(w, "  History:  %s\n", s.HistoryID)
	fmt.Fprintf(w, "  Round:    %d\n", s.Round)
	fmt.Fprintf(w, "  Hash:     %s\n", s.Hash)
	fmt.Fprintln(w)

	if len(s.Occupants) == 0 {
		fmt.Fprintln(w, "No slots allocated")
		printRejected(w, s.Rejected)
		return
	}
	fmt.Fprintln(w, "Slots:")
	for slot, occupant := range s.Occupants {
		fmt.Fprintf(w, "  %d. %-16s clicks %-5d pays %.4f per click\n", slot, occupant, s.Clicks[slot], s.PerClickPayments[slot])
	}
	printRejected(w, s.Rejected)
}

func printRejected(w io.Writer, rejected []core.RejectedBid) {
	if len(rejected) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rejected Bids:")
	for _, r := range rejected {
		fmt.Fprintf(w, "  %-16s %.4f (%s)\n", r.Bid.Bidder, r.Bid.Price, r.Reason)
	}
}

func outputJSON(stdout, stderr io.Writer, s bidapi.RoundSummary) int {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, "Error marshaling JSON: %v\n", err)
		return 2
	}
	fmt.Fprintln(stdout, string(data))
	return 0
}
