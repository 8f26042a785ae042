package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/cloudx-io/gspbidding/bidapi"
	"github.com/cloudx-io/gspbidding/config"
	"github.com/cloudx-io/gspbidding/core"
	"github.com/cloudx-io/gspbidding/history"
	"github.com/cloudx-io/gspbidding/strategy"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func newFlagSet(stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("bb-bidder", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.String("config", "", "Config file (yaml, json or toml)")
	fs.String("agent-id", "", "Bidder ID as it appears in the history")
	fs.Float64("value", 0, "Private value per click")
	fs.Float64("budget", 0, "Spending budget (accepted, not used by the strategy)")
	fs.Float64("reserve", 0, "Reserve price per click (default: the reserve of the previous round)")
	fs.String("history", "", "History file (.cbor for binary, JSON otherwise)")
	fs.Int("round", -1, "Round to bid for (default: the round after the last recorded one)")
	fs.String("format", "text", "Output format: text or json")
	fs.String("log-level", "info", "Log level: debug, info, warn or error")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Balanced Bidding agent")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Computes the next bid for a GSP sponsored-search auction from a round history.")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Usage:")
		fmt.Fprintln(stderr, "  bb-bidder --agent-id <id> --value <v> [options]")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, fs.FlagUsages())
		fmt.Fprintln(stderr, "Every flag can also be set with a BB_ environment variable, e.g. BB_AGENT_VALUE.")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Exit Codes:")
		fmt.Fprintln(stderr, "  0 - Bid computed")
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
	if err := cfg.ValidateBidder(); err != nil {
		fmt.Fprintf(stderr, "Invalid configuration: %v\n", err)
		return 1
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(stderr, "Error creating logger: %v\n", err)
		return 2
	}
	logger.SetOutput(stderr)

	store, err := history.Load(cfg.History)
	if err != nil {
		logger.WithError(err).Error("failed to load history")
		return 2
	}

	decision, err := decide(cfg, store, logger)
	if err != nil {
		logger.WithError(err).Error("failed to compute bid")
		return 2
	}

	if cfg.Format == "json" {
		return outputJSON(stdout, stderr, decision)
	}
	outputText(stdout, decision)
	return 0
}

// decide computes the bid for the configured round, using the opening bid when there is no history.
func decide(cfg *config.Configuration, store *history.Store, logger logrus.FieldLogger) (*bidapi.BidDecision, error) {
	round := cfg.Round
	if round < 0 {
		round = store.Len()
	}

	reserve := cfg.Auction.Reserve
	if prev, err := store.Round(round - 1); err == nil {
		reserve = resolveReserve(cfg.Auction, prev, logger)
	}

	mechanism := core.NewGSP(reserve)
	bidder := strategy.NewBalancedBidder(cfg.Agent.ID, cfg.Agent.Value, cfg.Agent.Budget, mechanism, logger)

	decision := &bidapi.BidDecision{
		AgentID:  cfg.Agent.ID,
		Round:    round,
		Reserve:  reserve,
		History:  history.BidStats(store, cfg.Agent.ID),
		SlotWins: history.SlotWins(store, cfg.Agent.ID),
	}

	if round == 0 {
		decision.Initial = true
		decision.Bid = bidder.InitialBid(reserve)
		return decision, nil
	}

	bid, err := bidder.Bid(round, store, reserve)
	if err != nil {
		return nil, err
	}
	decision.Bid = bid

	// Explanations are best effort: a round without slots still yields a bid
	if target, err := bidder.TargetSlot(round, store, reserve); err == nil {
		decision.Target = &target
	}
	if utils, err := bidder.ExpectedUtils(round, store, reserve); err == nil {
		decision.Utilities = utils
	}

	logger.WithFields(logrus.Fields{
		"agent": cfg.Agent.ID,
		"round": round,
		"bid":   bid,
	}).Info("bid computed")
	return decision, nil
}

// resolveReserve picks the reserve to bid against: the configured one when it was given,
// otherwise the reserve the previous round was run with.
func resolveReserve(auction config.Auction, prev core.Round, logger logrus.FieldLogger) float64 {
	if !auction.ReserveSet {
		return prev.Reserve
	}
	if auction.Reserve != prev.Reserve {
		logger.WithFields(logrus.Fields{
			"round":            prev.Index,
			"reserve":          auction.Reserve,
			"recorded_reserve": prev.Reserve,
		}).Warn("configured reserve differs from the recorded round")
	}
	return auction.Reserve
}

func outputText(w io.Writer, d *bidapi.BidDecision) {
	fmt.Fprintln(w, "Balanced Bidding Decision")
	fmt.Fprintln(w, "=========================")
	fmt.Fprintf(w, "  Agent:           %s\n", d.AgentID)
	fmt.Fprintf(w, "  Round:           %d\n", d.Round)
	fmt.Fprintf(w, "  Bid:             %.4f\n", d.Bid)
	fmt.Fprintf(w, "  Reserve:         %.4f\n", d.Reserve)

	if d.Initial {
		fmt.Fprintln(w, "  Basis:           opening bid (no history)")
	}
	if d.Target != nil {
		fmt.Fprintf(w, "  Target Slot:     %d (min %.4f, max %.4f)\n", d.Target.Slot, d.Target.MinBid, d.Target.MaxBid)
	}
	if len(d.Utilities) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Expected Utilities:")
		for i, u := range d.Utilities {
			if i == len(d.Utilities)-1 {
				fmt.Fprintf(w, "  no slot:  %.4f\n", u)
				continue
			}
			fmt.Fprintf(w, "  slot %-3d  %.4f\n", i, u)
		}
	}

	if d.History.Rounds > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Past Bids:")
		fmt.Fprintf(w, "  Rounds:          %d\n", d.History.Rounds)
		fmt.Fprintf(w, "  Min / Max:       %.4f / %.4f\n", d.History.Min, d.History.Max)
		fmt.Fprintf(w, "  Mean (stddev):   %.4f (%.4f)\n", d.History.Mean, d.History.StdDev)
		for _, slot := range sortedSlots(d.SlotWins) {
			fmt.Fprintf(w, "  Slot %d won:      %d\n", slot, d.SlotWins[slot])
		}
	}
}

func outputJSON(stdout, stderr io.Writer, d *bidapi.BidDecision) int {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, "Error marshaling JSON: %v\n", err)
		return 2
	}
	fmt.Fprintln(stdout, string(data))
	return 0
}

// sortedSlots returns the slot ranks of wins in ascending order.
func sortedSlots(wins map[int]int) []int {
	slots := make([]int, 0, len(wins))
	for slot := range wins {
		slots = append(slots, slot)
	}
	sort.Ints(slots)
	return slots
}
