package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pointsmaxxer/pointsmaxxer/internal/app"
	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/deals"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/portfolio"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/scanner"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/subscribers"
)

func runCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the Telegram bot, scheduled scans and the metrics server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, file, err := flags.load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateDaemon(); err != nil {
				return err
			}

			log.Info("=== pointsmaxxer starting ===")

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			application, err := app.New(ctx, cfg, file)
			if err != nil {
				return fmt.Errorf("init: %w", err)
			}
			defer application.Close()

			if err := application.Scheduler.Start(ctx); err != nil {
				return err
			}
			defer application.Scheduler.Stop()

			if cfg.MetricsAddr != "" {
				go func() {
					if err := application.Metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
						log.WithError(err).Error("Metrics server stopped")
					}
				}()
			}

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			go application.Bot.Start(ctx)

			log.WithField("next_scan", application.Scheduler.Next()).Info("=== pointsmaxxer ready ===")

			sig := <-quit
			log.Infof("Received %s, shutting down", sig)
			cancel()

			log.Info("=== pointsmaxxer stopped ===")
			return nil
		},
	}
}

func scanCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Scan every monitored route once and store the deals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, file, err := flags.load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			core, err := app.Open(ctx, cfg, file)
			if err != nil {
				return err
			}
			defer core.Close()

			notifier := subscribers.NewNotifier(nil, nil, core.Engine.Alerts, subscribers.Channels{
				Terminal: file.Alerts.Terminal,
			})
			result := core.Scanner(notifier).ScanAllRoutes(ctx)
			fmt.Fprintln(cmd.OutOrStdout(), scanner.FormatScanResult(result))
			return nil
		},
	}
}

func searchCmd(flags *globalFlags) *cobra.Command {
	var (
		cabin string
		date  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "search ORIG DEST",
		Short: "Search one route for award space without touching the database",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, file, err := flags.load()
			if err != nil {
				return err
			}

			queryArgs := append([]string{}, args...)
			if cabin != "" {
				queryArgs = append(queryArgs, cabin)
			}
			if date != "" {
				queryArgs = append(queryArgs, date)
			}
			q, err := scanner.ParseSearchArgs(queryArgs, time.Now())
			if err != nil {
				return err
			}

			e, err := app.NewEngine(cfg, file, nil, nil)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			res, err := e.NewScanner(nil, nil, nil, nil).Search(ctx, q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s → %s, %s, %s (%d awards)\n",
				res.Query.Origin, res.Query.Destination, res.Query.Cabin.Title(),
				res.Query.Date.Format(time.DateOnly), res.Awards)
			writeDealTable(out, res.Deals, limit)
			for _, msg := range res.Errors {
				fmt.Fprintf(out, "warning: %s\n", msg)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cabin, "cabin", "", "economy, premium, business or first (default business)")
	cmd.Flags().StringVar(&date, "date", "", "Departure date YYYY-MM-DD (default today)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Rows to print, 0 for all")
	return cmd
}

func compareCmd(flags *globalFlags) *cobra.Command {
	var (
		cabin string
		date  string
	)
	cmd := &cobra.Command{
		Use:   "compare ORIG DEST",
		Short: "Compare the programs pricing one route on one day",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, file, err := flags.load()
			if err != nil {
				return err
			}

			queryArgs := append([]string{}, args...)
			if cabin != "" {
				queryArgs = append(queryArgs, cabin)
			}
			if date != "" {
				queryArgs = append(queryArgs, date)
			}
			q, err := scanner.ParseSearchArgs(queryArgs, time.Now())
			if err != nil {
				return err
			}

			e, err := app.NewEngine(cfg, file, nil, nil)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			res, err := e.NewScanner(nil, nil, nil, nil).Compare(ctx, q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, scanner.FormatCompareResult(res))
			for _, msg := range res.Errors {
				fmt.Fprintf(out, "warning: %s\n", msg)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cabin, "cabin", "", "economy, premium, business or first (default business)")
	cmd.Flags().StringVar(&date, "date", "", "Departure date YYYY-MM-DD (default today)")
	return cmd
}

// historyOptions are the history command's filter flags.
type historyOptions struct {
	limit      int
	links      bool
	unicorns   bool
	saver      bool
	affordable bool
	minCPP     float64
	maxCPP     float64
	programs   []string
	cabins     []string
}

func historyCmd(flags *globalFlags) *cobra.Command {
	var opts historyOptions
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored deals, newest first, with optional filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := opts.criteria(cmd.Flags().Changed("min-cpp"), cmd.Flags().Changed("max-cpp"))
			if err != nil {
				return err
			}
			cfg, file, err := flags.load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			core, err := app.Open(ctx, cfg, file)
			if err != nil {
				return err
			}
			defer core.Close()

			found, err := deals.History(ctx, core.Deals, opts.limit, criteria)
			if err != nil {
				return err
			}
			writeHistory(cmd.OutOrStdout(), found, opts.links)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVarP(&opts.limit, "limit", "l", 20, "Rows to print, 0 for all")
	f.BoolVarP(&opts.links, "links", "k", false, "Print booking links")
	f.BoolVarP(&opts.unicorns, "unicorns", "u", false, "Unicorns only")
	f.BoolVar(&opts.saver, "saver", false, "Saver awards only")
	f.BoolVar(&opts.affordable, "affordable", false, "Only deals your balances can fund")
	f.Float64Var(&opts.minCPP, "min-cpp", 0, "Minimum cents per point (inclusive)")
	f.Float64Var(&opts.maxCPP, "max-cpp", 0, "Maximum cents per point (inclusive)")
	f.StringSliceVar(&opts.programs, "program", nil, "Program codes to keep, repeatable")
	f.StringSliceVar(&opts.cabins, "cabin", nil, "Cabins to keep, repeatable")
	return cmd
}

// criteria builds the filter; the CPP bounds apply only when their flags
// were set.
func (o historyOptions) criteria(minSet, maxSet bool) (deals.FilterCriteria, error) {
	c := deals.FilterCriteria{
		UnicornsOnly:   o.unicorns,
		SaverOnly:      o.saver,
		AffordableOnly: o.affordable,
	}
	if minSet {
		v := o.minCPP
		c.MinCPP = &v
	}
	if maxSet {
		v := o.maxCPP
		c.MaxCPP = &v
	}
	if c.MinCPP != nil && c.MaxCPP != nil && *c.MinCPP > *c.MaxCPP {
		return deals.FilterCriteria{}, errors.New("--min-cpp is above --max-cpp")
	}
	for _, p := range o.programs {
		if code := common.NormalizeCode(p); code != "" {
			c.Programs = append(c.Programs, code)
		}
	}
	for _, name := range o.cabins {
		cabin, err := deals.ParseCabin(name)
		if err != nil {
			return deals.FilterCriteria{}, err
		}
		c.Cabins = append(c.Cabins, cabin)
	}
	return c, nil
}

// writeHistory prints stored deals with their IDs, and booking links when
// asked.
func writeHistory(w io.Writer, ds []*deals.Deal, links bool) {
	if len(ds) == 0 {
		fmt.Fprintln(w, "No matching deals.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFOUND\tROUTE\tDATE\tPROGRAM\tCABIN\tMILES\tCPP\t")
	for _, d := range ds {
		a := d.Award
		mark := ""
		if d.IsUnicorn {
			mark = " 🦄"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s-%s\t%s\t%s\t%s\t%s\t%.2f%s\t\n",
			d.ID,
			d.CreatedAt.Format("2006-01-02 15:04"),
			a.Flight.Origin, a.Flight.Destination,
			a.Flight.Departure.Format(time.DateOnly),
			a.Program,
			a.Cabin,
			common.FormatNumber(a.Miles),
			d.CPP, mark,
		)
	}
	_ = tw.Flush()

	if links {
		fmt.Fprintln(w)
		for _, d := range ds {
			fmt.Fprintf(w, "#%d %s\n", d.ID, deals.BookingURLDisplay(d.Award))
		}
	}
}

func discoverCmd(flags *globalFlags) *cobra.Command {
	var (
		origin string
		cabin  string
		minCPP float64
	)
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List destinations whose typical award pricing clears a CPP bar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(common.NormalizeAirport(origin)) != 3 {
				return errors.New("--from must be a 3-letter airport code")
			}
			c, err := deals.ParseCabin(cabin)
			if err != nil {
				return err
			}
			e, err := flags.engine()
			if err != nil {
				return err
			}
			found := e.Analyzer.Discover(origin, c, minCPP)
			fmt.Fprintln(cmd.OutOrStdout(), deals.FormatDiscovery(origin, c, minCPP, found))
			return nil
		},
	}
	cmd.Flags().StringVar(&origin, "from", "", "Origin airport")
	cmd.Flags().StringVar(&cabin, "cabin", "first", "economy, premium, business or first")
	cmd.Flags().Float64Var(&minCPP, "min-cpp", deals.DefaultDiscoverMinCPP, "Minimum estimated cents per point")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

// writeDealTable prints ranked deals as aligned columns.
func writeDealTable(w io.Writer, ds []*deals.Deal, limit int) {
	if len(ds) == 0 {
		fmt.Fprintln(w, "No award space found.")
		return
	}
	if limit > 0 && len(ds) > limit {
		ds = ds[:limit]
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPROGRAM\tDATE\tFLIGHT\tMILES\tTAXES\tCASH\tCPP\tPAY WITH\t")
	for i, d := range ds {
		a := d.Award
		mark := ""
		if d.IsUnicorn {
			mark = " 🦄"
		}
		payWith := "-"
		if d.YourSourceProgram != nil {
			payWith = *d.YourSourceProgram
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%.2f%s\t%s\t\n",
			i+1,
			a.Program,
			a.Flight.Departure.Format(time.DateOnly),
			a.Flight.FlightNo,
			common.FormatNumber(a.Miles),
			common.FormatDollars(a.CashFees),
			common.FormatDollars(d.CashPrice),
			d.CPP, mark,
			payWith,
		)
	}
	_ = tw.Flush()
}

func portfolioCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio",
		Short: "Show balances, estimated values and best uses from the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := flags.engine()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), portfolio.FormatSummary(e.Portfolio.Summary()))
			return nil
		},
	}
}

func pathsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "paths PROGRAM MILES",
		Short: "List the transfer paths that can fund MILES in PROGRAM",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			miles, err := parseMiles(args[1])
			if err != nil {
				return err
			}
			e, err := flags.engine()
			if err != nil {
				return err
			}
			target := common.NormalizeCode(args[0])
			paths := e.Portfolio.FindTransferPaths(target, miles)
			fmt.Fprintln(cmd.OutOrStdout(), portfolio.FormatPaths(e.Portfolio.ProgramName(target), miles, paths))
			return nil
		},
	}
}

func estimateCmd(flags *globalFlags) *cobra.Command {
	var cabin string
	cmd := &cobra.Command{
		Use:   "estimate ORIG DEST",
		Short: "Estimate typical award value for a route from region charts",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := deals.ParseCabin(cabin)
			if err != nil {
				return err
			}
			e, err := flags.engine()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), deals.FormatEstimate(e.Analyzer.EstimateRouteValue(args[0], args[1], c)))
			return nil
		},
	}
	cmd.Flags().StringVar(&cabin, "cabin", "business", "economy, premium, business or first")
	return cmd
}

// engine builds the database-free engine.
func (f *globalFlags) engine() (*app.Engine, error) {
	cfg, file, err := f.load()
	if err != nil {
		return nil, err
	}
	return app.NewEngine(cfg, file, nil, nil)
}

var errBadMiles = errors.New("miles must be a positive number")

// parseMiles accepts "85000", "85,000" and "85_000".
func parseMiles(s string) (int64, error) {
	s = strings.NewReplacer(",", "", "_", "").Replace(strings.TrimSpace(s))
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, errBadMiles
	}
	return n, nil
}
