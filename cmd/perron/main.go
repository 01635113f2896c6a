package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/perron-board/perron/internal/api"
	"github.com/perron-board/perron/internal/board"
	"github.com/perron-board/perron/internal/cache"
	"github.com/perron-board/perron/internal/config"
	"github.com/perron-board/perron/internal/logging"
	"github.com/perron-board/perron/internal/models"
	"github.com/perron-board/perron/internal/output"
	"github.com/perron-board/perron/internal/registry"
	"github.com/perron-board/perron/internal/search"
	"github.com/perron-board/perron/internal/server"
	"github.com/perron-board/perron/internal/store"
	"github.com/perron-board/perron/internal/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "perron",
	Short: "Departure boards for Swiss public transport",
	Long: `perron shows live departure boards for the stations you choose, using
the Swiss public transport API (transport.opendata.ch).

Features:
  - Interactive board: search, add and remove stations
  - Kiosk board: fixed station list, larger rows, no editing
  - Station list saved between runs (file, SQLite or PostgreSQL)
  - JSON output for scripting and an HTTP API for browser kiosks

Quick Start:
  1. Launch the board:         perron (or perron tui)
  2. Search for a station:     perron search "Zürich HB"
  3. Add it to your board:     perron stations add 8503000
  4. Print the board once:     perron board
  5. Run a kiosk:              perron kiosk -s "Zürich HB, Bern"
  6. Serve the board as JSON:  perron serve`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// If no subcommand is provided, launch TUI
		if len(args) == 0 {
			return runTUI(cmd, args)
		}
		return cmd.Help()
	},
}

// Global flags
var (
	flagConfig   string
	flagJSON     bool
	flagRawJSON  bool
	flagColor    string
	flagNoCache  bool
	flagKiosk    bool
	flagStations string
)

// Board flags
var flagWatch bool

func init() {
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(kioskCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(stationsCmd)
	rootCmd.AddCommand(serveCmd)

	stationsCmd.AddCommand(stationsListCmd)
	stationsCmd.AddCommand(stationsAddCmd)
	stationsCmd.AddCommand(stationsRemoveCmd)

	addGlobalFlags(rootCmd.PersistentFlags())

	boardCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "Watch mode: refresh on the configured interval")
}

func addGlobalFlags(fs *pflag.FlagSet) {
	fs.StringVar(&flagConfig, "config", "", "Config file (default $XDG_CONFIG_HOME/perron/config.yml)")
	fs.BoolVar(&flagJSON, "json", false, "Output as JSON")
	fs.BoolVar(&flagRawJSON, "raw-json", false, "Output raw API response")
	fs.StringVar(&flagColor, "color", "auto", "Color output: auto, always, never")
	fs.BoolVar(&flagNoCache, "no-cache", false, "Disable station lookup caching")
	fs.BoolVarP(&flagKiosk, "kiosk", "k", false, "Kiosk mode: larger board, no editing, nothing saved")
	fs.StringVarP(&flagStations, "stations", "s", "", "Comma-separated station names to show at startup")
}

// loadConfig reads the configuration and applies command-line overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("kiosk") {
		cfg.Kiosk = flagKiosk
	}
	if cmd.Flags().Changed("stations") {
		cfg.Stations = flagStations
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// createClient creates an API client with common options
func createClient(cfg *config.Config) (*api.Client, error) {
	opts := []api.ClientOption{
		api.WithBaseURL(cfg.API.BaseURL),
		api.WithTimeout(cfg.API.Timeout),
	}

	// Enable caching unless disabled
	if !flagNoCache {
		opts = append(opts, api.WithCache(cache.NewLookupCache(cfg.Cache.Size, cfg.Cache.TTL)))
	}

	return api.NewClient(opts...)
}

// getColorMode returns the color mode based on flag
func getColorMode() output.ColorMode {
	return output.ParseColorMode(flagColor)
}

// engine holds what every board-showing command needs
type engine struct {
	cfg      *config.Config
	client   *api.Client
	registry *registry.Registry
	store    store.Store
	// storeErr is why the store could not be opened, if it could not
	storeErr error
}

// newEngine opens the store and loads the saved station list. A kiosk with
// a startup list keeps everything in memory and never touches the store; a
// kiosk without one shows the saved list read-only. A store that cannot be
// opened is logged and the engine starts with an empty in-memory list.
func newEngine(cfg *config.Config) (*engine, error) {
	client, err := createClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	e := &engine{cfg: cfg, client: client}

	if cfg.Kiosk && len(cfg.StationNames()) > 0 {
		e.registry = registry.New(nil)
		return e, nil
	}

	s, err := store.Open(store.Options{
		Backend: cfg.Store.Backend,
		Path:    cfg.Store.Path,
		DSN:     cfg.Store.DSN,
	})
	if err != nil {
		log.Printf("failed to open store, starting with no saved stations: %v", err)
		e.storeErr = err
		e.registry = registry.New(nil)
		return e, nil
	}
	e.store = s

	var opts []registry.Option
	if cfg.Kiosk {
		opts = append(opts, registry.Ephemeral())
	}
	e.registry = registry.New(s, opts...)

	// A corrupt or unreadable list is logged by Load and starts empty
	_ = e.registry.Load()

	return e, nil
}

// newEditingEngine is newEngine for commands whose only job is to change the
// saved list, so a store that cannot be opened is an error.
func newEditingEngine(cfg *config.Config) (*engine, error) {
	e, err := newEngine(cfg)
	if err != nil {
		return nil, err
	}
	if e.storeErr != nil {
		e.Close()
		return nil, fmt.Errorf("failed to open store: %w", e.storeErr)
	}
	return e, nil
}

func (e *engine) scheduler(opts ...board.Option) *board.Scheduler {
	opts = append([]board.Option{
		board.WithLimit(e.cfg.RowLimit()),
		board.WithInterval(e.cfg.Refresh.Interval),
		board.WithFetchTimeout(e.cfg.API.Timeout),
	}, opts...)
	return board.NewScheduler(e.client, e.registry, opts...)
}

func (e *engine) Close() {
	if e.store == nil {
		return
	}
	if err := e.store.Close(); err != nil {
		log.Printf("close store: %v", err)
	}
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive board",
	Long: `Launch the full-screen departure board.

Keyboard shortcuts:
  Type         Search for a station (at least 2 characters)
  Down         Move into the search results
  Enter        Select a result / add the selected station
  Tab          Switch between search and the station list
  j/k          Move through the station list
  d            Remove the selected station
  r            Refresh every station now
  Esc          Close results / clear search
  q            Quit`,
	RunE: runTUI,
}

var kioskCmd = &cobra.Command{
	Use:   "kiosk",
	Short: "Launch the read-only kiosk board",
	Long: `Launch the kiosk board: a clock, large station titles and up to 10
departures per station. Stations cannot be added or removed.

With --stations the board shows exactly those stations and nothing is
saved. Without it, the saved station list is shown.

Examples:
  perron kiosk --stations "Zürich HB, Bern"
  perron -k -s "Basel SBB"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = cmd.Flags().Set("kiosk", "true")
		return runTUI(cmd, args)
	},
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Log to a file so nothing draws over the board
	if f, err := logging.ToFile(logging.DefaultFile()); err != nil {
		logging.Discard()
	} else {
		defer func() { _ = f.Close() }()
	}

	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridge := tui.NewBridge()
	sched := eng.scheduler(board.WithPublisher(bridge))

	var coord *search.Coordinator
	if !cfg.Kiosk {
		coord = search.NewCoordinator(eng.client, eng.registry,
			search.WithDelay(cfg.Search.Debounce),
			search.WithRenderer(bridge),
			search.WithLookupTimeout(cfg.API.Timeout),
		)
		defer coord.Close()
	}

	model := tui.New(tui.Config{
		Context:   ctx,
		Registry:  eng.registry,
		Scheduler: sched,
		Search:    coord,
		Kiosk:     cfg.Kiosk,
		Location:  eng.client.Timezone(),
	})
	p := tea.NewProgram(model, tea.WithAltScreen())

	go bridge.Run(ctx, p)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if names := cfg.StationNames(); len(names) > 0 {
			sched.Resolve(ctx, names)
		}
		_ = sched.Run(ctx)
	}()

	_, err = p.Run()
	cancel()
	<-done
	return err
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for stations by name",
	Long: `Search for stations by name. The query needs at least 2 characters.

Examples:
  perron search "Zürich HB"
  perron search Bern --json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	query := args[0]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logging.Discard()

	client, err := createClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	if flagRawJSON {
		raw, err := client.SearchStationsRaw(ctx, query)
		if err != nil {
			return err
		}
		return printPrettyJSON(raw)
	}

	candidates, err := client.SearchStations(ctx, query)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(candidates)
	}

	output.RenderCandidates(os.Stdout, candidates, output.TableOptions{
		Colors: output.NewColors(getColorMode()),
	})
	return nil
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Print the departure board for every saved station",
	Long: `Fetch and print the departure board for every station on the list.

A failing station shows an error in its place; the others are still shown.

Examples:
  perron board
  perron board --watch
  perron board -k -s "Zürich HB, Bern"
  perron board --json`,
	Args: cobra.NoArgs,
	RunE: runBoard,
}

func runBoard(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logging.Discard()

	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	sched := eng.scheduler()
	if names := cfg.StationNames(); len(names) > 0 {
		for _, res := range sched.Resolve(ctx, names) {
			if res.Err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Could not add %q: %v\n", res.Name, res.Err)
			}
		}
	}

	if flagRawJSON {
		return printRawBoards(ctx, eng.client, eng.registry.All(), sched.Limit())
	}

	render := func(w io.Writer) {
		sched.RefreshAll(ctx)
		sched.Wait()
		entries := sched.Entries()

		if flagJSON {
			out := make([]server.EntryResponse, 0, len(entries))
			for _, e := range entries {
				out = append(out, server.NewEntryResponse(e, eng.client.Timezone()))
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			_ = enc.Encode(out)
			return
		}

		output.RenderBoard(w, entries, output.TableOptions{
			Colors:   output.NewColors(getColorMode()),
			Kiosk:    cfg.Kiosk,
			Location: eng.client.Timezone(),
			Width:    output.Width(os.Stdout),
		})
	}

	if flagWatch {
		return runWatch(cfg.Refresh.Interval, func() error {
			render(os.Stdout)
			return nil
		})
	}

	render(os.Stdout)
	return nil
}

func printRawBoards(ctx context.Context, client *api.Client, stations []models.Station, limit int) error {
	raws := make(map[string]json.RawMessage, len(stations))
	var errs []error
	for _, st := range stations {
		raw, err := client.GetStationboardRaw(ctx, st.ID, limit)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", st.Name, err))
			continue
		}
		raws[st.ID] = raw
	}
	if err := printJSON(raws); err != nil {
		return err
	}
	return errors.Join(errs...)
}

// runWatch runs a continuous refresh loop for watch mode
func runWatch(interval time.Duration, fetchAndRender func() error) error {
	sigChan := output.SetupSignalHandler()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Hide cursor during watch mode
	output.HideCursor(os.Stdout)
	defer output.ShowCursor(os.Stdout)

	for {
		output.ClearScreen(os.Stdout)

		now := time.Now()
		fmt.Printf("Last update: %s | Next refresh in %s | Press Ctrl+C to exit\n\n",
			now.Format("15:04:05"), interval)

		if err := fetchAndRender(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}

		select {
		case <-ticker.C:
			continue
		case <-sigChan:
			output.ClearScreen(os.Stdout)
			fmt.Println("Watch mode ended.")
			return nil
		}
	}
}

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "Manage the saved station list",
}

var stationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved stations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logging.Discard()

		eng, err := newEngine(cfg)
		if err != nil {
			return err
		}
		defer eng.Close()

		stations := eng.registry.All()
		if flagJSON {
			return printJSON(stations)
		}
		output.RenderStations(os.Stdout, stations, output.TableOptions{
			Colors: output.NewColors(getColorMode()),
		})
		return nil
	},
}

var stationsAddCmd = &cobra.Command{
	Use:   "add <name or id>...",
	Short: "Add stations by name or id",
	Long: `Look up each argument and save its best match.

Examples:
  perron stations add "Zürich HB"
  perron stations add 8507000 "Basel SBB"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Kiosk {
			return errors.New("stations cannot be changed in kiosk mode")
		}
		// Failures are printed below
		logging.Discard()

		eng, err := newEditingEngine(cfg)
		if err != nil {
			return err
		}
		defer eng.Close()

		var failed int
		for _, res := range eng.scheduler().Resolve(context.Background(), args) {
			switch {
			case res.Err != nil:
				failed++
				_, _ = fmt.Fprintf(os.Stderr, "Could not add %q: %v\n", res.Name, res.Err)
			case res.Added:
				fmt.Printf("Added %s (%s)\n", res.Station.Name, res.Station.ID)
			default:
				fmt.Printf("%s (%s) is already saved\n", res.Station.Name, res.Station.ID)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d stations could not be added", failed, len(args))
		}
		return nil
	},
}

var stationsRemoveCmd = &cobra.Command{
	Use:   "remove <id>...",
	Short: "Remove saved stations by id",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Kiosk {
			return errors.New("stations cannot be changed in kiosk mode")
		}
		logging.Init(os.Stderr)

		eng, err := newEditingEngine(cfg)
		if err != nil {
			return err
		}
		defer eng.Close()

		for _, id := range args {
			st, _ := eng.registry.Get(id)
			removed, err := eng.registry.Remove(id)
			if err != nil {
				return err
			}
			if !removed {
				_, _ = fmt.Fprintf(os.Stderr, "No saved station with id %s\n", id)
				continue
			}
			fmt.Printf("Removed %s (%s)\n", st.Name, st.ID)
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the board as JSON over HTTP",
	Long: `Run the refresh scheduler and serve the board over HTTP for browser
kiosk screens.

Endpoints:
  GET    /health
  GET    /api/stations
  POST   /api/stations          {"id": "...", "name": "..."}
  DELETE /api/stations/{id}
  GET    /api/board
  GET    /api/search?q=<query>

In kiosk mode stations cannot be added or removed.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logging.Init(os.Stderr)

	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := eng.scheduler()
	srv := server.New(server.Config{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Registry:       eng.registry,
		Scheduler:      sched,
		Searcher:       eng.client,
		Kiosk:          cfg.Kiosk,
		Location:       eng.client.Timezone(),
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if names := cfg.StationNames(); len(names) > 0 {
			sched.Resolve(ctx, names)
		}
		_ = sched.Run(ctx)
	}()

	err = srv.Run(ctx)
	stop()
	<-done
	return err
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printPrettyJSON(data []byte) error {
	var prettyJSON interface{}
	if err := json.Unmarshal(data, &prettyJSON); err != nil {
		// If we can't parse it, just print raw
		fmt.Println(string(data))
		return err
	}

	return printJSON(prettyJSON)
}
