// catalog is a terminal client for the products catalog service.
//
// Usage:
//
//	catalog list                  List every product
//	catalog add <name>            Create a product
//	catalog update <id> <name>    Rename a product
//	catalog delete <id>           Delete a product
//	catalog ui                    Interactive screen with forms and list
//	catalog config [show]         Show the resolved configuration
//	catalog config set <k> <v>    Write one setting to the config file
//	catalog twin health           Health check a local catalog twin
//	catalog twin reset            Clear a twin's state
//	catalog twin seed <file>      POST seed data to a twin's /admin/state
//	catalog twin requests         Show a twin's recent requests
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/travelexperts/catalog/internal/config"
	"github.com/travelexperts/catalog/internal/gateway"
	"github.com/travelexperts/catalog/internal/product"
	"github.com/travelexperts/catalog/internal/twin"
	"github.com/travelexperts/catalog/internal/ui"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// errUsage marks argument errors; main prints usage after them.
var errUsage = errors.New("usage")

// options are the global flags accepted before or after the command.
type options struct {
	configPath string
	baseURL    string
	verbose    bool
}

func main() {
	cmd, args, opts := parseArgs(os.Args[1:])

	if cmd == "" || cmd == "help" || cmd == "--help" || cmd == "-h" {
		printUsage(os.Stdout)
		if cmd == "" {
			os.Exit(1)
		}
		return
	}
	if cmd == "version" || cmd == "--version" || cmd == "-v" {
		fmt.Printf("catalog version %s\n", version)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		a   *app
		err error
	)
	if cmd == "config" {
		err = cmdConfig(opts, args, os.Stdout)
	} else if a, err = newApp(opts, os.Stdout, os.Stderr); err == nil {
		err = a.run(ctx, cmd, args, os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "catalog: %v\n", err)
		if a != nil {
			if h := hint(err, a.gw.BaseURL()); h != "" {
				fmt.Fprintf(os.Stderr, "catalog: %s\n", h)
			}
		}
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr)
			printUsage(os.Stderr)
		}
		os.Exit(1)
	}
}

// parseArgs extracts the subcommand, positional args, and global options.
func parseArgs(raw []string) (command string, args []string, opts options) {
	opts.configPath = os.Getenv("CATALOG_CONFIG")

	var filtered []string
	for i := 0; i < len(raw); i++ {
		switch {
		case raw[i] == "--config" && i+1 < len(raw):
			opts.configPath = raw[i+1]
			i++
		case raw[i] == "--base-url" && i+1 < len(raw):
			opts.baseURL = raw[i+1]
			i++
		case strings.HasPrefix(raw[i], "--base-url="):
			opts.baseURL = strings.TrimPrefix(raw[i], "--base-url=")
		case raw[i] == "--verbose":
			opts.verbose = true
		default:
			filtered = append(filtered, raw[i])
		}
	}

	if len(filtered) == 0 {
		return "", nil, opts
	}
	return filtered[0], filtered[1:], opts
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `catalog: product catalog client %s

Usage:
  catalog [--config <path>] [--base-url <url>] [--verbose] <command> [arguments]

Commands:
  list                       List every product
  add <name>                 Create a product
  update <id> <name>         Rename product <id>
  delete <id>                Delete product <id>
  ui                         Interactive screen (type 'help' inside)
  config [show]              Show the resolved configuration
  config get <key>           Print one setting
  config set <key> <value>   Write a setting (base_url|timeout|verbose)
  config path                Print the config file path
  twin health                Health check the twin at the base URL
  twin reset                 Clear all twin state
  twin seed <file>           POST seed data to the twin
  twin requests              Show the twin's recent requests
  version                    Print the catalog version

Options:
  --config <path>   Config file (default: ~/.catalog/config.yaml)
  --base-url <url>  Products service base URL (default: %s)
  --verbose         Debug logging to stderr

Environment:
  CATALOG_CONFIG    Override default config path
  CATALOG_BASE_URL  Override base_url
  CATALOG_TIMEOUT   Override timeout (Go duration, e.g. 5s)
`, version, config.DefaultBaseURL)
}

type app struct {
	cfg    *config.Config
	gw     *gateway.Client
	admin  *gateway.AdminClient
	logger *slog.Logger
	out    io.Writer
}

// newApp resolves configuration (defaults, file, env, flags) and builds clients.
func newApp(opts options, out, errOut io.Writer) (*app, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFrom(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if opts.baseURL != "" {
		cfg.BaseURL = opts.baseURL
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if opts.verbose {
		cfg.Verbose = true
	}

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))
	logger.Debug("config resolved", "base_url", cfg.BaseURL, "timeout", cfg.Timeout)

	return &app{
		cfg:    cfg,
		gw:     gateway.NewClient(cfg.BaseURL, cfg.Timeout),
		admin:  gateway.NewAdminClient(cfg.BaseURL),
		logger: logger,
		out:    out,
	}, nil
}

func (a *app) run(ctx context.Context, cmd string, args []string, in io.Reader) error {
	switch cmd {
	case "list":
		return a.cmdList(ctx)
	case "add":
		return a.cmdAdd(ctx, args)
	case "update":
		return a.cmdUpdate(ctx, args)
	case "delete":
		return a.cmdDelete(ctx, args)
	case "ui":
		return a.cmdUI(ctx, in)
	case "twin":
		return a.cmdTwin(ctx, args)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

// hint suggests a next step for errors a user can act on.
func hint(err error, baseURL string) string {
	if gateway.IsTransport(err) {
		return fmt.Sprintf("no response from %s; is the service (or catalog-twin) running?", baseURL)
	}
	if code, ok := gateway.IsStatus(err); ok && code == http.StatusNotFound {
		return "no product with that id; run 'catalog list' to see ids"
	}
	return ""
}

// ---------------------------------------------------------------------------
// catalog list
// ---------------------------------------------------------------------------

func (a *app) cmdList(ctx context.Context) error {
	products, err := a.gw.ListProducts(ctx)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		fmt.Fprintln(a.out, "No products.")
		return nil
	}

	fmt.Fprintln(a.out)
	fmt.Fprintf(a.out, "  %-8s %s\n", "ID", "NAME")
	fmt.Fprintf(a.out, "  %-8s %s\n", "--", "----")
	for _, p := range products {
		fmt.Fprintf(a.out, "  %-8d %s\n", p.ID, p.Name)
	}
	fmt.Fprintln(a.out)
	return nil
}

// ---------------------------------------------------------------------------
// catalog add / update / delete
// ---------------------------------------------------------------------------

func (a *app) cmdAdd(ctx context.Context, args []string) error {
	name := strings.Join(args, " ")
	if product.IsBlank(name) {
		return fmt.Errorf("%w: catalog add <name>", errUsage)
	}
	if err := a.gw.CreateProduct(ctx, name); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %q.\n", name)
	return nil
}

func (a *app) cmdUpdate(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: catalog update <id> <name>", errUsage)
	}
	id, err := product.ParseID(args[0])
	if err != nil {
		return err
	}
	name := strings.Join(args[1:], " ")
	if product.IsBlank(name) {
		return fmt.Errorf("%w: catalog update <id> <name>", errUsage)
	}
	if err := a.gw.UpdateProduct(ctx, id, name); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated product %d to %q.\n", id, name)
	return nil
}

func (a *app) cmdDelete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: catalog delete <id>", errUsage)
	}
	id, err := product.ParseID(args[0])
	if err != nil {
		return err
	}
	if err := a.gw.DeleteProduct(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted product %d.\n", id)
	return nil
}

// ---------------------------------------------------------------------------
// catalog ui
// ---------------------------------------------------------------------------

func (a *app) cmdUI(ctx context.Context, in io.Reader) error {
	loop := ui.NewLoop(64)
	screen := ui.NewScreen(ctx, loop, a.gw, a.logger, a.out)
	fmt.Fprintf(a.out, "Connected to %s. Type 'help' for commands.\n", a.gw.BaseURL())
	return screen.Run(ctx, in)
}

// ---------------------------------------------------------------------------
// catalog config
// ---------------------------------------------------------------------------

func configPath(opts options) (string, error) {
	if opts.configPath != "" {
		return opts.configPath, nil
	}
	return config.Path()
}

func cmdConfig(opts options, args []string, out io.Writer) error {
	path, err := configPath(opts)
	if err != nil {
		return err
	}

	sub := "show"
	if len(args) > 0 {
		sub = args[0]
	}

	switch sub {
	case "path":
		fmt.Fprintln(out, path)
		return nil

	case "show":
		cfg, err := config.LoadFrom(path)
		if err != nil {
			return err
		}
		if opts.baseURL != "" {
			cfg.BaseURL = opts.baseURL
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  %-12s %s\n", "SETTING", "VALUE")
		fmt.Fprintf(out, "  %-12s %s\n", "-------", "-----")
		for _, k := range config.Keys {
			v, _ := cfg.Get(k)
			fmt.Fprintf(out, "  %-12s %s\n", k, v)
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  file: %s\n", path)
		fmt.Fprintln(out)
		return nil

	case "get":
		if len(args) != 2 {
			return fmt.Errorf("%w: catalog config get <key>", errUsage)
		}
		cfg, err := config.LoadFrom(path)
		if err != nil {
			return err
		}
		v, ok := cfg.Get(args[1])
		if !ok {
			return fmt.Errorf("unknown setting %q (want one of %s)", args[1], strings.Join(config.Keys, ", "))
		}
		fmt.Fprintln(out, v)
		return nil

	case "set":
		if len(args) != 3 {
			return fmt.Errorf("%w: catalog config set <key> <value>", errUsage)
		}
		// Read without env overrides so only the named setting changes on disk.
		cfg, err := config.Read(path)
		if err != nil {
			return err
		}
		if err := cfg.Set(args[1], args[2]); err != nil {
			return err
		}
		if err := config.Save(path, cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		v, _ := cfg.Get(args[1])
		fmt.Fprintf(out, "Set %s = %s in %s.\n", args[1], v, path)
		return nil

	default:
		return fmt.Errorf("%w: unknown config command %q", errUsage, sub)
	}
}

// ---------------------------------------------------------------------------
// catalog twin
// ---------------------------------------------------------------------------

func (a *app) cmdTwin(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: catalog twin health|reset|seed <file>|requests", errUsage)
	}

	switch args[0] {
	case "health":
		ok, body := a.admin.Health(ctx)
		status := "unhealthy"
		if ok {
			status = "healthy"
		}
		fmt.Fprintf(a.out, "  %-20s %-11s %s\n", a.gw.BaseURL(), status, body)
		if !ok {
			return errors.New("twin is not healthy")
		}
		return nil

	case "reset":
		if _, err := a.admin.Reset(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Twin state reset.")
		return nil

	case "seed":
		if len(args) != 2 {
			return fmt.Errorf("%w: catalog twin seed <file>", errUsage)
		}
		if _, err := a.admin.Seed(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Seeded twin from %s.\n", args[1])
		return nil

	case "requests":
		raw, err := a.admin.Requests(ctx)
		if err != nil {
			return err
		}
		var entries []twin.RequestLogEntry
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			return fmt.Errorf("decoding request log: %w", err)
		}
		if len(entries) == 0 {
			fmt.Fprintln(a.out, "No requests recorded.")
			return nil
		}
		fmt.Fprintln(a.out)
		fmt.Fprintf(a.out, "  %-8s %-24s %-7s %-10s %s\n", "METHOD", "PATH", "STATUS", "DURATION", "REQUEST ID")
		fmt.Fprintf(a.out, "  %-8s %-24s %-7s %-10s %s\n", "------", "----", "------", "--------", "----------")
		for _, e := range entries {
			fmt.Fprintf(a.out, "  %-8s %-24s %-7d %-10s %s\n", e.Method, e.Path, e.StatusCode, fmt.Sprintf("%dms", e.DurationMS), e.RequestID)
		}
		fmt.Fprintln(a.out)
		return nil

	default:
		return fmt.Errorf("%w: unknown twin command %q", errUsage, args[0])
	}
}
