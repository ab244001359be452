package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/raido/internal"
	"github.com/starford/raido/internal/mcpserver"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/mover"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/validator"
	"github.com/starford/raido/internal/vaultservice"
	pkgconfig "github.com/starford/raido/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	configPath := cmd.String("config")
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		// CLI subcommands work without a config file when --vault is given.
		if vault := cmd.String("vault"); vault != "" {
			cfg.Vault.Path = vault
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if vault := cmd.String("vault"); vault != "" {
		cfg.Vault.Path = vault
	}
	return cfg, nil
}

// newService builds a vault service for one CLI invocation. CLI commands log
// to stderr so stdout stays clean for JSON output.
func newService(cmd *cli.Command) (*vaultservice.Service, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	store, err := storage.NewFS(cfg.Vault.Path, cfg.Vault.ExcludeFolders)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	return vaultservice.New(store, vaultservice.Settings{
		CaseSensitive: cfg.Vault.CaseSensitive,
	}, logger), nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(_ context.Context, cmd *cli.Command) error {
	svc, err := newService(cmd)
	if err != nil {
		return err
	}
	return mcpserver.New(svc).ServeStdio()
}

func runMove(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 || len(args)%2 != 0 {
		return fmt.Errorf("move expects FROM TO pairs, got %d arguments", len(args))
	}
	moves := make([]models.Move, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		moves = append(moves, models.Move{From: args[i], To: args[i+1]})
	}
	svc, err := newService(cmd)
	if err != nil {
		return err
	}
	report, err := svc.ApplyMoves(ctx, moves, mover.Options{
		DryRun: cmd.Bool("dry-run"),
		Force:  cmd.Bool("force"),
	})
	if err != nil {
		return err
	}
	return printJSON(report)
}

func runCheck(ctx context.Context, cmd *cli.Command) error {
	svc, err := newService(cmd)
	if err != nil {
		return err
	}
	opts := validator.Options{Fix: cmd.Bool("fix")}
	switch cmd.String("type") {
	case "":
	case "wiki":
		opts.Types = []models.LinkType{models.LinkTypeWiki}
	case "markdown":
		opts.Types = []models.LinkType{models.LinkTypeMarkdown}
	default:
		return fmt.Errorf("type must be wiki or markdown")
	}
	report, err := svc.ValidateLinks(ctx, opts)
	if err != nil {
		return err
	}
	return printJSON(report)
}

func runStats(ctx context.Context, cmd *cli.Command) error {
	svc, err := newService(cmd)
	if err != nil {
		return err
	}
	report, err := svc.AnalyzeVault(ctx)
	if err != nil {
		return err
	}
	return printJSON(report)
}

func runSearch(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return fmt.Errorf("search expects a query argument")
	}
	svc, err := newService(cmd)
	if err != nil {
		return err
	}
	hits, err := svc.Search(ctx, cmd.Args().First(), int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	return printJSON(hits)
}

func main() {
	vaultFlag := &cli.StringFlag{
		Name:  "vault",
		Usage: "Path to the vault directory (overrides config)",
	}

	cmd := &cli.Command{
		Name:  "raido",
		Usage: "Markdown vault link integrity: parse, index, move, validate, and analyze",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API server with file watching and SSE",
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Serve vault tools over MCP stdio",
				Flags:  []cli.Flag{vaultFlag},
				Action: runMCP,
			},
			{
				Name:      "move",
				Usage:     "Move or rename notes and folders, rewriting links",
				ArgsUsage: "FROM TO [FROM TO ...]",
				Flags: []cli.Flag{
					vaultFlag,
					&cli.BoolFlag{Name: "dry-run", Usage: "Report planned changes without writing"},
					&cli.BoolFlag{Name: "force", Usage: "Overwrite existing destination files"},
				},
				Action: runMove,
			},
			{
				Name:  "check",
				Usage: "Find broken links and suggest or apply repairs",
				Flags: []cli.Flag{
					vaultFlag,
					&cli.BoolFlag{Name: "fix", Usage: "Apply unambiguous repairs"},
					&cli.StringFlag{Name: "type", Usage: "Restrict to link type: wiki or markdown"},
				},
				Action: runCheck,
			},
			{
				Name:   "stats",
				Usage:  "Print vault analytics: orphans, tags, graph connectivity",
				Flags:  []cli.Flag{vaultFlag},
				Action: runStats,
			},
			{
				Name:      "search",
				Usage:     "Full-text search over the vault",
				ArgsUsage: "QUERY",
				Flags: []cli.Flag{
					vaultFlag,
					&cli.IntFlag{Name: "limit", Usage: "Maximum results", Value: 20},
				},
				Action: runSearch,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
