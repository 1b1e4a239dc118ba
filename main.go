// Command jarvisfi runs the JarvisFi personal finance assistant: the HTTP
// API, schema migrations, offline calculators and profile import/export.
//
// @title JarvisFi API
// @version 2.0
// @description Multilingual personal finance assistant: chat, calculators, farmer tools, currency, voice and community.
// @contact.name API Support
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/user/jarvisfi-go/config"
	"github.com/user/jarvisfi-go/db"
	"github.com/user/jarvisfi-go/finance"
	"github.com/user/jarvisfi-go/logging"
	"github.com/user/jarvisfi-go/security"
	"github.com/user/jarvisfi-go/users"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "jarvisfi",
		Usage:   "multilingual personal finance assistant",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serveAction,
			},
			{
				Name:  "migrate",
				Usage: "manage the database schema",
				Subcommands: []*cli.Command{
					{Name: "up", Usage: "apply every pending migration", Action: migrateAction("up")},
					{Name: "down", Usage: "roll back one migration", Action: migrateAction("down")},
					{Name: "version", Usage: "print the schema version", Action: migrateAction("version")},
				},
			},
			calcCommand(),
			profileCommand(),
			{
				Name:  "version",
				Usage: "print the build version",
				Action: func(c *cli.Context) error {
					_, err := fmt.Fprintln(c.App.Writer, version)
					return err
				},
			},
		},
	}
}

// environment loads .env and the configuration, then builds the logger.
func environment() (*config.AppConfig, *zap.Logger, error) {
	envErr := godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if version != "dev" {
		cfg.App.Version = version
	}
	logger, err := logging.New(logging.Config{
		Environment: cfg.App.Environment,
		LogLevel:    cfg.App.LogLevel,
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
	})
	if err != nil {
		return nil, nil, err
	}
	zap.ReplaceGlobals(logger)
	if envErr != nil {
		logger.Debug(".env not loaded", zap.Error(envErr))
	}
	return cfg, logger, nil
}

func migrateAction(direction string) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, logger, err := environment()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		mg, err := db.NewMigrator(cfg.DB, logger)
		if err != nil {
			return err
		}
		defer mg.Close()

		switch direction {
		case "up":
			return mg.Up()
		case "down":
			return mg.Down()
		}
		v, dirty, err := mg.Version()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(c.App.Writer, "version %d (dirty: %t)\n", v, dirty)
		return err
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func calcCommand() *cli.Command {
	return &cli.Command{
		Name:  "calc",
		Usage: "run a financial calculator offline",
		Subcommands: []*cli.Command{
			{
				Name:  "emi",
				Usage: "monthly instalment of a loan",
				Flags: []cli.Flag{
					&cli.Float64Flag{Name: "principal", Required: true, Usage: "loan amount in rupees"},
					&cli.Float64Flag{Name: "rate", Required: true, Usage: "annual interest rate in percent"},
					&cli.IntFlag{Name: "years", Required: true, Usage: "tenure in years"},
				},
				Action: func(c *cli.Context) error {
					principal, rate, years := c.Float64("principal"), c.Float64("rate"), c.Int("years")
					emi, err := finance.EMI(principal, rate, years)
					if err != nil {
						return err
					}
					total := emi * float64(years*12)
					return printJSON(c.App.Writer, map[string]float64{
						"emi":            emi,
						"total_amount":   total,
						"total_interest": total - principal,
					})
				},
			},
			{
				Name:  "sip",
				Usage: "future value of a monthly investment",
				Flags: []cli.Flag{
					&cli.Float64Flag{Name: "monthly", Required: true, Usage: "monthly contribution in rupees"},
					&cli.Float64Flag{Name: "rate", Required: true, Usage: "expected annual return in percent"},
					&cli.IntFlag{Name: "years", Required: true, Usage: "duration in years"},
				},
				Action: func(c *cli.Context) error {
					res, err := finance.SIPFutureValue(c.Float64("monthly"), c.Float64("rate"), c.Int("years"))
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, res)
				},
			},
			{
				Name:  "tax",
				Usage: "income tax under one regime, or both compared",
				Flags: []cli.Flag{
					&cli.Float64Flag{Name: "income", Required: true, Usage: "annual income in rupees"},
					&cli.StringFlag{Name: "regime", Usage: "old or new; both are compared when empty"},
					&cli.Float64Flag{Name: "80c", Usage: "section 80C investments"},
					&cli.Float64Flag{Name: "80d", Usage: "section 80D health insurance"},
					&cli.Float64Flag{Name: "hra", Usage: "HRA exemption"},
					&cli.Float64Flag{Name: "other", Usage: "other deductions"},
				},
				Action: func(c *cli.Context) error {
					d := finance.Deductions{
						Section80C: c.Float64("80c"),
						Section80D: c.Float64("80d"),
						HRA:        c.Float64("hra"),
						Other:      c.Float64("other"),
					}
					if c.String("regime") == "" {
						res, err := finance.CompareRegimes(c.Float64("income"), d)
						if err != nil {
							return err
						}
						return printJSON(c.App.Writer, res)
					}
					res, err := finance.CalculateTax(c.Float64("income"), finance.NormalizeRegime(c.String("regime")), d)
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, res)
				},
			},
		},
	}
}

// userService opens just enough of the stack to run profile commands.
func userService() (*users.UserService, func(), error) {
	cfg, logger, err := environment()
	if err != nil {
		return nil, nil, err
	}
	sec, err := security.NewManager(*cfg.Auth)
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		pool.Close()
		_ = logger.Sync()
	}
	return users.NewUserService(users.NewPgStore(pool), sec, cfg.App.Version, logger), closeFn, nil
}

func profileCommand() *cli.Command {
	userFlag := func() cli.Flag { return &cli.StringFlag{Name: "user", Required: true, Usage: "user id"} }
	return &cli.Command{
		Name:  "profile",
		Usage: "export or import a user profile as JSON",
		Subcommands: []*cli.Command{
			{
				Name:  "export",
				Usage: "write a user's profile to a file, or stdout",
				Flags: []cli.Flag{userFlag(), &cli.StringFlag{Name: "out", Usage: "output file; stdout when empty"}},
				Action: func(c *cli.Context) error {
					id, err := uuid.Parse(c.String("user"))
					if err != nil {
						return fmt.Errorf("invalid user id: %w", err)
					}
					svc, closeFn, err := userService()
					if err != nil {
						return err
					}
					defer closeFn()

					exp, err := svc.ExportProfile(c.Context, id)
					if err != nil {
						return err
					}
					if c.String("out") == "" {
						return printJSON(c.App.Writer, exp)
					}
					f, err := os.Create(c.String("out"))
					if err != nil {
						return err
					}
					if err := printJSON(f, exp); err != nil {
						_ = f.Close()
						return err
					}
					return f.Close()
				},
			},
			{
				Name:  "import",
				Usage: "apply a previously exported profile to a user",
				Flags: []cli.Flag{userFlag(), &cli.StringFlag{Name: "in", Required: true, Usage: "export file"}},
				Action: func(c *cli.Context) error {
					id, err := uuid.Parse(c.String("user"))
					if err != nil {
						return fmt.Errorf("invalid user id: %w", err)
					}
					raw, err := os.ReadFile(c.String("in"))
					if err != nil {
						return err
					}
					var exp users.ProfileExport
					if err := json.Unmarshal(raw, &exp); err != nil {
						return fmt.Errorf("parse %s: %w", c.String("in"), err)
					}
					svc, closeFn, err := userService()
					if err != nil {
						return err
					}
					defer closeFn()

					res, err := svc.ImportProfile(c.Context, id, &exp)
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, res)
				},
			},
		},
	}
}
