package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/2beens/garminpartner/internal/app"
	"github.com/2beens/garminpartner/internal/config"
	"github.com/2beens/garminpartner/internal/garmin/connect"
	"github.com/2beens/garminpartner/internal/logging"
	"github.com/2beens/garminpartner/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/term"
)

var version = "dev"

var listOrders = map[string]string{
	"created": connect.OrderByCreatedDate,
	"updated": connect.OrderByUpdatedDate,
	"name":    connect.OrderByName,
}

const usage = `usage: garminpartner [-env env] [-config path] <command> [flags]

commands:
  login       sign in to Garmin Connect and store the session
  logout      remove the stored session
  status      show the stored session
  upload      upload a workout file or template
  preview     print the Connect payload of a workout
  templates   list built-in workout templates
  list        list workouts in Garmin Connect
  delete      delete a workout by id
  schedule    schedule a workout by id
  device      show the last used device
  history     show recent uploads
`

func main() {
	env := flag.String("env", "production", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*env, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %s\n", err)
		os.Exit(1)
	}

	logCloser := logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.LogsPath,
		LogToStdout:   cfg.LogToStdout,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogFormatJSON,
		Environment:   cfg.Environment,
		SentryEnabled: cfg.SentryEnabled,
		SentryDSN:     cfg.SentryDSN,
		Release:       version,
		RunID:         uuid.NewString(),
	})
	defer logCloser.Close()

	log.Debugf("running in [%s] environment, version %s", cfg.Environment, version)

	if cfg.HoneycombEnabled && cfg.HoneycombAPIKey == "" {
		log.Warnln("HONEYCOMB_API_KEY env var not set")
	}
	tracingShutdown, err := tracing.HoneycombSetup(cfg.HoneycombEnabled, "garminpartner")
	if err != nil {
		log.Errorf("honeycomb setup: %s", err)
		tracingShutdown = func() {}
	}
	defer tracingShutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, flag.Arg(0), flag.Args()[1:]); err != nil {
		if !errors.Is(err, app.ErrUploadFailed) {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
		}
		log.Debugf("command %s failed: %s", flag.Arg(0), err)
		// deferred closers do not run after os.Exit
		tracingShutdown()
		logCloser.Close()
		os.Exit(1)
	}
}

// loadConfig falls back to built-in defaults when the default config file is absent.
func loadConfig(env, path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && path == "./config.toml" {
		return config.FromEnv(env, os.Getenv)
	}
	return config.Load(env, path)
}

func run(ctx context.Context, cfg *config.Config, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)

	switch cmd {
	case "templates":
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeApp(a)
		a.Templates()
		return nil

	case "preview":
		file := fs.String("file", "", "workout TOML file")
		template := fs.String("template", "", "built-in workout template")
		if err := fs.Parse(args); err != nil {
			return err
		}
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeApp(a)
		return a.Preview(*file, *template)

	case "login":
		email := fs.String("email", "", "Garmin account email, GARMIN_EMAIL by default")
		if err := fs.Parse(args); err != nil {
			return err
		}
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeApp(a)

		if *email == "" {
			*email = cfg.Email
		}
		if *email == "" {
			if *email, err = promptLine("email: "); err != nil {
				return err
			}
		}
		password := cfg.Password
		if password == "" {
			if password, err = promptPassword("password: "); err != nil {
				return err
			}
		}
		return a.Login(ctx, *email, password)

	case "logout", "status", "device":
		if err := fs.Parse(args); err != nil {
			return err
		}
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeApp(a)
		switch cmd {
		case "logout":
			return a.Logout(ctx)
		case "status":
			return a.Status(ctx)
		default:
			return a.Device(ctx)
		}

	case "upload":
		params := app.UploadParams{}
		fs.StringVar(&params.File, "file", "", "workout TOML file")
		fs.StringVar(&params.Template, "template", "", "built-in workout template")
		fs.StringVar(&params.ScheduleOn, "schedule", "", "schedule on date (YYYY-MM-DD, today, tomorrow)")
		fs.Int64Var(&params.ReplaceID, "replace", 0, "id of an existing workout to overwrite")
		if err := fs.Parse(args); err != nil {
			return err
		}
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeApp(a)
		return a.Upload(ctx, params)

	case "list":
		limit := fs.Int("limit", 20, "max number of workouts")
		start := fs.Int("start", 0, "offset of the first workout")
		order := fs.String("order", "created", "order by [created | updated | name]")
		if err := fs.Parse(args); err != nil {
			return err
		}
		orderBy, ok := listOrders[*order]
		if !ok {
			return fmt.Errorf("unknown order %q", *order)
		}
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeApp(a)
		return a.List(ctx, connect.ListParams{
			Start:          *start,
			Limit:          *limit,
			OrderBy:        orderBy,
			MyWorkoutsOnly: true,
		})

	case "history":
		limit := fs.Int("limit", 20, "max number of rows")
		if err := fs.Parse(args); err != nil {
			return err
		}
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeApp(a)
		return a.History(ctx, *limit)

	case "delete", "schedule":
		id := fs.Int64("id", 0, "workout id")
		date := fs.String("date", "today", "date (YYYY-MM-DD, today, tomorrow)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id == 0 {
			return errors.New("-id is required")
		}
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeApp(a)
		if cmd == "delete" {
			return a.Delete(ctx, *id)
		}
		return a.Schedule(ctx, *id, *date)

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app.App, error) {
	return app.NewApp(ctx, app.NewAppParams{
		Config:         cfg,
		MFAPrompt:      promptMFA,
		Out:            os.Stdout,
		TracingEnabled: cfg.HoneycombEnabled,
	})
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		log.Errorf("close: %s", err)
	}
}

func promptMFA(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return promptLine("MFA code: ")
}

var stdin = bufio.NewReader(os.Stdin)

func promptLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptLine(prompt)
	}
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(password), nil
}
