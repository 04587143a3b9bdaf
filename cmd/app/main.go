package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/explode/internal"
	"github.com/starford/explode/internal/commands"
	"github.com/starford/explode/internal/datetoken"
	"github.com/starford/explode/internal/mdoutline"
	pkgconfig "github.com/starford/explode/pkg/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const stdinArg = "-"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

// readInput returns the content named by the first argument, stdin for "-"
// or no argument.
func readInput(cmd *cli.Command, stdin io.Reader) (string, []byte, error) {
	name := cmd.Args().First()
	if name == "" || name == stdinArg {
		data, err := io.ReadAll(stdin)
		return stdinArg, data, err
	}
	data, err := os.ReadFile(name)
	return name, data, err
}

// commandAction runs one outline command on a file or stdin.
func commandAction(registry *commands.Registry, id string, stdin io.Reader, stdout io.Writer) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		name, data, err := readInput(cmd, stdin)
		if err != nil {
			return err
		}
		write := cmd.Bool("write")
		if write && name == stdinArg {
			return errors.New("--write needs a file argument")
		}

		out, err := registry.Run(ctx, id, commands.Input{File: name, Text: string(data)})
		if err != nil {
			return err
		}

		if !write {
			_, err = io.WriteString(stdout, out)
			return err
		}
		if out == string(data) {
			return nil
		}
		info, err := os.Stat(name)
		if err != nil {
			return err
		}
		return os.WriteFile(name, []byte(out), info.Mode().Perm())
	}
}

// datesAction prints the date annotations of a file or stdin, one per line.
func datesAction(stdin io.Reader, stdout io.Writer) cli.ActionFunc {
	return func(_ context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if g := cmd.String("grammar"); g != "" {
			cfg.Dates.Grammar = g
		}
		grammar, err := datetoken.ParseGrammar(cfg.Dates.Grammar)
		if err != nil {
			return err
		}

		_, data, err := readInput(cmd, stdin)
		if err != nil {
			return err
		}

		dec := datetoken.NewDecorator(grammar, datetoken.WithLocation(cfg.Dates.Location()))
		vs := datetoken.ViewState{LivePreview: !cmd.Bool("source")}
		for _, a := range dec.Decorate(string(data), vs) {
			if a.Widget != nil {
				r := a.Widget.Render(cfg.Dates.LocaleValue())
				_, err = fmt.Fprintf(stdout, "%d-%d\t%s\t%s\t%s %s\n", a.From, a.To, a.Kind, a.Widget.Label, r.Date, r.Time)
			} else {
				_, err = fmt.Fprintf(stdout, "%d-%d\t%s\t%s\n", a.From, a.To, a.Kind, a.Class)
			}
			if err != nil {
				return err
			}
		}
		return nil
	}
}

func newApp(stdin io.Reader, stdout io.Writer) *cli.Command {
	registry := commands.NewRegistry(mdoutline.NewParser())

	cmds := []*cli.Command{
		{
			Name:   "serve",
			Usage:  "Serve the HTTP API over the vault",
			Action: serve,
		},
		{
			Name:   "mcp",
			Usage:  "Serve the MCP tools on stdin/stdout",
			Action: serveMCP,
		},
	}
	for _, c := range registry.List() {
		cmds = append(cmds, &cli.Command{
			Name:      c.ID,
			Usage:     c.Name,
			ArgsUsage: "[file|-]",
			Action:    commandAction(registry, c.ID, stdin, stdout),
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:    "write",
					Aliases: []string{"w"},
					Usage:   "Write the result back to the file",
				},
			},
		})
	}
	cmds = append(cmds, &cli.Command{
		Name:      "dates",
		Usage:     "List the date token annotations of a document",
		ArgsUsage: "[file|-]",
		Action:    datesAction(stdin, stdout),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "grammar",
				Usage: "Date grammar: basic or strict (default from config)",
			},
			&cli.BoolFlag{
				Name:  "source",
				Usage: "Annotate as in source mode",
			},
		},
	})

	return &cli.Command{
		Name:     "explode",
		Usage:    "Convert Markdown between prose and one-sentence-per-item outlines",
		Version:  version,
		Action:   serve,
		Commands: cmds,
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
	}
}

func main() {
	// Subcommands print documents on stdout; logs go to stderr until serve
	// installs its own logger.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	if err := newApp(os.Stdin, os.Stdout).Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
