// Command asteriskctl reviews the fill history and drives the bridge from a
// terminal. It reads the same ASTERISK_* configuration as the server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/example/asterisk/internal/assist"
	"github.com/example/asterisk/internal/config"
	"github.com/example/asterisk/internal/core"
	"github.com/example/asterisk/internal/desktop"
	"github.com/example/asterisk/internal/models"
	"github.com/example/asterisk/pkg/messagequeue"
)

const usage = `Usage: asteriskctl <command> [flags]

Commands:
  audit list [--limit N] [--cursor C]   list fill history, newest first
  audit get ID                          show one history entry
  audit clear                           delete the whole history
  audit path                            print the history file location
  fill --domain D [--url U] --field ID=VALUE...
                                        send a fill command to the running bridge
  analyze --label L --name N --type T --keys a,b,c
                                        ask the field assistant for a vault key
`

var errUsage = errors.New("invalid usage")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	// zap writes to stderr, so stdout stays valid JSON.
	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	state := core.NewState(cfg, logger)
	switch args[0] {
	case "audit":
		return runAudit(desktop.NewCommands(state, desktop.WithLogger(logger)), args[1:], stdout, stderr)
	case "fill":
		state.Commands = messagequeue.NewHTTPQueue(cfg.ListenAddr, nil, logger.Named("bridge_client"))
		cmds := desktop.NewCommands(state, desktop.WithFillCommandTTL(cfg.FillCommandTTL), desktop.WithLogger(logger))
		return runFill(cmds, args[1:], stdout, stderr)
	case "analyze":
		var opts []desktop.Option
		if cfg.AnthropicAPIKey != "" {
			analyzer, err := assist.NewAnthropicAnalyzer(func(o *assist.Options) {
				o.APIKey = cfg.AnthropicAPIKey
				o.Model = cfg.AnthropicModel
				o.Logger = logger.Named("assist")
			})
			if err != nil {
				return err
			}
			opts = append(opts, desktop.WithAnalyzer(analyzer))
		}
		return runAnalyze(desktop.NewCommands(state, opts...), args[1:], stdout, stderr)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return errUsage
	}
}

func runAudit(cmds *desktop.Commands, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}
	switch args[0] {
	case "list":
		flagSet := pflag.NewFlagSet("audit list", pflag.ContinueOnError)
		flagSet.SetOutput(stderr)
		limit := flagSet.Int("limit", 0, "page size (default 50, max 100)")
		cursor := flagSet.Int("cursor", 0, "offset returned as nextCursor by the previous page")
		if err := flagSet.Parse(args[1:]); err != nil {
			return err
		}
		var limitArg, cursorArg *int
		if flagSet.Changed("limit") {
			limitArg = limit
		}
		if flagSet.Changed("cursor") {
			cursorArg = cursor
		}
		page, err := cmds.AuditList(limitArg, cursorArg)
		if err != nil {
			return err
		}
		return writeJSON(stdout, page)
	case "get":
		if len(args) != 2 {
			fmt.Fprintln(stderr, "usage: asteriskctl audit get ID")
			return errUsage
		}
		entry, err := cmds.AuditGet(args[1])
		if err != nil {
			return err
		}
		if entry == nil {
			return fmt.Errorf("audit entry %q not found", args[1])
		}
		return writeJSON(stdout, entry)
	case "clear":
		if err := cmds.AuditClear(); err != nil {
			return err
		}
		return writeJSON(stdout, map[string]string{"status": "ok"})
	case "path":
		fmt.Fprintln(stdout, cmds.AuditPath())
		return nil
	default:
		fmt.Fprintf(stderr, "unknown audit command %q\n\n%s", args[0], usage)
		return errUsage
	}
}

func runFill(cmds *desktop.Commands, args []string, stdout, stderr io.Writer) error {
	flagSet := pflag.NewFlagSet("fill", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	domain := flagSet.String("domain", "", "domain of the tab to fill (required)")
	targetURL := flagSet.String("url", "", "restrict the command to this page URL")
	fields := flagSet.StringArray("field", nil, "field to fill as ID=VALUE (repeatable)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if *domain == "" {
		return fmt.Errorf("--domain is required")
	}

	fills := make([]models.FieldFill, 0, len(*fields))
	for _, f := range *fields {
		id, value, ok := strings.Cut(f, "=")
		if !ok || id == "" {
			return fmt.Errorf("invalid --field %q, expected ID=VALUE", f)
		}
		fills = append(fills, models.FieldFill{FieldID: id, Value: value})
	}

	var urlArg *string
	if flagSet.Changed("url") {
		urlArg = targetURL
	}
	cmd, err := cmds.SendFillCommand(*domain, urlArg, fills)
	if err != nil {
		return err
	}
	return writeJSON(stdout, cmd)
}

func runAnalyze(cmds *desktop.Commands, args []string, stdout, stderr io.Writer) error {
	flagSet := pflag.NewFlagSet("analyze", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	var req assist.FieldRequest
	flagSet.StringVar(&req.Label, "label", "", "visible field label")
	flagSet.StringVar(&req.Name, "name", "", "name attribute")
	flagSet.StringVar(&req.Type, "type", "text", "input type")
	placeholder := flagSet.String("placeholder", "", "placeholder text")
	semantic := flagSet.String("semantic", "", "semantic hint from the extension")
	flagSet.StringSliceVar(&req.AvailableKeys, "keys", nil, "comma-separated vault keys to choose from")
	timeout := flagSet.Duration("timeout", 30*time.Second, "request timeout")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.Changed("placeholder") {
		req.Placeholder = placeholder
	}
	if flagSet.Changed("semantic") {
		req.Semantic = semantic
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	suggestion, err := cmds.AnalyzeField(ctx, req)
	if err != nil {
		if errors.Is(err, desktop.ErrAssistUnavailable) {
			return fmt.Errorf("%w: set %s_ANTHROPIC_API_KEY", err, config.EnvPrefix)
		}
		return err
	}
	return writeJSON(stdout, suggestion)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
