package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dokzlo13/huepreset/internal/app"
	"github.com/dokzlo13/huepreset/internal/hue"
	"github.com/dokzlo13/huepreset/internal/ledger"
)

var errUsage = errors.New("invalid usage")

// commandApp is what the CLI commands need from the application.
type commandApp interface {
	Ping(ctx context.Context) (*app.BridgeInfo, error)
	Lights(ctx context.Context) (*hue.Preset, error)
	Light(ctx context.Context, id string) (*hue.Light, error)
	Apply(ctx context.Context, name string, p *hue.Preset) error
	RunScript(ctx context.Context, path string) error
	History(limit int) ([]*ledger.Entry, error)
	URL(segments ...string) string
}

var _ commandApp = (*app.App)(nil)

func runCommand(ctx context.Context, a commandApp, out io.Writer, name string, args []string) error {
	switch name {
	case "ping":
		return cmdPing(ctx, a, out)
	case "lights":
		return cmdLights(ctx, a, out, args)
	case "color":
		return cmdColor(ctx, a, args)
	case "set":
		return cmdSet(ctx, a, args)
	case "run":
		return cmdRun(ctx, a, args)
	case "history":
		return cmdHistory(a, out, args)
	case "url":
		_, err := fmt.Fprintln(out, a.URL(args...))
		return err
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
}

func cmdPing(ctx context.Context, a commandApp, out io.Writer) error {
	info, err := a.Ping(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s (%s %s)\napi %s, firmware %s\n",
		info.Name, info.ModelID, info.BridgeID, info.APIVersion, info.SwVersion)
	return err
}

func cmdLights(ctx context.Context, a commandApp, out io.Writer, args []string) error {
	var v any
	switch len(args) {
	case 0:
		p, err := a.Lights(ctx)
		if err != nil {
			return err
		}
		v = p
	case 1:
		l, err := a.Light(ctx, args[0])
		if err != nil {
			return err
		}
		v = l
	default:
		return fmt.Errorf("%w: lights takes at most one light id", errUsage)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func cmdColor(ctx context.Context, a commandApp, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: color needs an expression and at least one light id", errUsage)
	}
	expr := args[0]

	p := hue.NewPreset()
	for _, id := range args[1:] {
		p.AddRaw(id, nil)
	}
	if _, err := p.Color(expr); err != nil {
		return err
	}
	return a.Apply(ctx, "color "+expr, p)
}

func cmdSet(ctx context.Context, a commandApp, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: set needs a light id and at least one change", errUsage)
	}

	light := hue.NewLight(nil)
	if err := parseStateArgs(light.State(), args[1:]); err != nil {
		return err
	}
	return a.Apply(ctx, "set", hue.NewPreset().Add(args[0], light))
}

// parseStateArgs applies tokens like "on", "bri=0.5" or "transition=2s" to s.
func parseStateArgs(s *hue.State, args []string) error {
	for _, arg := range args {
		key, value, hasValue := strings.Cut(arg, "=")
		if !hasValue {
			switch key {
			case "on":
				s.On(true)
			case "off":
				s.Off(true)
			case "colorloop":
				s.Colorloop(true)
			case "blink":
				if _, err := s.Blink(hue.BlinkOnce); err != nil {
					return err
				}
			default:
				return fmt.Errorf("%w: unknown argument %q", errUsage, arg)
			}
			continue
		}

		switch key {
		case "bri", "hue", "sat":
			n, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("%w: %s must be a number: %q", errUsage, key, value)
			}
			switch key {
			case "bri":
				s.Bri(n)
			case "hue":
				s.Hue(n)
			case "sat":
				s.Sat(n)
			}
		case "transition":
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("%w: transition: %v", errUsage, err)
			}
			s.Transition(d)
		case "colorloop":
			on, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("%w: colorloop must be true or false: %q", errUsage, value)
			}
			s.Colorloop(on)
		case "blink":
			if _, err := s.Blink(value); err != nil {
				return err
			}
		case "color":
			if _, err := s.Color(value); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unknown argument %q", errUsage, arg)
		}
	}
	return nil
}

func cmdRun(ctx context.Context, a commandApp, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("%w: run takes at most one script path", errUsage)
	}
	var path string
	if len(args) == 1 {
		path = args[0]
	}
	return a.RunScript(ctx, path)
}

func cmdHistory(a commandApp, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	limit := fs.Int("n", 20, "Number of entries to show")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	entries, err := a.History(*limit)
	if errors.Is(err, app.ErrHistoryDisabled) {
		_, err := fmt.Fprintln(out, err)
		return err
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tEVENT\tPRESET\tLIGHTS\tRUN\tERROR")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format(time.DateTime),
			e.EventType,
			e.Preset,
			strings.Join(e.Lights, ","),
			shortID(e.RunID),
			e.Error,
		)
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
