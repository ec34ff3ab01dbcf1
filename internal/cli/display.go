package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/lattice/internal/presentation/tui"
	"github.com/aretw0/lattice/pkg/agents"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// display writes run output either for humans or as NDJSON.
type display struct {
	out      io.Writer
	json     bool
	headless bool
	tty      bool
	profile  termenv.Profile
	printer  *tui.Printer
}

func newDisplay(out io.Writer, jsonMode, headless bool) *display {
	d := &display{out: out, json: jsonMode, headless: headless, profile: termenv.Ascii}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		d.tty = true
		d.profile = termenv.EnvColorProfile()
	}
	d.printer = tui.NewPrinter(d.profile)
	return d
}

func (d *display) quiet() bool { return d.json || d.headless }

func (d *display) banner() {
	if d.quiet() || !d.tty {
		return
	}
	tui.PrintBanner(d.out, d.profile)
}

func (d *display) event(ev domain.Event) error {
	switch {
	case d.headless:
		return nil
	case d.json:
		return json.NewEncoder(d.out).Encode(ev)
	}
	line, err := d.printer.Render(ev)
	if err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	_, err = fmt.Fprintln(d.out, line)
	return err
}

// final prints the conversation transcript when the graph has one, or the
// terminal State as JSON otherwise.
func (d *display) final(state domain.State) error {
	if d.json {
		return nil
	}
	if history, err := agents.ToMessages(state[agents.DefaultChannel]); err == nil && len(history) > 0 && !d.headless {
		md := tui.Transcript(history)
		if d.tty {
			if rendered, err := tui.NewRenderer()(md); err == nil {
				md = rendered
			}
		}
		_, err := fmt.Fprintln(d.out, md)
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling state: %w", err)
	}
	_, err = fmt.Fprintln(d.out, string(data))
	return err
}
