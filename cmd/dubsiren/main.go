package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/cbegin/dubsiren-go"
	"github.com/cbegin/dubsiren-go/internal/panel"
	"github.com/cbegin/dubsiren-go/internal/preset"
)

const (
	taskInterval = 10 * time.Millisecond
	knobStep     = 0.02
	ctrlC        = 0x03
)

// Knob keys: the home row turns a knob up, the row below turns it down.
var (
	knobUp   = "asdfghjkl"
	knobDown = "zxcvbnm,."
	saveKeys = "!@#$%^&*()"
)

const usage = `keys:
  space        trigger
  [            gate on/off
  ]            LFO gate control on/off
  1..0         recall preset
  shift+1..0   save preset
  a..l / z...  knob up / down (%s)
  R            restore factory presets
  Q, ctrl-c    quit
`

func main() {
	var (
		sampleRate = flag.Int("sample-rate", dubsiren.DefaultSampleRate, "output sample rate")
		backend    = flag.String("backend", "ebiten", "audio backend: ebiten|oto|none")
		presetPath = flag.String("presets", "", "preset file (factory presets when empty)")
		logLevel   = flag.String("log-level", "info", "log level: debug|info|warn|error")
		renderPath = flag.String("render", "", "render to a WAV file instead of playing")
		presetNum  = flag.Int("preset", 0, "preset key 1..10 to render (0 = power-on setting)")
		seconds    = flag.Float64("seconds", 4, "render duration")
	)
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		log.Fatalf("invalid -log-level %q", *logLevel)
	}
	logger := slog.New(slog.NewTextHandler(crlfWriter{os.Stderr}, &slog.HandlerOptions{Level: level}))

	bank := preset.NewBank()
	if *presetPath != "" {
		b, err := preset.LoadOrRestore(*presetPath, logger)
		if err != nil {
			log.Fatal(err)
		}
		bank = b
	}

	if *renderPath != "" {
		if err := render(*renderPath, bank, *presetNum, *sampleRate, *seconds); err != nil {
			log.Fatal(err)
		}
		return
	}

	b, err := liveBackend(*backend)
	if err != nil {
		log.Fatal(err)
	}
	if err := run(logger, bank, *presetPath, b, *sampleRate); err != nil {
		log.Fatal(err)
	}
}

// liveBackend parses a backend name for interactive use, where a device
// must pull the samples.
func liveBackend(name string) (dubsiren.Backend, error) {
	b, err := dubsiren.ParseBackend(name)
	if err != nil {
		return "", err
	}
	if b == dubsiren.BackendNone {
		return "", fmt.Errorf("-backend %s plays nothing; use -render for offline output", b)
	}
	return b, nil
}

func render(path string, bank *preset.Bank, key, sampleRate int, seconds float64) error {
	params := dubsiren.DefaultParameters()
	if key != 0 {
		if key < 1 || key > preset.NumPresets {
			return fmt.Errorf("invalid -preset %d (expected 1..%d)", key, preset.NumPresets)
		}
		params = bank.Get(key - 1)
	}
	codes := dubsiren.Render(params, sampleRate, seconds, key != 0)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := dubsiren.WriteWAV(f, codes, sampleRate); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d samples)\n", path, len(codes))
	return nil
}

func run(logger *slog.Logger, bank *preset.Bank, presetPath string, b dubsiren.Backend, sampleRate int) error {
	pl, err := dubsiren.NewPlayer(dubsiren.WithSampleRate(sampleRate), dubsiren.WithBackend(b))
	if err != nil {
		return err
	}
	opts := []panel.Option{panel.WithLogger(logger)}
	if presetPath != "" {
		opts = append(opts, panel.WithPresetFile(presetPath))
	}
	pnl := panel.New(pl, bank, opts...)
	pnl.DoTasks()
	if err := pl.Start(); err != nil {
		return err
	}
	defer pl.Stop()

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("stdin is not a terminal")
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer term.Restore(fd, oldState)

	names := make([]string, panel.NumKnobs)
	for k := panel.Knob(0); k < panel.NumKnobs; k++ {
		names[k] = k.String()
	}
	fmt.Fprintf(crlfWriter{os.Stdout}, usage, strings.Join(names, ", "))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, quit := context.WithCancel(ctx)
	defer quit()

	keys := make(chan byte)
	go readKeys(os.Stdin, keys)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t := time.NewTicker(taskInterval)
		defer t.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
				pnl.DoTasks()
			}
		}
	})
	if presetPath != "" {
		w, err := preset.NewWatcher(presetPath, bank, logger, nil)
		if err != nil {
			return err
		}
		g.Go(func() error { return w.Run(gctx) })
	}
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case k, ok := <-keys:
				if !ok || !handleKey(pnl, k) {
					quit()
					return nil
				}
			}
		}
	})
	return g.Wait()
}

// handleKey applies one key press to the panel. It returns false on quit.
func handleKey(p *panel.Panel, k byte) bool {
	switch {
	case k == 'Q' || k == ctrlC:
		return false
	case k == ' ':
		p.Press(panel.ButtonTrigger)
	case k == '[':
		p.Press(panel.ButtonGate)
	case k == ']':
		p.Press(panel.ButtonLFOGateControl)
	case k == 'R':
		p.FactoryReset()
	case k >= '0' && k <= '9':
		p.Press(panel.PresetButton(digitKey(k)))
	case bytes.IndexByte([]byte(saveKeys), k) >= 0:
		// hold trigger across one control tick
		p.Hold(panel.ButtonTrigger, true)
		p.Press(panel.PresetButton(bytes.IndexByte([]byte(saveKeys), k)))
		p.DoTasks()
		p.Hold(panel.ButtonTrigger, false)
	case strings.IndexByte(knobUp, k) >= 0:
		i := panel.Knob(strings.IndexByte(knobUp, k))
		p.SetKnob(i, p.Knob(i)+knobStep)
	case strings.IndexByte(knobDown, k) >= 0:
		i := panel.Knob(strings.IndexByte(knobDown, k))
		p.SetKnob(i, p.Knob(i)-knobStep)
	}
	return true
}

// digitKey maps '1'..'9' to keys 0..8 and '0' to key 9.
func digitKey(k byte) int {
	if k == '0' {
		return 9
	}
	return int(k - '1')
}

func readKeys(r io.Reader, out chan<- byte) {
	defer close(out)
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			out <- buf[0]
		}
		if err != nil {
			return
		}
	}
}

// crlfWriter restores carriage returns while the terminal is in raw mode.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
