package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"log/slog"
	"os"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/cbegin/dubsiren-go"
	"github.com/cbegin/dubsiren-go/internal/panel"
	"github.com/cbegin/dubsiren-go/internal/preset"
)

const (
	windowW      = 1040
	windowH      = 720
	minWindowW   = 900
	minWindowH   = 680

	textScale = 2
	charW     = 7 * textScale
	lineH     = 14 * textScale

	knobRowH = 52
	scopeLen = 8192
)

var (
	bgColor         = color.RGBA{192, 192, 192, 255}
	panelColor      = color.RGBA{192, 192, 192, 255}
	borderColor     = color.RGBA{128, 128, 128, 255}
	bevelLight      = color.RGBA{255, 255, 255, 255}
	bevelDarker     = color.RGBA{64, 64, 64, 255}
	sunkenBgColor   = color.RGBA{24, 24, 32, 255}
	sliderFillColor = color.RGBA{0, 0, 128, 255}
	ledOnColor      = color.RGBA{255, 40, 40, 255}
	ledOffColor     = color.RGBA{70, 20, 20, 255}
	waveColor       = color.RGBA{80, 200, 255, 220}
)

var presetKeys = [preset.NumPresets]ebiten.Key{
	ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3, ebiten.KeyDigit4, ebiten.KeyDigit5,
	ebiten.KeyDigit6, ebiten.KeyDigit7, ebiten.KeyDigit8, ebiten.KeyDigit9, ebiten.KeyDigit0,
}

// scope keeps the most recent output samples for display.
type scope struct {
	mu       sync.Mutex
	ring     []float32
	writePos int
}

func newScope() *scope {
	return &scope{ring: make([]float32, scopeLen)}
}

// Tap runs on the audio thread.
func (s *scope) Tap(samples []float32) {
	s.mu.Lock()
	for _, v := range samples {
		s.ring[s.writePos] = v
		s.writePos = (s.writePos + 1) % len(s.ring)
	}
	s.mu.Unlock()
}

func (s *scope) Snapshot(n int) []float32 {
	if n > len(s.ring) {
		n = len(s.ring)
	}
	out := make([]float32, n)
	s.mu.Lock()
	start := (s.writePos - n + len(s.ring)) % len(s.ring)
	for i := range out {
		out[i] = s.ring[(start+i)%len(s.ring)]
	}
	s.mu.Unlock()
	return out
}

type uiLayout struct {
	knobs   [panel.NumKnobs]image.Rectangle
	scope   image.Rectangle
	trigger image.Rectangle
	lfoGate image.Rectangle
	gate    image.Rectangle
	reset   image.Rectangle
	presets [preset.NumPresets]image.Rectangle
}

type game struct {
	player *dubsiren.Player
	panel  *panel.Panel
	scope  *scope

	scopeImg *ebiten.Image
	scopeW   int
	scopeH   int
	wavePeak float64

	dragging  panel.Knob
	mouseHeld panel.Button

	textCache map[string]*ebiten.Image
	viewW     int
	viewH     int
}

func newGame(bank *preset.Bank, cfg config) (*game, error) {
	sc := newScope()
	pl, err := dubsiren.NewPlayer(
		dubsiren.WithSampleRate(cfg.sampleRate),
		dubsiren.WithBackend(dubsiren.BackendEbiten),
		dubsiren.WithSampleTap(sc.Tap),
	)
	if err != nil {
		return nil, err
	}
	opts := []panel.Option{panel.WithLogger(slog.Default())}
	if cfg.presetPath != "" {
		opts = append(opts, panel.WithPresetFile(cfg.presetPath))
	}
	g := &game{
		player:    pl,
		panel:     panel.New(pl, bank, opts...),
		scope:     sc,
		dragging:  -1,
		mouseHeld: -1,
		textCache: make(map[string]*ebiten.Image, 256),
		viewW:     windowW,
		viewH:     windowH,
	}
	g.panel.DoTasks()
	if err := pl.Start(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *game) Update() error {
	g.handleKeys()
	g.handleMouse()
	g.panel.DoTasks()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)
	l := g.layoutRects()
	params := g.panel.Params()
	for k := panel.Knob(0); k < panel.NumKnobs; k++ {
		g.drawKnob(screen, l.knobs[k], k, knobValue(k, params))
	}
	g.drawScope(screen, l.scope)

	lfoLED, gateLED := g.panel.LEDs()
	g.drawButton(screen, l.trigger, "TRIGGER")
	g.drawButton(screen, l.lfoGate, "LFO GATE")
	g.drawLED(screen, l.lfoGate, lfoLED)
	g.drawButton(screen, l.gate, "GATE")
	g.drawLED(screen, l.gate, gateLED)
	g.drawButton(screen, l.reset, "RESET")
	for i, r := range l.presets {
		g.drawButton(screen, r, fmt.Sprint(i+1))
	}
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	outsideW = max(outsideW, minWindowW)
	outsideH = max(outsideH, minWindowH)
	g.viewW = outsideW
	g.viewH = outsideH
	return outsideW, outsideH
}

func (g *game) Close() { _ = g.player.Stop() }

func (g *game) layoutRects() uiLayout {
	var l uiLayout
	const pad = 12
	knobW := 440
	for k := range l.knobs {
		y := pad + k*(knobRowH+4)
		l.knobs[k] = image.Rect(pad, y, pad+knobW, y+knobRowH)
	}
	buttonsY := g.viewH - pad - 2*48 - 8
	l.scope = image.Rect(2*pad+knobW, pad, g.viewW-pad, buttonsY-pad)

	bw := (g.viewW - 2*pad - 3*8) / 4
	for i, r := range []*image.Rectangle{&l.trigger, &l.lfoGate, &l.gate, &l.reset} {
		x := pad + i*(bw+8)
		*r = image.Rect(x, buttonsY, x+bw, buttonsY+48)
	}
	pw := (g.viewW - 2*pad - (preset.NumPresets-1)*6) / preset.NumPresets
	py := buttonsY + 56
	for i := range l.presets {
		x := pad + i*(pw+6)
		l.presets[i] = image.Rect(x, py, x+pw, py+48)
	}
	return l
}

// handleKeys mirrors the front panel: space is the trigger button and the
// digit row is the preset keys, so holding space while pressing a digit
// saves a preset.
func (g *game) handleKeys() {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.panel.Press(panel.ButtonTrigger)
	}
	g.panel.Hold(panel.ButtonTrigger, ebiten.IsKeyPressed(ebiten.KeySpace) || g.mouseHeld == panel.ButtonTrigger)
	for i, key := range presetKeys {
		b := panel.PresetButton(i)
		if inpututil.IsKeyJustPressed(key) {
			g.panel.Press(b)
		}
		g.panel.Hold(b, ebiten.IsKeyPressed(key) || g.mouseHeld == b)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		g.panel.Press(panel.ButtonGate)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyL) {
		g.panel.Press(panel.ButtonLFOGateControl)
	}
}

func (g *game) handleMouse() {
	mx, my := ebiten.CursorPosition()
	l := g.layoutRects()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		for k, r := range l.knobs {
			if pointInRect(mx, my, r) {
				g.dragging = panel.Knob(k)
			}
		}
		switch {
		case pointInRect(mx, my, l.trigger):
			g.panel.Press(panel.ButtonTrigger)
			g.mouseHeld = panel.ButtonTrigger
		case pointInRect(mx, my, l.lfoGate):
			g.panel.Press(panel.ButtonLFOGateControl)
		case pointInRect(mx, my, l.gate):
			g.panel.Press(panel.ButtonGate)
		case pointInRect(mx, my, l.reset):
			g.panel.FactoryReset()
		}
		for i, r := range l.presets {
			if pointInRect(mx, my, r) {
				g.panel.Press(panel.PresetButton(i))
				g.mouseHeld = panel.PresetButton(i)
			}
		}
	}
	if g.dragging >= 0 && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		tx, tw := trackSpan(l.knobs[g.dragging])
		g.panel.SetKnob(g.dragging, clamp(float64(mx-tx)/float64(tw), 0, 1))
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		g.dragging = -1
		g.mouseHeld = -1
	}
}

func trackSpan(rect image.Rectangle) (x, w int) {
	return rect.Min.X + 12, rect.Dx() - 24
}

func knobValue(k panel.Knob, p dubsiren.Parameters) string {
	switch k {
	case panel.KnobLFOWaveform:
		return p.LFOWaveform.String()
	case panel.KnobLFOFrequency:
		return fmt.Sprintf("%.2f Hz", p.LFOFrequency)
	case panel.KnobLFOShape:
		return fmt.Sprintf("%.2f", p.LFOShape)
	case panel.KnobLFOAmplitude:
		return fmt.Sprintf("%+.0f Hz", p.LFOAmplitude)
	case panel.KnobVCOWaveform:
		return p.VCOWaveform.String()
	case panel.KnobVCOFrequency:
		return fmt.Sprintf("%.0f Hz", p.VCOFrequency)
	case panel.KnobDelayTime:
		return fmt.Sprintf("%.3f s", p.DelayTime)
	case panel.KnobDelayFeedback:
		return fmt.Sprintf("%.2f", p.DelayFeedback)
	case panel.KnobDelayFilter:
		return fmt.Sprintf("%s %.0f Hz", p.DelayFilter, p.DelayFilterHz)
	}
	return ""
}

func (g *game) drawKnob(screen *ebiten.Image, rect image.Rectangle, k panel.Knob, value string) {
	g.drawPanel(screen, rect)
	g.drawText(screen, k.String(), rect.Min.X+8, rect.Min.Y+4)
	g.drawText(screen, value, rect.Max.X-8-len(value)*charW, rect.Min.Y+4)

	trackX, trackW := trackSpan(rect)
	trackY := rect.Max.Y - 16
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), float64(trackW), 8, bevelDarker)
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), float64(trackW-1), 1, borderColor)
	fillW := int(float64(trackW) * g.panel.Knob(k))
	if fillW > 2 {
		ebitenutil.DrawRect(screen, float64(trackX+1), float64(trackY+1), float64(fillW-1), 6, sliderFillColor)
	}
	knobX := min(max(trackX+fillW-5, trackX-5), trackX+trackW-5)
	handle := image.Rect(knobX, trackY-4, knobX+10, trackY+12)
	ebitenutil.DrawRect(screen, float64(handle.Min.X), float64(handle.Min.Y), float64(handle.Dx()), float64(handle.Dy()), panelColor)
	drawBorder(screen, handle)
}

func (g *game) drawScope(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), sunkenBgColor)
	drawSunkenBorder(screen, rect)
	inner := image.Rect(rect.Min.X+8, rect.Min.Y+8, rect.Max.X-8, rect.Max.Y-8)
	width, height := inner.Dx(), inner.Dy()
	if width < 2 || height < 4 {
		return
	}
	if g.scopeImg == nil || g.scopeW != width || g.scopeH != height {
		g.scopeW, g.scopeH = width, height
		g.scopeImg = ebiten.NewImage(width, height)
	}
	g.scopeImg.Fill(color.RGBA{14, 16, 22, 255})
	g.drawWaveform(g.scopeImg, g.scope.Snapshot(scopeLen/4), width, height)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(inner.Min.X), float64(inner.Min.Y))
	screen.DrawImage(g.scopeImg, op)
}

func (g *game) drawWaveform(dst *ebiten.Image, samples []float32, width, height int) {
	midY := height / 2
	ebitenutil.DrawRect(dst, 0, float64(midY), float64(width), 1, color.RGBA{40, 44, 58, 100})

	// auto-gain: fast attack, slow release
	var peak float64
	for _, s := range samples {
		peak = max(peak, float64(max(s, -s)))
	}
	peak = max(peak, 0.01)
	if peak > g.wavePeak {
		g.wavePeak = g.wavePeak*0.3 + peak*0.7
	} else {
		g.wavePeak = g.wavePeak*0.995 + peak*0.005
	}
	g.wavePeak = max(g.wavePeak, 0.01)
	gain := float64(midY-2) / g.wavePeak

	start := findZeroCrossing(samples, len(samples)/2)
	visible := max(len(samples)-start, 2)
	prevY := midY - int(float64(samples[start])*gain)
	for px := 1; px < width; px++ {
		si := min(start+px*visible/width, len(samples)-1)
		y := midY - int(float64(samples[si])*gain)
		ebitenutil.DrawLine(dst, float64(px-1), float64(prevY), float64(px), float64(y), waveColor)
		prevY = y
	}
}

func findZeroCrossing(samples []float32, searchLen int) int {
	searchLen = min(searchLen, len(samples)-2)
	for i := 1; i < searchLen; i++ {
		if samples[i-1] <= 0 && samples[i] > 0 {
			return i
		}
	}
	return 0
}

func (g *game) drawLED(screen *ebiten.Image, rect image.Rectangle, on bool) {
	c := ledOffColor
	if on {
		c = ledOnColor
	}
	ebitenutil.DrawRect(screen, float64(rect.Min.X+10), float64(rect.Min.Y+rect.Dy()/2-5), 10, 10, c)
}

func (g *game) drawPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), panelColor)
	drawBorder(screen, rect)
}

func (g *game) drawButton(screen *ebiten.Image, rect image.Rectangle, label string) {
	g.drawPanel(screen, rect)
	x := rect.Min.X + (rect.Dx()-len(label)*charW)/2
	y := rect.Min.Y + (rect.Dy()-lineH)/2
	g.drawText(screen, label, x, y)
}

// drawBorder draws a raised bevel.
func drawBorder(screen *ebiten.Image, rect image.Rectangle) {
	x, y := float64(rect.Min.X), float64(rect.Min.Y)
	w, h := float64(rect.Dx()), float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, bevelLight)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, bevelLight)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelDarker)
	ebitenutil.DrawRect(screen, x+1, y+h-2, w-3, 1, borderColor)
	ebitenutil.DrawRect(screen, x+w-2, y+1, 1, h-3, borderColor)
}

// drawSunkenBorder draws a sunken bevel.
func drawSunkenBorder(screen *ebiten.Image, rect image.Rectangle) {
	x, y := float64(rect.Min.X), float64(rect.Min.Y)
	w, h := float64(rect.Dx()), float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, borderColor)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, borderColor)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelLight)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelLight)
}

func (g *game) drawText(screen *ebiten.Image, msg string, x, y int) {
	if msg == "" {
		return
	}
	img := g.textCache[msg]
	if img == nil {
		img = ebiten.NewImage(max(1, len(msg)*7), 14)
		ebitenutil.DebugPrintAt(img, msg, 0, 0)
		if len(g.textCache) > 2000 {
			g.textCache = make(map[string]*ebiten.Image, 256)
		}
		g.textCache[msg] = img
	}
	shadow := &ebiten.DrawImageOptions{}
	shadow.GeoM.Scale(textScale, textScale)
	shadow.GeoM.Translate(float64(x+2), float64(y+2))
	shadow.ColorScale.Scale(0, 0, 0, 1)
	screen.DrawImage(img, shadow)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(textScale, textScale)
	op.GeoM.Translate(float64(x), float64(y))
	screen.DrawImage(img, op)
}

func clamp(v, minV, maxV float64) float64 {
	return min(max(v, minV), maxV)
}

func pointInRect(x, y int, rect image.Rectangle) bool {
	return x >= rect.Min.X && x < rect.Max.X && y >= rect.Min.Y && y < rect.Max.Y
}

type config struct {
	sampleRate int
	presetPath string
}

func parseFlags(args []string) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("dubsiren_ui", flag.ContinueOnError)
	fs.IntVar(&cfg.sampleRate, "sample-rate", dubsiren.DefaultSampleRate, "output sample rate")
	fs.StringVar(&cfg.presetPath, "presets", "", "preset file (factory presets when empty)")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if cfg.sampleRate <= 0 {
		return config{}, fmt.Errorf("invalid -sample-rate %d", cfg.sampleRate)
	}
	return cfg, nil
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	bank := preset.NewBank()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.presetPath != "" {
		b, err := preset.LoadOrRestore(cfg.presetPath, slog.Default())
		if err != nil {
			log.Fatal(err)
		}
		bank = b
		w, err := preset.NewWatcher(cfg.presetPath, bank, slog.Default(), nil)
		if err != nil {
			log.Fatal(err)
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Printf("preset watcher: %v", err)
			}
		}()
	}

	g, err := newGame(bank, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer g.Close()

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(minWindowW, minWindowH, -1, -1)
	ebiten.SetWindowTitle("dub siren")
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
