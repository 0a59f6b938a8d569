// Package preset stores the ten preset slots in a checksummed binary file
// and reloads them when the file changes.
package preset

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/cbegin/dubsiren-go/internal/lfo"
	"github.com/cbegin/dubsiren-go/internal/synth"
)

// FormatVersion is the version written into new preset files.
const FormatVersion = "1.0.0"

// compatible is the range of file versions this package reads.
const compatible = "^1.0"

var magic = [4]byte{'D', 'S', 'R', 'N'}

var (
	ErrMagic    = errors.New("preset: not a preset file")
	ErrVersion  = errors.New("preset: incompatible file version")
	ErrChecksum = errors.New("preset: checksum mismatch")
)

type header struct {
	Magic   [4]byte
	Version [12]byte // NUL-padded semantic version
}

// record is the fixed little-endian layout of one preset.
type record struct {
	LFOWaveform    int32
	LFOShape       float32
	LFOFrequency   float32
	LFOAmplitude   float32
	LFOGateControl uint8
	_              [3]byte
	VCOWaveform    int32
	VCOFrequency   float32
	DelayTime      float32
	DelayFeedback  float32
	DelayFilter    int32
	DelayFilterHz  float32
}

func toRecord(p synth.Parameters) record {
	r := record{
		LFOWaveform:   int32(p.LFOWaveform),
		LFOShape:      float32(p.LFOShape),
		LFOFrequency:  float32(p.LFOFrequency),
		LFOAmplitude:  float32(p.LFOAmplitude),
		VCOWaveform:   int32(p.VCOWaveform),
		VCOFrequency:  float32(p.VCOFrequency),
		DelayTime:     float32(p.DelayTime),
		DelayFeedback: float32(p.DelayFeedback),
		DelayFilter:   int32(p.DelayFilter),
		DelayFilterHz: float32(p.DelayFilterHz),
	}
	if p.LFOGateControl {
		r.LFOGateControl = 1
	}
	return r
}

func (r record) parameters() synth.Parameters {
	return synth.Parameters{
		LFOWaveform:    lfo.Waveform(r.LFOWaveform),
		LFOShape:       float64(r.LFOShape),
		LFOFrequency:   float64(r.LFOFrequency),
		LFOAmplitude:   float64(r.LFOAmplitude),
		LFOGateControl: r.LFOGateControl != 0,
		VCOWaveform:    synth.VCOWaveform(r.VCOWaveform),
		VCOFrequency:   float64(r.VCOFrequency),
		DelayTime:      float64(r.DelayTime),
		DelayFeedback:  float64(r.DelayFeedback),
		DelayFilter:    synth.DelayFilter(r.DelayFilter),
		DelayFilterHz:  float64(r.DelayFilterHz),
	}.Sanitize()
}

// Bank holds the preset slots. It is safe for concurrent use.
type Bank struct {
	mu      sync.RWMutex
	presets [NumPresets]synth.Parameters
}

// NewBank returns a bank holding the factory presets.
func NewBank() *Bank {
	return &Bank{presets: Factory()}
}

// Get returns preset i. Out-of-range keys return the default parameters.
func (b *Bank) Get(i int) synth.Parameters {
	if i < 0 || i >= NumPresets {
		return synth.DefaultParameters()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.presets[i]
}

// Set stores p in slot i. Out-of-range keys are ignored.
func (b *Bank) Set(i int, p synth.Parameters) {
	if i < 0 || i >= NumPresets {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presets[i] = p.Sanitize()
}

// Presets returns a copy of every slot.
func (b *Bank) Presets() [NumPresets]synth.Parameters {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.presets
}

// Replace overwrites every slot.
func (b *Bank) Replace(presets [NumPresets]synth.Parameters) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, p := range presets {
		b.presets[i] = p.Sanitize()
	}
}

// Restore resets every slot to the factory presets.
func (b *Bank) Restore() {
	b.Replace(Factory())
}

// WriteTo encodes the bank: header, records, then an int32 checksum that
// brings the byte sum of records and checksum to zero.
func (b *Bank) WriteTo(w io.Writer) (int64, error) {
	presets := b.Presets()

	var body bytes.Buffer
	h := header{Magic: magic}
	copy(h.Version[:], FormatVersion)
	if err := binary.Write(&body, binary.LittleEndian, h); err != nil {
		return 0, err
	}
	start := body.Len()
	for _, p := range presets {
		if err := binary.Write(&body, binary.LittleEndian, toRecord(p)); err != nil {
			return 0, err
		}
	}
	sum := byteSum(body.Bytes()[start:])
	if err := binary.Write(&body, binary.LittleEndian, -sum); err != nil {
		return 0, err
	}
	return body.WriteTo(w)
}

// ReadFrom decodes a bank written by WriteTo. The bank is only modified
// when the whole file verifies.
func (b *Bank) ReadFrom(r io.Reader) (int64, error) {
	cr := &countingReader{r: bufio.NewReader(r)}

	var h header
	if err := binary.Read(cr, binary.LittleEndian, &h); err != nil {
		return cr.n, fmt.Errorf("read header: %w", err)
	}
	if h.Magic != magic {
		return cr.n, ErrMagic
	}
	if err := checkVersion(h.Version[:]); err != nil {
		return cr.n, err
	}

	raw := make([]byte, NumPresets*binary.Size(record{}))
	if _, err := io.ReadFull(cr, raw); err != nil {
		return cr.n, fmt.Errorf("read presets: %w", err)
	}
	var checksum int32
	if err := binary.Read(cr, binary.LittleEndian, &checksum); err != nil {
		return cr.n, fmt.Errorf("read checksum: %w", err)
	}
	if byteSum(raw)+checksum != 0 {
		return cr.n, ErrChecksum
	}

	var recs [NumPresets]record
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &recs); err != nil {
		return cr.n, fmt.Errorf("decode presets: %w", err)
	}
	var presets [NumPresets]synth.Parameters
	for i, rec := range recs {
		presets[i] = rec.parameters()
	}
	b.Replace(presets)
	return cr.n, nil
}

func checkVersion(field []byte) error {
	raw := string(bytes.TrimRight(field, "\x00"))
	v, err := semver.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrVersion, raw)
	}
	c, err := semver.NewConstraint(compatible)
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrVersion, v, compatible)
	}
	return nil
}

func byteSum(b []byte) int32 {
	var sum int32
	for _, c := range b {
		sum += int32(c)
	}
	return sum
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Load reads a bank from path.
func Load(path string) (*Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	b := NewBank()
	if _, err := b.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return b, nil
}

// LoadOrRestore reads a bank from path. A missing, corrupt or incompatible
// file is replaced by the factory presets, which are saved back to path.
func LoadOrRestore(path string, logger *slog.Logger) (*Bank, error) {
	b, err := Load(path)
	if err == nil {
		logger.Info("preset checksum ok", "path", path)
		return b, nil
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("no preset file, writing factory presets", "path", path)
	case errors.Is(err, ErrChecksum), errors.Is(err, ErrVersion), errors.Is(err, ErrMagic), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		logger.Warn("preset file rejected, restoring factory presets", "path", path, "err", err)
	default:
		return nil, err
	}
	b = NewBank()
	if err := b.Save(path); err != nil {
		return nil, err
	}
	return b, nil
}

// Save writes the bank to path through a temporary file and rename so
// readers never see a partial file.
func (b *Bank) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".presets-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := b.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
