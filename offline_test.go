package dubsiren

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"

	intaudio "github.com/cbegin/dubsiren-go/internal/audio"
	intpreset "github.com/cbegin/dubsiren-go/internal/preset"
)

func digest(codes []int32) string {
	h := sha256.New()
	var b [4]byte
	for _, c := range codes {
		binary.LittleEndian.PutUint32(b[:], uint32(c))
		h.Write(b[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func TestRenderIsDeterministic(t *testing.T) {
	for i, p := range intpreset.Factory() {
		t.Run(intpreset.FactoryNames[i], func(t *testing.T) {
			a := Render(p, 48000, 0.25, true)
			b := Render(p, 48000, 0.25, true)
			if digest(a) != digest(b) {
				t.Fatal("two renders of the same preset differ")
			}
		})
	}
}

func TestRenderPresetsDiffer(t *testing.T) {
	presets := intpreset.Factory()
	seen := map[string]string{}
	for i, p := range presets {
		d := digest(Render(p, 48000, 0.25, true))
		if other, ok := seen[d]; ok {
			t.Fatalf("%s renders identically to %s", intpreset.FactoryNames[i], other)
		}
		seen[d] = intpreset.FactoryNames[i]
	}
}

func TestRenderLengthAndRange(t *testing.T) {
	codes := Render(DefaultParameters(), 96000, 0.5, false)
	if len(codes) != 48000 {
		t.Fatalf("rendered %d samples, want 48000", len(codes))
	}
	if codes[0] != 0 {
		t.Fatalf("first DAC code = %d, want 0", codes[0])
	}
	var peak int32
	for _, c := range codes {
		if c > intaudio.FullScale || c < -intaudio.FullScale {
			t.Fatalf("code %d out of 24-bit range", c)
		}
		if c < 0 {
			c = -c
		}
		if c > peak {
			peak = c
		}
	}
	// sine at 0.25 gain after the gate opens
	if peak < intaudio.FullScale/5 || peak > intaudio.FullScale/4+1 {
		t.Fatalf("peak code = %d", peak)
	}
}

func TestRenderZeroDuration(t *testing.T) {
	if codes := Render(DefaultParameters(), 96000, 0, false); len(codes) != 0 {
		t.Fatalf("rendered %d samples for zero duration", len(codes))
	}
}

func TestWriteWAVDecodes(t *testing.T) {
	codes := Render(intpreset.Factory()[0], 48000, 0.1, true)
	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteWAV(f, codes, 48000); err != nil {
		f.Close()
		t.Fatalf("WriteWAV: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		t.Fatal("not a valid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec.BitDepth != WAVBitDepth || dec.NumChans != 1 || dec.SampleRate != 48000 {
		t.Fatalf("format = %d bit, %d ch, %d Hz", dec.BitDepth, dec.NumChans, dec.SampleRate)
	}
	if len(buf.Data) != len(codes) {
		t.Fatalf("decoded %d samples, want %d", len(buf.Data), len(codes))
	}
	for i, c := range codes {
		if buf.Data[i] != int(c) {
			t.Fatalf("sample %d = %d, want %d", i, buf.Data[i], c)
		}
	}
}
