package preset

import (
	"github.com/cbegin/dubsiren-go/internal/lfo"
	"github.com/cbegin/dubsiren-go/internal/synth"
)

// NumPresets is the number of preset keys.
const NumPresets = 10

// Factory returns the built-in preset set, one per key.
func Factory() [NumPresets]synth.Parameters {
	return [NumPresets]synth.Parameters{
		factoryPreset(lfo.WaveSawtooth, 0.870488, 0.918656, -105.533592, true, synth.VCOSquare, 182.045883, 0.380044, 0.284430, 6879.085938),
		factoryPreset(lfo.WaveSteppedSawtooth, 0.748286, 1.156882, 466.714294, true, synth.VCOPulse, 471.714294, 0.380060, 0.284444, 6879.655273),
		factoryPreset(lfo.WaveSquare, 0.347211, 5.576817, 374.693115, true, synth.VCOSquare, 1380.171265, 0.380063, 0.284503, 6878.091309),
		factoryPreset(lfo.WaveSteppedSawtooth, 1, 0.418580, -716.046814, true, synth.VCOPulse, 1123.452881, 0.380076, 0.284415, 6877.664551),
		factoryPreset(lfo.WaveTriangle, 0.258210, 0.170868, 688.041199, false, synth.VCOTriangle, 1013.351929, 0.380083, 0.284545, 6879.085938),
		factoryPreset(lfo.WaveTriangle, 0.497863, 1.808816, 148.919556, false, synth.VCOSquare, 205.318161, 0.380047, 0.284479, 6876.527832),
		factoryPreset(lfo.WaveSine, 0.5, 14.999997, 0, true, synth.VCOOneBitNoise, 4999.999023, 0.380047, 0.284454, 6874.536133),
		factoryPreset(lfo.WaveTriangle, 0.497863, 2.738417, -650.351685, false, synth.VCOPulse, 655.351685, 0.379998, 0.284547, 6876.810547),
		factoryPreset(lfo.WaveSteppedSawtooth, 1, 0.597933, -813.184753, true, synth.VCOOneBitNoise, 1325.321045, 0.380083, 0.284484, 6876.667969),
		factoryPreset(lfo.WaveSine, 0.672904, 0.027004, 420.044983, false, synth.VCOSawtooth, 468.001923, 0.380086, 0.284405, 6873.684570),
	}
}

// FactoryNames lists the factory presets in key order.
var FactoryNames = [NumPresets]string{
	"fog horn", "level up", "coin", "bomb falling", "police siren",
	"classic low", "hi-hat", "classic high", "bomb exploding", "air raid",
}

// factoryPreset builds one preset. All factory presets share a low-pass
// delay filter.
func factoryPreset(lw lfo.Waveform, shape, lfoHz, amp float64, gate bool,
	vw synth.VCOWaveform, vcoHz, delayTime, feedback, filterHz float64) synth.Parameters {
	return synth.Parameters{
		LFOWaveform:    lw,
		LFOShape:       shape,
		LFOFrequency:   lfoHz,
		LFOAmplitude:   amp,
		LFOGateControl: gate,
		VCOWaveform:    vw,
		VCOFrequency:   vcoHz,
		DelayTime:      delayTime,
		DelayFeedback:  feedback,
		DelayFilter:    synth.DelayFilterLowPass,
		DelayFilterHz:  filterHz,
	}
}
