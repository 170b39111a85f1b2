package engine

import "github.com/scgolang/sc"

// Synthdef names understood by both the live connection and the offline
// render helper.
const (
	DefDrumVoiceMono   = "sampler_drum_voice_1"
	DefDrumVoiceStereo = "sampler_drum_voice_2"
	DefPianoVoice      = "sampler_piano_voice"
	DefPianoGesture    = "sampler_piano_gesture"
	DefGrainCloud      = "sampler_grain_cloud"
	DefMasterFX        = "sampler_master_fx"
)

// DrumVoiceDef picks the drum voice matching a layer's channel count.
func DrumVoiceDef(channels int) string {
	if channels == 1 {
		return DefDrumVoiceMono
	}
	return DefDrumVoiceStereo
}

// Defs returns every synthdef the samplers use. The graphs are
// deliberately thin; the interesting synthesis lives engine-side.
func Defs() []*sc.Synthdef {
	return []*sc.Synthdef{
		sc.NewSynthdef(DefDrumVoiceMono, drumVoiceDef(1)),
		sc.NewSynthdef(DefDrumVoiceStereo, drumVoiceDef(2)),
		sc.NewSynthdef(DefPianoVoice, pianoVoiceDef),
		sc.NewSynthdef(DefPianoGesture, pianoGestureDef),
		sc.NewSynthdef(DefGrainCloud, grainCloudDef),
		sc.NewSynthdef(DefMasterFX, masterFXDef),
	}
}

// drumVoiceDef is a one-shot buffer player with a percussive envelope.
// The node frees itself when the envelope completes.
func drumVoiceDef(numChannels int) sc.UgenFunc {
	return func(p sc.Params) sc.Ugen {
		var (
			bufnum  = p.Add("bufnum", 0)
			rate    = p.Add("rate", 1)
			amp     = p.Add("amp", 0.5)
			pan     = p.Add("pan", 0)
			attack  = p.Add("attack", 0.001)
			release = p.Add("release", 0.75)
			out     = p.Add("out", 0)
		)
		env := sc.EnvGen{
			Env:  sc.EnvPerc{Attack: attack, Release: release},
			Done: sc.FreeEnclosing,
		}.Rate(sc.KR)
		sig := sc.PlayBuf{
			NumChannels: numChannels,
			BufNum:      bufnum,
			Speed:       rate,
			Done:        sc.FreeEnclosing,
		}.Rate(sc.AR).Mul(env).Mul(amp)
		if numChannels == 1 {
			return sc.Out{
				Bus:      out,
				Channels: sc.Pan2{In: sig, Pos: pan}.Rate(sc.AR),
			}.Rate(sc.AR)
		}
		return sc.Out{
			Bus:      out,
			Channels: sc.Balance2{L: sig, R: sig, Pos: pan}.Rate(sc.AR),
		}.Rate(sc.AR)
	}
}

// pianoVoiceDef plays a piano sample with an attack / sustain / release
// shape so note durations survive into the envelope.
func pianoVoiceDef(p sc.Params) sc.Ugen {
	var (
		bufnum = p.Add("bufnum", 0)
		rate   = p.Add("rate", 1)
		amp    = p.Add("amp", 0.5)
		pan    = p.Add("pan", 0)
		attack = p.Add("attack", 0)
		sus    = p.Add("sustain", 0.5)
		rel    = p.Add("release", 2)
		out    = p.Add("out", 0)
	)
	env := sc.EnvGen{
		Env:  sc.EnvLinen{Attack: attack, Sustain: sus, Release: rel},
		Done: sc.FreeEnclosing,
	}.Rate(sc.KR)
	sig := sc.PlayBuf{
		NumChannels: 2,
		BufNum:      bufnum,
		Speed:       rate,
		Done:        sc.FreeEnclosing,
	}.Rate(sc.AR).Mul(env).Mul(amp)
	return sc.Out{
		Bus:      out,
		Channels: sc.Balance2{L: sig, R: sig, Pos: pan}.Rate(sc.AR),
	}.Rate(sc.AR)
}

// pianoGestureDef is the long-release variant used by generative gesture
// bursts.
func pianoGestureDef(p sc.Params) sc.Ugen {
	var (
		bufnum = p.Add("bufnum", 0)
		rate   = p.Add("rate", 1)
		amp    = p.Add("amp", 0.1)
		pan    = p.Add("pan", 0)
		attack = p.Add("attack", 0.02)
		rel    = p.Add("release", 12)
		out    = p.Add("out", 0)
	)
	env := sc.EnvGen{
		Env:  sc.EnvPerc{Attack: attack, Release: rel},
		Done: sc.FreeEnclosing,
	}.Rate(sc.KR)
	sig := sc.PlayBuf{
		NumChannels: 2,
		BufNum:      bufnum,
		Speed:       rate,
		Done:        sc.FreeEnclosing,
	}.Rate(sc.AR).Mul(env).Mul(amp)
	return sc.Out{
		Bus:      out,
		Channels: sc.Balance2{L: sig, R: sig, Pos: pan}.Rate(sc.AR),
	}.Rate(sc.AR)
}

// grainCloudDef is a gated long-duration granular voice. Cross-fades are
// driven by setting amp (lagged); Release gates it off and the node frees
// itself after the release tail.
func grainCloudDef(p sc.Params) sc.Ugen {
	var (
		bufnum   = p.Add("bufnum", 0)
		gate     = p.Add("gate", 1)
		amp      = p.Add("amp", 0)
		ampLag   = p.Add("amp_lag", 8)
		pan      = p.Add("pan", 0)
		density  = p.Add("density", 1)
		grainDur = p.Add("grain_dur", 0.2)
		rate     = p.Add("rate", 1)
		posRate  = p.Add("pos_rate", 0.05)
		out      = p.Add("out", 0)
	)
	env := sc.EnvGen{
		Env:  sc.EnvADSR{A: sc.C(4), D: sc.C(0), S: sc.C(1), R: sc.C(9)},
		Gate: gate,
		Done: sc.FreeEnclosing,
	}.Rate(sc.KR)
	pos := sc.SinOsc{Freq: posRate}.Rate(sc.KR).MulAdd(sc.C(0.45), sc.C(0.5))
	grains := sc.GrainBuf{
		NumChannels: 2,
		Trigger:     sc.Impulse{Freq: density}.Rate(sc.AR),
		Dur:         grainDur,
		BufNum:      bufnum,
		Speed:       rate,
		Pos:         pos,
		Pan:         pan,
	}.Rate(sc.AR)
	sig := grains.Mul(sc.Lag{In: amp, Time: ampLag}.Rate(sc.KR)).Mul(env)
	return sc.Out{Bus: out, Channels: sig}.Rate(sc.AR)
}

// masterFXDef reads the shared mix bus, adds the room, and limits. The
// heavy lifting (delay, shimmer) belongs to the engine-side presets; this
// graph keeps live programs from clipping.
func masterFXDef(p sc.Params) sc.Ugen {
	var (
		inBus     = p.Add("in", 0)
		out       = p.Add("out", 0)
		reverbMix = p.Add("reverb_mix", 0.36)
		roomSize  = p.Add("room_size", 0.9)
		damping   = p.Add("damping", 0.45)
	)
	in := sc.In{Bus: inBus, NumChannels: 2}.Rate(sc.AR)
	verb := sc.FreeVerb{In: in, Mix: reverbMix, Room: roomSize, Damp: damping}.Rate(sc.AR)
	return sc.Out{
		Bus:      out,
		Channels: sc.Limiter{In: verb}.Rate(sc.AR),
	}.Rate(sc.AR)
}
