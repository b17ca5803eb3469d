package apu

import (
	"math"

	"github.com/arl/blip"
	"github.com/go-faster/jx"
)

const maxSampleRate = 96000
const ntscClockRate = 1789773.0

// squareTable and tndTable are the literal precomputed lookup tables from
// the mixer formula (spec §4.4 "lookup-table mixer"): slot i holds the
// formula's value for i/16 (integer division), and sample() indexes each
// table by 16 times the channel sum (pulse1+pulse2, or
// 3*triangle+2*noise+dmc). Since those sums are integers, only every 16th
// entry of each table is ever read.
var squareTable [31 * 16]float64
var tndTable [203 * 16]float64

func init() {
	for i := range squareTable {
		n := i / 16
		if n == 0 {
			continue
		}
		squareTable[i] = 95.52 / (8128.0/float64(n) + 100.0)
	}
	for i := range tndTable {
		n := i / 16
		if n == 0 {
			continue
		}
		tndTable[i] = 163.67 / (24329.0/float64(n) + 100.0)
	}
}

type panWeight struct {
	left, right float64
}

// dcBlocker is a one-pole DC-blocking high-pass filter applied to the final
// samples of each stereo side (spec §4.4 "DC blocking").
type dcBlocker struct {
	prevIn, prevOut float64
}

const dcPole = 0.999

func (f *dcBlocker) apply(in float64) float64 {
	out := in - f.prevIn + dcPole*f.prevOut
	f.prevIn = in
	f.prevOut = out
	return out
}

// mixer combines the five built-in channels and any registered expansion
// sources into a stereo PCM stream through github.com/arl/blip's
// band-limited resampler. Grounded on a conventional APU mixer implementation for the
// blip wiring; unlike an outputVolume(isRight) per-side weighted
// non-linear formula, the tables above operate on already-combined channel
// sums, so pan weights are applied earlier, directly to the raw 0-15
// channel values, before they are summed into the table index.
type mixer struct {
	bufLeft, bufRight *blip.Buffer

	clockRate, sampleRate float64

	pans [numChannels]panWeight

	prevLeft, prevRight int32
	dcLeft, dcRight      dcBlocker

	expansions []ExpansionSource
}

func newMixer() *mixer {
	m := &mixer{
		bufLeft:    blip.NewBuffer(maxSampleRate / 10),
		bufRight:   blip.NewBuffer(maxSampleRate / 10),
		sampleRate: maxSampleRate,
		clockRate:  ntscClockRate,
	}
	for i := range m.pans {
		m.pans[i] = panWeight{left: 1, right: 1}
	}
	m.bufLeft.SetRates(m.clockRate, m.sampleRate)
	m.bufRight.SetRates(m.clockRate, m.sampleRate)
	return m
}

func (m *mixer) reset() {
	m.bufLeft.Clear()
	m.bufRight.Clear()
	m.prevLeft, m.prevRight = 0, 0
	m.dcLeft, m.dcRight = dcBlocker{}, dcBlocker{}
}

func (m *mixer) setPan(ch Channel, left, right float64) { m.pans[ch] = panWeight{left: left, right: right} }

// setSampleRate reconfigures both resampler buffers' output rate, observed
// by the `sampleRate` config option (spec §6).
func (m *mixer) setSampleRate(rate float64) {
	m.sampleRate = rate
	m.bufLeft.SetRates(m.clockRate, m.sampleRate)
	m.bufRight.SetRates(m.clockRate, m.sampleRate)
}

func (m *mixer) registerExpansionSource(src ExpansionSource) {
	m.expansions = append(m.expansions, src)
}

func weighted(val uint8, w float64) int { return int(math.Round(float64(val) * w)) }

func clampIndex(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// sample computes one stereo side's combined output for the current cycle
// (spec §4.4's literal LUT formula), plus any expansion audio summed in
// before DC blocking.
func (m *mixer) sample(pulse1, pulse2, triangle, noise, dmc uint8, right bool) float64 {
	pan := func(ch Channel) float64 {
		if right {
			return m.pans[ch].right
		}
		return m.pans[ch].left
	}

	p1 := weighted(pulse1, pan(ChannelPulse1))
	p2 := weighted(pulse2, pan(ChannelPulse2))
	tr := weighted(triangle, pan(ChannelTriangle))
	no := weighted(noise, pan(ChannelNoise))
	dm := weighted(dmc, pan(ChannelDMC))

	squareIdx := clampIndex((p1+p2)*16, len(squareTable)-1)
	tndIdx := clampIndex((3*tr+2*no+dm)*16, len(tndTable)-1)

	out := squareTable[squareIdx] + tndTable[tndIdx]
	for _, src := range m.expansions {
		out += src.Sample()
	}
	return out
}

// step feeds one CPU cycle's channel outputs into the resampler.
func (m *mixer) step(cycle uint64, pulse1, pulse2, triangle, noise, dmc uint8) {
	left := m.sample(pulse1, pulse2, triangle, noise, dmc, false)
	right := m.sample(pulse1, pulse2, triangle, noise, dmc, true)

	leftSample := int32(math.Round(left * 32767))
	rightSample := int32(math.Round(right * 32767))

	if leftSample != m.prevLeft {
		m.bufLeft.AddDelta(cycle, leftSample-m.prevLeft)
		m.prevLeft = leftSample
	}
	if rightSample != m.prevRight {
		m.bufRight.AddDelta(cycle, rightSample-m.prevRight)
		m.prevRight = rightSample
	}
}

func (m *mixer) clockExpansions() {
	for _, src := range m.expansions {
		src.Clock()
	}
}

func clampSample(v float64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// readSamples drains the resampler for the cycles elapsed this frame and
// applies the DC-blocking filter to the resulting interleaved stereo
// samples.
func (m *mixer) readSamples(out []int16, clockDuration int) int {
	m.bufLeft.EndFrame(clockDuration)
	m.bufRight.EndFrame(clockDuration)

	count := m.bufLeft.ReadSamples(out, len(out)/2, blip.Stereo)
	m.bufRight.ReadSamples(out[1:], len(out)/2, blip.Stereo)

	for i := 0; i < count; i++ {
		li, ri := i*2, i*2+1
		out[li] = clampSample(m.dcLeft.apply(float64(out[li])))
		out[ri] = clampSample(m.dcRight.apply(float64(out[ri])))
	}

	return count
}

// encode writes the mixer's output-side state: pan weights, the
// delta-encoder's previous sample values, and the DC-blocking filter state
// for each side (spec §3 "Sample resampler... DC-blocking filter state per
// channel side"). The blip.Buffer resampler accumulators themselves expose
// no way to inspect or restore their internal ring state, so a loaded save
// state resumes with empty resampler buffers; the DC blockers and previous
// delta values are preserved so there is no audible pop at the seam.
func (m *mixer) encode(e *jx.Encoder, prefix string) {
	e.FieldStart(prefix + "Pans")
	e.ArrStart()
	for _, p := range m.pans {
		e.ArrStart()
		e.Float64(p.left)
		e.Float64(p.right)
		e.ArrEnd()
	}
	e.ArrEnd()
	e.FieldStart(prefix + "PrevLeft")
	e.Int32(m.prevLeft)
	e.FieldStart(prefix + "PrevRight")
	e.Int32(m.prevRight)
	e.FieldStart(prefix + "DCLeftPrevIn")
	e.Float64(m.dcLeft.prevIn)
	e.FieldStart(prefix + "DCLeftPrevOut")
	e.Float64(m.dcLeft.prevOut)
	e.FieldStart(prefix + "DCRightPrevIn")
	e.Float64(m.dcRight.prevIn)
	e.FieldStart(prefix + "DCRightPrevOut")
	e.Float64(m.dcRight.prevOut)
}

func (m *mixer) decodeField(d *jx.Decoder, prefix, key string) (bool, error) {
	switch key {
	case prefix + "Pans":
		i := 0
		err := d.Arr(func(d *jx.Decoder) error {
			vals := make([]float64, 0, 2)
			err := d.Arr(func(d *jx.Decoder) error {
				v, err := d.Float64()
				if err != nil {
					return err
				}
				vals = append(vals, v)
				return nil
			})
			if err != nil {
				return err
			}
			if i < len(m.pans) && len(vals) == 2 {
				m.pans[i] = panWeight{left: vals[0], right: vals[1]}
			}
			i++
			return nil
		})
		if err != nil {
			return true, err
		}
	case prefix + "PrevLeft":
		v, err := d.Int32()
		if err != nil {
			return true, err
		}
		m.prevLeft = v
	case prefix + "PrevRight":
		v, err := d.Int32()
		if err != nil {
			return true, err
		}
		m.prevRight = v
	case prefix + "DCLeftPrevIn":
		v, err := d.Float64()
		if err != nil {
			return true, err
		}
		m.dcLeft.prevIn = v
	case prefix + "DCLeftPrevOut":
		v, err := d.Float64()
		if err != nil {
			return true, err
		}
		m.dcLeft.prevOut = v
	case prefix + "DCRightPrevIn":
		v, err := d.Float64()
		if err != nil {
			return true, err
		}
		m.dcRight.prevIn = v
	case prefix + "DCRightPrevOut":
		v, err := d.Float64()
		if err != nil {
			return true, err
		}
		m.dcRight.prevOut = v
	default:
		return false, nil
	}
	return true, nil
}
