package tensor

// Layout identifies how tensor elements are arranged in storage.
type Layout int

const (
	// Canonical is dense batch-major, channel-second order (NCHW).
	Canonical Layout = iota
	// PackedC4 blocks the channel axis by PackWidth, interleaving PackWidth
	// channels per element position (NC4HW4). The final block of a channel
	// count not divisible by PackWidth is zero-padded.
	PackedC4
	// Indirect marks an int32 index buffer whose entries redirect kernel
	// taps into another tensor's storage. Index -1 is an out-of-bounds tap.
	Indirect
)

// PackWidth is the channel block width of PackedC4.
const PackWidth = 4

func (l Layout) String() string {
	switch l {
	case Canonical:
		return "canonical"
	case PackedC4:
		return "packedC4"
	case Indirect:
		return "indirect"
	default:
		return "unknown"
	}
}

// Packed reports whether the layout carries channel-block padding.
func (l Layout) Packed() bool {
	return l == PackedC4
}

// Quant carries int8 quantization scales: one scale per channel, or a single
// per-tensor scale. It is metadata only and travels with the Desc; layout
// conversion preserves it bit-for-bit.
type Quant struct {
	Scales     []float32
	PerChannel bool
}

// Scale returns the scale for one channel.
func (q *Quant) Scale(channel int) float32 {
	if q.PerChannel {
		return q.Scales[channel]
	}
	return q.Scales[0]
}

// Clone returns an independent copy. Cloning nil returns nil.
func (q *Quant) Clone() *Quant {
	if q == nil {
		return nil
	}
	scales := make([]float32, len(q.Scales))
	copy(scales, q.Scales)
	return &Quant{Scales: scales, PerChannel: q.PerChannel}
}
