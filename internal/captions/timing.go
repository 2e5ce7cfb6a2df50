package captions

// AssignTimestamps spreads n phrases evenly over duration seconds and returns
// the start offset of each along with the spacing between them. Phrase i
// starts at i*interval, so the first start is always zero and the last is
// strictly before duration. When n is zero the interval falls back to three
// seconds and no starts are returned.
func AssignTimestamps(n int, duration float64) ([]float64, float64) {
	if n <= 0 {
		return nil, fallbackInterval
	}
	interval := duration / float64(n)
	starts := make([]float64, n)
	for i := range starts {
		starts[i] = float64(i) * interval
	}
	return starts, interval
}

// PositionFor returns the caption band for the phrase at index i. Even indexes
// use BandA and odd indexes BandB.
func PositionFor(i int) Band {
	if i%2 == 0 {
		return BandA
	}
	return BandB
}

// bandY converts a band into a vertical pixel offset for a frame height.
func bandY(band Band, height int, opts Options) int {
	switch band {
	case BandA:
		return height - opts.BandAOffset
	case BandB:
		return height - opts.BandBOffset
	default:
		return int(float64(height) * opts.TitleTopRatio)
	}
}
