package shifting

// DefaultGearCount is the number of virtual gears a KICKR BIKE presents: a
// 2x12 drivetrain flattened into a single sequential range.
const DefaultGearCount = 24

// Ratio table parameters: the bottom gear rides at 0.50 and each gear adds
// 0.05, so the default 24-gear range tops out at 1.65.
const (
	baseRatioX100 = 50
	ratioStepX100 = 5
)

// ratioTableX100 builds the ratio table for n gears, scaled by 100. The
// table is non-decreasing, so for a fixed positive base gradient the
// effective gradient is non-decreasing in gear.
func ratioTableX100(n int) []int32 {
	table := make([]int32, n)
	for i := range table {
		table[i] = int32(baseRatioX100 + i*ratioStepX100)
	}
	return table
}

// defaultGearFor returns the startup gear for an n-gear range: the middle of
// the range (displayed as gear 12 for the default 24).
func defaultGearFor(n int) int {
	return (n - 1) / 2
}
