package ranking

// demoBase keeps the demo timestamps stable across runs so seeded
// boards sort identically everywhere (tests, dev server, mock client).
const demoBase int64 = 1700000000000

// DemoSeed returns the canonical ten-entry demo leaderboard used by the
// dev store and the mock adapter. Scores span 73-156 so a fresh run can
// beat the board with a strong score but not trivially.
func DemoSeed() []Entry {
	return []Entry{
		{Username: "DotMaster3000", Score: 156, Timestamp: demoBase + 1_000},
		{Username: "RushHourHero", Score: 142, Timestamp: demoBase + 2_000},
		{Username: "ChromaChaser", Score: 137, Timestamp: demoBase + 3_000},
		{Username: "TapTapRevenge", Score: 129, Timestamp: demoBase + 4_000},
		{Username: "PixelPopper", Score: 118, Timestamp: demoBase + 5_000},
		{Username: "SwiftFinger", Score: 104, Timestamp: demoBase + 6_000},
		{Username: "NeonNinja", Score: 97, Timestamp: demoBase + 7_000},
		{Username: "BlinkAndMiss", Score: 88, Timestamp: demoBase + 8_000},
		{Username: "ComboKid", Score: 81, Timestamp: demoBase + 9_000},
		{Username: "LastSecondLou", Score: 73, Timestamp: demoBase + 10_000},
	}
}
