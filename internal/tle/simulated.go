package tle

import (
	"fmt"
	"strconv"
)

// Simulated returns a stand-in element set for a satellite no provider could
// supply: a near-circular 53° orbit at 15 rev/day with epoch 2025-12-07 12:00
// UTC. Every satellite gets the same orbit; only the catalog number differs.
func Simulated(catalogID int, name string) TLEEntry {
	line1 := withChecksum(fmt.Sprintf("1 %05dU 22059A   25341.50000000  .00000000  00000-0  00000-0 0  999", catalogID))
	line2 := withChecksum(fmt.Sprintf("2 %05d  53.0000  95.0000 0001000  90.0000 270.0000 15.0000000000000", catalogID))

	if name == "" {
		name = strconv.Itoa(catalogID)
	}
	entry, err := ParseLines(name, line1, line2)
	if err != nil {
		// The template is fixed; only an id wider than five digits lands here.
		panic(fmt.Sprintf("simulated TLE for %d: %v", catalogID, err))
	}
	return entry
}

func withChecksum(line68 string) string {
	return line68 + strconv.Itoa(Checksum(line68))
}
