package metadata

import (
	"sort"
	"time"

	"github.com/hoyack/gemsieve/internal/domain"
)

// RollupTemporal recomputes the per-domain temporal aggregate from the
// full set of message timestamps seen from that sender (§4.3 "Temporal
// rollup"). times need not be sorted.
func RollupTemporal(senderDomain string, times []time.Time) domain.SenderTemporal {
	if len(times) == 0 {
		return domain.SenderTemporal{SenderDomain: senderDomain}
	}

	sorted := make([]time.Time, len(times))
	copy(sorted, times)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	hourCounts := make(map[int]int)
	weekdayCounts := make(map[int]int)
	for _, t := range sorted {
		hourCounts[t.Hour()]++
		weekdayCounts[int(t.Weekday())]++
	}

	var totalGapDays float64
	for i := 1; i < len(sorted); i++ {
		totalGapDays += sorted[i].Sub(sorted[i-1]).Hours() / 24
	}
	avgFrequency := 0.0
	if len(sorted) > 1 {
		avgFrequency = totalGapDays / float64(len(sorted)-1)
	}

	return domain.SenderTemporal{
		SenderDomain:      senderDomain,
		FirstSeen:         sorted[0].Format(time.RFC3339),
		LastSeen:          sorted[len(sorted)-1].Format(time.RFC3339),
		TotalMessages:     len(sorted),
		AvgFrequencyDays:  avgFrequency,
		MostCommonHour:    mode(hourCounts),
		MostCommonWeekday: mode(weekdayCounts),
	}
}

// mode returns the key with the highest count, breaking ties by the
// smaller key for determinism.
func mode(counts map[int]int) int {
	best, bestCount := 0, -1
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}
