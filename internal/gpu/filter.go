package gpu

// DefaultThresholdMB is the used-memory cutoff below which a device counts
// as free.
const DefaultThresholdMB int64 = 300

// FilterFree returns the records whose used memory is strictly below
// thresholdMB, in their original order. A device sitting exactly on the
// threshold is busy.
func FilterFree(records []Record, thresholdMB int64) []Record {
	free := make([]Record, 0, len(records))
	for _, r := range records {
		if r.MemoryUsedMB < thresholdMB {
			free = append(free, r)
		}
	}
	return free
}
