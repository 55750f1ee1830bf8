package gpu

import (
	"strconv"
	"strings"
)

// minFields is the number of leading columns a row must carry:
// index, name, memory.used, memory.total.
const minFields = 4

// Parse converts nvidia-smi CSV output into records.
//
// Parsing is lenient: a row with fewer than four fields, or whose index,
// used or total column is not an integer, is dropped without trace and the
// remaining rows are still returned in their original order. Columns past
// the fourth are ignored.
func Parse(output string) []Record {
	records := []Record{}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		record, ok := parseLine(line)
		if !ok {
			continue
		}
		records = append(records, record)
	}

	return records
}

func parseLine(line string) (Record, bool) {
	fields := strings.Split(line, ",")
	if len(fields) < minFields {
		return Record{}, false
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	index, err := strconv.Atoi(fields[0])
	if err != nil {
		return Record{}, false
	}
	used, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return Record{}, false
	}
	total, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return Record{}, false
	}

	return Record{
		Index:         index,
		Name:          fields[1],
		MemoryUsedMB:  used,
		MemoryTotalMB: total,
	}, true
}
