package metrics

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// parsePressure extracts the avg10 values from a PSI file in the format
// exposed by /proc/pressure/memory:
//
//	some avg10=0.12 avg60=0.08 avg300=0.02 total=12345
//	full avg10=0.00 avg60=0.00 avg300=0.00 total=678
func parsePressure(data []byte) (some10, full10 float64, err error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	seen := false

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		avg, perr := parseAvg10(fields[1:])
		if perr != nil {
			return 0, 0, perr
		}

		switch fields[0] {
		case "some":
			some10 = avg
			seen = true
		case "full":
			full10 = avg
			seen = true
		}
	}
	if serr := scanner.Err(); serr != nil {
		return 0, 0, serr
	}
	if !seen {
		return 0, 0, fmt.Errorf("no pressure records found")
	}

	return some10, full10, nil
}

func parseAvg10(fields []string) (float64, error) {
	for _, field := range fields {
		value, ok := strings.CutPrefix(field, "avg10=")
		if !ok {
			continue
		}

		avg, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed avg10 value %q: %w", value, err)
		}

		return avg, nil
	}

	return 0, fmt.Errorf("missing avg10 field")
}
