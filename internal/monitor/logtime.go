package monitor

import (
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

// Log filenames are UTC timestamps: 2026-02-20T145658.log
var logNameRe = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})T(\d{2})(\d{2})(\d{2})\.log`)

// DecodeLogTime extracts epoch milliseconds from an opencode log filename.
// The name encodes the process start time in UTC; parsing it in local time
// shifts tier-2 correlation by the zone offset and silently breaks it.
// Returns zero for paths that don't match the pattern.
func DecodeLogTime(path string) int64 {
	m := logNameRe.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	sec, _ := strconv.Atoi(m[6])
	return time.Date(year, time.Month(month), day, hour, minute, sec, 0, time.UTC).UnixMilli()
}
