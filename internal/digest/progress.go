package digest

import "fmt"

// ChunkHours is the length of one scheduler time chunk.
const ChunkHours = 0.25

func chunkDuration(chunks int) string {
	return FormatDuration(float64(chunks) * ChunkHours)
}

// FormatProgress describes work done against a task in quarter-hour chunks.
// It reports false when either count is unknown or both are zero.
//
//	nothing done:  "2h ⏳ (8 Sessions)"
//	all done:      "✅ (8 Sessions)"
//	partial:       "1h ⏳ 50% (1h/2h)"
func FormatProgress(spent, remaining *int) (string, bool) {
	if spent == nil || remaining == nil {
		return "", false
	}
	s, r := *spent, *remaining
	if s == 0 && r == 0 {
		return "", false
	}

	switch {
	case s == 0:
		if s+r > 1 {
			return fmt.Sprintf("%s ⏳ (%d Sessions)", chunkDuration(r), r), true
		}
		return fmt.Sprintf("%s ⏳", chunkDuration(r)), true
	case r == 0:
		return fmt.Sprintf("✅ (%d Sessions)", s), true
	}

	total := s + r
	percentage := s * 100 / total
	return fmt.Sprintf("%s ⏳ %d%% (%s/%s)",
		chunkDuration(r), percentage, chunkDuration(s), chunkDuration(total)), true
}

// ProgressText is FormatProgress as an optional value.
func ProgressText(spent, remaining *int) *string {
	s, ok := FormatProgress(spent, remaining)
	if !ok {
		return nil
	}
	return &s
}
