package record

import "strconv"

// NextID returns max(numeric ids) + 1 as a string. Ids without a leading
// number count as 0. Ids are never reused while a higher one exists, but
// callers must not assume they are contiguous.
func NextID(ids []string) string {
	max := 0
	for _, id := range ids {
		if n := leadingInt(id); n > max {
			max = n
		}
	}
	return strconv.Itoa(max + 1)
}

// leadingInt parses the leading decimal digits of s, ignoring the rest.
func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
