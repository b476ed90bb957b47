package command

import (
	"strings"
)

// FormatDescription returns the first line as the short description, or every line joined as the long one
func FormatDescription(short bool, lines ...string) string {
	if len(lines) == 0 {
		return ""
	}
	if short {
		return lines[0]
	}
	return strings.Join(lines, "\n\n")
}

// FormatExamples renders examples given as comment and command pairs
func FormatExamples(examples ...[]string) string {
	var blocks []string
	for _, example := range examples {
		var lines []string
		for _, line := range example {
			lines = append(lines, "  "+line)
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}
