package shell

import (
	"fmt"
	"sort"
	"strings"

	"github.com/felixgeelhaar/aistack/internal/validation"
)

const (
	blockStartFmt = "# >>> aistack %s >>>"
	blockEndFmt   = "# <<< aistack %s <<<"
)

// ReadManagedBlock extracts the content between aistack managed block markers.
// Returns empty string if the block is not found.
func ReadManagedBlock(content, section string) string {
	start := fmt.Sprintf(blockStartFmt, section)
	end := fmt.Sprintf(blockEndFmt, section)

	startIdx := strings.Index(content, start)
	if startIdx == -1 {
		return ""
	}

	endIdx := strings.Index(content, end)
	if endIdx == -1 {
		return ""
	}

	blockStart := startIdx + len(start)
	if blockStart < len(content) && content[blockStart] == '\n' {
		blockStart++
	}

	if blockStart >= endIdx {
		return ""
	}

	return content[blockStart:endIdx]
}

// HasManagedBlock reports whether the start marker for section is present.
func HasManagedBlock(content, section string) bool {
	return strings.Contains(content, fmt.Sprintf(blockStartFmt, section))
}

// WriteManagedBlock replaces (or appends) a managed block in the content.
func WriteManagedBlock(content, section, block string) string {
	start := fmt.Sprintf(blockStartFmt, section)
	end := fmt.Sprintf(blockEndFmt, section)

	managedBlock := start + "\n" + block + end + "\n"

	startIdx := strings.Index(content, start)
	if startIdx == -1 {
		if content != "" && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		return content + "\n" + managedBlock
	}

	endIdx := strings.Index(content, end)
	if endIdx == -1 {
		// Malformed block: start exists but no end. Replace from start to EOF.
		return content[:startIdx] + managedBlock
	}

	afterEnd := endIdx + len(end)
	if afterEnd < len(content) && content[afterEnd] == '\n' {
		afterEnd++
	}

	return content[:startIdx] + managedBlock + content[afterEnd:]
}

// RemoveManagedBlock deletes the block and the blank line WriteManagedBlock
// put in front of it. Content without the block is returned unchanged.
func RemoveManagedBlock(content, section string) string {
	start := fmt.Sprintf(blockStartFmt, section)
	end := fmt.Sprintf(blockEndFmt, section)

	startIdx := strings.Index(content, start)
	if startIdx == -1 {
		return content
	}

	afterEnd := len(content)
	if endIdx := strings.Index(content, end); endIdx != -1 {
		afterEnd = endIdx + len(end)
		if afterEnd < len(content) && content[afterEnd] == '\n' {
			afterEnd++
		}
	}

	before := content[:startIdx]
	if strings.HasSuffix(before, "\n\n") {
		before = before[:len(before)-1]
	}
	return before + content[afterEnd:]
}

// shellQuote wraps s in single quotes for POSIX shells.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// generateAliasBlock produces the content for a managed aliases block.
func generateAliasBlock(aliases map[string]string) (string, error) {
	if len(aliases) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(aliases))
	for k := range aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		if err := validation.ValidateAliasName(k); err != nil {
			return "", err
		}
		if err := validation.ValidateAliasCommand(aliases[k]); err != nil {
			return "", fmt.Errorf("alias %s: %w", k, err)
		}
		fmt.Fprintf(&b, "alias %s=%s\n", k, shellQuote(aliases[k]))
	}
	return b.String(), nil
}
