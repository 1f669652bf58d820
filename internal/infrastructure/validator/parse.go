package validator

import (
	"regexp"
	"strconv"
	"strings"

	"iacgen/internal/domain/entity"
)

var locationPattern = regexp.MustCompile(`on (\S+) line (\d+)`)

// ParseToolOutput turns terraform CLI text output into diagnostics. Lines
// are classified by a recognized prefix vocabulary; "on <file> line <n>"
// continuation lines attach a location to the preceding diagnostic. Any
// stderr content that produced no recognized diagnostic is captured whole
// as a single error diagnostic so nothing the tool said gets lost.
func ParseToolOutput(stdout, stderr string) []entity.Diagnostic {
	var diags []entity.Diagnostic

	diags = append(diags, parseLines(stdout)...)

	stderrDiags := parseLines(stderr)
	if len(stderrDiags) == 0 && strings.TrimSpace(stderr) != "" {
		stderrDiags = []entity.Diagnostic{{
			Severity: entity.SeverityError,
			Message:  strings.TrimSpace(stderr),
		}}
	}
	return append(diags, stderrDiags...)
}

func parseLines(output string) []entity.Diagnostic {
	var diags []entity.Diagnostic
	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimSpace(strings.Trim(raw, "│╷╵ \t"))
		if line == "" {
			continue
		}

		switch {
		case hasPrefixFold(line, "Error:"):
			diags = append(diags, entity.Diagnostic{
				Severity: entity.SeverityError,
				Message:  strings.TrimSpace(line[len("Error:"):]),
			})
		case hasPrefixFold(line, "Warning:"):
			diags = append(diags, entity.Diagnostic{
				Severity: entity.SeverityWarning,
				Message:  strings.TrimSpace(line[len("Warning:"):]),
			})
		default:
			if len(diags) == 0 {
				continue
			}
			last := &diags[len(diags)-1]
			if m := locationPattern.FindStringSubmatch(line); m != nil && last.Location == "" {
				last.Location = m[1]
				last.Line, _ = strconv.Atoi(m[2])
			}
		}
	}
	return diags
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
