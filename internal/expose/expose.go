// Package expose serializes metric samples into the plain-text exposition
// format consumed by pull-based metrics collectors.
package expose

import (
	"regexp"
	"strings"

	"github.com/davidkirwan/asset-monitoring/internal/model"
)

// Label values must escape backslash, double quote and newline.
var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

var nameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidName reports whether name satisfies the exposition identifier grammar.
func ValidName(name string) bool {
	return nameRe.MatchString(name)
}

// EscapeLabelValue escapes a label value for serialization.
func EscapeLabelValue(v string) string {
	return labelEscaper.Replace(v)
}

// Encode renders samples as exposition text. Samples are grouped by metric
// name in first-seen order; each group gets exactly one HELP and one TYPE
// line followed by its series lines. Groups are separated by a blank line.
// Samples with an empty value produce no series line, and a group whose
// samples are all empty is dropped entirely. The result ends with a single
// newline, or is empty if nothing was rendered.
func Encode(samples []model.MetricSample) string {
	if len(samples) == 0 {
		return ""
	}

	var order []string
	groups := make(map[string][]model.MetricSample)
	for _, s := range samples {
		if _, ok := groups[s.Name]; !ok {
			order = append(order, s.Name)
		}
		groups[s.Name] = append(groups[s.Name], s)
	}

	var blocks []string
	for _, name := range order {
		if block := encodeGroup(name, groups[name]); block != "" {
			blocks = append(blocks, block)
		}
	}
	if len(blocks) == 0 {
		return ""
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

func encodeGroup(name string, samples []model.MetricSample) string {
	var series []string
	for _, s := range samples {
		if s.Value == "" {
			continue
		}
		series = append(series, encodeSeries(s))
	}
	if len(series) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("# HELP " + name + " " + sanitizeHelp(samples[0].Help) + "\n")
	b.WriteString("# TYPE " + name + " gauge")
	for _, line := range series {
		b.WriteString("\n" + line)
	}
	return b.String()
}

func encodeSeries(s model.MetricSample) string {
	if len(s.Labels) == 0 {
		return s.Name + " " + s.Value
	}
	pairs := make([]string, len(s.Labels))
	for i, l := range s.Labels {
		pairs[i] = l.Key + `="` + EscapeLabelValue(l.Value) + `"`
	}
	return s.Name + "{" + strings.Join(pairs, ", ") + "} " + s.Value
}

// Help text must stay on one line.
func sanitizeHelp(h string) string {
	return strings.ReplaceAll(h, "\n", " ")
}
