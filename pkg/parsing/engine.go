package parsing

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Engine applies parsing templates to command output. Extraction errors are
// contained per rule and resolve to the rule's default value; they never
// abort a run.
type Engine struct {
	store  *Store
	logger *slog.Logger
}

// NewEngine creates an engine reading templates from store.
func NewEngine(store *Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{store: store, logger: logger.With("module", "parsing")}
}

// ParseOutput finds every template matching the command and device type and
// applies them in ascending specificity, so a device-specific template's
// variables overwrite a generic template's on name collision.
func (e *Engine) ParseOutput(command, output, deviceType string) map[string]string {
	extracted := make(map[string]string)

	if strings.TrimSpace(output) == "" {
		e.logger.Warn("empty output, nothing to parse", "command", command)

		return extracted
	}

	for _, tmpl := range e.matchingTemplates(command, deviceType) {
		results := e.ApplyTemplate(tmpl, output)
		for name, value := range results {
			extracted[name] = value
		}

		e.logger.Debug("applied parsing template",
			"template", tmpl.Name, "command", command, "extracted", len(results))
	}

	return extracted
}

// ApplyTemplate runs a template's rules in order against the output.
func (e *Engine) ApplyTemplate(tmpl *Template, output string) map[string]string {
	extracted := make(map[string]string, len(tmpl.Rules))

	for _, rule := range tmpl.Rules {
		value, ok := e.extract(rule, output)
		if ok {
			extracted[rule.VariableName] = value

			continue
		}

		if rule.Required {
			// A required rule still resolves to its default; extraction
			// failures are never fatal.
			e.logger.Warn("required variable not found in output",
				"template", tmpl.Name, "variable", rule.VariableName)
			extracted[rule.VariableName] = rule.DefaultValue
		} else if rule.DefaultValue != "" {
			extracted[rule.VariableName] = rule.DefaultValue
		}
	}

	return extracted
}

func (e *Engine) matchingTemplates(command, deviceType string) []*Template {
	var matched []*Template

	for _, tmpl := range e.store.All() {
		if e.matches(tmpl, command, deviceType) {
			matched = append(matched, tmpl)
		}
	}

	// Ascending specificity: later (more specific) templates win.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Specificity() < matched[j].Specificity()
	})

	return matched
}

func (e *Engine) matches(tmpl *Template, command, deviceType string) bool {
	if tmpl.DeviceType != "" && tmpl.DeviceType != GenericDeviceType {
		if !strings.EqualFold(tmpl.DeviceType, deviceType) {
			return false
		}
	}

	if tmpl.CommandPattern == "" {
		return true
	}

	pattern, err := regexp.Compile("(?i)" + tmpl.CommandPattern)
	if err != nil {
		e.logger.Error("invalid command pattern",
			"template", tmpl.Name, "pattern", tmpl.CommandPattern, "error", err)

		return false
	}

	return pattern.MatchString(command)
}

// extract applies one rule. The boolean reports whether a value was found;
// on any error it returns the default value.
func (e *Engine) extract(rule Rule, output string) (string, bool) {
	value, err := e.extractRaw(rule, output)
	if err != nil {
		e.logger.Error("extraction error, using default",
			"variable", rule.VariableName, "error", err)

		return rule.DefaultValue, rule.DefaultValue != ""
	}

	if value == "" {
		return "", false
	}

	return applyTransform(value, rule.Transform), true
}

func (e *Engine) extractRaw(rule Rule, output string) (string, error) {
	switch rule.Kind {
	case RuleKindRegex:
		return extractByRegex(rule, output)
	case RuleKindGrep:
		return extractByGrep(rule, output)
	case RuleKindTable:
		return extractFromTable(rule, output)
	case RuleKindKeyValue:
		return extractKeyValue(rule, output)
	case RuleKindLineCount:
		return countMatchingLines(rule, output)
	case RuleKindContains:
		return checkContains(rule, output)
	case RuleKindJSON:
		return extractFromJSON(rule, output)
	default:
		return "", fmt.Errorf("unsupported rule kind %q", rule.Kind)
	}
}

func extractByRegex(rule Rule, output string) (string, error) {
	pattern, err := regexp.Compile("(?ms)" + rule.Pattern)
	if err != nil {
		return "", fmt.Errorf("compile pattern: %w", err)
	}

	match := pattern.FindStringSubmatch(output)
	if match == nil {
		return "", nil
	}

	group := 1

	if rule.ExtractionGroup != "" {
		parsed, err := strconv.Atoi(rule.ExtractionGroup)
		if err != nil {
			return "", fmt.Errorf("invalid extraction group %q", rule.ExtractionGroup)
		}

		group = parsed
	}

	if group >= len(match) {
		return "", fmt.Errorf("extraction group %d out of range (%d groups)", group, len(match)-1)
	}

	return match[group], nil
}

func extractByGrep(rule Rule, output string) (string, error) {
	pattern, err := regexp.Compile("(?i)" + rule.Pattern)
	if err != nil {
		return "", fmt.Errorf("compile pattern: %w", err)
	}

	var matched []string

	for _, line := range strings.Split(output, "\n") {
		if pattern.MatchString(line) {
			matched = append(matched, line)
		}
	}

	return strings.Join(matched, "\n"), nil
}

func extractFromTable(rule Rule, output string) (string, error) {
	pattern, err := regexp.Compile(rule.Pattern)
	if err != nil {
		return "", fmt.Errorf("compile pattern: %w", err)
	}

	for _, line := range strings.Split(output, "\n") {
		match := pattern.FindStringSubmatch(line)
		if len(match) >= 2 {
			return strings.TrimSpace(match[1]), nil
		}
	}

	return "", nil
}

func extractKeyValue(rule Rule, output string) (string, error) {
	pattern, err := regexp.Compile("(?i)" + rule.Pattern + `\s*[:=]\s*(.+)`)
	if err != nil {
		return "", fmt.Errorf("compile pattern: %w", err)
	}

	match := pattern.FindStringSubmatch(output)
	if len(match) < 2 {
		return "", nil
	}

	return strings.TrimSpace(match[1]), nil
}

func countMatchingLines(rule Rule, output string) (string, error) {
	pattern, err := regexp.Compile(rule.Pattern)
	if err != nil {
		return "", fmt.Errorf("compile pattern: %w", err)
	}

	count := 0

	for _, line := range strings.Split(output, "\n") {
		if pattern.MatchString(line) {
			count++
		}
	}

	return strconv.Itoa(count), nil
}

func checkContains(rule Rule, output string) (string, error) {
	pattern, err := regexp.Compile("(?i)" + rule.Pattern)
	if err != nil {
		return "", fmt.Errorf("compile pattern: %w", err)
	}

	return strconv.FormatBool(pattern.MatchString(output)), nil
}

func extractFromJSON(rule Rule, output string) (string, error) {
	pattern, err := regexp.Compile(`"` + regexp.QuoteMeta(rule.Pattern) + `"\s*:\s*"([^"]+)"`)
	if err != nil {
		return "", fmt.Errorf("compile pattern: %w", err)
	}

	match := pattern.FindStringSubmatch(output)
	if len(match) < 2 {
		return "", nil
	}

	return match[1], nil
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	specialChars  = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	leadingNumber = regexp.MustCompile(`(\d+)`)
)

func applyTransform(value string, transform Transform) string {
	switch transform {
	case TransformUppercase:
		return strings.ToUpper(value)
	case TransformLowercase:
		return strings.ToLower(value)
	case TransformTrim:
		return strings.TrimSpace(value)
	case TransformReplaceSpaces:
		return whitespaceRun.ReplaceAllString(value, "_")
	case TransformRemoveSpecial:
		return specialChars.ReplaceAllString(value, "")
	case TransformExtractNumber:
		if match := leadingNumber.FindStringSubmatch(value); match != nil {
			return match[1]
		}

		return value
	default:
		return value
	}
}
