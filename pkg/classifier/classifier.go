// Package classifier scores raw device command output into success or
// failure signals and derives status variables for workflow branching.
package classifier

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Keyword lists driving the generic score. Each occurrence in the lowercase
// output counts one point.
var (
	positiveKeywords = []string{
		"success", "successful", "ok", "up", "active", "established",
		"connected", "enabled", "running", "complete", "configured",
		"saved", "valid", "reachable",
	}

	negativeKeywords = []string{
		"error", "failed", "failure", "down", "timeout", "denied",
		"invalid", "refused", "unreachable", "rejected", "incomplete",
		"unknown command", "not found",
	}
)

// Weighted bonuses for recognized domain patterns.
const (
	bonusInterfaceUp   = 3
	bonusInterfaceDown = 3
	bonusPingSuccess   = 3
	bonusPingFailure   = 3
	bonusSaveConfirm   = 2
	bonusVlanActive    = 2
	bonusRoutePresent  = 2
	bonusConfigPrompt  = 1
	bonusShowHasData   = 1
)

var (
	interfaceUpPattern   = regexp.MustCompile(`(?is)is\s+up\b.*?(line\s+protocol\s+is\s+)?up\b`)
	interfaceDownPattern = regexp.MustCompile(`(?i)is\s+(administratively\s+)?down\b`)
	pingSuccessPattern   = regexp.MustCompile(`(?i)success rate is\s+([1-9]\d*)|(\d+) packets transmitted, ([1-9]\d*)( packets)? received|\b0% packet loss`)
	pingFailurePattern   = regexp.MustCompile(`(?i)success rate is\s+0\b|100% packet loss|0( packets)? received`)
	savePattern          = regexp.MustCompile(`(?i)building configuration|\[ok\]`)
	vlanActivePattern    = regexp.MustCompile(`(?im)^\s*\d+\s+\S+\s+active\b`)
	routePattern         = regexp.MustCompile(`(?m)^[CSROD]\*?\s+\d+\.\d+\.\d+\.\d+`)
	configPromptPattern  = regexp.MustCompile(`\(config[^)]*\)#`)
)

// Input carries everything the classifier inspects for one task's output.
type Input struct {
	Output     string
	Command    string
	DeviceType string
	TaskName   string
	Parameters map[string]any
}

// Analysis is the classification outcome plus the derived variables to
// publish into the execution's variable context.
type Analysis struct {
	Success       bool
	PositiveScore int
	NegativeScore int
	Variables     map[string]string
}

// Classifier scores command output. Stateless and safe for concurrent use.
type Classifier struct {
	logger *slog.Logger
}

// New creates a classifier logging through the given logger.
func New(logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}

	return &Classifier{logger: logger.With("module", "classifier")}
}

// Analyze scores the output and derives status variables. Success requires
// the positive score to strictly beat the negative one and be non-zero.
func (c *Classifier) Analyze(in Input) *Analysis {
	lower := strings.ToLower(in.Output)
	nameAndCommand := strings.ToLower(in.TaskName + " " + in.Command)

	analysis := &Analysis{Variables: make(map[string]string)}

	for _, keyword := range positiveKeywords {
		analysis.PositiveScore += strings.Count(lower, keyword)
	}

	for _, keyword := range negativeKeywords {
		analysis.NegativeScore += strings.Count(lower, keyword)
	}

	c.scoreDomains(in, lower, nameAndCommand, analysis)

	analysis.Success = analysis.PositiveScore > analysis.NegativeScore && analysis.PositiveScore > 0

	status := "failure"
	if analysis.Success {
		status = "success"
	}

	analysis.Variables["generic_status"] = status
	analysis.Variables["command_status"] = status
	analysis.Variables["success_confidence"] = fmt.Sprintf("%d", analysis.PositiveScore)
	analysis.Variables["failure_confidence"] = fmt.Sprintf("%d", analysis.NegativeScore)

	c.logger.Debug("classified command output",
		"task", in.TaskName,
		"positive", analysis.PositiveScore,
		"negative", analysis.NegativeScore,
		"success", analysis.Success)

	return analysis
}

// scoreDomains adds weighted bonuses for recognized domain patterns and
// publishes the specialized status booleans.
func (c *Classifier) scoreDomains(in Input, lowerOutput, nameAndCommand string, analysis *Analysis) {
	boolText := func(b bool) string {
		if b {
			return "true"
		}

		return "false"
	}

	if strings.Contains(nameAndCommand, "vlan") || vlanActivePattern.MatchString(in.Output) {
		active := vlanActivePattern.MatchString(in.Output)
		if active {
			analysis.PositiveScore += bonusVlanActive
		}

		analysis.Variables["vlan_status"] = boolText(active)
		c.entityStatus(in, analysis, "vlan", "vlan_id", active)
	}

	if strings.Contains(nameAndCommand, "interface") || strings.Contains(lowerOutput, "line protocol") {
		up := interfaceUpPattern.MatchString(in.Output)

		switch {
		case up:
			analysis.PositiveScore += bonusInterfaceUp
		case interfaceDownPattern.MatchString(in.Output):
			analysis.NegativeScore += bonusInterfaceDown
		}

		analysis.Variables["interface_status"] = boolText(up)
		c.entityStatus(in, analysis, "interface", "interface", up)
	}

	if strings.Contains(nameAndCommand, "ping") {
		ok := pingSuccessPattern.MatchString(in.Output) && !pingFailurePattern.MatchString(in.Output)
		if ok {
			analysis.PositiveScore += bonusPingSuccess
		} else if pingFailurePattern.MatchString(in.Output) {
			analysis.NegativeScore += bonusPingFailure
		}

		analysis.Variables["ping_status"] = boolText(ok)
	}

	if strings.Contains(nameAndCommand, "route") || strings.Contains(nameAndCommand, "routing") {
		present := routePattern.MatchString(in.Output)
		if present {
			analysis.PositiveScore += bonusRoutePresent
		}

		analysis.Variables["route_status"] = boolText(present)
	}

	if strings.Contains(nameAndCommand, "save") || strings.Contains(nameAndCommand, "write") {
		saved := savePattern.MatchString(in.Output)
		if saved {
			analysis.PositiveScore += bonusSaveConfirm
		}

		analysis.Variables["save_status"] = boolText(saved)
	}

	if strings.Contains(nameAndCommand, "show") {
		hasData := strings.TrimSpace(in.Output) != "" && !strings.Contains(lowerOutput, "invalid input")
		if hasData {
			analysis.PositiveScore += bonusShowHasData
		}

		analysis.Variables["show_status"] = boolText(hasData)
	}

	if configPromptPattern.MatchString(in.Output) {
		analysis.PositiveScore += bonusConfigPrompt
	}

	if strings.Contains(nameAndCommand, "verify") || strings.Contains(nameAndCommand, "verification") {
		analysis.Variables["verification_status"] = boolText(
			analysis.PositiveScore > analysis.NegativeScore && analysis.PositiveScore > 0)
	}
}

// entityStatus publishes an identity-scoped variable such as
// vlan_100_status when the task parameters name the concrete entity.
func (c *Classifier) entityStatus(in Input, analysis *Analysis, entity, paramKey string, ok bool) {
	raw, exists := in.Parameters[paramKey]
	if !exists || raw == nil {
		return
	}

	id := sanitizeIdentifier(fmt.Sprintf("%v", raw))
	if id == "" {
		return
	}

	value := "false"
	if ok {
		value = "true"
	}

	analysis.Variables[entity+"_"+id+"_status"] = value
}

var identifierPattern = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

func sanitizeIdentifier(text string) string {
	return strings.Trim(identifierPattern.ReplaceAllString(text, "_"), "_")
}

// JudgeStatusVariable applies the classifier's domain judgment to a status
// variable's raw text. Used by the condition evaluator when a
// connectivity-style variable is compared against the success sentinel.
func (c *Classifier) JudgeStatusVariable(name, rawText string) bool {
	lowerName := strings.ToLower(name)

	switch {
	case strings.Contains(lowerName, "interface"):
		return interfaceUpPattern.MatchString(rawText)
	case strings.Contains(lowerName, "vlan"):
		return vlanActivePattern.MatchString(rawText)
	case strings.Contains(lowerName, "ping"):
		return pingSuccessPattern.MatchString(rawText) && !pingFailurePattern.MatchString(rawText)
	case strings.Contains(lowerName, "route"):
		return routePattern.MatchString(rawText)
	case strings.Contains(lowerName, "save"), strings.Contains(lowerName, "write"):
		return savePattern.MatchString(rawText)
	default:
		analysis := c.Analyze(Input{Output: rawText})

		return analysis.Success
	}
}

// IsStatusVariable reports whether a variable name refers to a
// connectivity, interface, or VLAN-style status the classifier knows how
// to judge directly.
func IsStatusVariable(name string) bool {
	lower := strings.ToLower(name)

	for _, keyword := range []string{"status", "interface", "vlan", "ping", "route", "connectivity"} {
		if strings.Contains(lower, keyword) {
			return true
		}
	}

	return false
}
