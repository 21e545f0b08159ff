package classifier

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClassifier() *Classifier {
	return New(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func TestClassifier_Analyze_GenericScoring(t *testing.T) {
	c := newTestClassifier()

	analysis := c.Analyze(Input{Output: "Configuration applied successfully. Service active."})
	assert.True(t, analysis.Success)
	assert.Equal(t, "success", analysis.Variables["generic_status"])
	assert.Equal(t, "success", analysis.Variables["command_status"])

	analysis = c.Analyze(Input{Output: "Error: command failed, connection timeout"})
	assert.False(t, analysis.Success)
	assert.Equal(t, "failure", analysis.Variables["generic_status"])
	assert.Positive(t, analysis.NegativeScore)
}

func TestClassifier_Analyze_EmptyOutputIsFailure(t *testing.T) {
	analysis := newTestClassifier().Analyze(Input{Output: ""})

	assert.False(t, analysis.Success, "zero positive score can never be success")
	assert.Zero(t, analysis.PositiveScore)
}

func TestClassifier_Analyze_Monotonicity(t *testing.T) {
	c := newTestClassifier()

	base := "interface configured, status ok"
	analysisBase := c.Analyze(Input{Output: base})
	require.True(t, analysisBase.Success)

	// Appending positive indicators must never lower the score or flip the
	// decision to failure.
	extended := base + " success success active established"
	analysisExtended := c.Analyze(Input{Output: extended})

	assert.GreaterOrEqual(t, analysisExtended.PositiveScore, analysisBase.PositiveScore)
	assert.True(t, analysisExtended.Success)
}

func TestClassifier_Analyze_InterfaceAdjacency(t *testing.T) {
	c := newTestClassifier()

	up := c.Analyze(Input{
		TaskName: "check interface",
		Output:   "GigabitEthernet0/1 is up, line protocol is up",
	})
	assert.True(t, up.Success)
	assert.Equal(t, "true", up.Variables["interface_status"])

	down := c.Analyze(Input{
		TaskName: "check interface",
		Output:   "GigabitEthernet0/1 is administratively down, line protocol is down",
	})
	assert.Equal(t, "false", down.Variables["interface_status"])
	assert.False(t, down.Success)
}

func TestClassifier_Analyze_Ping(t *testing.T) {
	c := newTestClassifier()

	ok := c.Analyze(Input{
		TaskName: "ping gateway",
		Output:   "Success rate is 100 percent (5/5)",
	})
	assert.Equal(t, "true", ok.Variables["ping_status"])
	assert.True(t, ok.Success)

	lost := c.Analyze(Input{
		TaskName: "ping gateway",
		Output:   "Success rate is 0 percent (0/5)",
	})
	assert.Equal(t, "false", lost.Variables["ping_status"])
}

func TestClassifier_Analyze_SaveConfirmation(t *testing.T) {
	analysis := newTestClassifier().Analyze(Input{
		TaskName: "save config",
		Output:   "Building configuration...\n[OK]",
	})

	assert.Equal(t, "true", analysis.Variables["save_status"])
	assert.True(t, analysis.Success)
}

func TestClassifier_Analyze_VlanEntityVariable(t *testing.T) {
	analysis := newTestClassifier().Analyze(Input{
		TaskName:   "verify vlan",
		Output:     "100  management  active    Gi0/1",
		Parameters: map[string]any{"vlan_id": 100},
	})

	assert.Equal(t, "true", analysis.Variables["vlan_status"])
	assert.Equal(t, "true", analysis.Variables["vlan_100_status"])
	assert.Equal(t, "true", analysis.Variables["verification_status"])
}

func TestClassifier_Analyze_RouteDetection(t *testing.T) {
	analysis := newTestClassifier().Analyze(Input{
		TaskName: "show ip route check",
		Command:  "show ip route",
		Output:   "C    192.168.1.0/24 is directly connected, GigabitEthernet0/0",
	})

	assert.Equal(t, "true", analysis.Variables["route_status"])
}

func TestClassifier_JudgeStatusVariable(t *testing.T) {
	c := newTestClassifier()

	assert.True(t, c.JudgeStatusVariable("interface_status", "Gi0/1 is up, line protocol is up"))
	assert.False(t, c.JudgeStatusVariable("interface_status", "Gi0/1 is down, line protocol is down"))
	assert.True(t, c.JudgeStatusVariable("vlan_check", "100  mgmt  active"))
	assert.True(t, c.JudgeStatusVariable("ping_result", "0% packet loss"))
	assert.True(t, c.JudgeStatusVariable("misc_status", "completed ok"))
}

func TestIsStatusVariable(t *testing.T) {
	assert.True(t, IsStatusVariable("vlan_100_status"))
	assert.True(t, IsStatusVariable("interface_state"))
	assert.False(t, IsStatusVariable("hostname"))
}
