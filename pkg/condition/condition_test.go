package condition

import (
	"log/slog"
	"os"
	"testing"

	"github.com/netforgehq/netforge/pkg/classifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type varMap map[string]string

func (m varMap) VariableString(name string) string { return m[name] }

func newTestEvaluator() *Evaluator {
	c := classifier.New(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	return NewEvaluator(c, classifier.IsStatusVariable)
}

func TestParse(t *testing.T) {
	expr, err := Parse(`${count} > 5`)
	require.NoError(t, err)
	assert.Equal(t, "count", expr.Variable)
	assert.Equal(t, OpGreaterThan, expr.Op)
	assert.Equal(t, "5", expr.Literal)

	expr, err = Parse(`${output} contains "Success rate"`)
	require.NoError(t, err)
	assert.Equal(t, OpContains, expr.Op)
	assert.Equal(t, "Success rate", expr.Literal)
}

func TestParse_LiteralContainingOperatorText(t *testing.T) {
	expr, err := Parse(`${banner} == "a == b > c contains d"`)
	require.NoError(t, err)
	assert.Equal(t, OpEquals, expr.Op)
	assert.Equal(t, "a == b > c contains d", expr.Literal)
}

func TestParse_Malformed(t *testing.T) {
	for _, expression := range []string{
		"",
		"count > 5",
		"${count 5",
		"${} == 5",
		"${count} ~= 5",
	} {
		_, err := Parse(expression)
		assert.Error(t, err, expression)
	}
}

func TestEvaluator_Equality(t *testing.T) {
	eval := newTestEvaluator()

	result, err := eval.Evaluate(`${mode} == "access"`, varMap{"mode": "access"})
	require.NoError(t, err)
	assert.True(t, result)

	// Case-sensitive compare.
	result, err = eval.Evaluate(`${mode} == "Access"`, varMap{"mode": "access"})
	require.NoError(t, err)
	assert.False(t, result)
}

func TestEvaluator_MissingVariableIsEmpty(t *testing.T) {
	eval := newTestEvaluator()

	result, err := eval.Evaluate(`${missing} == ""`, varMap{})
	require.NoError(t, err)
	assert.True(t, result)
}

func TestEvaluator_Contains_CaseInsensitive(t *testing.T) {
	eval := newTestEvaluator()

	result, err := eval.Evaluate(`${output} contains "SUCCESS"`, varMap{"output": "Success rate is 100"})
	require.NoError(t, err)
	assert.True(t, result)
}

func TestEvaluator_GreaterThan_FailsClosed(t *testing.T) {
	eval := newTestEvaluator()

	result, err := eval.Evaluate(`${count} > "5"`, varMap{"count": "10"})
	require.NoError(t, err)
	assert.True(t, result)

	result, err = eval.Evaluate(`${count} > "5"`, varMap{"count": "abc"})
	require.NoError(t, err)
	assert.False(t, result, "unparseable operand evaluates false, never errors")

	result, err = eval.Evaluate(`${count} > abc`, varMap{"count": "10"})
	require.NoError(t, err)
	assert.False(t, result)
}

func TestEvaluator_StatusShortcutDelegatesToClassifier(t *testing.T) {
	eval := newTestEvaluator()

	vars := varMap{"interface_status": "GigabitEthernet0/1 is up, line protocol is up"}

	// Literal compare would fail; the domain shortcut judges the raw text.
	result, err := eval.Evaluate(`${interface_status} == "success"`, vars)
	require.NoError(t, err)
	assert.True(t, result)

	vars["interface_status"] = "GigabitEthernet0/1 is down, line protocol is down"
	result, err = eval.Evaluate(`${interface_status} == "success"`, vars)
	require.NoError(t, err)
	assert.False(t, result)

	// Non-status variables keep the literal compare even for the sentinel.
	result, err = eval.Evaluate(`${hostname} == "success"`, varMap{"hostname": "success"})
	require.NoError(t, err)
	assert.True(t, result)
}
