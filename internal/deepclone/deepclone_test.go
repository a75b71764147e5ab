package deepclone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapIsIndependent(t *testing.T) {
	original := map[string]any{
		"scalar": 1,
		"nested": map[string]any{"inner": []any{1, 2}},
		"list":   []any{map[string]any{"k": "v"}},
	}

	cloned := Map(original)
	assert.Equal(t, original, cloned)

	cloned["nested"].(map[string]any)["inner"] = []any{9}
	cloned["list"].([]any)[0].(map[string]any)["k"] = "changed"

	assert.Equal(t, []any{1, 2}, original["nested"].(map[string]any)["inner"])
	assert.Equal(t, "v", original["list"].([]any)[0].(map[string]any)["k"])
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Map(nil))
	assert.Nil(t, Slice(nil))
	assert.Nil(t, Value(nil))
}

func TestScalarsPassThrough(t *testing.T) {
	assert.Equal(t, 42, Value(42))
	assert.Equal(t, "s", Value("s"))
	assert.Equal(t, true, Value(true))
	assert.Equal(t, 1.5, Value(1.5))
}
