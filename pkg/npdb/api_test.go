package npdb_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operator-framework/npdb/pkg/npdb"
)

func TestNewPattern(t *testing.T) {
	p := npdb.NewPattern([]int{3, 1, 3, 0}, []int{2, 2})
	assert.Equal(t, []int{0, 1, 3}, p.Propositional)
	assert.Equal(t, []int{2}, p.Numeric)
	assert.Equal(t, "[var0, var1, var3, num2]", p.String())
	assert.True(t, npdb.NewPattern(nil, nil).Empty())
}

func TestPatternValidate(t *testing.T) {
	type tc struct {
		Name    string
		Pattern npdb.Pattern
		Valid   bool
	}

	for _, tt := range []tc{
		{
			Name:  "empty",
			Valid: true,
		},
		{
			Name:    "sorted",
			Pattern: npdb.Pattern{Propositional: []int{0, 2}, Numeric: []int{1}},
			Valid:   true,
		},
		{
			Name:    "unsorted",
			Pattern: npdb.Pattern{Propositional: []int{2, 0}},
		},
		{
			Name:    "duplicate",
			Pattern: npdb.Pattern{Numeric: []int{1, 1}},
		},
		{
			Name:    "out of range",
			Pattern: npdb.Pattern{Propositional: []int{5}},
		},
		{
			Name:    "negative",
			Pattern: npdb.Pattern{Numeric: []int{-1}},
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			err := tt.Pattern.Validate(3, 2)
			if tt.Valid {
				assert.NoError(t, err)
				return
			}
			var invalid *npdb.InvalidPatternError
			require.Error(t, err)
			assert.True(t, errors.As(err, &invalid))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "unsupported numeric task: scale effects on x",
		npdb.Unsupported("scale effects on %s", "x").Error())
	assert.Equal(t, "pattern exceeds the state budget of 10 abstract states",
		(&npdb.PatternTooLargeError{Limit: 10}).Error())
}

type position struct{}

func (position) Phase() string   { return "explore" }
func (position) Registered() int { return 4 }
func (position) Expanded() int   { return 3 }
func (position) Exhausted() bool { return true }

func TestLoggingTracer(t *testing.T) {
	var buf bytes.Buffer
	npdb.LoggingTracer{Writer: &buf}.Trace(position{})
	assert.Equal(t, "---\nPhase: explore\n- registered: 4\n- expanded: 3\n- exhausted: true\n", buf.String())
}
