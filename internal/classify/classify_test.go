package classify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"smtdump/internal/inspect"
)

type sample struct {
	Count    int
	Names    []string
	Indices  []int16
	Flags    []bool
	Ratios   []float64
	Inner    *sample
	Anything any
	Children []*sample
	Table    map[string]*sample
}

func member(t *testing.T, v inspect.Value, name string) inspect.Member {
	t.Helper()
	m, ok := inspect.Lookup(v, name)
	if !ok {
		t.Fatalf("member %s not found", name)
	}
	return m
}

func TestClassify(t *testing.T) {
	v := inspect.Reflect(&sample{
		Names:    []string{"a"},
		Inner:    &sample{},
		Anything: []int{1, 2},
	}, inspect.WithoutProperties())

	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"Count", nil, Leaf},
		{"Names", nil, Collection},
		{"Inner", nil, Nested},
		{"Anything", nil, Collection},
		{"Flags", nil, Leaf}, // nil slice reads as null
		{"Count", errors.New("boom"), Unreadable},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.want.String(), func(t *testing.T) {
			m := member(t, v, tt.name)
			val, err := m.Read()
			if tt.err != nil {
				val, err = nil, tt.err
			}
			assert.Equal(t, tt.want, Classify(m, val, err))
		})
	}
}

func TestArrayShapes(t *testing.T) {
	v := inspect.Reflect(&sample{}, inspect.WithoutProperties())

	assert.True(t, IsIntegerArray(member(t, v, "Indices")))
	assert.False(t, IsIntegerArray(member(t, v, "Flags")))
	assert.False(t, IsIntegerArray(member(t, v, "Ratios")))
	assert.False(t, IsIntegerArray(member(t, v, "Count")))

	assert.True(t, IsBoolArray(member(t, v, "Flags")))
	assert.True(t, IsStringArray(member(t, v, "Names")))
	assert.False(t, IsStringArray(member(t, v, "Flags")))

	assert.True(t, IsObjectArray(member(t, v, "Children")))
	assert.False(t, IsObjectArray(member(t, v, "Table")))
	assert.False(t, IsObjectArray(member(t, v, "Names")))
}

func TestFilter(t *testing.T) {
	var zero Filter
	assert.True(t, zero.Empty())
	assert.True(t, zero.Match("anything"))

	f := NewFilter("Unlock", "", "unlock", "EMPLOYEE")
	assert.Equal(t, []string{"unlock", "employee"}, f.Keys())
	assert.Equal(t, "unlock,employee", f.String())

	tests := []struct {
		name string
		want bool
	}{
		{"isUnlocked", true},
		{"maxEmployees", true},
		{"UNLOCKED_FLAGS", true},
		{"points", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, f.Match(tt.name), "Match(%q)", tt.name)
	}

	assert.True(t, UIRootKeywords.MatchAll("Main_ButtonsBar"))
	assert.False(t, UIRootKeywords.MatchAll("Buttons_Panel"))
}

func TestLooksEmployeeRelated(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"employee_B", true},
		{"Hire 5 Staff", true},
		{"NPC speed", true},
		{"Worker of the month", true},
		{"A", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LooksEmployeeRelated(tt.in), tt.in)
	}
}
