package unit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_CopiesLines(t *testing.T) {
	lines := []string{"export A", "A = 1"}
	def := Wrap("m1", lines)
	lines[0] = "mutated"

	assert.Equal(t, "m1", def.Name)
	assert.Equal(t, []string{"export A", "A = 1"}, def.BodyLines)
}

func TestSource(t *testing.T) {
	def := Wrap("m1", []string{"export A,b", "    struct A", "        x", "    end", "    b = 1"})

	want := "module m1\nexport A,b\n    struct A\n        x\n    end\n    b = 1\nend"
	assert.Equal(t, want, Source(def, ""))
	assert.Equal(t, want, Source(def, "module"))
}

func TestSource_EmptyBody(t *testing.T) {
	assert.Equal(t, "module empty\nend", Source(Wrap("empty", nil), DefaultKeyword))
}

func TestSource_CustomKeyword(t *testing.T) {
	assert.Equal(t, "baremodule m\nx = 1\nend", Source(Wrap("m", []string{"x = 1"}), "baremodule"))
}

func TestValidName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"m1", true},
		{"_scratch", true},
		{"Geometry", true},
		{"", false},
		{"1m", false},
		{"../etc", false},
		{"a.b", false},
		{"has space", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidName(tt.name))
		})
	}
}
