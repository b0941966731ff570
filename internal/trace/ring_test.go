package trace

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendAndLinesOrder(t *testing.T) {
	r := New()
	r.Append("a\n")
	r.Append("b\n")
	r.Append("c\n")
	assert.Equal(t, []string{"a\n", "b\n", "c\n"}, r.Lines())
}

func TestWrapEvictsOldest(t *testing.T) {
	r := New()
	for i := 0; i < Capacity+3; i++ {
		r.Append(fmt.Sprintf("%d\n", i))
	}
	lines := r.Lines()
	assert.Len(t, lines, Capacity)
	assert.Equal(t, "3\n", lines[0])
	assert.Equal(t, fmt.Sprintf("%d\n", Capacity+2), lines[Capacity-1])
}

func TestDumpChronological(t *testing.T) {
	r := New()
	for i := 0; i < Capacity+1; i++ {
		r.Append(fmt.Sprintf("%04d\n", i))
	}
	var buf bytes.Buffer
	assert.NoError(t, r.Dump(&buf))
	assert.Contains(t, buf.String(), "0001\n0002\n")
}

func TestLineTruncation(t *testing.T) {
	r := New()
	long := make([]byte, MaxLineLength+10)
	for i := range long {
		long[i] = 'x'
	}
	r.Append(string(long))
	assert.Len(t, r.Lines()[0], MaxLineLength)
}
