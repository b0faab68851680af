package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePartNumbers(t *testing.T) {
	input := `# work order 4711
10.00001	main board	rev 02
10.00002 power board

  10.00003
10.00001	duplicate
	# indented comment
`
	parts, err := parsePartNumbers(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"10.00001", "10.00002", "10.00003"}, parts)
}

func TestLoadPartNumbersEmpty(t *testing.T) {
	_, err := LoadPartNumbers(writeFile(t, "parts.txt", "# nothing yet\n\n"))
	assert.ErrorContains(t, err, "no part numbers")
}
