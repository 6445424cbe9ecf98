package controllers

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestCloseReason(t *testing.T) {
	require.Equal(t, "slow consumer", closeReason("slow consumer"))

	ascii := strings.Repeat("a", 200)
	require.Equal(t, ascii[:123], closeReason(ascii))

	// "é" is two bytes; byte 123 falls inside the 62nd one.
	wide := strings.Repeat("é", 100)
	got := closeReason(wide)
	require.True(t, utf8.ValidString(got))
	require.Len(t, got, 122)
	require.LessOrEqual(t, len(got), 123)
}
