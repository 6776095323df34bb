package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/godown-ops/godown/internal/app"
	_ "github.com/godown-ops/godown/testing"
)

func TestMainReturnsInTestMode(t *testing.T) {
	require.True(t, app.InTestMode())
	require.NotPanics(t, main)
}
