package inventory

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateSKU(t *testing.T) {
	require.Equal(t, "COL-LEM-500-0042", generateSKU("Cola", "Lemon", "500ml", 42))
	require.Equal(t, "CAF-MOC-0007", generateSKU("Café Latte", "Mocha", "", 7))
	require.Equal(t, "JUS-0000", generateSKU("  jus  ", "", "", 10000))
	require.Regexp(t, regexp.MustCompile(`^TEH-MAN-1L-\d{4}$`), GenerateSKU("Teh", "Mango", "1 L"))
}
