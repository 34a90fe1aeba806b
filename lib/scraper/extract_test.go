package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractObjectLiteral(t *testing.T) {
	script := `var pmkinoFrontVars = {"a":{"b":1}}; someOtherCode();`

	literal, err := ExtractObjectLiteral(script, payloadMarker)
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"b":1}}`, literal)
}

func TestExtractObjectLiteralIgnoresSurroundingObjects(t *testing.T) {
	script := `var other = {"x":{"y":2}};
var pmkinoFrontVars = {"apiData":{"movies":{}}};
doSomething({"z":3});`

	literal, err := ExtractObjectLiteral(script, payloadMarker)
	require.NoError(t, err)
	assert.Equal(t, `{"apiData":{"movies":{}}}`, literal)
}

func TestExtractObjectLiteralAtEndOfScript(t *testing.T) {
	literal, err := ExtractObjectLiteral(`var pmkinoFrontVars = {"a":1}`, payloadMarker)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, literal)
}

func TestExtractObjectLiteralMarkerMissing(t *testing.T) {
	_, err := ExtractObjectLiteral(`var somethingElse = {"a":1};`, payloadMarker)
	assert.ErrorContains(t, err, "not found")
}

func TestExtractObjectLiteralUnbalancedBraces(t *testing.T) {
	_, err := ExtractObjectLiteral(`var pmkinoFrontVars = {"a":{"b":1}`, payloadMarker)
	assert.ErrorContains(t, err, "unbalanced braces")
}

func TestSanitizeScript(t *testing.T) {
	raw := "\n/*<![CDATA[ */\nvar pmkinoFrontVars = {};\n/* ]]>*/\n"
	assert.Equal(t, "var pmkinoFrontVars = {};", sanitizeScript(raw))
}
