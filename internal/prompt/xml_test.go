package prompt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseObservationXMLDefaultsInvalidType(t *testing.T) {
	raw := `<observation><type>bogus</type><title>t</title><narrative>n</narrative><concepts><concept>change</concept><concept>gotcha</concept></concepts></observation>`
	args, ok := ParseObservationXML(raw)
	require.True(t, ok)
	require.Equal(t, "change", args.Type)
	require.Equal(t, []string{"gotcha"}, args.Concepts)
}

func TestParseObservationXMLValidType(t *testing.T) {
	raw := `<observation><type>decision</type><title>t</title><narrative>n</narrative><facts><fact>a</fact><fact>b</fact></facts></observation>`
	args, ok := ParseObservationXML(raw)
	require.True(t, ok)
	require.Equal(t, "decision", args.Type)
	require.Equal(t, []string{"a", "b"}, args.Facts)
}

func TestParseObservationXMLMissingBlock(t *testing.T) {
	_, ok := ParseObservationXML("no xml here")
	require.False(t, ok)
}

func TestParseSummaryXML(t *testing.T) {
	raw := `<summary><request>do x</request><completed>did x</completed><next_steps>do y</next_steps></summary>`
	args, ok := ParseSummaryXML(raw)
	require.True(t, ok)
	require.Equal(t, "do x", args.Request)
	require.Equal(t, "do y", args.NextSteps)
}
