package collector

import (
	"testing"

	"github.com/stretchr/testify/require"
	"howett.net/plist"
)

// encodeRecord renders v the way powermetrics frames a sample: an XML plist
// followed by a newline and a NUL terminator.
func encodeRecord(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := plist.MarshalIndent(v, plist.XMLFormat, "\t")
	require.NoError(t, err)
	return append(data, '\n', 0)
}

// encodePlist renders v as a bare XML plist, the way ioreg -a prints.
func encodePlist(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := plist.MarshalIndent(v, plist.XMLFormat, "\t")
	require.NoError(t, err)
	return data
}

type m = map[string]interface{}

type l = []interface{}
