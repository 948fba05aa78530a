package vars

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Print(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf)

	require.Contains(t, buf.String(), "name:     SCPQuery\n")
	require.Contains(t, buf.String(), "license:  AGPL-3.0\n")
}

func Test_CommitShort(t *testing.T) {
	orig := Commit
	defer func() { Commit = orig }()

	Commit = "da15c174cd2ada1ad247906536c101e8f6799def"
	require.Equal(t, "da15c17", CommitShort())

	Commit = "abc"
	require.Equal(t, "abc", CommitShort())
}

func Test_UserAgent(t *testing.T) {
	require.Equal(t, Name+"/"+Version, UserAgent())
	require.Equal(t, Name, Info().Name)
}
