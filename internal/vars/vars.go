// Package vars holds build-time variables populated via the linker (ldflags).
package vars

import (
	"fmt"
	"io"
	"strconv"
	"time"
)

// License of the project
const License = "AGPL-3.0"

var (
	// Name of the project
	Name = "SCPQuery"

	// Version of application (git tag), e.g. v1.2.3
	Version = "dev"

	// Commit is the full or short git SHA
	Commit = "unknown"

	// Revision is the count of commits
	Revision = 0

	// BuildTime of the binary, RFC3339 UTC
	BuildTime = time.Unix(0, 0)

	// URL to repository
	URL = "https://github.com/woozymasta/scpquery"

	_revision  string
	_buildTime string
)

// BuildInfo is the build metadata served by /api/version.
type BuildInfo struct {
	BuildTime time.Time `json:"build_time"`
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Commit    string    `json:"commit"`
	URL       string    `json:"url,omitempty"`
	Revision  int       `json:"revision,omitempty"`
}

func init() {
	if n, err := strconv.Atoi(_revision); err == nil {
		Revision = n
	}

	if _buildTime != "" {
		if t, err := time.Parse(time.RFC3339, _buildTime); err == nil {
			BuildTime = t.UTC()
		}
	}
}

// Print writes the build information to w.
func Print(w io.Writer) {
	_, _ = fmt.Fprintf(w, `name:     %s
url:      %s
version:  %s
commit:   %s
revision: %d
built:    %s
license:  %s
`, Name, URL, Version, CommitShort(), Revision, BuildTime.Format(time.RFC3339), License)
}

// Info returns the build metadata.
func Info() BuildInfo {
	return BuildInfo{
		Name:      Name,
		Version:   Version,
		Commit:    Commit,
		Revision:  Revision,
		BuildTime: BuildTime,
		URL:       URL,
	}
}

// UserAgent identifies outgoing HTTP requests, e.g. "SCPQuery/v1.2.3".
func UserAgent() string {
	return Name + "/" + Version
}

// CommitShort returns the first 7 characters of the git commit hash.
func CommitShort() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}

	return Commit
}
