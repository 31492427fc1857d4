package version

import "fmt"

// Set at build time with -ldflags "-X smooth/internal/version.gitVersion=...".
var (
	gitVersion = "v0.0.0-dev"
	gitCommit  = "unknown"
	buildDate  = "unknown"
)

type Info struct {
	GitVersion string `json:"gitVersion"`
	GitCommit  string `json:"gitCommit"`
	BuildDate  string `json:"buildDate"`
}

func Get() Info {
	return Info{GitVersion: gitVersion, GitCommit: gitCommit, BuildDate: buildDate}
}

func (i Info) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", i.GitVersion, i.GitCommit, i.BuildDate)
}
