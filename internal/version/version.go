package version

// Version is the pagebuilder release, set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/pagebuilder/internal/version.Version=v0.3.0".
var Version = "dev"

// Build metadata, also injected through ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by --version.
func String() string {
	return "pagebuilder " + Version + " (" + GitCommit + ", built " + BuildTime + ")"
}
