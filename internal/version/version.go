// Package version holds build metadata injected via ldflags.
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Product is the name reported in banners and outbound requests.
const Product = "programdex"

// UserAgent identifies programdex to the sites it scrapes.
func UserAgent() string {
	return fmt.Sprintf("Mozilla/5.0 (compatible; %s/%s)", Product, Version)
}
