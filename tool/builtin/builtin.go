// Package builtin provides the stock leaf tools behind the registry
// contract: calculator, weather, encyclopedia lookup, web search and
// sandboxed file operations. Everything network-bound goes through one
// http.Client with a bounded timeout; every handler returns a tool.Result
// whose Data carries a "summary" string the synthesizer can quote directly.
package builtin

import (
	"net/http"
	"time"

	"github.com/turnwise/turnwise/tool"
)

// Options configure the built-in tool set.
type Options struct {
	// BaseDir sandboxes the file tools; paths outside it are rebased into
	// it. Default "data".
	BaseDir string
	// HTTPClient serves the network tools; default has a 10s timeout.
	HTTPClient *http.Client
}

// RegisterAll adds every built-in tool plus the run_tool composition tool to
// the registry. Registration failures are configuration errors and surface
// immediately.
func RegisterAll(r *tool.Registry, optFns ...func(o *Options)) error {
	opts := Options{
		BaseDir:    "data",
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	registrations := []func(*tool.Registry, *Options) error{
		registerCalculator,
		registerWeather,
		registerWikipedia,
		registerWebSearch,
		registerFileTools,
	}
	for _, register := range registrations {
		if err := register(r, &opts); err != nil {
			return err
		}
	}
	return tool.RegisterCompose(r)
}
