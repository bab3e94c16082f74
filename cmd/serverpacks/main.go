// Command serverpacks runs a Gate proxy with the ServerPacks plugin.
package main

import (
	"fmt"
	"os"

	"go.minekube.com/gate/cmd/gate"
	"go.minekube.com/gate/pkg/edition/java/proxy"

	"go.minekube.com/serverpacks/pkg/plugin"
)

func main() {
	opts, err := plugin.LoadOptions()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	proxy.Plugins = append(proxy.Plugins, plugin.Plugin(opts))
	gate.Execute()
}
