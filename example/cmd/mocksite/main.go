// Standalone copy of the demo shop for trying the CLI offline.
//
// Usage:
//
//	go run ./example/cmd/mocksite
//
// Then in another terminal:
//
//	go run ./cmd/sitewait serve -c example/config.yaml
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/jpalmerr/sitewait/internal/sitefixture"
)

func main() {
	addr := flag.String("addr", ":9999", "listen address")
	flaky := flag.Bool("flaky", false, "cycle through ok, slow and down")
	flag.Parse()

	var handler http.Handler = sitefixture.Handler()
	if *flaky {
		handler = sitefixture.NewFlaky(handler, slog.Default())
	}

	fmt.Printf("Mock shop starting on %s\n", *addr)
	if *flaky {
		fmt.Println("Site cycles through: ok → slow → down")
	}
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	if err := http.ListenAndServe(*addr, handler); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
