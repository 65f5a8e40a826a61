// Command docdex is the documentation retrieval server and its
// ingestion tooling.
package main

import (
	"github.com/docdex-io/docdex/internal/adapters/driving/cli"
)

func main() {
	cli.Execute()
}
