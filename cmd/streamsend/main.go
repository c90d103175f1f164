// Command streamsend drives an Interledger STREAM sender core from the
// command line.
package main

import "github.com/LeJamon/ilpstreamd/internal/cli"

func main() {
	cli.Execute()
}
