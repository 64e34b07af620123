// Command nestrie builds and queries serialized trie files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nestrie",
	Short: "build and query recursively-indexed succinct tries",
	Long: `nestrie packs a set of byte-string keys into a compressed trie file
that maps each key to a dense integer id and answers exact, reverse,
common-prefix and predictive queries.

  # Build a trie from one key per line
  nestrie build -o words.trie words.txt

  # Query it
  nestrie lookup words.trie apple
  nestrie predict words.trie app
  nestrie dump words.trie`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
