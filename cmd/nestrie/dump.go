package main

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"nestrie"
)

var dumpJSON bool

func init() {
	dumpCmd.Flags().BoolVar(&dumpJSON, "json", false, "print the size breakdown as JSON")
	rootCmd.AddCommand(dumpCmd)
}

var dumpCmd = &cobra.Command{
	Use:   "dump <trie>",
	Short: "Print trie statistics and a per-layer size breakdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		trie := nestrie.New()
		if err := trie.Load(args[0]); err != nil {
			return err
		}

		sum, err := trie.Checksum()
		if err != nil {
			return err
		}

		cmd.Printf("keys:       %s\n", humanize.Comma(int64(trie.NumKeys())))
		cmd.Printf("nodes:      %s\n", humanize.Comma(int64(trie.NumNodes())))
		cmd.Printf("tries:      %d\n", trie.NumTries())
		cmd.Printf("tail mode:  %s\n", trie.TailMode())
		cmd.Printf("node order: %s\n", trie.NodeOrder())
		cmd.Printf("memory:     %s\n", humanize.Bytes(uint64(trie.TotalSize())))
		cmd.Printf("on disk:    %s\n", humanize.Bytes(uint64(trie.IOSize())))
		cmd.Printf("checksum:   %016x\n", sum)

		if dumpJSON {
			cmd.Println(trie.MemReport().JSON())
		} else {
			cmd.Print(trie.MemReport().String())
		}
		return nil
	},
}
