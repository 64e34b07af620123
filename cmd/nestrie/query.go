package main

import (
	"bufio"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"nestrie"
)

var useMmap bool

func init() {
	for _, c := range []*cobra.Command{lookupCmd, reverseCmd, prefixCmd, predictCmd} {
		c.Flags().BoolVar(&useMmap, "mmap", false, "map the trie file instead of loading it")
		rootCmd.AddCommand(c)
	}
}

func openTrie(path string) (*nestrie.Trie, error) {
	trie := nestrie.New()
	if useMmap {
		return trie, trie.Mmap(path)
	}
	return trie, trie.Load(path)
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <trie> [key...]",
	Short: "Look keys up (stdin when none given) and print their ids",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		trie, err := openTrie(args[0])
		if err != nil {
			return err
		}
		defer trie.Close()

		agent := nestrie.NewAgent()
		report := func(key string) error {
			agent.SetQuery([]byte(key))
			found, err := trie.Lookup(agent)
			if err != nil {
				return err
			}
			if found {
				cmd.Printf("%d\t%s\n", agent.KeyID(), key)
			} else {
				cmd.Printf("-\t%s\n", key)
			}
			return nil
		}

		if len(args) > 1 {
			for _, key := range args[1:] {
				if err := report(key); err != nil {
					return err
				}
			}
			return nil
		}
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			if err := report(sc.Text()); err != nil {
				return err
			}
		}
		return sc.Err()
	},
}

var reverseCmd = &cobra.Command{
	Use:   "reverse <trie> <id...>",
	Short: "Print the key owning each id",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		trie, err := openTrie(args[0])
		if err != nil {
			return err
		}
		defer trie.Close()

		agent := nestrie.NewAgent()
		for _, raw := range args[1:] {
			id, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				return err
			}
			agent.SetQueryID(uint32(id))
			if err := trie.ReverseLookup(agent); err != nil {
				return err
			}
			cmd.Printf("%d\t%s\n", id, agent.Key())
		}
		return nil
	},
}

var prefixCmd = &cobra.Command{
	Use:   "prefix <trie> <query>",
	Short: "Print every key that is a prefix of the query",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		trie, err := openTrie(args[0])
		if err != nil {
			return err
		}
		defer trie.Close()

		agent := nestrie.NewAgent()
		agent.SetQuery([]byte(args[1]))
		for {
			found, err := trie.CommonPrefixSearch(agent)
			if err != nil {
				return err
			}
			if !found {
				return nil
			}
			cmd.Printf("%d\t%s\n", agent.KeyID(), agent.Key())
		}
	},
}

var predictLimit int

func init() {
	predictCmd.Flags().IntVar(&predictLimit, "limit", 0, "stop after this many results (0 = all)")
}

var predictCmd = &cobra.Command{
	Use:   "predict <trie> [query]",
	Short: "Print every key extending the query, in node order",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		trie, err := openTrie(args[0])
		if err != nil {
			return err
		}
		defer trie.Close()

		query := ""
		if len(args) == 2 {
			query = args[1]
		}
		agent := nestrie.NewAgent()
		agent.SetQuery([]byte(query))
		for n := 0; predictLimit == 0 || n < predictLimit; n++ {
			found, err := trie.PredictiveSearch(agent)
			if err != nil {
				return err
			}
			if !found {
				return nil
			}
			cmd.Printf("%d\t%s\n", agent.KeyID(), agent.Key())
		}
		return nil
	},
}
