package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"nestrie"
)

var buildOpts struct {
	output     string
	numTries   int
	cache      string
	textTail   bool
	labelOrder bool
	weighted   bool
}

func init() {
	buildCmd.Flags().StringVarP(&buildOpts.output, "output", "o", "keys.trie", "output trie file")
	buildCmd.Flags().IntVarP(&buildOpts.numTries, "num-tries", "n", nestrie.DefaultNumTries, "forest depth (1..7)")
	buildCmd.Flags().StringVar(&buildOpts.cache, "cache", "normal", "cache level: tiny, small, normal, large, huge")
	buildCmd.Flags().BoolVar(&buildOpts.textTail, "text-tail", false, "use NUL-terminated tail storage")
	buildCmd.Flags().BoolVar(&buildOpts.labelOrder, "label-order", false, "order siblings by label instead of weight")
	buildCmd.Flags().BoolVarP(&buildOpts.weighted, "weighted", "w", false, "read TAB-separated weights after each key")
	rootCmd.AddCommand(buildCmd)
}

var cacheFlags = map[string]nestrie.Flags{
	"tiny":   nestrie.TinyCache,
	"small":  nestrie.SmallCache,
	"normal": nestrie.NormalCache,
	"large":  nestrie.LargeCache,
	"huge":   nestrie.HugeCache,
}

func buildFlags() (nestrie.Flags, error) {
	cache, ok := cacheFlags[buildOpts.cache]
	if !ok {
		return 0, fmt.Errorf("unknown cache level %q", buildOpts.cache)
	}
	flags := nestrie.NumTries(buildOpts.numTries) | cache
	if buildOpts.textTail {
		flags |= nestrie.TextTail
	} else {
		flags |= nestrie.BinaryTail
	}
	if buildOpts.labelOrder {
		flags |= nestrie.LabelOrder
	} else {
		flags |= nestrie.WeightOrder
	}
	return flags, nil
}

var buildCmd = &cobra.Command{
	Use:   "build [file]",
	Short: "Build a trie from keys, one per line (stdin when no file)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags, err := buildFlags()
		if err != nil {
			return err
		}

		var in io.Reader = os.Stdin
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		ks, err := readKeyset(in, buildOpts.weighted)
		if err != nil {
			return err
		}

		trie := nestrie.New()
		if err := trie.Build(ks, flags); err != nil {
			return err
		}
		if err := trie.Save(buildOpts.output); err != nil {
			return err
		}

		cmd.Printf("%s keys, %s nodes, %d tries, %s on disk -> %s\n",
			humanize.Comma(int64(trie.NumKeys())),
			humanize.Comma(int64(trie.NumNodes())),
			trie.NumTries(),
			humanize.Bytes(uint64(trie.IOSize())),
			buildOpts.output)
		return nil
	},
}

// readKeyset parses one key per line; with weighted set, a trailing
// "<TAB>weight" field scales the key.
func readKeyset(in io.Reader, weighted bool) (*nestrie.Keyset, error) {
	ks := nestrie.NewKeyset()
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		weight := float32(1)
		if weighted {
			if i := strings.LastIndexByte(text, '\t'); i >= 0 {
				w, err := strconv.ParseFloat(text[i+1:], 32)
				if err != nil {
					return nil, fmt.Errorf("line %d: bad weight %q", line, text[i+1:])
				}
				text, weight = text[:i], float32(w)
			}
		}
		if err := ks.PushWeighted([]byte(text), weight); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return ks, nil
}
