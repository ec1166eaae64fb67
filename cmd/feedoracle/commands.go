package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/eth2030/feedoracle/core/types"
	"github.com/eth2030/feedoracle/node"
)

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Run the oracle node with its JSON-RPC and metrics endpoint",
	Flags: []cli.Flag{httpAddrFlag},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		logger, err := node.ConfigureLogging(cfg.Log)
		if err != nil {
			return err
		}
		logger.Info("Starting feedoracle", "version", version, "commit", commit, "db", cfg.DB.Backend)
		n, err := node.New(cfg, logger)
		if err != nil {
			return err
		}
		if err := n.Start(); err != nil {
			n.Close()
			return err
		}
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigs)
		sig := <-sigs
		logger.Info("Received signal, shutting down", "signal", sig)
		return n.Stop()
	},
}

// batchFile is the relayer submission format consumed by submit.
type batchFile struct {
	Params types.VerificationParams `json:"params"`
	Leaves []types.LeafInput        `json:"leaves"`
}

type outcomeJSON struct {
	FeedID          uint64 `json:"feedId"`
	Outcome         string `json:"outcome"`
	Rate            string `json:"rate"`
	Timestamp       uint64 `json:"timestamp"`
	StoredTimestamp uint64 `json:"storedTimestamp"`
}

var submitCommand = &cli.Command{
	Name:  "submit",
	Usage: "Verify and apply a signed leaf batch as a whitelisted publisher",
	Flags: []cli.Flag{fromFlag, fileFlag},
	Action: func(c *cli.Context) error {
		from, err := fromAddress(c)
		if err != nil {
			return err
		}
		var batch batchFile
		if err := readJSON(c.String(fileFlag.Name), &batch); err != nil {
			return err
		}
		return withNode(c, func(n *node.Node) error {
			outs, err := n.Feeds().UpdateFeeds(from, batch.Leaves, &batch.Params)
			if err != nil {
				return err
			}
			res := make([]outcomeJSON, len(outs))
			for i, o := range outs {
				res[i] = outcomeJSON{
					FeedID:          o.FeedID,
					Outcome:         o.Kind.String(),
					Rate:            o.Rate.Dec(),
					Timestamp:       o.Timestamp,
					StoredTimestamp: o.StoredTimestamp,
				}
			}
			return writeJSON(c, res)
		})
	},
}

var setValidatorsCommand = &cli.Command{
	Name:  "set-validators",
	Usage: "Replace the committee with the validators in a JSON file",
	Flags: []cli.Flag{fromFlag, fileFlag},
	Action: func(c *cli.Context) error {
		from, err := fromAddress(c)
		if err != nil {
			return err
		}
		var validators []types.Validator
		if err := readJSON(c.String(fileFlag.Name), &validators); err != nil {
			return err
		}
		return withNode(c, func(n *node.Node) error {
			set, err := n.Verifier().SetNewValidatorSet(from, validators)
			if err != nil {
				return err
			}
			return writeJSON(c, types.ValidatorSetSummary{
				Length:             uint64(set.Len()),
				TotalVotingPower:   set.TotalVotingPower,
				AggregatePublicKey: set.AggregatePublicKey,
				Hash:               set.Hash,
			})
		})
	},
}

var whitelistCommand = &cli.Command{
	Name:      "whitelist",
	Usage:     "Allow or revoke publishers",
	ArgsUsage: "<address>...",
	Flags: []cli.Flag{
		fromFlag,
		&cli.BoolFlag{Name: "revoke", Usage: "Remove the publishers instead"},
	},
	Action: func(c *cli.Context) error {
		from, err := fromAddress(c)
		if err != nil {
			return err
		}
		if c.NArg() == 0 {
			return fmt.Errorf("no publishers given")
		}
		pubs := make([]common.Address, 0, c.NArg())
		allowed := make([]bool, 0, c.NArg())
		for _, a := range c.Args().Slice() {
			addr, err := parseAddress(a)
			if err != nil {
				return err
			}
			pubs = append(pubs, addr)
			allowed = append(allowed, !c.Bool("revoke"))
		}
		return withNode(c, func(n *node.Node) error {
			return n.Feeds().WhitelistPublishers(from, pubs, allowed)
		})
	},
}

var supportFeedsCommand = &cli.Command{
	Name:      "support-feeds",
	Usage:     "Enable or disable feed ids",
	ArgsUsage: "<feed id>...",
	Flags: []cli.Flag{
		fromFlag,
		&cli.BoolFlag{Name: "remove", Usage: "Disable the feeds instead (owner only)"},
		&cli.BoolFlag{Name: "deployer", Usage: "Add the feeds as feed deployer"},
	},
	Action: func(c *cli.Context) error {
		from, err := fromAddress(c)
		if err != nil {
			return err
		}
		ids, err := parseFeedIDs(c.Args())
		if err != nil {
			return err
		}
		if c.Bool("deployer") && c.Bool("remove") {
			return fmt.Errorf("--deployer can only add feeds")
		}
		return withNode(c, func(n *node.Node) error {
			if c.Bool("deployer") {
				return n.Feeds().AddSupportedFeeds(from, ids)
			}
			flags := make([]bool, len(ids))
			for i := range flags {
				flags[i] = !c.Bool("remove")
			}
			return n.Feeds().SetSupportedFeeds(from, ids, flags)
		})
	},
}

var resetTimestampsCommand = &cli.Command{
	Name:      "reset-timestamps",
	Usage:     "Zero the stored timestamp of supported feeds",
	ArgsUsage: "<feed id>...",
	Flags:     []cli.Flag{fromFlag},
	Action: func(c *cli.Context) error {
		from, err := fromAddress(c)
		if err != nil {
			return err
		}
		ids, err := parseFeedIDs(c.Args())
		if err != nil {
			return err
		}
		return withNode(c, func(n *node.Node) error {
			return n.Feeds().ResetFeedTimestamps(from, ids)
		})
	},
}

var pauseCommand = &cli.Command{
	Name:  "pause",
	Usage: "Stop accepting feed submissions",
	Flags: []cli.Flag{fromFlag},
	Action: func(c *cli.Context) error {
		from, err := fromAddress(c)
		if err != nil {
			return err
		}
		return withNode(c, func(n *node.Node) error {
			return n.Feeds().Pause(from)
		})
	},
}

var unpauseCommand = &cli.Command{
	Name:  "unpause",
	Usage: "Resume feed submissions",
	Flags: []cli.Flag{fromFlag},
	Action: func(c *cli.Context) error {
		from, err := fromAddress(c)
		if err != nil {
			return err
		}
		return withNode(c, func(n *node.Node) error {
			return n.Feeds().Unpause(from)
		})
	},
}

type feedJSON struct {
	FeedID uint64                `json:"feedId"`
	Record types.PriceFeedRecord `json:"record"`
}

var getFeedCommand = &cli.Command{
	Name:      "get-feed",
	Usage:     "Print the latest records of supported feeds",
	ArgsUsage: "<feed id>...",
	Action: func(c *cli.Context) error {
		ids, err := parseFeedIDs(c.Args())
		if err != nil {
			return err
		}
		return withNode(c, func(n *node.Node) error {
			recs, err := n.Feeds().GetLatestPriceFeeds(ids)
			if err != nil {
				return err
			}
			out := make([]feedJSON, len(ids))
			for i, id := range ids {
				out[i] = feedJSON{FeedID: id, Record: recs[i]}
			}
			return writeJSON(c, out)
		})
	},
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func writeJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
