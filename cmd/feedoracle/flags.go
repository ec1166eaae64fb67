package main

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/eth2030/feedoracle/log"
	"github.com/eth2030/feedoracle/node"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Usage:   "TOML configuration file",
		EnvVars: []string{"FEEDORACLE_CONFIG"},
	}
	dbBackendFlag = &cli.StringFlag{
		Name:  "db.backend",
		Usage: "Key-value backend (memory, leveldb)",
	}
	dbPathFlag = &cli.StringFlag{
		Name:  "db.path",
		Usage: "Database directory",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log.level",
		Usage: "Log level (trace, debug, info, warn, error)",
	}
	logFormatFlag = &cli.StringFlag{
		Name:  "log.format",
		Usage: "Log format (terminal, logfmt, json)",
	}
	httpAddrFlag = &cli.StringFlag{
		Name:  "http.addr",
		Usage: "JSON-RPC and metrics listen address",
	}
	fromFlag = &cli.StringFlag{
		Name:     "from",
		Usage:    "Caller address",
		Required: true,
	}
	fileFlag = &cli.StringFlag{
		Name:     "file",
		Usage:    "JSON input file",
		Required: true,
	}
)

// loadConfig reads --config, falling back to defaults, and applies flag
// overrides.
func loadConfig(c *cli.Context) (*node.Config, error) {
	var cfg *node.Config
	if path := c.String(configFlag.Name); path != "" {
		loaded, err := node.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		def := node.DefaultConfig()
		cfg = &def
	}
	if c.IsSet(dbBackendFlag.Name) {
		cfg.DB.Backend = c.String(dbBackendFlag.Name)
	}
	if c.IsSet(dbPathFlag.Name) {
		cfg.DB.Path = c.String(dbPathFlag.Name)
	}
	if c.IsSet(logLevelFlag.Name) {
		cfg.Log.Level = c.String(logLevelFlag.Name)
	}
	if c.IsSet(logFormatFlag.Name) {
		cfg.Log.Format = c.String(logFormatFlag.Name)
	}
	if c.IsSet(httpAddrFlag.Name) {
		cfg.HTTP.Addr = c.String(httpAddrFlag.Name)
	}
	return cfg, nil
}

// openNode builds a node for a one-shot operator command. HTTP stays off.
func openNode(c *cli.Context) (*node.Node, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	cfg.HTTP.Enabled = false
	logger, err := node.ConfigureLogging(cfg.Log)
	if err != nil {
		return nil, err
	}
	return node.New(cfg, logger)
}

// withNode runs fn against an opened node and closes it afterwards.
func withNode(c *cli.Context, fn func(n *node.Node) error) error {
	n, err := openNode(c)
	if err != nil {
		return err
	}
	defer func() {
		if err := n.Close(); err != nil {
			log.Warn("Closing store failed", "err", err)
		}
	}()
	return fn(n)
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func fromAddress(c *cli.Context) (common.Address, error) {
	return parseAddress(c.String(fromFlag.Name))
}

func parseFeedIDs(args cli.Args) ([]uint64, error) {
	if args.Len() == 0 {
		return nil, fmt.Errorf("no feed ids given")
	}
	ids := make([]uint64, 0, args.Len())
	for _, a := range args.Slice() {
		id, err := strconv.ParseUint(a, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid feed id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
