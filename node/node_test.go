package node

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
)

var (
	testOwner    = common.HexToAddress("0x1000000000000000000000000000000000000001")
	testDeployer = common.HexToAddress("0x1000000000000000000000000000000000000002")
	testStore    = common.HexToAddress("0x1000000000000000000000000000000000000003")
	testPauser   = common.HexToAddress("0x1000000000000000000000000000000000000004")
)

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.DB.Backend = "memory"
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.HTTP.RuntimeMetrics = false
	cfg.Verifier.Owner = testOwner
	cfg.Feeds = FeedsConfig{Address: testStore, Owner: testOwner, Deployer: testDeployer}
	cfg.Pauser = PauserConfig{Pausers: []common.Address{testPauser}, Unpauser: testOwner}
	return &cfg
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.ErrorContains(t, cfg.Validate(), "feeds.address")

	good := testConfig()
	require.NoError(t, good.Validate())

	bad := *good
	bad.DB.Backend = "rocks"
	require.ErrorContains(t, bad.Validate(), "unknown db backend")

	bad = *good
	bad.DB.Backend, bad.DB.Path = "leveldb", ""
	require.ErrorContains(t, bad.Validate(), "db.path")

	bad = *good
	bad.Log.Level = "loud"
	require.ErrorContains(t, bad.Validate(), "unknown level")

	bad = *good
	bad.Log.Format = "xml"
	require.ErrorContains(t, bad.Validate(), "unknown log format")

	bad = *good
	bad.HTTP.Addr = ""
	require.ErrorContains(t, bad.Validate(), "http.addr")
	bad.HTTP.Enabled = false
	require.NoError(t, bad.Validate())
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oracle.toml")
	body := `
[db]
backend = "memory"

[http]
addr = "127.0.0.1:9999"
cors_origins = ["https://dash.example"]

[log]
level = "debug"
format = "json"

[verifier]
owner = "0x1000000000000000000000000000000000000001"

[feeds]
address = "0x1000000000000000000000000000000000000003"
owner = "0x1000000000000000000000000000000000000001"

[pauser]
pausers = ["0x1000000000000000000000000000000000000004"]
unpauser = "0x1000000000000000000000000000000000000001"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, "memory", cfg.DB.Backend)
	require.Equal(t, 16, cfg.DB.Cache, "defaults survive partial files")
	require.Equal(t, "127.0.0.1:9999", cfg.HTTP.Addr)
	require.Equal(t, []string{"https://dash.example"}, cfg.HTTP.CORSOrigins)
	require.Equal(t, "json", cfg.Log.Format)
	require.Equal(t, testOwner, cfg.Verifier.Owner)
	require.Equal(t, testStore, cfg.Feeds.Address)
	require.Equal(t, []common.Address{testPauser}, cfg.Pauser.Pausers)

	enc, err := cfg.Marshal()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, enc, 0o600))
	again, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, cfg, again)

	require.NoError(t, os.WriteFile(path, []byte("[db]\nbackend = \"memory\"\nflavour = 1\n"), 0o600))
	_, err = LoadConfig(path)
	require.Error(t, err)

	_, err = LoadConfig(filepath.Join(dir, "missing.toml"))
	require.Error(t, err)
}

func TestNodeBootstrap(t *testing.T) {
	n, err := New(testConfig(), nil)
	require.NoError(t, err)
	defer n.Close()

	owner, err := n.Verifier().Owner()
	require.NoError(t, err)
	require.Equal(t, testOwner, owner)
	manager, err := n.Verifier().FeedManager()
	require.NoError(t, err)
	require.Equal(t, testStore, manager)

	deployer, err := n.Feeds().FeedDeployer()
	require.NoError(t, err)
	require.Equal(t, testDeployer, deployer)
	require.NoError(t, n.Feeds().Pause(testPauser))
	require.NoError(t, n.Feeds().Unpause(testOwner))
}

func TestNodeServesRPCAndMetrics(t *testing.T) {
	n, err := New(testConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, n.Start())
	require.True(t, n.Running())
	require.Error(t, n.Start())

	addr := n.HTTPAddr()
	require.NotEmpty(t, addr)

	client, err := gethrpc.DialContext(context.Background(), "http://"+addr)
	require.NoError(t, err)
	defer client.Close()

	var manager common.Address
	require.NoError(t, client.Call(&manager, "oracle_feedManager"))
	require.Equal(t, testStore, manager)

	require.NoError(t, n.Feeds().Pause(testPauser))
	var paused bool
	require.NoError(t, client.Call(&paused, "oracle_paused"))
	require.True(t, paused)

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "feedoracle_feeds_paused 1"), string(body))

	require.NoError(t, n.Stop())
	require.False(t, n.Running())
	require.NoError(t, n.Stop())
	n.Wait()
}

func TestNodeRestartKeepsState(t *testing.T) {
	cfg := testConfig()
	cfg.DB.Backend = "leveldb"
	cfg.DB.Path = t.TempDir()
	cfg.HTTP.Enabled = false

	n, err := New(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, n.Feeds().SetSupportedFeeds(testOwner, []uint64{4}, []bool{true}))
	require.NoError(t, n.Close())

	// A different configured owner does not override the stored one.
	cfg.Verifier.Owner = testDeployer
	cfg.Feeds.Owner = testDeployer
	n, err = New(cfg, nil)
	require.NoError(t, err)
	defer n.Close()
	ok, err := n.Feeds().IsSupportedFeed(4)
	require.NoError(t, err)
	require.True(t, ok)
	owner, err := n.Feeds().Owner()
	require.NoError(t, err)
	require.Equal(t, testOwner, owner)
}
