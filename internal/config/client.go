package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Client holds settings for the zs command-line client.
type Client struct {
	Addr        string
	CACert      string
	Insecure    bool
	Plaintext   bool
	ContainerID string
	StateDir    string
	Timeout     time.Duration
	Verbose     bool
}

// DefaultStateDir is $XDG_CONFIG_HOME/zoneshare or ~/.config/zoneshare.
func DefaultStateDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "zoneshare")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "zoneshare")
}

// LoadDefaults fills development defaults.
func (c *Client) LoadDefaults() {
	c.Addr = "localhost:8443"
	c.ContainerID = "zoneshare.default"
	c.StateDir = DefaultStateDir()
	c.Timeout = 30 * time.Second
}

type clientJSON struct {
	Addr        *string   `json:"addr"`
	CACert      *string   `json:"cacert"`
	Insecure    *bool     `json:"insecure"`
	Plaintext   *bool     `json:"plaintext"`
	ContainerID *string   `json:"container_id"`
	StateDir    *string   `json:"state_dir"`
	Timeout     *Duration `json:"timeout"`
}

// LoadClient parses global flags from args (without the program name) and
// returns the remaining arguments, starting with the subcommand.
func LoadClient(args []string, usage func(), usageOut io.Writer) (*Client, []string, error) {
	c := &Client{}
	c.LoadDefaults()

	var j clientJSON
	if err := readJSON(configPath(args), &j); err != nil {
		return nil, nil, err
	}
	setStr(&c.Addr, j.Addr)
	setStr(&c.CACert, j.CACert)
	if j.Insecure != nil {
		c.Insecure = *j.Insecure
	}
	if j.Plaintext != nil {
		c.Plaintext = *j.Plaintext
	}
	setStr(&c.ContainerID, j.ContainerID)
	setStr(&c.StateDir, j.StateDir)
	setDur(&c.Timeout, j.Timeout)

	fs := flag.NewFlagSet("zs", flag.ContinueOnError)
	if usageOut != nil {
		fs.SetOutput(usageOut)
	}
	if usage != nil {
		fs.Usage = usage
	}
	fs.String("config", "", "JSON config file")
	fs.StringVar(&c.Addr, "addr", c.Addr, "server addr")
	fs.StringVar(&c.CACert, "cacert", c.CACert, "CA cert (PEM)")
	fs.BoolVar(&c.Insecure, "insecure", c.Insecure, "skip cert verify (dev)")
	fs.BoolVar(&c.Plaintext, "plaintext", c.Plaintext, "connect without TLS (dev)")
	fs.StringVar(&c.ContainerID, "container", c.ContainerID, "container id accepted in share descriptors")
	fs.StringVar(&c.StateDir, "state", c.StateDir, "directory holding the access token")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "overall command timeout")
	fs.BoolVar(&c.Verbose, "v", c.Verbose, "verbose logging to stderr")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return c, fs.Args(), nil
}
