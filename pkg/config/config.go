package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/clustermill/proctor/pkg/types"
)

// Config holds the cluster topology, command templates and audit policies
type Config struct {
	Nodes         []string          `yaml:"nodes"`
	InitialStatus map[string]string `yaml:"initial_status,omitempty"` // node -> up/down, default up
	Flavor        string            `yaml:"flavor,omitempty"`
	SSHUser       string            `yaml:"ssh_user,omitempty"`
	DataDir       string            `yaml:"data_dir,omitempty"` // empty disables persistent session state
	LogLevel      string            `yaml:"log_level,omitempty"`
	LogJSON       bool              `yaml:"log_json,omitempty"`

	Commands Commands `yaml:"commands,omitempty"`
	LogWatch LogWatch `yaml:"log_watch,omitempty"`
	Audits   Audits   `yaml:"audits,omitempty"`
	Limits   Limits   `yaml:"limits,omitempty"`
}

// Commands are the templates used to interrogate the cluster. A %s in the
// status template is replaced with the node name, in the locate and active
// templates with the resource id.
type Commands struct {
	Status         string `yaml:"status,omitempty"`
	Epoch          string `yaml:"epoch,omitempty"`
	Quorum         string `yaml:"quorum,omitempty"`
	Partition      string `yaml:"partition,omitempty"`
	CibQuery       string `yaml:"cib_query,omitempty"`
	ResourceList   string `yaml:"resource_list,omitempty"`
	ResourceLocate string `yaml:"resource_locate,omitempty"`
	ResourceActive string `yaml:"resource_active,omitempty"`
	Reachable      string `yaml:"reachable,omitempty"`
}

// LogWatch configures the cluster-side logging the log audit verifies
type LogWatch struct {
	File     string `yaml:"file,omitempty"`     // cluster log file on each node
	Dir      string `yaml:"dir,omitempty"`      // filesystem holding logs, checked by the disk audit
	Facility string `yaml:"facility,omitempty"` // syslog facility for test messages
	Syslogd  string `yaml:"syslogd,omitempty"`  // syslog service name, empty skips restarts
	Systemd  bool   `yaml:"systemd"`            // journal available on the nodes
}

// Audits holds audit policies
type Audits struct {
	Disabled           []string `yaml:"disabled,omitempty"`
	WarnInactive       bool     `yaml:"warn_inactive,omitempty"`
	StopOnDiskCritical bool     `yaml:"stop_on_disk_critical,omitempty"`
	ExpectedPartitions int      `yaml:"expected_partitions,omitempty"`
}

// Limits bounds the audits' waiting behavior
type Limits struct {
	LogAttempts  int `yaml:"log_attempts,omitempty"`  // restart-and-retry rounds for the log audit
	WatchTimeout int `yaml:"watch_timeout,omitempty"` // seconds to wait for watched patterns
	SettleTime   int `yaml:"settle_time,omitempty"`   // seconds between stability double-checks
	ReachTimeout int `yaml:"reach_timeout,omitempty"` // seconds to wait for a node to answer
}

// Default returns the canonical configuration. Command templates default to
// the crm tool suite.
func Default() *Config {
	return &Config{
		Flavor:   "corosync",
		SSHUser:  "root",
		LogLevel: "info",
		Commands: Commands{
			Status:         "crmadmin -t 60 -S %s 2>/dev/null",
			Epoch:          "crm_node -e",
			Quorum:         "crm_node -q",
			Partition:      "crm_node -p",
			CibQuery:       "cibadmin -Ql",
			ResourceList:   "crm_resource --list-cts",
			ResourceLocate: "crm_resource --locate -r %s -Q",
			ResourceActive: "cts-exec-helper -R -r %s",
			Reachable:      "true",
		},
		LogWatch: LogWatch{
			File:     "/var/log/messages",
			Dir:      "/var/log",
			Facility: "daemon",
			Syslogd:  "",
			Systemd:  true,
		},
		Audits: Audits{
			ExpectedPartitions: 1,
		},
		Limits: Limits{
			LogAttempts:  3,
			WatchTimeout: 30,
			SettleTime:   2,
			ReachTimeout: 60,
		},
	}
}

// Load reads the configuration file at path, layered over Default. A local
// .env file is loaded into the environment first, and PROCTOR_* environment
// variables override file values. An empty path returns the defaults with
// environment overrides applied.
func Load(path string) (*Config, error) {
	loadDotEnv()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PROCTOR_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("PROCTOR_LOG_JSON"); v != "" {
		c.LogJSON = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("PROCTOR_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("PROCTOR_SSH_USER"); v != "" {
		c.SSHUser = v
	}
}

// Validate checks the configuration for unusable values
func (c *Config) Validate() error {
	if len(c.Nodes) == 0 {
		return fmt.Errorf("no cluster nodes configured")
	}

	for node, status := range c.InitialStatus {
		if status != string(types.NodeUp) && status != string(types.NodeDown) {
			return fmt.Errorf("invalid initial status for %s: %q", node, status)
		}
	}

	if c.Limits.LogAttempts < 0 {
		return fmt.Errorf("log_attempts must not be negative")
	}
	if c.Limits.WatchTimeout <= 0 {
		return fmt.Errorf("watch_timeout must be positive")
	}
	if c.Audits.ExpectedPartitions <= 0 {
		return fmt.Errorf("expected_partitions must be positive")
	}

	return nil
}

// ExpectedStatus returns the initial expected status map for all configured
// nodes. Nodes without an explicit entry start as up.
func (c *Config) ExpectedStatus() map[string]types.NodeStatus {
	expected := make(map[string]types.NodeStatus, len(c.Nodes))
	for _, node := range c.Nodes {
		expected[node] = types.NodeUp
		if s, ok := c.InitialStatus[node]; ok && s == string(types.NodeDown) {
			expected[node] = types.NodeDown
		}
	}
	return expected
}

// AuditDisabled reports whether the named audit is disabled by policy
func (c *Config) AuditDisabled(name string) bool {
	for _, d := range c.Audits.Disabled {
		if strings.EqualFold(d, name) {
			return true
		}
	}
	return false
}
