/*
Package config loads Proctor's cluster topology and audit policies.

Configuration is layered: built-in defaults, then an optional YAML file,
then PROCTOR_* environment variables. A local .env file is loaded into the
environment before the overrides are applied.

# Configuration File

	nodes:
	  - node1.example.com
	  - node2.example.com
	  - node3.example.com
	initial_status:
	  node3.example.com: down
	flavor: corosync
	ssh_user: root
	commands:
	  status: "crmadmin -t 60 -S %s 2>/dev/null"
	  epoch: "crm_node -e"
	log_watch:
	  file: /var/log/messages
	  facility: daemon
	  systemd: true
	audits:
	  disabled: [cib]
	  warn_inactive: true
	  expected_partitions: 1
	limits:
	  log_attempts: 3
	  watch_timeout: 30

Command templates default to the crm tool suite and can be replaced wholesale
for clusters with different tooling. Durations are in seconds.

# Environment Overrides

  - PROCTOR_LOG_LEVEL: debug, info, warn, error
  - PROCTOR_LOG_JSON: true for structured output
  - PROCTOR_DATA_DIR: enables persistent session state
  - PROCTOR_SSH_USER: remote user for the command channel
*/
package config
