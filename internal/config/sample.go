package config

// Sample is the starter file written by `clawpanel init`. Every value
// shown is the default.
const Sample = `# clawpanel configuration. Values below are the defaults.
# Any key can be overridden from the environment, e.g. CLAWPANEL_SERVICE_PORT.

[service]
port = 18789
binary = "openclaw"
# search_dirs = ["~/.npm-global/bin"]
start_args = ["gateway", "start"]
stop_args = ["gateway", "stop"]
force_stop_args = ["gateway", "stop", "--force"]
logs_args = ["logs", "--lines"]
# spawn_log = "~/.openclaw/clawpanel-spawn.log"
# env = ["OPENCLAW_PROFILE=default"]
# env_files = ["~/.openclaw/.env"]
# auto | lsof | netstat | socket-table
inspector = "auto"

[policy]
start_poll_interval = "1s"
start_attempts = 15
stop_settle = "500ms"
restart_poll_interval = "500ms"
restart_attempts = 10
command_timeout = "30s"

[paths]
home = "~/.openclaw"

[log]
level = "info"
# file = "~/.openclaw/clawpanel.log"
max_size_mb = 10
max_backups = 3
max_age_days = 7
color = true

[server]
listen = "127.0.0.1:18790"
base_path = "/api"
# bearer token required by the API; prefer CLAWPANEL_SERVER_TOKEN
# token = ""

[metrics]
enabled = false
listen = "127.0.0.1:18791"

[metrics.gateway]
enabled = false
interval = "5s"
max_history = 120

[history]
enabled = false
# sqlite:///path/file.db, postgres://..., clickhouse://..., opensearch://host:9200/index
# dsn = ""
`
