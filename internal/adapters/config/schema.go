package config

// Envfile is the on-disk shape of .envcache.yaml and .envcache.toml.
type Envfile struct {
	CacheDir    string   `yaml:"cache_dir" toml:"cache_dir"`
	BuildExe    string   `yaml:"build_exe" toml:"build_exe"`
	WatchExe    string   `yaml:"watch_exe" toml:"watch_exe"`
	LockTimeout string   `yaml:"lock_timeout" toml:"lock_timeout"`
	StaleAfter  string   `yaml:"stale_after" toml:"stale_after"`
	Messages    Messages `yaml:"messages" toml:"messages"`
}

// Messages holds user-facing text.
type Messages struct {
	GettingStarted string `yaml:"getting_started" toml:"getting_started"`
}
