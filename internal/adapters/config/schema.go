package config

// File represents the structure of the .symdex.yaml configuration file.
// Pointer fields distinguish "unset" from zero values.
type File struct {
	Root         string   `yaml:"root"`
	Workers      *int     `yaml:"workers"`
	VerifyHash   *bool    `yaml:"verify_hash"`
	RacyWindow   string   `yaml:"racy_window"`
	MaxFileSize  *int64   `yaml:"max_file_size"`
	HashMemoSize *int     `yaml:"hash_memo_size"`
	Ignore       []string `yaml:"ignore"`
	Store        StoreDTO `yaml:"store"`
	Git          GitDTO   `yaml:"git"`
	Watch        WatchDTO `yaml:"watch"`
}

// StoreDTO configures the cache store.
type StoreDTO struct {
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`
}

// GitDTO configures git state tracking.
type GitDTO struct {
	Enabled     *bool `yaml:"enabled"`
	Pinned      *bool `yaml:"pinned"`
	DetectDirty *bool `yaml:"detect_dirty"`
}

// WatchDTO configures watch mode.
type WatchDTO struct {
	Debounce string `yaml:"debounce"`
}
