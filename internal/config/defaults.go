package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8360
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/quizzy/data/quizzy.db"
	}
	if cfg.Search.DefaultPageSize == 0 {
		cfg.Search.DefaultPageSize = 10
	}
	if cfg.Search.MaxPageSize == 0 {
		cfg.Search.MaxPageSize = 100
	}
	if cfg.Search.K1 == 0 {
		cfg.Search.K1 = 1.5
	}
	if cfg.Search.B == 0 {
		cfg.Search.B = 0.75
	}
	if cfg.Search.ScoreThreshold == 0 {
		cfg.Search.ScoreThreshold = 1e-10
	}
	if cfg.Search.CacheCapacity == 0 {
		cfg.Search.CacheCapacity = 100
	}
	if cfg.Import.Extensions == nil {
		cfg.Import.Extensions = []string{".json"}
	}
}
