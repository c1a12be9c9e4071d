package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/kalima/data/db/kalima.db"
	}
	if cfg.Storage.LexiconIndexPath == "" {
		cfg.Storage.LexiconIndexPath = "/usr/local/var/kalima/data/indices/lexicon"
	}
	if cfg.Resolver.SegmentCacheSize == 0 {
		cfg.Resolver.SegmentCacheSize = 10000
	}
	if cfg.Lexicon.DefaultLimit == 0 {
		cfg.Lexicon.DefaultLimit = 20
	}
	if cfg.Lexicon.MaxLimit == 0 {
		cfg.Lexicon.MaxLimit = 200
	}
	if cfg.Lexicon.SuggestMaxDistance == 0 {
		cfg.Lexicon.SuggestMaxDistance = 2
	}
	if cfg.Import.Extensions == nil {
		cfg.Import.Extensions = []string{".xlsx", ".csv", ".json", ".db", ".sqlite", ".pdf", ".docx", ".odt", ".rtf", ".txt", ".md"}
	}
	if cfg.Import.DebounceMS == 0 {
		cfg.Import.DebounceMS = 400
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Import.Directories) > 0 && cfg.Import.Recursive == nil {
		t := true
		cfg.Import.Recursive = &t
	}
}
