package lang

func init() {
	Register(&LanguageSpec{
		Language:       Config,
		FileExtensions: []string{".toml", ".yaml", ".yml", ".json", ".ini", ".cfg"},
		RefTag:         "cfg",
		ReadsContent:   true,
	})
}
