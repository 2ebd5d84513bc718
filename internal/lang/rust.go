package lang

func init() {
	Register(&LanguageSpec{
		Language:          Rust,
		FileExtensions:    []string{".rs"},
		RefTag:            "rs",
		ReadsContent:      true,
		PackageIndicators: []string{"Cargo.toml"},
	})
}
