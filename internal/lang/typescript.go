package lang

// TypeScript shares the JavaScript extraction path, including its "js" tag.
func init() {
	Register(&LanguageSpec{
		Language:       TypeScript,
		FileExtensions: []string{".ts", ".tsx"},
		RefTag:         "js",
		ReadsContent:   true,
	})
}
