package lang

func init() {
	Register(&LanguageSpec{
		Language:       HTML,
		FileExtensions: []string{".html", ".jinja", ".j2"},
		RefTag:         "html",
		ReadsContent:   true,
	})
}
