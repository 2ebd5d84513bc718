package lang

import "testing"

func TestForExtension(t *testing.T) {
	tests := []struct {
		ext  string
		lang Language
	}{
		{".py", Python},
		{".js", JavaScript},
		{".jsx", JavaScript},
		{".mjs", JavaScript},
		{".cjs", JavaScript},
		{".ts", TypeScript},
		{".tsx", TypeScript},
		{".rs", Rust},
		{".html", HTML},
		{".jinja", HTML},
		{".j2", HTML},
		{".css", CSS},
		{".scss", CSS},
		{".sass", CSS},
		{".toml", Config},
		{".yaml", Config},
		{".yml", Config},
		{".json", Config},
		{".ini", Config},
		{".cfg", Config},
	}
	for _, tt := range tests {
		spec := ForExtension(tt.ext)
		if spec == nil {
			t.Errorf("ForExtension(%q) = nil, want %s", tt.ext, tt.lang)
			continue
		}
		if spec.Language != tt.lang {
			t.Errorf("ForExtension(%q).Language = %s, want %s", tt.ext, spec.Language, tt.lang)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"src/pkg/__main__.py", Python},
		{"web/App.TSX", TypeScript},
		{"src-tauri/src/main.rs", Rust},
		{"templates/base.html", HTML},
		{"pyproject.toml", Config},
		{"Makefile", Unknown},
		{"README.md", Unknown},
		{"archive.tar.gz", Unknown},
		{"", Unknown},
	}
	for _, tt := range tests {
		if got := Classify(tt.path); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestForLanguage(t *testing.T) {
	for _, l := range AllLanguages() {
		spec := ForLanguage(l)
		if l == Unknown {
			if spec != nil {
				t.Errorf("ForLanguage(unknown) = %v, want nil", spec)
			}
			continue
		}
		if spec == nil {
			t.Errorf("ForLanguage(%s) = nil", l)
		}
	}
}

func TestRefTag(t *testing.T) {
	tests := []struct {
		lang Language
		want string
	}{
		{Python, "py"},
		{JavaScript, "js"},
		{TypeScript, "js"},
		{Rust, "rs"},
		{Unknown, "unknown"},
	}
	for _, tt := range tests {
		if got := RefTag(tt.lang); got != tt.want {
			t.Errorf("RefTag(%s) = %q, want %q", tt.lang, got, tt.want)
		}
	}
}

func TestReadsContent(t *testing.T) {
	if ReadsContent(Unknown) {
		t.Error("unknown files should not be read")
	}
	for _, l := range []Language{Python, JavaScript, TypeScript, Rust, HTML, CSS, Config} {
		if !ReadsContent(l) {
			t.Errorf("ReadsContent(%s) = false, want true", l)
		}
	}
}

func TestPythonSpec(t *testing.T) {
	spec := ForLanguage(Python)
	if spec == nil {
		t.Fatal("Python spec not registered")
	}
	if spec.PackageIndicators[0] != "__init__.py" {
		t.Errorf("Python PackageIndicators: got %v, want [__init__.py]", spec.PackageIndicators)
	}
}
