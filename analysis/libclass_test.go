package analysis_test

import (
	"testing"

	"github.com/yui-knk/norikra/analysis"
)

func TestIsKnownLibraryClass(t *testing.T) {
	t.Parallel()

	known := []string{
		"String", "Long", "Void", "Math", "BigDecimal", "Format",
		"Normalizer", "Date", "HashSet", "Random", "Timer",
	}
	for _, name := range known {
		if !analysis.IsKnownLibraryClass(name) {
			t.Errorf("IsKnownLibraryClass(%q) = false, want true", name)
		}
	}

	unknown := []string{"unexpected", "parameter", "param", "math", "", "java.lang.Math"}
	for _, name := range unknown {
		if analysis.IsKnownLibraryClass(name) {
			t.Errorf("IsKnownLibraryClass(%q) = true, want false", name)
		}
	}
}

func TestLibraryClassPackage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		wantPkg string
		wantOK  bool
	}{
		{"Math", "java.lang", true},
		{"BigDecimal", "java.math", true},
		{"Normalizer", "java.text", true},
		{"HashSet", "java.util", true},
		{"Pattern", "java.util.regex", true},
		{"Instant", "java.time", true},
		{"TestTable", "", false},
	}

	for _, tt := range tests {
		pkg, ok := analysis.LibraryClassPackage(tt.name)
		if pkg != tt.wantPkg || ok != tt.wantOK {
			t.Errorf("LibraryClassPackage(%q) = (%q, %v), want (%q, %v)", tt.name, pkg, ok, tt.wantPkg, tt.wantOK)
		}
	}
}
