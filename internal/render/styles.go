package render

import (
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/glamour/styles"
)

// Glamour styles referenced by name elsewhere
const (
	StyleAuto  = "auto"
	StyleDark  = "dark"
	StyleLight = "light"
	StyleNoTTY = "notty"
)

// IsBuiltinStyle reports whether style names a style glamour ships with
func IsBuiltinStyle(style string) bool {
	if style == StyleAuto {
		return true
	}
	_, ok := styles.DefaultStyles[style]
	return ok
}

// BuiltinStyles returns the names of glamour's bundled styles, sorted
func BuiltinStyles() []string {
	names := make([]string, 0, len(styles.DefaultStyles)+1)
	names = append(names, StyleAuto)
	for name := range styles.DefaultStyles {
		names = append(names, name)
	}
	sort.Strings(names[1:])
	return names
}

// ValidateStyle accepts a bundled style name or a readable JSON style file
func ValidateStyle(style string) error {
	if IsBuiltinStyle(style) {
		return nil
	}
	info, err := os.Stat(style)
	if err != nil {
		return fmt.Errorf("unknown markdown style %q (builtin: %v)", style, BuiltinStyles())
	}
	if info.IsDir() {
		return fmt.Errorf("markdown style %q is a directory", style)
	}
	return nil
}
