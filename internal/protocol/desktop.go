package protocol

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DesktopRegistrar registers the scheme for freedesktop.org environments
// by writing a desktop entry that declares the x-scheme-handler MIME type.
type DesktopRegistrar struct {
	// Dir is the applications directory, normally
	// $XDG_DATA_HOME/applications.
	Dir string
	// Associate, when set, makes the entry the default handler,
	// e.g. through xdg-mime.
	Associate func(desktopFile, mimeType string) error
}

// DesktopFileName is the entry's file name for scheme.
func DesktopFileName(scheme string) string {
	return scheme + "-handler.desktop"
}

// MimeType is the scheme's handler MIME type.
func MimeType(scheme string) string {
	return "x-scheme-handler/" + scheme
}

// DesktopEntry renders the desktop entry for reg.
func DesktopEntry(reg Registration) string {
	var b strings.Builder
	b.WriteString("[Desktop Entry]\n")
	b.WriteString("Type=Application\n")
	fmt.Fprintf(&b, "Name=URL:%s Protocol\n", reg.Scheme)
	fmt.Fprintf(&b, "Exec=%s %%u\n", execArg(reg.Executable))
	b.WriteString("Terminal=true\n")
	b.WriteString("NoDisplay=true\n")
	fmt.Fprintf(&b, "MimeType=%s;\n", MimeType(reg.Scheme))
	return b.String()
}

func (d DesktopRegistrar) Register(reg Registration) (string, error) {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", d.Dir, err)
	}
	path := filepath.Join(d.Dir, DesktopFileName(reg.Scheme))

	tmp, err := os.CreateTemp(d.Dir, ".tmp-"+reg.Scheme+"-*")
	if err != nil {
		return "", fmt.Errorf("write desktop entry: %w", err)
	}
	if _, err := tmp.WriteString(DesktopEntry(reg)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write desktop entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write desktop entry: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write desktop entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("install desktop entry: %w", err)
	}

	if d.Associate != nil {
		if err := d.Associate(filepath.Base(path), MimeType(reg.Scheme)); err != nil {
			return path, fmt.Errorf("set default handler: %w", err)
		}
	}
	return path, nil
}

// execArg quotes path as one Exec argument. Inside quotes the double quote,
// backtick, dollar sign and backslash are backslash-escaped, then the value
// gets the string escaping of desktop entries, which doubles every
// backslash. A literal percent sign is doubled so it is not a field code.
func execArg(path string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range path {
		switch r {
		case '"', '`', '$', '\\':
			b.WriteByte('\\')
		case '%':
			b.WriteByte('%')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return strings.ReplaceAll(b.String(), `\`, `\\`)
}

// ApplicationsDir returns the per-user applications directory.
func ApplicationsDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "applications"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "applications"), nil
}
