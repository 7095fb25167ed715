//go:build !windows

package protocol

import (
	"os/exec"
	"runtime"
)

// NewSystemRegistrar registers through a desktop entry. Outside Linux and
// the BSDs there is no per-user handler store the bot can write.
func NewSystemRegistrar() Registrar {
	if runtime.GOOS == "darwin" {
		return unsupported{}
	}
	dir, err := ApplicationsDir()
	if err != nil {
		return unsupported{}
	}
	r := DesktopRegistrar{Dir: dir}
	if _, err := exec.LookPath("xdg-mime"); err == nil {
		r.Associate = func(desktopFile, mimeType string) error {
			return exec.Command("xdg-mime", "default", desktopFile, mimeType).Run()
		}
	}
	return r
}

type unsupported struct{}

func (unsupported) Register(Registration) (string, error) {
	return "", ErrUnsupported
}
