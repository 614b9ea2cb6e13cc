package notifsvc

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// desktopChannel shows a native macOS notification banner via osascript.
// On other platforms it is a no-op.
type desktopChannel struct {
	goos string // mockable
}

var _ Channel = (*desktopChannel)(nil)

func NewDesktopChannel() Channel {
	return &desktopChannel{goos: runtime.GOOS}
}

func (ch desktopChannel) Name() string { return "desktop" }

func (ch desktopChannel) Deliver(title, body string) error {
	if ch.goos != "darwin" {
		return nil
	}
	script := fmt.Sprintf(
		`display notification "%s" with title "%s" sound name "Default"`,
		escapeAppleScript(body), escapeAppleScript(title),
	)
	return exec.Command("osascript", "-e", script).Run()
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
