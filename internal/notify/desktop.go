package notify

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/Kuzmenkoav1982/famcal/internal/reminder"
)

// DesktopSink shows intents as native notifications through notify-send on
// Linux and osascript on macOS. Other platforms are a no-op.
type DesktopSink struct {
	goos string
	run  func(ctx context.Context, name string, args ...string) error
}

func NewDesktopSink() *DesktopSink {
	return &DesktopSink{goos: runtime.GOOS, run: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func (d *DesktopSink) Notify(ctx context.Context, in reminder.Intent) error {
	title, body := Message(in)
	switch d.goos {
	case "linux":
		return d.run(ctx, "notify-send", title, body)
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(body), escapeAppleScript(title))
		return d.run(ctx, "osascript", "-e", script)
	default:
		return nil
	}
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
