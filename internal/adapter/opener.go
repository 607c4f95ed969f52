package adapter

import (
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/mmcdole/foodpin/internal/domain"
)

// Opener hands photos and map links to an external program
type Opener struct {
	command string   // configured viewer command, empty for system default
	args    []string // additional arguments for the viewer
	logger  *slog.Logger

	// start runs the prepared command; replaced in tests
	start func(cmd *exec.Cmd) error
}

// NewOpener creates a new Opener
func NewOpener(command string, args []string, logger *slog.Logger) *Opener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Opener{
		command: command,
		args:    args,
		logger:  logger,
		start:   func(cmd *exec.Cmd) error { return cmd.Start() },
	}
}

// OpenFile opens a local file, e.g. a downloaded restaurant photo
func (o *Opener) OpenFile(path string) error {
	if path == "" {
		return fmt.Errorf("no file to open")
	}
	if o.command != "" {
		return o.launchConfigured(path)
	}
	return o.launchDefault(path)
}

// OpenMap opens the region in the browser on openstreetmap.org
func (o *Opener) OpenMap(region domain.MapRegion) error {
	return o.launchDefault(MapURL(region))
}

// launchConfigured launches the target using the configured viewer
func (o *Opener) launchConfigured(target string) error {
	args := append([]string{}, o.args...)
	args = append(args, target)

	o.logger.Info("launching viewer", "command", o.command, "args", args)

	// On macOS, GUI apps are often not in PATH
	if runtime.GOOS == "darwin" {
		if _, err := exec.LookPath(o.command); err != nil {
			cmdArgs := []string{"-a", o.command, target}
			o.logger.Info("using macOS 'open -a' to launch GUI app", "app", o.command)
			return o.start(exec.Command("open", cmdArgs...))
		}
	}

	return o.start(exec.Command(o.command, args...))
}

// launchDefault opens the target using the system default handler
func (o *Opener) launchDefault(target string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", target)
	default:
		// Linux and other Unix-like systems
		cmd = exec.Command("xdg-open", target)
	}

	o.logger.Info("launching with system default", "os", runtime.GOOS, "target", target)

	return o.start(cmd)
}

// MapURL returns an openstreetmap.org link showing the region with a marker at its center
func MapURL(region domain.MapRegion) string {
	lat := strconv.FormatFloat(region.Center.Latitude, 'f', 6, 64)
	lon := strconv.FormatFloat(region.Center.Longitude, 'f', 6, 64)

	q := url.Values{}
	q.Set("mlat", lat)
	q.Set("mlon", lon)

	return "https://www.openstreetmap.org/?" + q.Encode() +
		"#map=" + strconv.Itoa(zoomFor(region)) + "/" + lat + "/" + lon
}

// zoomFor picks the closest slippy-map zoom level for the region height
func zoomFor(region domain.MapRegion) int {
	latDelta, _ := region.Span()
	zoom := 0
	// Zoom 0 shows 180 degrees of latitude, each level halves it
	for span := 180.0; span > latDelta && zoom < 19; span /= 2 {
		zoom++
	}
	if zoom > 0 {
		zoom--
	}
	return zoom
}

// String describes the opener for logs and the help screen
func (o *Opener) String() string {
	if o.command == "" {
		return "system default"
	}
	return strings.TrimSpace(o.command + " " + strings.Join(o.args, " "))
}
