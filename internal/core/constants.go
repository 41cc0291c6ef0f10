package core

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned when the user dismisses a selection or prompt.
var ErrCancelled = errors.New("cancelled")

const (
	MaintainerLink    = "https://github.com/dorcha-inc/pal/blob/main/MAINTAINERS.md"
	BugReportTemplate = "\n\n[NOTE]This is most likely a bug in pal, please reach out to the maintainers at %s"
)

func BugReportMessage() string {
	return fmt.Sprintf(BugReportTemplate, MaintainerLink)
}

const (
	GOOSDarwin  = "darwin"
	GOOSLinux   = "linux"
	GOOSWindows = "windows"
)

// AppName is used for the per-user config, cache and data directory names.
const AppName = "pal"
