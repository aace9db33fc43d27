package auth

import (
	"os"

	"github.com/pkg/browser"
	"golang.org/x/term"

	"github.com/perchlabs/perch/pkg/logger"
)

// openSystemBrowser sends the user to the authorization URL. The URL is
// always logged so the flow can be completed manually; auto-opening only
// happens when stdout is a terminal, since a piped or headless invocation
// has no browser to reach.
func openSystemBrowser(url string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		logger.Infof("Open this URL in your browser to continue: %s", url)
		return nil
	}

	logger.Infof("Opening browser to: %s", url)
	if err := browser.OpenURL(url); err != nil {
		logger.Infof("Please open this URL in your browser manually: %s", url)
		return err
	}
	return nil
}
