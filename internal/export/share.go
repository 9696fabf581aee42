package export

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

var ErrUnknownPlatform = errors.New("unknown share platform")

// Platform is a social network with a share intent URL.
type Platform string

const (
	Twitter  Platform = "twitter"
	LinkedIn Platform = "linkedin"
)

var Platforms = []Platform{Twitter, LinkedIn}

func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(strings.ToLower(strings.TrimSpace(s))); p {
	case Twitter, LinkedIn:
		return p, nil
	case "x":
		return Twitter, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
	}
}

// ShareMessage is the fixed share text for a score.
func ShareMessage(score int) string {
	return fmt.Sprintf("My message scored %d on the PitchLens Market Resonance Score.", score)
}

// ShareURL builds the platform's share intent for score, linking back to pageURL.
func ShareURL(p Platform, score int, pageURL string) (string, error) {
	switch p {
	case Twitter:
		q := url.Values{}
		q.Set("text", ShareMessage(score))
		q.Set("url", pageURL)
		return "https://twitter.com/intent/tweet?" + q.Encode(), nil
	case LinkedIn:
		// The feed composer takes free text only, so the link rides in it.
		q := url.Values{}
		q.Set("shareActive", "true")
		q.Set("text", ShareMessage(score)+" "+pageURL)
		return "https://www.linkedin.com/feed/?" + q.Encode(), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, string(p))
}

// Open hands rawURL to the platform's default browser. Only http and https
// URLs are accepted.
func Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("refusing to open URL with scheme %q (only http/https allowed)", u.Scheme)
	}

	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", rawURL).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL).Start()
	default:
		return exec.Command("xdg-open", rawURL).Start()
	}
}
