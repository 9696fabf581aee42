package export

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
)

// ManualCopyMessage is shown when the clipboard refuses a write.
const ManualCopyMessage = "Could not copy to clipboard. Select the embed code and copy it manually."

// CopyResult is the observable outcome of a clipboard write. A failed copy is
// not an error: OK is false and Message tells the user what to do.
type CopyResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Clipboard copies text for the user.
type Clipboard interface {
	Copy(ctx context.Context, text string) CopyResult
}

// NewClipboard returns the clipboard for a configured backend name.
func NewClipboard(backend string) (Clipboard, error) {
	switch backend {
	case "", "system":
		return SystemClipboard{}, nil
	case "osc52":
		return NewTerminalClipboard(os.Stderr), nil
	default:
		return nil, fmt.Errorf("unknown clipboard backend %q", backend)
	}
}

// SystemClipboard writes to the OS clipboard.
type SystemClipboard struct{}

func (SystemClipboard) Copy(ctx context.Context, text string) CopyResult {
	if ctx.Err() != nil {
		return CopyResult{Message: ManualCopyMessage}
	}
	if clipboard.Unsupported {
		return CopyResult{Message: ManualCopyMessage}
	}
	if err := clipboard.WriteAll(text); err != nil {
		return CopyResult{Message: ManualCopyMessage}
	}
	return CopyResult{OK: true, Message: "Copied!"}
}

// TerminalClipboard asks the terminal emulator to set the clipboard using an
// OSC 52 escape sequence. It works over SSH where no system clipboard exists.
type TerminalClipboard struct {
	w    io.Writer
	tmux bool
}

func NewTerminalClipboard(w io.Writer) *TerminalClipboard {
	return &TerminalClipboard{w: w, tmux: os.Getenv("TMUX") != ""}
}

func (c *TerminalClipboard) Copy(ctx context.Context, text string) CopyResult {
	if ctx.Err() != nil {
		return CopyResult{Message: ManualCopyMessage}
	}
	seq := osc52.New(text)
	if c.tmux {
		seq = seq.Tmux()
	}
	if _, err := seq.WriteTo(c.w); err != nil {
		return CopyResult{Message: ManualCopyMessage}
	}
	return CopyResult{OK: true, Message: "Copied!"}
}

var (
	_ Clipboard = SystemClipboard{}
	_ Clipboard = (*TerminalClipboard)(nil)
)
