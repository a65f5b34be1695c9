package driver

import "fmt"

// CommandKind identifies a recorded command.
type CommandKind uint8

const (
	// CmdTransition changes the layout of an image.
	CmdTransition CommandKind = iota

	// CmdWriteImage copies host pixels into an image.
	CmdWriteImage
)

// Command is one recorded command. Only the fields of its kind are set.
type Command struct {
	Kind  CommandKind
	Image Image

	// CmdTransition
	OldLayout ImageLayout
	NewLayout ImageLayout

	// CmdWriteImage: tightly or loosely packed rows of BytesPerRow bytes.
	Pixels      []byte
	BytesPerRow uint32
}

// CommandList records commands for one submission. The zero value is an
// empty list ready for recording.
//
// Recording validates layout transitions eagerly so that a bad transition is
// reported at the call site rather than at submission.
type CommandList struct {
	Label    string
	commands []Command
	err      error
}

// NewCommandList returns an empty list with a debug label.
func NewCommandList(label string) *CommandList {
	return &CommandList{Label: label}
}

// TransitionImage records a layout transition. Transitions to the same layout
// are dropped.
func (l *CommandList) TransitionImage(img Image, old, new ImageLayout) {
	if l.err != nil || old == new {
		return
	}
	if err := CheckTransition(old, new); err != nil {
		l.err = fmt.Errorf("%s: %w", l.Label, err)
		return
	}
	l.commands = append(l.commands, Command{
		Kind:      CmdTransition,
		Image:     img,
		OldLayout: old,
		NewLayout: new,
	})
}

// WriteImage records an upload of host pixels into img. The image must be in
// LayoutTransferDst or LayoutGeneral when the command executes.
func (l *CommandList) WriteImage(img Image, pixels []byte, bytesPerRow uint32) {
	if l.err != nil {
		return
	}
	l.commands = append(l.commands, Command{
		Kind:        CmdWriteImage,
		Image:       img,
		Pixels:      pixels,
		BytesPerRow: bytesPerRow,
	})
}

// Commands returns the recorded commands.
func (l *CommandList) Commands() []Command {
	return l.commands
}

// Err returns the first recording error.
func (l *CommandList) Err() error {
	return l.err
}

// Len returns the number of recorded commands.
func (l *CommandList) Len() int {
	return len(l.commands)
}
