package logging

// Mode selects logging defaults.
type Mode uint8

const (
	ModeCLI Mode = iota + 1
	ModeWatch
)

func (m Mode) String() string {
	switch m {
	case ModeWatch:
		return "watch"
	default:
		return "cli"
	}
}
