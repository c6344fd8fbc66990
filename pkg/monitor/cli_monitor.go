package monitor

import (
	"fmt"
	"io"
	"os"
)

// CLIMonitor implements Monitor on a terminal: every message flowing through
// the program is echoed with a timestamp.
type CLIMonitor struct {
	writer io.Writer
}

// NewCLIMonitor writes to stdout.
func NewCLIMonitor() *CLIMonitor {
	return &CLIMonitor{writer: os.Stdout}
}

func (m *CLIMonitor) Start() error {
	fmt.Fprintln(m.writer, "----------------------------------------------------------------")
	fmt.Fprintln(m.writer, "Monitor active - session messages will appear here")
	fmt.Fprintln(m.writer, "----------------------------------------------------------------")
	return nil
}

func (m *CLIMonitor) Stop() error {
	return nil
}

func (m *CLIMonitor) OnMessage(msg Message) {
	timestamp := msg.Timestamp.Format("2006-01-02 15:04:05")

	var displayMsg string
	if msg.MessageType == "ASSISTANT" {
		displayMsg = fmt.Sprintf("[AI] %s", msg.Content)
	} else {
		displayMsg = fmt.Sprintf("[%s] %s", msg.SessionID, msg.Content)
	}

	fmt.Fprintf(m.writer, "\033[90m[%s]\033[0m %s\n", timestamp, displayMsg)
}
