package messaging

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Components are the robot subsystems the function test page can exercise.
var Components = []string{"hands", "neck", "eyes", "speaker", "all"}

// Command is a control message published to the robot topic
type Command struct {
	Name  string
	Field string
	Value string
}

// TestComponent asks the robot to run the self-test of one component
func TestComponent(name string) Command {
	name = strings.ToLower(strings.TrimSpace(name))
	return Command{Name: "test " + name, Field: "command", Value: "test_" + name}
}

var (
	// Stop halts any running test
	Stop = Command{Name: "stop", Field: "command", Value: "test_stop"}
	// Idle returns the robot to its idle state
	Idle = Command{Name: "idle", Field: "command", Value: "idle"}
	// Sleep puts the robot to sleep. The robot firmware listens on "response" for this one.
	Sleep = Command{Name: "sleep", Field: "response", Value: "sleep"}
)

// ParseCommand maps a console keyword to a Command
func ParseCommand(s string) (Command, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return Command{}, fmt.Errorf("empty command")
	case "stop":
		return Stop, nil
	case "idle":
		return Idle, nil
	case "sleep":
		return Sleep, nil
	}
	for _, c := range Components {
		if s == c || s == "test_"+c {
			return TestComponent(c), nil
		}
	}
	return Command{}, fmt.Errorf("unknown command %q", s)
}

// Payload is the JSON body sent on the wire
func (c Command) Payload() ([]byte, error) {
	if c.Field == "" || c.Value == "" {
		return nil, fmt.Errorf("incomplete command %q", c.Name)
	}
	return json.Marshal(map[string]string{c.Field: c.Value})
}
