// Package shell decides which screen the client shows.
package shell

import "fmt"

// View is one screen of the client. The set of variants is closed.
type View interface {
	Name() string
	isView()
}

type (
	LoginView        struct{}
	FunctionTestView struct{}
	RecorderView     struct{}
	OwnedRobotsView  struct{}
	AdminUsersView   struct{}
	AdminRobotsView  struct{}

	ChatLogView struct {
		RobotID string
	}
	RobotDetailView struct {
		RobotID string
	}
	KnowledgeView struct {
		RobotID string
	}
)

func (LoginView) Name() string         { return "Login" }
func (FunctionTestView) Name() string  { return "Function Test" }
func (RecorderView) Name() string      { return "Audio Recorder" }
func (OwnedRobotsView) Name() string   { return "My Robots" }
func (AdminUsersView) Name() string    { return "Users" }
func (AdminRobotsView) Name() string   { return "Robots" }
func (v ChatLogView) Name() string     { return scoped("Chat Logs", v.RobotID) }
func (v RobotDetailView) Name() string { return scoped("Robot", v.RobotID) }
func (v KnowledgeView) Name() string   { return scoped("Knowledge", v.RobotID) }

func (LoginView) isView()        {}
func (FunctionTestView) isView() {}
func (RecorderView) isView()     {}
func (OwnedRobotsView) isView()  {}
func (AdminUsersView) isView()   {}
func (AdminRobotsView) isView()  {}
func (ChatLogView) isView()      {}
func (RobotDetailView) isView()  {}
func (KnowledgeView) isView()    {}

func scoped(title, robotID string) string {
	if robotID == "" {
		return title
	}
	return fmt.Sprintf("%s · %s", title, robotID)
}

// RobotOf returns the robot a view is scoped to, or ""
func RobotOf(v View) string {
	switch v := v.(type) {
	case ChatLogView:
		return v.RobotID
	case RobotDetailView:
		return v.RobotID
	case KnowledgeView:
		return v.RobotID
	default:
		return ""
	}
}
