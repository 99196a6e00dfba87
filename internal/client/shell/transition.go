package shell

import (
	"errors"
	"fmt"

	"michi/internal/models"
)

var (
	// ErrForbidden is returned when a regular user selects an administrator screen
	ErrForbidden = errors.New("admin access required")
	// ErrRobotRequired is returned when a robot-scoped screen is selected without a robot
	ErrRobotRequired = errors.New("select a robot first")
	// ErrUnknownSelection is returned for selections the table does not know
	ErrUnknownSelection = errors.New("unknown selection")
)

// Kind names a navigation action
type Kind string

const (
	SelectHome         Kind = "home"
	SelectBack         Kind = "back"
	SelectLogout       Kind = "logout"
	SelectFunctionTest Kind = "function_test"
	SelectRecorder     Kind = "recorder"
	SelectChatLogs     Kind = "chat_logs"
	SelectOwnedRobots  Kind = "owned_robots"
	SelectRobotDetail  Kind = "robot_detail"
	SelectKnowledge    Kind = "knowledge"
	SelectAdminUsers   Kind = "admin_users"
	SelectAdminRobots  Kind = "admin_robots"
)

// Selection is a navigation request. RobotID scopes robot screens; when empty
// the robot of the current screen is used.
type Selection struct {
	Kind    Kind
	RobotID string
}

// Select is shorthand for an unscoped selection
func Select(kind Kind) Selection {
	return Selection{Kind: kind}
}

type rule func(current View, sel Selection) (View, error)

type key struct {
	role models.Role
	kind Kind
}

func fixed(v View) rule {
	return func(View, Selection) (View, error) { return v, nil }
}

func robotScoped(build func(robotID string) View) rule {
	return func(current View, sel Selection) (View, error) {
		robotID := sel.RobotID
		if robotID == "" {
			robotID = RobotOf(current)
		}
		if robotID == "" {
			return nil, ErrRobotRequired
		}
		return build(robotID), nil
	}
}

func forbidden(View, Selection) (View, error) {
	return nil, ErrForbidden
}

func back(home View) rule {
	return func(current View, _ Selection) (View, error) {
		switch v := current.(type) {
		case ChatLogView:
			return RobotDetailView{RobotID: v.RobotID}, nil
		case KnowledgeView:
			return RobotDetailView{RobotID: v.RobotID}, nil
		case RobotDetailView:
			return OwnedRobotsView{}, nil
		default:
			return home, nil
		}
	}
}

// Home returns the landing screen for role
func Home(role models.Role) View {
	switch role {
	case models.RoleAdmin:
		return AdminRobotsView{}
	case models.RoleUser:
		return OwnedRobotsView{}
	default:
		return LoginView{}
	}
}

var table = buildTable()

func buildTable() map[key]rule {
	common := map[Kind]rule{
		SelectLogout:       fixed(LoginView{}),
		SelectFunctionTest: fixed(FunctionTestView{}),
		SelectRecorder:     fixed(RecorderView{}),
		SelectOwnedRobots:  fixed(OwnedRobotsView{}),
		SelectChatLogs:     robotScoped(func(id string) View { return ChatLogView{RobotID: id} }),
		SelectRobotDetail:  robotScoped(func(id string) View { return RobotDetailView{RobotID: id} }),
		SelectKnowledge:    robotScoped(func(id string) View { return KnowledgeView{RobotID: id} }),
	}

	t := make(map[key]rule)
	for kind, r := range common {
		t[key{models.RoleUser, kind}] = r
		t[key{models.RoleAdmin, kind}] = r
	}

	t[key{models.RoleUser, SelectHome}] = fixed(Home(models.RoleUser))
	t[key{models.RoleUser, SelectBack}] = back(Home(models.RoleUser))
	t[key{models.RoleUser, SelectAdminUsers}] = forbidden
	t[key{models.RoleUser, SelectAdminRobots}] = forbidden

	t[key{models.RoleAdmin, SelectHome}] = fixed(Home(models.RoleAdmin))
	t[key{models.RoleAdmin, SelectBack}] = back(Home(models.RoleAdmin))
	t[key{models.RoleAdmin, SelectAdminUsers}] = fixed(AdminUsersView{})
	t[key{models.RoleAdmin, SelectAdminRobots}] = fixed(AdminRobotsView{})

	return t
}

// Transition returns the screen reached from current by sel for a caller with role.
// An empty role means logged out; every selection then yields LoginView.
func Transition(role models.Role, current View, sel Selection) (View, error) {
	if role == "" {
		return LoginView{}, nil
	}
	if current == nil {
		current = Home(role)
	}

	r, ok := table[key{role, sel.Kind}]
	if !ok {
		return current, fmt.Errorf("%w: %q", ErrUnknownSelection, sel.Kind)
	}

	next, err := r(current, sel)
	if err != nil {
		return current, err
	}
	return next, nil
}
