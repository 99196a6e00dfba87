package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"michi/internal/audio"
	"michi/internal/chatlogs"
	"michi/internal/client/api"
	"michi/internal/client/session"
	"michi/internal/client/shell"
	"michi/internal/knowledge"
	"michi/internal/messaging"
	"michi/internal/models"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const liveTick = 200 * time.Millisecond

// Deps are the collaborators the UI drives
type Deps struct {
	API        *api.Client
	Store      session.TokenStore
	Recorder   *audio.Recorder
	Player     audio.Player // nil disables playback
	NewConsole func() *messaging.Console
	ChatLogs   *chatlogs.Client
	Knowledge  *knowledge.Client
	SaveDir    string
}

type promptKind int

const (
	promptNone promptKind = iota
	promptClaim
	promptRename
	promptNewRobot
	promptNewUser
	promptPassword
	promptUpload
)

func (p promptKind) label() string {
	switch p {
	case promptClaim:
		return "Robot ID to claim"
	case promptRename:
		return "New name"
	case promptNewRobot:
		return "Robot ID and name"
	case promptNewUser:
		return "User name and password"
	case promptPassword:
		return "New password"
	case promptUpload:
		return "Path to PDF"
	default:
		return ""
	}
}

// App is the main TUI application model
type App struct {
	deps  Deps
	theme *Theme
	keys  KeyMap

	session session.State
	client  *api.Client
	view    shell.View

	width    int
	height   int
	loading  bool
	spinner  spinner.Model
	status   string
	errMsg   string
	ticking  bool
	quitting bool

	userInput  textinput.Model
	passInput  textinput.Model
	loginFocus int

	prompt       promptKind
	promptInput  textinput.Model
	promptTarget string

	cursor  int
	robots  []models.Robot
	users   []models.UserResponse
	logs    []chatlogs.Log
	dates   []time.Time
	dateIdx int
	docs    []knowledge.Document

	console    *messaging.Console
	consoleGen int
	level      float64
	commands   []messaging.Command
}

// NewApp creates the UI. A saved session is verified against the backend on start.
func NewApp(deps Deps, saved session.State) *App {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = DefaultTheme.Spinner

	user := textinput.New()
	user.Placeholder = "username"
	user.CharLimit = 64
	user.Width = 30
	user.Prompt = ""
	user.Focus()

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.CharLimit = 128
	pass.Width = 30
	pass.Prompt = ""
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	prompt := textinput.New()
	prompt.CharLimit = 256
	prompt.Width = 50
	prompt.Prompt = "› "

	commands := make([]messaging.Command, 0, len(messaging.Components)+3)
	for _, c := range messaging.Components {
		commands = append(commands, messaging.TestComponent(c))
	}
	commands = append(commands, messaging.Stop, messaging.Idle, messaging.Sleep)

	return &App{
		deps:        deps,
		theme:       DefaultTheme,
		keys:        DefaultKeys,
		session:     saved,
		view:        shell.LoginView{},
		spinner:     s,
		userInput:   user,
		passInput:   pass,
		promptInput: prompt,
		commands:    commands,
	}
}

// Init starts the spinner and resumes a saved session
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.spinner.Tick, textinput.Blink}
	if a.session.LoggedIn(time.Now()) {
		a.loading = true
		a.status = "Restoring session..."
		cmds = append(cmds, a.verifyCmd(a.session))
	}
	return tea.Batch(cmds...)
}

// CurrentView returns the current screen
func (a *App) CurrentView() shell.View {
	return a.view
}

// Session returns the current session state
func (a *App) Session() session.State {
	return a.session
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case TickMsg:
		return a, a.onTick()

	case LoginMsg:
		a.loading = false
		a.status = ""
		if msg.Err != nil {
			if api.IsUnauthorized(msg.Err) && a.session.Token != "" {
				a.logout("Session expired. Please log in again.")
				return a, nil
			}
			a.errMsg = msg.Err.Error()
			return a, nil
		}
		a.session = msg.State
		a.client = a.deps.API.WithToken(msg.State.Token)
		if a.deps.Store != nil {
			if err := a.deps.Store.Save(a.session); err != nil {
				a.status = "Could not save session: " + err.Error()
			}
		}
		a.passInput.SetValue("")
		return a, a.navigate(shell.Select(shell.SelectHome))

	case RobotsMsg:
		a.loading = false
		if a.failed(msg.Err) {
			return a, nil
		}
		a.robots = msg.Robots
		a.clampCursor(len(a.robots))

	case UsersMsg:
		a.loading = false
		if a.failed(msg.Err) {
			return a, nil
		}
		a.users = msg.Users
		a.clampCursor(len(a.users))

	case ChatLogsMsg:
		a.loading = false
		if a.failed(msg.Err) {
			return a, nil
		}
		a.logs = msg.Logs
		chatlogs.SortByTime(a.logs)
		a.dates = chatlogs.Dates(a.logs, time.Local)
		a.dateIdx = 0

	case KnowledgeMsg:
		a.loading = false
		if a.failed(msg.Err) {
			return a, nil
		}
		a.docs = msg.Docs
		a.clampCursor(len(a.docs))

	case ActionMsg:
		a.loading = false
		if a.failed(msg.Err) {
			return a, nil
		}
		if msg.Back {
			cmd := a.navigate(shell.Select(shell.SelectBack))
			a.status = msg.Status
			return a, cmd
		}
		a.status = msg.Status
		if msg.Refresh {
			return a, a.load(a.view)
		}

	case RecordingStartedMsg:
		if msg.Err != nil {
			a.errMsg = msg.Err.Error()
		}
		return a, a.startTicking()

	case RecordingDoneMsg:
		a.loading = false
		if msg.Err != nil {
			a.errMsg = msg.Err.Error()
			return a, nil
		}
		a.status = "Reply received: " + msg.Artifact.Name
		a.cursor = 0
		return a, a.playCmd(msg.Artifact)

	case PlaybackDoneMsg:
		if msg.Err != nil {
			a.errMsg = msg.Err.Error()
		} else {
			a.status = "Played " + msg.Name
		}

	case ConsoleOpenedMsg:
		if msg.Gen == a.consoleGen && msg.Err != nil {
			a.errMsg = msg.Err.Error()
		}
	}

	return a, nil
}

// failed records err and reports whether there was one. A 401 ends the session.
func (a *App) failed(err error) bool {
	if err == nil {
		return false
	}
	if api.IsUnauthorized(err) {
		a.logout("Session expired. Please log in again.")
		return true
	}
	a.errMsg = err.Error()
	return true
}

func (a *App) logout(reason string) {
	a.leave(a.view)
	a.session = a.session.Logout()
	a.client = nil
	a.view = shell.LoginView{}
	a.robots, a.users, a.logs, a.docs = nil, nil, nil, nil
	a.prompt = promptNone
	a.loading = false
	a.errMsg = reason
	a.status = ""
	if a.deps.Store != nil {
		_ = a.deps.Store.Clear()
	}
	a.loginFocus = 0
	a.userInput.Focus()
	a.passInput.Blur()
}

// navigate applies a selection through the transition table
func (a *App) navigate(sel shell.Selection) tea.Cmd {
	next, err := shell.Transition(a.session.Role(), a.view, sel)
	if err != nil {
		a.errMsg = err.Error()
		return nil
	}
	if _, ok := next.(shell.LoginView); ok {
		a.logout("")
		return nil
	}
	return a.enter(next)
}

func (a *App) enter(next shell.View) tea.Cmd {
	if next != a.view {
		a.leave(a.view)
	}
	a.view = next
	a.cursor = 0
	a.errMsg = ""
	a.status = ""
	a.prompt = promptNone

	switch next.(type) {
	case shell.FunctionTestView:
		return tea.Batch(a.openConsole(), a.startTicking())
	case shell.RecorderView:
		return a.startTicking()
	}
	return a.load(next)
}

// leave releases what the current view holds
func (a *App) leave(v shell.View) {
	switch v.(type) {
	case shell.FunctionTestView:
		if a.console != nil {
			a.console.Close()
			a.console = nil
		}
	case shell.RecorderView:
		if a.deps.Recorder != nil && a.deps.Recorder.State() == audio.StateRecording {
			a.deps.Recorder.Cancel()
		}
	}
}

func (a *App) load(v shell.View) tea.Cmd {
	if a.client == nil {
		return nil
	}
	client := a.client

	switch v := v.(type) {
	case shell.OwnedRobotsView:
		a.loading = true
		return func() tea.Msg {
			robots, err := client.MyRobots(context.Background())
			return RobotsMsg{Robots: robots, Err: err}
		}
	case shell.AdminRobotsView:
		a.loading = true
		return func() tea.Msg {
			robots, err := client.ListRobots(context.Background())
			return RobotsMsg{Robots: robots, Err: err}
		}
	case shell.RobotDetailView:
		if a.session.Role() == models.RoleAdmin {
			return a.load(shell.AdminRobotsView{})
		}
		return a.load(shell.OwnedRobotsView{})
	case shell.AdminUsersView:
		a.loading = true
		return func() tea.Msg {
			users, err := client.ListUsers(context.Background())
			return UsersMsg{Users: users, Err: err}
		}
	case shell.ChatLogView:
		if a.deps.ChatLogs == nil {
			return nil
		}
		a.loading = true
		logs := a.deps.ChatLogs
		return func() tea.Msg {
			out, err := logs.Fetch(context.Background(), v.RobotID)
			return ChatLogsMsg{Logs: out, Err: err}
		}
	case shell.KnowledgeView:
		if a.deps.Knowledge == nil {
			return nil
		}
		a.loading = true
		kb := a.deps.Knowledge
		userName := a.session.UserName()
		return func() tea.Msg {
			docs, err := kb.List(context.Background(), userName, v.RobotID)
			return KnowledgeMsg{Docs: docs, Err: err}
		}
	}
	return nil
}

func (a *App) verifyCmd(st session.State) tea.Cmd {
	client := a.deps.API.WithToken(st.Token)
	return func() tea.Msg {
		me, err := client.Me(context.Background())
		if err != nil {
			return LoginMsg{Err: err}
		}
		return LoginMsg{State: st.Login(st.Token, st.ExpiresAt, session.FromResponse(*me))}
	}
}

func (a *App) loginCmd(userName, password string) tea.Cmd {
	base := a.deps.API
	return func() tea.Msg {
		ctx := context.Background()
		res, err := base.Login(ctx, userName, password)
		if err != nil {
			return LoginMsg{Err: err}
		}
		me, err := base.WithToken(res.Token).Me(ctx)
		if err != nil {
			return LoginMsg{Err: err}
		}
		return LoginMsg{State: session.State{}.Login(res.Token, res.ExpiresAt, session.FromResponse(*me))}
	}
}

func (a *App) openConsole() tea.Cmd {
	if a.deps.NewConsole == nil {
		return nil
	}
	a.consoleGen++
	gen := a.consoleGen
	console := a.deps.NewConsole()
	a.console = console
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return ConsoleOpenedMsg{Gen: gen, Err: console.Open(ctx)}
	}
}

func (a *App) startTicking() tea.Cmd {
	if a.ticking {
		return nil
	}
	a.ticking = true
	return tea.Tick(liveTick, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (a *App) onTick() tea.Cmd {
	a.ticking = false
	switch a.view.(type) {
	case shell.FunctionTestView, shell.RecorderView:
	default:
		return nil
	}

	if rec := a.deps.Recorder; rec != nil {
	drain:
		for {
			select {
			case l := <-rec.Levels():
				a.level = l
			default:
				break drain
			}
		}
		if rec.State() != audio.StateRecording {
			a.level = 0
		}
	}
	return a.startTicking()
}

func (a *App) clampCursor(n int) {
	if a.cursor >= n {
		a.cursor = n - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

func (a *App) moveCursor(delta, n int) {
	a.cursor += delta
	a.clampCursor(n)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a.quit()
	}

	if _, ok := a.view.(shell.LoginView); ok {
		return a.handleLoginKey(msg)
	}
	if a.prompt != promptNone {
		return a.handlePromptKey(msg)
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a.quit()
	case key.Matches(msg, a.keys.Logout):
		return a, a.navigate(shell.Select(shell.SelectLogout))
	case key.Matches(msg, a.keys.Back):
		return a, a.navigate(shell.Select(shell.SelectBack))
	case key.Matches(msg, a.keys.FunctionTest):
		return a, a.navigate(shell.Select(shell.SelectFunctionTest))
	case key.Matches(msg, a.keys.Recorder):
		return a, a.navigate(shell.Select(shell.SelectRecorder))
	case key.Matches(msg, a.keys.MyRobots):
		return a, a.navigate(shell.Select(shell.SelectOwnedRobots))
	case key.Matches(msg, a.keys.AdminRobots):
		return a, a.navigate(shell.Select(shell.SelectAdminRobots))
	case key.Matches(msg, a.keys.AdminUsers):
		return a, a.navigate(shell.Select(shell.SelectAdminUsers))
	case key.Matches(msg, a.keys.Refresh):
		return a, a.load(a.view)
	}

	switch v := a.view.(type) {
	case shell.OwnedRobotsView, shell.AdminRobotsView:
		return a, a.handleRobotListKey(msg)
	case shell.RobotDetailView:
		return a, a.handleRobotDetailKey(msg, v.RobotID)
	case shell.AdminUsersView:
		return a, a.handleUsersKey(msg)
	case shell.ChatLogView:
		a.handleChatLogKey(msg)
	case shell.KnowledgeView:
		return a, a.handleKnowledgeKey(msg)
	case shell.FunctionTestView:
		return a, a.handleFunctionTestKey(msg)
	case shell.RecorderView:
		return a, a.handleRecorderKey(msg)
	}
	return a, nil
}

func (a *App) quit() (tea.Model, tea.Cmd) {
	a.leave(a.view)
	a.quitting = true
	return a, tea.Quit
}

func (a *App) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "esc":
		return a.quit()
	case key.Matches(msg, a.keys.Tab), msg.String() == "up", msg.String() == "down":
		a.loginFocus = 1 - a.loginFocus
		if a.loginFocus == 0 {
			a.userInput.Focus()
			a.passInput.Blur()
		} else {
			a.passInput.Focus()
			a.userInput.Blur()
		}
		return a, nil
	case key.Matches(msg, a.keys.Enter):
		if a.loginFocus == 0 {
			a.loginFocus = 1
			a.userInput.Blur()
			a.passInput.Focus()
			return a, nil
		}
		if a.loading {
			return a, nil
		}
		name := strings.TrimSpace(a.userInput.Value())
		pass := a.passInput.Value()
		if name == "" || pass == "" {
			a.errMsg = "Username and password are required"
			return a, nil
		}
		a.loading = true
		a.errMsg = ""
		a.status = "Signing in..."
		return a, a.loginCmd(name, pass)
	}

	var cmd tea.Cmd
	if a.loginFocus == 0 {
		a.userInput, cmd = a.userInput.Update(msg)
	} else {
		a.passInput, cmd = a.passInput.Update(msg)
	}
	return a, cmd
}

func (a *App) openPrompt(kind promptKind, target, initial string) {
	a.prompt = kind
	a.promptTarget = target
	a.promptInput.Placeholder = kind.label()
	a.promptInput.SetValue(initial)
	a.promptInput.EchoMode = textinput.EchoNormal
	if kind == promptPassword {
		a.promptInput.EchoMode = textinput.EchoPassword
	}
	a.promptInput.Focus()
	a.errMsg = ""
}

func (a *App) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.prompt = promptNone
		a.promptInput.Blur()
		return a, nil
	case "enter":
		kind, target := a.prompt, a.promptTarget
		value := strings.TrimSpace(a.promptInput.Value())
		a.prompt = promptNone
		a.promptInput.Blur()
		if value == "" {
			return a, nil
		}
		return a, a.submitPrompt(kind, target, value)
	}

	var cmd tea.Cmd
	a.promptInput, cmd = a.promptInput.Update(msg)
	return a, cmd
}

func (a *App) submitPrompt(kind promptKind, target, value string) tea.Cmd {
	client := a.client
	if client == nil {
		return nil
	}
	ctx := context.Background()
	admin := a.session.Role() == models.RoleAdmin
	a.loading = true

	switch kind {
	case promptClaim:
		return func() tea.Msg {
			r, err := client.ClaimRobot(ctx, value)
			if err != nil {
				return ActionMsg{Err: err}
			}
			return ActionMsg{Status: "Claimed " + r.RobotName, Refresh: true}
		}
	case promptRename:
		if _, ok := a.view.(shell.AdminUsersView); ok {
			return func() tea.Msg {
				_, err := client.UpdateUser(ctx, target, api.UserUpdate{UserName: &value})
				return ActionMsg{Status: "User renamed", Err: err, Refresh: err == nil}
			}
		}
		if admin {
			return func() tea.Msg {
				_, err := client.UpdateRobot(ctx, target, api.RobotUpdate{RobotName: &value})
				return ActionMsg{Status: "Robot renamed", Err: err, Refresh: err == nil}
			}
		}
		return func() tea.Msg {
			r, err := client.RenameRobot(ctx, target, value)
			if err != nil {
				return ActionMsg{Err: err}
			}
			return ActionMsg{Status: "Renamed to " + r.RobotName, Refresh: true}
		}
	case promptNewRobot:
		robotID, name := splitFirst(value)
		return func() tea.Msg {
			_, err := client.CreateRobot(ctx, robotID, name)
			return ActionMsg{Status: "Robot " + robotID + " created", Err: err, Refresh: err == nil}
		}
	case promptNewUser:
		name, password := splitFirst(value)
		return func() tea.Msg {
			_, err := client.CreateUser(ctx, name, password)
			return ActionMsg{Status: "User " + name + " created", Err: err, Refresh: err == nil}
		}
	case promptPassword:
		return func() tea.Msg {
			_, err := client.UpdateUser(ctx, target, api.UserUpdate{Password: &value})
			return ActionMsg{Status: "Password updated", Err: err}
		}
	case promptUpload:
		kb := a.deps.Knowledge
		userName := a.session.UserName()
		if kb == nil {
			a.loading = false
			return nil
		}
		return func() tea.Msg {
			data, err := os.ReadFile(value)
			if err != nil {
				return ActionMsg{Err: err}
			}
			info, err := kb.Upload(ctx, knowledge.Upload{
				UserID:   userName,
				RobotID:  target,
				Filename: baseName(value),
				Data:     data,
			})
			if err != nil {
				return ActionMsg{Err: err}
			}
			return ActionMsg{Status: fmt.Sprintf("Uploaded %s (%d pages)", baseName(value), info.PageCount), Refresh: true}
		}
	}
	a.loading = false
	return nil
}

func (a *App) selectedRobot() (models.Robot, bool) {
	if a.cursor < 0 || a.cursor >= len(a.robots) {
		return models.Robot{}, false
	}
	return a.robots[a.cursor], true
}

func (a *App) robotByRobotID(robotID string) (models.Robot, bool) {
	for _, r := range a.robots {
		if r.RobotID == robotID {
			return r, true
		}
	}
	return models.Robot{}, false
}

func (a *App) handleRobotListKey(msg tea.KeyMsg) tea.Cmd {
	_, admin := a.view.(shell.AdminRobotsView)
	switch {
	case key.Matches(msg, a.keys.Up):
		a.moveCursor(-1, len(a.robots))
	case key.Matches(msg, a.keys.Down):
		a.moveCursor(1, len(a.robots))
	case key.Matches(msg, a.keys.Enter):
		if r, ok := a.selectedRobot(); ok {
			return a.navigate(shell.Selection{Kind: shell.SelectRobotDetail, RobotID: r.RobotID})
		}
	case key.Matches(msg, a.keys.New):
		if admin {
			a.openPrompt(promptNewRobot, "", "")
		} else {
			a.openPrompt(promptClaim, "", "")
		}
	case admin && key.Matches(msg, a.keys.Rename):
		if r, ok := a.selectedRobot(); ok {
			a.openPrompt(promptRename, r.ID.Hex(), r.RobotName)
		}
	case admin && key.Matches(msg, a.keys.Delete):
		if r, ok := a.selectedRobot(); ok {
			client := a.client
			a.loading = true
			return func() tea.Msg {
				err := client.DeleteRobot(context.Background(), r.ID.Hex())
				return ActionMsg{Status: "Robot " + r.RobotID + " deleted", Err: err, Refresh: err == nil}
			}
		}
	}
	return nil
}

func (a *App) handleRobotDetailKey(msg tea.KeyMsg, robotID string) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.ChatLogs):
		return a.navigate(shell.Select(shell.SelectChatLogs))
	case key.Matches(msg, a.keys.Knowledge):
		return a.navigate(shell.Select(shell.SelectKnowledge))
	case key.Matches(msg, a.keys.Rename):
		if r, ok := a.robotByRobotID(robotID); ok {
			a.openPrompt(promptRename, r.ID.Hex(), r.RobotName)
		}
	case key.Matches(msg, a.keys.Delete):
		r, ok := a.robotByRobotID(robotID)
		if !ok || a.client == nil {
			return nil
		}
		client := a.client
		a.loading = true
		if a.session.Role() == models.RoleAdmin {
			return func() tea.Msg {
				err := client.DeleteRobot(context.Background(), r.ID.Hex())
				return ActionMsg{Status: "Robot " + r.RobotID + " deleted", Err: err, Back: err == nil}
			}
		}
		return func() tea.Msg {
			err := client.ReleaseRobot(context.Background(), r.ID.Hex())
			return ActionMsg{Status: "Released " + r.RobotName, Err: err, Back: err == nil}
		}
	}
	return nil
}

func (a *App) handleUsersKey(msg tea.KeyMsg) tea.Cmd {
	selected := func() (models.UserResponse, bool) {
		if a.cursor < 0 || a.cursor >= len(a.users) {
			return models.UserResponse{}, false
		}
		return a.users[a.cursor], true
	}

	switch {
	case key.Matches(msg, a.keys.Up):
		a.moveCursor(-1, len(a.users))
	case key.Matches(msg, a.keys.Down):
		a.moveCursor(1, len(a.users))
	case key.Matches(msg, a.keys.New):
		a.openPrompt(promptNewUser, "", "")
	case key.Matches(msg, a.keys.Rename):
		if u, ok := selected(); ok {
			a.openPrompt(promptRename, u.ID, u.UserName)
		}
	case key.Matches(msg, a.keys.Password):
		if u, ok := selected(); ok {
			a.openPrompt(promptPassword, u.ID, "")
		}
	case key.Matches(msg, a.keys.Delete):
		if u, ok := selected(); ok && a.client != nil {
			client := a.client
			a.loading = true
			return func() tea.Msg {
				err := client.DeleteUser(context.Background(), u.ID)
				return ActionMsg{Status: "User " + u.UserName + " deleted", Err: err, Refresh: err == nil}
			}
		}
	}
	return nil
}

// visibleLogs applies the date filter; dateIdx 0 means all dates
func (a *App) visibleLogs() []chatlogs.Log {
	if a.dateIdx == 0 || a.dateIdx > len(a.dates) {
		return a.logs
	}
	return chatlogs.FilterByDate(a.logs, a.dates[a.dateIdx-1], time.Local)
}

func (a *App) handleChatLogKey(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, a.keys.Left):
		a.dateIdx = (a.dateIdx + len(a.dates)) % (len(a.dates) + 1)
		a.cursor = 0
	case key.Matches(msg, a.keys.Right):
		a.dateIdx = (a.dateIdx + 1) % (len(a.dates) + 1)
		a.cursor = 0
	case key.Matches(msg, a.keys.Up):
		a.moveCursor(-1, len(a.visibleLogs()))
	case key.Matches(msg, a.keys.Down):
		a.moveCursor(1, len(a.visibleLogs()))
	}
}

func (a *App) handleKnowledgeKey(msg tea.KeyMsg) tea.Cmd {
	robotID := shell.RobotOf(a.view)
	switch {
	case key.Matches(msg, a.keys.Up):
		a.moveCursor(-1, len(a.docs))
	case key.Matches(msg, a.keys.Down):
		a.moveCursor(1, len(a.docs))
	case key.Matches(msg, a.keys.New):
		a.openPrompt(promptUpload, robotID, "")
	case key.Matches(msg, a.keys.Delete):
		if a.cursor < len(a.docs) && a.deps.Knowledge != nil {
			doc := a.docs[a.cursor]
			kb := a.deps.Knowledge
			a.loading = true
			return func() tea.Msg {
				err := kb.Delete(context.Background(), doc.ID)
				return ActionMsg{Status: "Deleted " + doc.Filename, Err: err, Refresh: err == nil}
			}
		}
	}
	return nil
}

func (a *App) handleFunctionTestKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Up):
		a.moveCursor(-1, len(a.commands))
	case key.Matches(msg, a.keys.Down):
		a.moveCursor(1, len(a.commands))
	case key.Matches(msg, a.keys.Enter):
		if a.console == nil || a.cursor >= len(a.commands) {
			return nil
		}
		console, cmd := a.console, a.commands[a.cursor]
		return func() tea.Msg {
			// Failures are already in the console log.
			_ = console.Publish(cmd)
			return nil
		}
	}
	return nil
}

func (a *App) handleRecorderKey(msg tea.KeyMsg) tea.Cmd {
	rec := a.deps.Recorder
	if rec == nil {
		return nil
	}
	artifacts := rec.Artifacts().List()

	switch {
	case key.Matches(msg, a.keys.Record):
		switch rec.State() {
		case audio.StateIdle:
			a.errMsg = ""
			return func() tea.Msg {
				return RecordingStartedMsg{Err: rec.Start(context.Background())}
			}
		case audio.StateRecording:
			a.loading = true
			return func() tea.Msg {
				artifact, err := rec.Stop(context.Background())
				return RecordingDoneMsg{Artifact: artifact, Err: err}
			}
		}
	case key.Matches(msg, a.keys.Cancel):
		rec.Cancel()
	case key.Matches(msg, a.keys.Up):
		a.moveCursor(-1, len(artifacts))
	case key.Matches(msg, a.keys.Down):
		a.moveCursor(1, len(artifacts))
	case key.Matches(msg, a.keys.Play):
		if a.cursor < len(artifacts) {
			return a.playCmd(artifacts[a.cursor])
		}
	case key.Matches(msg, a.keys.Save):
		if a.cursor < len(artifacts) {
			path, err := rec.Artifacts().Save(artifacts[a.cursor].ID, a.deps.SaveDir)
			if err != nil {
				a.errMsg = err.Error()
			} else {
				a.status = "Saved " + path
			}
		}
	}
	return nil
}

// playCmd plays artifact in the background; the UI stays responsive meanwhile
func (a *App) playCmd(artifact *audio.Artifact) tea.Cmd {
	player := a.deps.Player
	if player == nil || artifact == nil {
		return nil
	}
	a.status = "Playing " + artifact.Name + "..."
	return func() tea.Msg {
		return PlaybackDoneMsg{Name: artifact.Name, Err: player.Play(context.Background(), artifact)}
	}
}

func splitFirst(s string) (string, string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Run starts the UI and blocks until it exits
func Run(deps Deps, saved session.State) error {
	app := NewApp(deps, saved)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
