package tui

import (
	"fmt"
	"strings"
	"time"

	"michi/internal/audio"
	"michi/internal/chatlogs"
	"michi/internal/client/shell"
	"michi/internal/models"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

const levelWidth = 30

type navItem struct {
	binding key.Binding
	view    shell.View
}

// View renders the UI
func (a *App) View() (output string) {
	// Recover from any panics to prevent TUI crash
	defer func() {
		if r := recover(); r != nil {
			output = fmt.Sprintf("\n  Error rendering view: %v\n\n  Press 'q' to quit.", r)
		}
	}()

	if a.quitting {
		return ""
	}

	w, h := a.width, a.height
	if w < 40 {
		w = 40
	}
	if h < 10 {
		h = 10
	}

	var b strings.Builder
	b.WriteString(a.viewHeader(w))
	b.WriteString("\n")
	if _, ok := a.view.(shell.LoginView); !ok {
		b.WriteString(a.viewNav())
		b.WriteString("\n\n")
	}
	b.WriteString(a.viewContent(w))
	b.WriteString("\n")
	b.WriteString(a.viewStatus())

	lines := strings.Count(b.String(), "\n")
	for lines < h-1 {
		b.WriteString("\n")
		lines++
	}
	b.WriteString(a.viewFooter(w))
	return b.String()
}

func (a *App) viewHeader(w int) string {
	left := a.theme.Logo.Render("◉ Michi")
	right := ""
	if name := a.session.UserName(); name != "" {
		right = a.theme.User.Render(fmt.Sprintf("%s (%s)", name, a.session.Role()))
	}
	gap := w - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}
	return a.theme.Header.Width(w).Render(left + strings.Repeat(" ", gap) + right)
}

func (a *App) navItems() []navItem {
	items := []navItem{
		{a.keys.FunctionTest, shell.FunctionTestView{}},
		{a.keys.Recorder, shell.RecorderView{}},
	}
	if a.session.Role() == models.RoleAdmin {
		return append(items,
			navItem{a.keys.AdminRobots, shell.AdminRobotsView{}},
			navItem{a.keys.AdminUsers, shell.AdminUsersView{}},
		)
	}
	return append(items, navItem{a.keys.MyRobots, shell.OwnedRobotsView{}})
}

func (a *App) viewNav() string {
	var tabs []string
	for _, item := range a.navItems() {
		label := item.binding.Help().Key + " " + item.view.Name()
		style := a.theme.Nav
		if sameSection(a.view, item.view) {
			style = a.theme.NavActive
		}
		tabs = append(tabs, style.Render(label))
	}
	return lipgloss.NewStyle().Padding(0, 2).Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
}

// sameSection treats robot screens as part of the list they were opened from
func sameSection(current, tab shell.View) bool {
	switch current.(type) {
	case shell.RobotDetailView, shell.ChatLogView, shell.KnowledgeView:
		switch tab.(type) {
		case shell.OwnedRobotsView, shell.AdminRobotsView:
			return true
		}
	}
	return current == tab
}

func (a *App) viewContent(w int) string {
	var body string
	switch v := a.view.(type) {
	case shell.LoginView:
		body = a.viewLogin()
	case shell.FunctionTestView:
		body = a.viewFunctionTest()
	case shell.RecorderView:
		body = a.viewRecorder()
	case shell.OwnedRobotsView, shell.AdminRobotsView:
		body = a.viewRobots()
	case shell.AdminUsersView:
		body = a.viewUsers()
	case shell.RobotDetailView:
		body = a.viewRobotDetail(v.RobotID)
	case shell.ChatLogView:
		body = a.viewChatLogs()
	case shell.KnowledgeView:
		body = a.viewKnowledge()
	}

	if a.prompt != promptNone {
		body += "\n\n" + a.theme.InputLabel.Render(a.prompt.label()) + "\n" +
			a.theme.Input.Render(a.promptInput.View()) + "\n" +
			a.theme.Help.Render("[Enter] confirm  [Esc] cancel")
	}

	title := a.theme.Title.Render(a.view.Name())
	return lipgloss.NewStyle().Padding(0, 2).MaxWidth(w).Render(title + "\n" + body)
}

func (a *App) viewStatus() string {
	var line string
	switch {
	case a.loading:
		line = a.spinner.View() + " " + a.theme.Muted.Render(orDefault(a.status, "Loading..."))
	case a.errMsg != "":
		line = a.theme.StatusError.Render("✗ " + a.errMsg)
	case a.status != "":
		line = a.theme.StatusSuccess.Render("✓ " + a.status)
	}
	return lipgloss.NewStyle().Padding(0, 2).Render(line)
}

func (a *App) viewFooter(w int) string {
	var bindings []key.Binding
	switch a.view.(type) {
	case shell.LoginView:
		bindings = []key.Binding{a.keys.Tab, a.keys.Enter}
	case shell.FunctionTestView:
		bindings = []key.Binding{a.keys.Up, a.keys.Down, a.keys.Enter}
	case shell.RecorderView:
		bindings = []key.Binding{a.keys.Record, a.keys.Cancel, a.keys.Play, a.keys.Save}
	case shell.OwnedRobotsView:
		bindings = []key.Binding{a.keys.Enter, a.keys.New}
	case shell.AdminRobotsView:
		bindings = []key.Binding{a.keys.Enter, a.keys.New, a.keys.Rename, a.keys.Delete}
	case shell.AdminUsersView:
		bindings = []key.Binding{a.keys.New, a.keys.Rename, a.keys.Password, a.keys.Delete}
	case shell.RobotDetailView:
		bindings = []key.Binding{a.keys.ChatLogs, a.keys.Knowledge, a.keys.Rename, a.keys.Delete, a.keys.Back}
	case shell.ChatLogView:
		bindings = []key.Binding{a.keys.Left, a.keys.Right, a.keys.Back}
	case shell.KnowledgeView:
		bindings = []key.Binding{a.keys.New, a.keys.Delete, a.keys.Back}
	}
	if _, ok := a.view.(shell.LoginView); !ok {
		bindings = append(bindings, a.keys.Logout, a.keys.Quit)
	}

	var parts []string
	for _, b := range bindings {
		h := b.Help()
		if _, ok := a.view.(shell.RobotDetailView); ok && h.Key == "d" && a.session.Role() != models.RoleAdmin {
			h.Desc = "release"
		}
		parts = append(parts, a.theme.HelpKey.Render(h.Key)+" "+a.theme.Help.Render(h.Desc))
	}
	return a.theme.Footer.Width(w).Render(strings.Join(parts, "  "))
}

func (a *App) viewLogin() string {
	userStyle, passStyle := a.theme.Input, a.theme.Input
	if a.loginFocus == 0 {
		userStyle = userStyle.BorderForeground(ColorAccent)
	} else {
		passStyle = passStyle.BorderForeground(ColorAccent)
	}
	form := lipgloss.JoinVertical(lipgloss.Left,
		a.theme.Subtitle.Render("Sign in to manage your robots"),
		"",
		a.theme.InputLabel.Render("Username"),
		userStyle.Render(a.userInput.View()),
		a.theme.InputLabel.Render("Password"),
		passStyle.Render(a.passInput.View()),
	)
	return a.theme.Panel.Render(form)
}

func (a *App) listLine(i int, text string) string {
	if i == a.cursor {
		return a.theme.ListItemActive.Render(text)
	}
	return a.theme.ListItem.Render(text)
}

func (a *App) viewRobots() string {
	if len(a.robots) == 0 {
		if _, ok := a.view.(shell.OwnedRobotsView); ok {
			return a.theme.Muted.Render("No robots yet. Press n to claim one by its ID.")
		}
		return a.theme.Muted.Render("No robots registered.")
	}
	var lines []string
	for i, r := range a.robots {
		owners := fmt.Sprintf("%d owner", len(r.OwnerUserIDs))
		if len(r.OwnerUserIDs) != 1 {
			owners += "s"
		}
		lines = append(lines, a.listLine(i, fmt.Sprintf("%-20s %-14s %s", r.RobotName, r.RobotID, a.theme.Muted.Render(owners))))
	}
	return strings.Join(lines, "\n")
}

func (a *App) viewUsers() string {
	if len(a.users) == 0 {
		return a.theme.Muted.Render("No users.")
	}
	var lines []string
	for i, u := range a.users {
		lines = append(lines, a.listLine(i, fmt.Sprintf("%-20s %-6s %s",
			u.UserName, u.Role, a.theme.Muted.Render("since "+u.CreatedAt.Format(chatlogs.DateLayout)))))
	}
	return strings.Join(lines, "\n")
}

func (a *App) viewRobotDetail(robotID string) string {
	r, ok := a.robotByRobotID(robotID)
	if !ok {
		return a.theme.Muted.Render("Loading robot " + robotID + "...")
	}
	rows := [][2]string{
		{"Name", r.RobotName},
		{"Robot ID", r.RobotID},
		{"Owners", fmt.Sprintf("%d", len(r.OwnerUserIDs))},
		{"Registered", r.CreatedAt.Format("2006-01-02 15:04")},
	}
	var lines []string
	for _, row := range rows {
		lines = append(lines, a.theme.InputLabel.Render(fmt.Sprintf("%-12s", row[0]))+row[1])
	}
	return a.theme.Panel.Render(strings.Join(lines, "\n"))
}

func (a *App) viewChatLogs() string {
	filter := "All dates"
	if a.dateIdx > 0 && a.dateIdx <= len(a.dates) {
		filter = a.dates[a.dateIdx-1].Format(chatlogs.DateLayout)
	}
	header := a.theme.Subtitle.Render("← " + filter + " →")

	logs := a.visibleLogs()
	if len(logs) == 0 {
		return header + "\n\n" + a.theme.Muted.Render("No conversations.")
	}

	var lines []string
	for i, l := range logs {
		entry := fmt.Sprintf("%s  %s\n    %s",
			a.theme.Muted.Render(l.Time.Local().Format("01-02 15:04")),
			l.Input,
			a.theme.User.Render(truncate(l.Response, 120)))
		lines = append(lines, a.listLine(i, entry))
	}
	return header + "\n\n" + strings.Join(lines, "\n")
}

func (a *App) viewKnowledge() string {
	if len(a.docs) == 0 {
		return a.theme.Muted.Render("No documents. Press n to upload a PDF.")
	}
	var lines []string
	for i, d := range a.docs {
		uploaded := d.UploadedAt
		if t := d.UploadedTime(); !t.IsZero() {
			uploaded = t.Local().Format("2006-01-02 15:04")
		}
		lines = append(lines, a.listLine(i, fmt.Sprintf("%-32s %4d chunks  %s",
			truncate(d.Filename, 32), d.ChunkCount, a.theme.Muted.Render(uploaded))))
	}
	return strings.Join(lines, "\n")
}

func (a *App) viewFunctionTest() string {
	connected := a.theme.StatusWarning.Render("○ connecting")
	var logLines []string
	if a.console != nil {
		if a.console.Connected() {
			connected = a.theme.StatusSuccess.Render("● connected")
		}
		logLines = a.console.Lines()
	}

	var cmds []string
	for i, c := range a.commands {
		cmds = append(cmds, a.listLine(i, c.Name))
	}

	if len(logLines) > 12 {
		logLines = logLines[len(logLines)-12:]
	}
	logPanel := a.theme.Panel.Render(a.theme.Muted.Render(strings.Join(logLines, "\n")))
	return connected + "\n\n" + lipgloss.JoinHorizontal(lipgloss.Top,
		strings.Join(cmds, "\n"), "    ", logPanel)
}

func (a *App) viewRecorder() string {
	rec := a.deps.Recorder
	if rec == nil {
		return a.theme.Muted.Render("No audio source configured.")
	}

	state := rec.State()
	var b strings.Builder
	switch state {
	case audio.StateRecording:
		b.WriteString(a.theme.StatusError.Render("● REC ") + formatElapsed(rec.Elapsed()))
	default:
		b.WriteString(a.theme.Muted.Render(state.String()))
	}
	b.WriteString("\n")
	b.WriteString(a.levelBar(a.level))
	b.WriteString("\n")
	if status := rec.Status(); status != "" {
		b.WriteString(a.theme.Subtitle.Render(status))
		b.WriteString("\n")
	}

	artifacts := rec.Artifacts().List()
	if len(artifacts) > 0 {
		b.WriteString("\n")
		b.WriteString(a.theme.InputLabel.Render("Replies"))
		b.WriteString("\n")
		for i, art := range artifacts {
			b.WriteString(a.listLine(i, fmt.Sprintf("%s  %s  %d KB",
				art.Name, art.ContentType, len(art.Data)/1024)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (a *App) levelBar(level float64) string {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	filled := int(level * levelWidth)
	return a.theme.LevelFill.Render(strings.Repeat("█", filled)) +
		a.theme.LevelEmpty.Render(strings.Repeat("░", levelWidth-filled))
}

func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
