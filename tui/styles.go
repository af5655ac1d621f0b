package tui

import "github.com/charmbracelet/lipgloss"

var (
	// General
	AppStyle = lipgloss.NewStyle().Padding(0, 1)

	// Email List
	EmailListItemStyle         = lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
	SelectedEmailListItemStyle = EmailListItemStyle

	// Styles for parts of the list item (normal state)
	NormalSubjectStyle       = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "0", Dark: "15"})
	NormalSecondaryTextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "244"})
	UnreadMarkerStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)

	// Styles for parts of the list item (selected state)
	SelectedSubjectStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Bold(true)
	SelectedSecondaryTextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("189"))
	SelectedMarkerStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)

	EmailListTitleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1).Foreground(lipgloss.Color("63"))

	// Inputs
	InputLabelStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	FocusedInputLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))

	// Message view & compose
	ContentBoxStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true).Padding(0, 1)
	TitleStyle      = lipgloss.NewStyle().Bold(true).Background(lipgloss.Color("63")).Foreground(lipgloss.Color("255")).Padding(0, 1)
	HeaderKeyStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	HeaderValStyle  = lipgloss.NewStyle()

	// Status Bar
	StatusBarSuccessStyle = lipgloss.NewStyle().Background(lipgloss.Color("28")).Foreground(lipgloss.Color("255")).Padding(0, 1)
	StatusBarNormalStyle  = lipgloss.NewStyle().Background(lipgloss.Color("235")).Foreground(lipgloss.Color("250")).Padding(0, 1)
	StatusBarErrorStyle   = lipgloss.NewStyle().Background(lipgloss.Color("196")).Foreground(lipgloss.Color("255")).Padding(0, 1)
)
