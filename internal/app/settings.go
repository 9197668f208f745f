package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskboard/internal/model"
)

// settingsSavedMsg is sent after the configuration file was written.
type settingsSavedMsg struct {
	cfg model.AppConfig
	err error
}

// saveSettings validates cfg and writes it to the configuration file.
func (m *Model) saveSettings(cfg model.AppConfig) tea.Cmd {
	path := m.configPath
	return func() tea.Msg {
		if err := cfg.Validate(); err != nil {
			return settingsSavedMsg{err: err}
		}
		if path == "" {
			return settingsSavedMsg{cfg: cfg}
		}
		if err := model.SaveConfig(path, &cfg); err != nil {
			return settingsSavedMsg{err: err}
		}
		return settingsSavedMsg{cfg: cfg}
	}
}
