package banner

import (
	"crudbench/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

func GetString() string {
	renderer := lipgloss.DefaultRenderer()

	style := renderer.NewStyle().
		Foreground(styles.ColorBanner).
		Bold(true)

	ascii := `
                      _ _                     _     
   ___ _ __ _   _  __| | |__   ___ _ __   ___| |__  
  / __| '__| | | |/ _' | '_ \ / _ \ '_ \ / __| '_ \ 
 | (__| |  | |_| | (_| | |_) |  __/ | | | (__| | | |
  \___|_|   \__,_|\__,_|_.__/ \___|_| |_|\___|_| |_|`

	return "\n" + style.Render(ascii) + "\n"
}
