package inspector

import "strings"

// Display window of the e-paper frame the hadith text is rendered on.
const (
	MinDisplayLength = 50
	MaxDisplayLength = 300
)

var displayReplacer = strings.NewReplacer(
	`\"`, `"`,
	`\n`, "\n",
	`\r`, "",
	"ufdfa", "(PBUH)",
)

// CleanForDisplay unescapes leftover escape sequences and keeps printable ASCII only.
func CleanForDisplay(text string) string {
	replaced := displayReplacer.Replace(text)

	var b strings.Builder
	b.Grow(len(replaced))
	for i := 0; i < len(replaced); i++ {
		c := replaced[i]
		if c >= ' ' && c <= '~' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// DisplayFit reports how a cleaned text length relates to the display window.
func DisplayFit(length int) string {
	switch {
	case length < MinDisplayLength:
		return "too short"
	case length > MaxDisplayLength:
		return "too long"
	default:
		return "fits"
	}
}
