package persona

import "fmt"

type CommunicationStyle string

const (
	StyleFormal     CommunicationStyle = "formal"
	StyleCasual     CommunicationStyle = "casual"
	StyleAnalytical CommunicationStyle = "analytical"
	StyleCreative   CommunicationStyle = "creative"
	StyleEmpathetic CommunicationStyle = "empathetic"
)

var Styles = []CommunicationStyle{
	StyleFormal,
	StyleCasual,
	StyleAnalytical,
	StyleCreative,
	StyleEmpathetic,
}

func (s CommunicationStyle) Valid() bool {
	for _, known := range Styles {
		if s == known {
			return true
		}
	}
	return false
}

func ParseStyle(s string) (CommunicationStyle, error) {
	style := CommunicationStyle(s)
	if !style.Valid() {
		return "", fmt.Errorf("unknown communication style: %q", s)
	}
	return style, nil
}
