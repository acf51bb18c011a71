package persona

import "fmt"

type Mood string

const (
	MoodHappy      Mood = "happy"
	MoodExcited    Mood = "excited"
	MoodCalm       Mood = "calm"
	MoodCurious    Mood = "curious"
	MoodFrustrated Mood = "frustrated"
	MoodSad        Mood = "sad"
	MoodAngry      Mood = "angry"
	MoodNeutral    Mood = "neutral"
)

// Moods lists every mood in declaration order.
var Moods = []Mood{
	MoodHappy,
	MoodExcited,
	MoodCalm,
	MoodCurious,
	MoodFrustrated,
	MoodSad,
	MoodAngry,
	MoodNeutral,
}

// PositiveMoods are the targets of a shift driven by strongly positive sentiment.
var PositiveMoods = []Mood{MoodHappy, MoodExcited, MoodCalm, MoodCurious}

// NegativeMoods are the targets of a shift driven by strongly negative sentiment.
var NegativeMoods = []Mood{MoodFrustrated, MoodSad, MoodAngry}

func (m Mood) Valid() bool {
	for _, known := range Moods {
		if m == known {
			return true
		}
	}
	return false
}

func ParseMood(s string) (Mood, error) {
	m := Mood(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown mood: %q", s)
	}
	return m, nil
}

func (m Mood) Emoji() string {
	switch m {
	case MoodHappy:
		return "😊"
	case MoodExcited:
		return "🎉"
	case MoodCalm:
		return "😌"
	case MoodCurious:
		return "🤔"
	case MoodFrustrated:
		return "😤"
	case MoodSad:
		return "😢"
	case MoodAngry:
		return "😠"
	default:
		return "😐"
	}
}

// Color returns the color tag associated with the mood.
func (m Mood) Color() string {
	switch m {
	case MoodHappy:
		return "green"
	case MoodExcited:
		return "yellow"
	case MoodCalm:
		return "cyan"
	case MoodCurious:
		return "purple"
	case MoodFrustrated:
		return "orange"
	case MoodSad:
		return "blue"
	case MoodAngry:
		return "red"
	default:
		return "muted"
	}
}
