package persona

type Avatar struct {
	Glyph string
	Name  string
	Color string
}

var Avatars = []Avatar{
	{Glyph: "🦊", Name: "Fox", Color: "orange"},
	{Glyph: "🦉", Name: "Owl", Color: "blue"},
	{Glyph: "🐺", Name: "Wolf", Color: "cyan"},
	{Glyph: "🐙", Name: "Octopus", Color: "purple"},
	{Glyph: "🦄", Name: "Unicorn", Color: "magenta"},
	{Glyph: "🐲", Name: "Dragon", Color: "green"},
	{Glyph: "🤖", Name: "Droid", Color: "cyan"},
	{Glyph: "👾", Name: "Glitch", Color: "purple"},
	{Glyph: "💀", Name: "Skull", Color: "red"},
	{Glyph: "👻", Name: "Ghost", Color: "cyan"},
	{Glyph: "👽", Name: "Alien", Color: "green"},
	{Glyph: "🤡", Name: "Jester", Color: "yellow"},
}

// Colors are the tags a persona may carry.
var Colors = []string{"cyan", "magenta", "purple", "green", "orange", "blue", "yellow", "red"}

// LookupAvatar accepts either a glyph or a case-sensitive avatar name.
func LookupAvatar(s string) (Avatar, bool) {
	for _, a := range Avatars {
		if a.Glyph == s || a.Name == s {
			return a, true
		}
	}
	return Avatar{}, false
}

// ColorFor returns the default color tag of the avatar glyph, or "cyan".
func ColorFor(glyph string) string {
	if a, ok := LookupAvatar(glyph); ok {
		return a.Color
	}
	return Colors[0]
}
