package tasks

import "strings"

type Task struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
}

type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
)

// ParseFilter maps anything unrecognised to FilterAll.
func ParseFilter(v string) Filter {
	switch f := Filter(strings.ToLower(strings.TrimSpace(v))); f {
	case FilterPending, FilterCompleted:
		return f
	default:
		return FilterAll
	}
}

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme reports false for anything but the two literal theme names.
func ParseTheme(v string) (Theme, bool) {
	switch t := Theme(v); t {
	case ThemeLight, ThemeDark:
		return t, true
	default:
		return ThemeDark, false
	}
}

func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}
