package tasks

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

const (
	dateLayout    = "2006-01-02"
	dueLayout     = "02 Jan 2006"
	statusDone    = "Done"
	statusPending = "Pending"
)

type Entry struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Date      string `json:"date"`
	Due       string `json:"due"`
	Status    string `json:"status"`
	Completed bool   `json:"completed"`
}

type View struct {
	Filter Filter  `json:"filter"`
	Items  []Entry `json:"items"`
	Empty  string  `json:"empty,omitempty"`
}

// Render builds the display list for already-filtered tasks. Empty is set
// only when there is nothing to show.
func Render(filtered []Task, f Filter) View {
	v := View{
		Filter: f,
		Items:  make([]Entry, 0, len(filtered)),
	}
	for _, t := range filtered {
		status := statusPending
		if t.Completed {
			status = statusDone
		}
		v.Items = append(v.Items, Entry{
			ID:        t.ID,
			Text:      t.Text,
			Date:      t.Date,
			Due:       FormatDue(t.Date),
			Status:    status,
			Completed: t.Completed,
		})
	}
	if len(v.Items) == 0 {
		v.Empty = EmptyMessage(f)
	}
	return v
}

// FormatDue renders a YYYY-MM-DD date as "01 Jan 2024". Unparsable dates
// are shown as stored.
func FormatDue(date string) string {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return d.Format(dueLayout)
}

func EmptyMessage(f Filter) string {
	if f == FilterAll || f == "" {
		return "No task found"
	}
	return fmt.Sprintf("No %s task found", f)
}

// WriteView prints v as aligned columns: id, mark, text, due, status.
func WriteView(w io.Writer, v View) error {
	if len(v.Items) == 0 {
		_, err := fmt.Fprintln(w, v.Empty)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, e := range v.Items {
		mark := "[ ]"
		if e.Completed {
			mark = "[x]"
		}
		fmt.Fprintf(tw, "%d\t%s %s\t%s\t%s\n", e.ID, mark, e.Text, e.Due, e.Status)
	}
	return tw.Flush()
}
