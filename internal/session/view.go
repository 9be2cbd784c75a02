package session

import "todo/internal/task"

type Mode int

const (
	Browsing Mode = iota
	Editing
	ConfirmExit
	Closed
)

func (m Mode) String() string {
	switch m {
	case Browsing:
		return "browsing"
	case Editing:
		return "editing"
	case ConfirmExit:
		return "confirm-exit"
	case Closed:
		return "closed"
	}
	return "unknown"
}

type Row struct {
	Task  task.Task
	Score int
}

type FieldView struct {
	Field   Field
	Value   string
	Focused bool
	Error   string
}

type EditorView struct {
	TaskID int
	New    bool
	Fields []FieldView
}

// View describes everything a renderer needs after a transition.
type View struct {
	Mode          Mode
	Query         string
	SearchFocused bool
	Results       []Row
	// Selected indexes Results, or is -1 when there is nothing to select.
	Selected int
	Editor   *EditorView
	Status   string
	Dirty    bool
	ShowHelp bool
	// Scored is set when the query has terms or predicates.
	Scored bool
}

func editorView(e *Editor) *EditorView {
	ev := &EditorView{TaskID: e.TaskID(), New: e.IsNew()}
	for _, f := range Fields {
		ev.Fields = append(ev.Fields, FieldView{
			Field:   f,
			Value:   e.Text(f),
			Focused: e.Focus() == f,
			Error:   e.Error(f),
		})
	}
	return ev
}
