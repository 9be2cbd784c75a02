package session

import "todo/internal/task"

// Command is a change the session asks its owner to make. The session
// never touches the store itself.
type Command interface {
	command()
}

type SetPriority struct {
	ID       int
	Priority task.Priority
}

type SetStatus struct {
	ID     int
	Status task.Status
}

// Upsert inserts Task when its id is unknown and replaces it otherwise.
type Upsert struct {
	Task task.Task
}

// Save asks for the list to be persisted now.
type Save struct{}

// Close reports that the session reached Closed.
type Close struct{}

func (SetPriority) command() {}
func (SetStatus) command()   {}
func (Upsert) command()      {}
func (Save) command()        {}
func (Close) command()       {}
