package ecs

// UpdateFrame is passed to every system during one EntityManager.Update.
type UpdateFrame struct {
	// Time is the value given to Update, typically seconds elapsed since the previous frame.
	Time float64
	// Index counts completed update passes, starting at 0.
	Index    int64
	Commands *Commands
	Manager  *EntityManager
}

func newUpdateFrame(t float64, index int64, m *EntityManager) *UpdateFrame {
	return &UpdateFrame{
		Time:     t,
		Index:    index,
		Commands: m.commands,
		Manager:  m,
	}
}
