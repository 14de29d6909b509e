package entity

import "fmt"

// ThreadState is the archived/locked state of a thread as reported by the platform.
// It is observed read-only; only the dispatcher's close path writes a new one.
type ThreadState struct {
	Archived bool
	Locked   bool
}

// IsClosed reports whether the thread is archived or locked.
// A locked thread counts as closed even if the archived flag is unset.
func (s ThreadState) IsClosed() bool {
	return s.Archived || s.Locked
}

// Thread is a private thread created for a support request.
type Thread struct {
	ID       string
	Name     string
	ParentID string
}

// ThreadName formats the display name of the n-th thread for a prefix.
func ThreadName(prefix string, n int64) string {
	if prefix == "" {
		prefix = "support"
	}
	return fmt.Sprintf("%s-%04d", prefix, n)
}
