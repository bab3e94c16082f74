package pack

// UpdatedEvent is fired on the event manager after a hash update
// succeeded or disabled the pack. Failed updates fire nothing.
type UpdatedEvent struct {
	Result Result
}
