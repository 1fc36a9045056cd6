package asyncreader

// Status is the result of one poll on a request.
type Status int

const (
	// StatusPending means the timeout elapsed with no new data.
	StatusPending Status = iota
	// StatusUpdate means new data is visible in the buffer.
	StatusUpdate
	// StatusComplete means all data has been delivered. Terminal.
	StatusComplete
	// StatusError means the transfer failed. Terminal.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusUpdate:
		return "Update"
	case StatusComplete:
		return "Complete"
	case StatusError:
		return "Error"
	}
	return "Unknown"
}

// Region is a rectangle of the destination buffer, in buffer pixel
// coordinates. Updates always cover the whole buffer: the engines we
// wrap have no notion of partial update notifications.
type Region struct {
	XOff, YOff   int
	XSize, YSize int
}
