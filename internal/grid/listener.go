package grid

// Listener receives every snapshot the engine publishes.
// OnStateChange is called synchronously on the goroutine that performed the
// edit; implementations that do slow work should hand the snapshot off.
type Listener interface {
	OnStateChange(GridState)
}

// ListenerFunc adapts a plain function to the Listener interface.
type ListenerFunc func(GridState)

// OnStateChange calls f(s).
func (f ListenerFunc) OnStateChange(s GridState) { f(s) }

// ChannelListener delivers snapshots on a buffered channel without blocking
// the engine. When the buffer is full the oldest pending snapshot is dropped,
// so a slow reader always ends up with the newest state.
type ChannelListener struct {
	ch chan GridState
}

// NewChannelListener creates a listener with the given buffer size (minimum 1).
func NewChannelListener(buffer int) *ChannelListener {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelListener{ch: make(chan GridState, buffer)}
}

// C returns the receive side of the channel.
func (l *ChannelListener) C() <-chan GridState { return l.ch }

// OnStateChange enqueues s, evicting the oldest snapshot if necessary.
func (l *ChannelListener) OnStateChange(s GridState) {
	for {
		select {
		case l.ch <- s:
			return
		default:
		}
		select {
		case <-l.ch:
		default:
		}
	}
}
