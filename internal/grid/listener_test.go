package grid

import "testing"

func TestChannelListener_DropsOldest(t *testing.T) {
	l := NewChannelListener(2)
	for v := uint64(1); v <= 5; v++ {
		l.OnStateChange(GridState{version: v})
	}

	if got := (<-l.C()).Version(); got != 4 {
		t.Errorf("first pending version = %d, want 4", got)
	}
	if got := (<-l.C()).Version(); got != 5 {
		t.Errorf("second pending version = %d, want 5", got)
	}
	select {
	case s := <-l.C():
		t.Errorf("unexpected pending version %d", s.Version())
	default:
	}
}

func TestChannelListener_MinimumBuffer(t *testing.T) {
	l := NewChannelListener(0)
	l.OnStateChange(GridState{version: 1})
	l.OnStateChange(GridState{version: 2})

	if got := (<-l.C()).Version(); got != 2 {
		t.Errorf("pending version = %d, want 2", got)
	}
}

func TestChannelListener_WithEngine(t *testing.T) {
	e, _ := newTestEngine(t)
	l := NewChannelListener(4)
	e.Subscribe(l)

	if _, err := e.UpdateCell("row1", "result", "15", "user-1"); err != nil {
		t.Fatalf("UpdateCell() error = %v", err)
	}
	s := <-l.C()
	if got := mustCell(t, s, "row1", "result").Value; got != "15" {
		t.Errorf("delivered value = %q, want %q", got, "15")
	}
}
