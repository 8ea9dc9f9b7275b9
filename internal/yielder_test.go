package schedsim_internal

import "testing"

func TestYielderRoundTrip(t *testing.T) {
	y := NewYielder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		reply := y.Yield(RequestCurrentTimeReq())
		if _, ok := reply.(Time); !ok {
			t.Error("expected the first reply to be a Time")
		}
		reply = y.Yield(RequestIdleReq())
		if reply != nil {
			t.Error("expected a nil reply to the idle request")
		}
	}()

	req := y.Next()
	if req.Type != RequestCurrentTime {
		t.Fatalf("first request: got %v, want %v", req.Type, RequestCurrentTime)
	}
	req = y.Send(NewTimeInt64(5))
	if req.Type != RequestIdle {
		t.Fatalf("second request: got %v, want %v", req.Type, RequestIdle)
	}
	// The coroutine returns after this reply without yielding again, so hand
	// it over directly rather than through Send, which would wait for a
	// next request.
	y.toCoroutine <- nil
	<-done
}
