package petriflow_test

import (
	"context"
	"testing"

	"github.com/petriflow/petriflow"
	"go.uber.org/zap"
)

func TestOn_StateChangedOrder(t *testing.T) {
	net := twoPlaceNet(t)
	var calls []string
	net.On(petriflow.StateChanged, func(c petriflow.Change) {
		calls = append(calls, "first")
		if c.From != "a" || c.To != "b" || c.Transition != "go" {
			t.Errorf("change = %+v", c)
		}
	})
	net.On(petriflow.StateChanged, func(petriflow.Change) {
		calls = append(calls, "second")
	})
	tok := petriflow.NewToken()
	addToken(t, net, tok)
	if err := net.Fire(context.Background(), "go", tok); err != nil {
		t.Fatalf("fire: %v", err)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("handlers ran as %v, want registration order", calls)
	}
}

func TestOn_TransitionFailed(t *testing.T) {
	net := twoPlaceNet(t)
	var failed []petriflow.Change
	net.On(petriflow.TransitionFailed, func(c petriflow.Change) {
		failed = append(failed, c)
	})
	tok := petriflow.NewToken().WithState("b")
	addToken(t, net, tok)
	if err := net.Fire(context.Background(), "go", tok); err == nil {
		t.Fatal("firing from the wrong place should fail")
	}
	if len(failed) != 1 {
		t.Fatalf("failure events = %d, want 1", len(failed))
	}
	if failed[0].Err == nil {
		t.Errorf("failure event should carry the error")
	}
}

// A panicking handler is isolated: the firing still counts and later
// handlers still run.
func TestOn_HandlerPanicIsolated(t *testing.T) {
	net := petriflow.New("panicky", petriflow.WithLogger(zap.NewNop()))
	net.AddPlace("a")
	net.AddPlace("b")
	if err := net.AddTransition(petriflow.NewTransition("go", "a", "b")); err != nil {
		t.Fatalf("add transition: %v", err)
	}
	ran := false
	net.On(petriflow.StateChanged, func(petriflow.Change) {
		panic("observer bug")
	})
	net.On(petriflow.StateChanged, func(petriflow.Change) {
		ran = true
	})
	tok := petriflow.NewToken()
	addToken(t, net, tok)
	if err := net.Fire(context.Background(), "go", tok); err != nil {
		t.Fatalf("fire: %v", err)
	}
	if !ran {
		t.Errorf("handler after the panicking one should still run")
	}
	if tok.State() != "b" {
		t.Errorf("the firing itself must stand, token is in %q", tok.State())
	}
}
