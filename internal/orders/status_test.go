package orders

import "testing"

func TestTransitionTableForwardChain(t *testing.T) {
	chain := []Status{StatusCart, StatusPendingPayment, StatusPaid, StatusProcessing, StatusShipped, StatusDelivered}
	for i := 0; i < len(chain)-1; i++ {
		if !CanTransition(chain[i], chain[i+1]) {
			t.Errorf("%s -> %s should be allowed", chain[i], chain[i+1])
		}
	}
	// no skipping ahead, no moving back
	for i := range chain {
		for j := range chain {
			if j == i+1 {
				continue
			}
			if CanTransition(chain[i], chain[j]) {
				t.Errorf("%s -> %s should be rejected", chain[i], chain[j])
			}
		}
	}
}

func TestCancelAndRefundFromNonTerminal(t *testing.T) {
	open := []Status{StatusCart, StatusPendingPayment, StatusPaid, StatusProcessing, StatusShipped}
	for _, from := range open {
		if !CanTransition(from, StatusCancelled) {
			t.Errorf("%s -> cancelled should be allowed", from)
		}
		if !CanTransition(from, StatusRefunded) {
			t.Errorf("%s -> refunded should be allowed", from)
		}
	}
}

func TestTerminalStatesAreDeadEnds(t *testing.T) {
	all := []Status{StatusCart, StatusPendingPayment, StatusPaid, StatusProcessing,
		StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded}
	for _, from := range []Status{StatusDelivered, StatusCancelled, StatusRefunded} {
		if !from.Terminal() {
			t.Errorf("%s should be terminal", from)
		}
		for _, to := range all {
			if CanTransition(from, to) {
				t.Errorf("%s -> %s should be rejected", from, to)
			}
		}
	}
	for _, s := range []Status{StatusCart, StatusPendingPayment, StatusPaid, StatusProcessing, StatusShipped} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusCart, StatusPendingPayment, StatusPaid, StatusProcessing,
		StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Status("bogus").Valid() {
		t.Error("bogus should not be valid")
	}
	if Status("").Valid() {
		t.Error("empty status should not be valid")
	}
}
