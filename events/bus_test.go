package events

import (
	"testing"
)

func TestBusDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	bus.SetLogger(func(string, ...any) {})

	var order []int
	bus.Subscribe(EventToastRequested, func(ev Event) { order = append(order, 1) })
	bus.Subscribe(EventToastRequested, func(ev Event) { order = append(order, 2) })
	bus.Subscribe(EventToastRequested, func(ev Event) { order = append(order, 3) })

	bus.Emit(EventToastRequested, nil)

	if len(order) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(order))
	}
	for i, v := range order {
		if v != i+1 {
			t.Errorf("delivery %d: expected handler %d, got %d", i, i+1, v)
		}
	}
}

func TestBusPanickingSubscriberDoesNotBlockOthers(t *testing.T) {
	bus := NewBus()
	var logged bool
	bus.SetLogger(func(string, ...any) { logged = true })

	var first, third any
	bus.Subscribe(EventQualityChanged, func(ev Event) { first = ev.Payload })
	bus.Subscribe(EventQualityChanged, func(ev Event) { panic("boom") })
	bus.Subscribe(EventQualityChanged, func(ev Event) { third = ev.Payload })

	bus.Emit(EventQualityChanged, "payload")

	if first != "payload" {
		t.Errorf("first subscriber missed payload: %v", first)
	}
	if third != "payload" {
		t.Errorf("third subscriber missed payload: %v", third)
	}
	if !logged {
		t.Error("panic was not logged")
	}
}

func TestBusUnsubscribeMidDeliveryDoesNotAffectCurrentPass(t *testing.T) {
	bus := NewBus()

	var got []string
	var unsubB func()
	bus.Subscribe(EventModuleFailed, func(ev Event) {
		got = append(got, "a")
		unsubB() // removes b during the pass; b still receives this emit
	})
	unsubB = bus.Subscribe(EventModuleFailed, func(ev Event) {
		got = append(got, "b")
	})

	bus.Emit(EventModuleFailed, nil)
	if len(got) != 2 || got[1] != "b" {
		t.Fatalf("snapshot delivery violated: %v", got)
	}

	got = got[:0]
	bus.Emit(EventModuleFailed, nil)
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("unsubscribe did not take effect on next pass: %v", got)
	}
}

func TestBusUnsubscribeByIdentity(t *testing.T) {
	bus := NewBus()

	count := 0
	h := func(ev Event) { count++ }

	unsub1 := bus.Subscribe(EventModuleEnabled, h)
	bus.Subscribe(EventModuleEnabled, h) // same function, distinct subscription

	unsub1()
	unsub1() // double unsubscribe is a no-op

	bus.Emit(EventModuleEnabled, nil)
	if count != 1 {
		t.Errorf("expected exactly one delivery after identity removal, got %d", count)
	}
	if bus.SubscriberCount(EventModuleEnabled) != 1 {
		t.Errorf("expected 1 remaining subscription, got %d", bus.SubscriberCount(EventModuleEnabled))
	}
}
