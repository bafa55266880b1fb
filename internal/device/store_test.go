package device

import (
	"fmt"
	"sync"
	"testing"
)

func TestStore_GetReturnsCopy(t *testing.T) {
	rec := NewReconciler(NewStore())
	apply(t, rec, "/devices/relay-1/meta", `{"driver":"wb-mr6","title":{"en":"Relay 1"}}`)
	apply(t, rec, "/devices/relay-1/controls/K1", "1")

	d, _ := rec.Store().Get("relay-1")
	d.Driver = "mutated"
	d.Title["en"] = "mutated"
	d.Controls["K1"].Value = "mutated"

	fresh, _ := rec.Store().Get("relay-1")
	if fresh.Driver != "wb-mr6" {
		t.Errorf("Driver = %q, mutation of a copy leaked into the arena", fresh.Driver)
	}
	if fresh.Title["en"] != "Relay 1" {
		t.Errorf(`Title["en"] = %q, mutation of a copy leaked into the arena`, fresh.Title["en"])
	}
	if fresh.Controls["K1"].Value != "1" {
		t.Errorf("Value = %q, mutation of a copy leaked into the arena", fresh.Controls["K1"].Value)
	}
}

func TestStore_GetMissing(t *testing.T) {
	store := NewStore()
	if _, found := store.Get("never-seen"); found {
		t.Error("Get() found = true for unknown device")
	}
}

func TestStore_List(t *testing.T) {
	rec := NewReconciler(NewStore())
	apply(t, rec, "/devices/a/meta", `{"driver":"x"}`)
	apply(t, rec, "/devices/b/meta", `{"driver":"y"}`)

	devices := rec.Store().List()
	if len(devices) != 2 {
		t.Fatalf("List() returned %d devices, want 2", len(devices))
	}
	if rec.Store().Len() != 2 {
		t.Errorf("Len() = %d, want 2", rec.Store().Len())
	}
}

func TestStore_ControlValue(t *testing.T) {
	rec := NewReconciler(NewStore())
	apply(t, rec, "/devices/wb-msw-1/controls/Illuminance", "153.4")

	value, ok := rec.Store().ControlValue("wb-msw-1", "Illuminance")
	if !ok || value != "153.4" {
		t.Errorf("ControlValue() = %q, %v, want 153.4, true", value, ok)
	}

	if _, ok := rec.Store().ControlValue("wb-msw-1", "Humidity"); ok {
		t.Error("ControlValue() ok = true for unknown control")
	}
	if _, ok := rec.Store().ControlValue("ghost", "K1"); ok {
		t.Error("ControlValue() ok = true for unknown device")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	rec := NewReconciler(NewStore())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			rec.Apply(ControlValueFact{
				DeviceID:  fmt.Sprintf("dev-%d", n),
				ControlID: "K1",
				Value:     "1",
			})
		}(i)
		go func(n int) {
			defer wg.Done()
			rec.Store().Get(fmt.Sprintf("dev-%d", n))
			rec.Store().List()
		}(i)
	}
	wg.Wait()

	if rec.Store().Len() != 10 {
		t.Errorf("Len() = %d after concurrent writes, want 10", rec.Store().Len())
	}
}
