package event_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/xraph/provenance/event"
	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/product"
)

var ts = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func TestConstructorsMirrorContractEvents(t *testing.T) {
	tests := []struct {
		name  string
		evt   *event.Event
		typ   event.Type
		pid   uint64
		actor string
		args  map[string]string
	}{
		{
			name: "participant authorized",
			evt:  event.ParticipantAuthorized("0xmanufacturer", ts),
			typ:  event.TypeParticipantAuthorized,
			args: map[string]string{event.ArgParticipant: "0xmanufacturer"},
		},
		{
			name: "participant revoked",
			evt:  event.ParticipantRevoked("0xmanufacturer", ts),
			typ:  event.TypeParticipantRevoked,
			args: map[string]string{event.ArgParticipant: "0xmanufacturer"},
		},
		{
			name:  "product registered",
			evt:   event.ProductRegistered(1001, "Organic Coffee", "0xmanufacturer", ts),
			typ:   event.TypeProductRegistered,
			pid:   1001,
			actor: "0xmanufacturer",
			args: map[string]string{
				event.ArgProductName:  "Organic Coffee",
				event.ArgManufacturer: "0xmanufacturer",
			},
		},
		{
			name:  "status updated",
			evt:   event.StatusUpdated(1001, product.InTransit, "Warehouse A", ts, "0xmanufacturer"),
			typ:   event.TypeStatusUpdated,
			pid:   1001,
			actor: "0xmanufacturer",
			args: map[string]string{
				event.ArgLocation:  "Warehouse A",
				event.ArgUpdatedBy: "0xmanufacturer",
			},
		},
		{
			name:  "ownership transferred",
			evt:   event.OwnershipTransferred(1001, "0xmanufacturer", "0xdistributor", ts),
			typ:   event.TypeOwnershipTransferred,
			pid:   1001,
			actor: "0xmanufacturer",
			args: map[string]string{
				event.ArgFrom: "0xmanufacturer",
				event.ArgTo:   "0xdistributor",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.evt
			if e.Type != tt.typ {
				t.Errorf("Type = %q, want %q", e.Type, tt.typ)
			}
			if e.ProductID != tt.pid {
				t.Errorf("ProductID = %d, want %d", e.ProductID, tt.pid)
			}
			if string(e.Actor) != tt.actor {
				t.Errorf("Actor = %q, want %q", e.Actor, tt.actor)
			}
			if e.ID.IsNil() {
				t.Error("expected event ID")
			}
			if !e.Timestamp.Equal(ts) {
				t.Errorf("Timestamp = %v, want %v", e.Timestamp, ts)
			}
			if got, ok := e.Args[event.ArgTimestamp].(time.Time); !ok || !got.Equal(ts) {
				t.Errorf("timestamp arg = %v", e.Args[event.ArgTimestamp])
			}
			for k, want := range tt.args {
				if got := fmt.Sprint(e.Args[k]); got != want {
					t.Errorf("arg %s = %q, want %q", k, got, want)
				}
			}
		})
	}
}

func TestStatusUpdatedArgs(t *testing.T) {
	e := event.StatusUpdated(7, product.Delivered, "Store", ts, "0xretailer")
	if got, _ := e.Args[event.ArgStatus].(product.Status); got != product.Delivered {
		t.Errorf("status arg = %v, want %v", e.Args[event.ArgStatus], product.Delivered)
	}
	if got, _ := e.Args[event.ArgProductID].(uint64); got != 7 {
		t.Errorf("productId arg = %v, want 7", e.Args[event.ArgProductID])
	}
}

func TestMemorySink(t *testing.T) {
	ctx := context.Background()
	sink := event.NewMemorySink()

	_ = sink.Publish(ctx, event.ParticipantAuthorized("a", ts))
	_ = sink.Publish(ctx, event.ProductRegistered(1, "P", "a", ts))
	_ = sink.Publish(ctx, event.ProductRegistered(2, "Q", "a", ts))

	if sink.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", sink.Count())
	}
	if got := sink.OfType(event.TypeProductRegistered); len(got) != 2 || got[1].ProductID != 2 {
		t.Errorf("OfType returned %v", got)
	}

	evts := sink.Events()
	evts[0] = nil
	if sink.Events()[0] == nil {
		t.Error("Events() must return a copy")
	}

	sink.Reset()
	if sink.Count() != 0 {
		t.Error("Reset did not clear events")
	}
}

func TestSinkFunc(t *testing.T) {
	boom := errors.New("boom")
	var seen *event.Event
	s := event.SinkFunc(func(_ context.Context, e *event.Event) error {
		seen = e
		return boom
	})

	e := event.ParticipantRevoked("x", ts)
	if err := s.Publish(context.Background(), e); !errors.Is(err, boom) {
		t.Errorf("Publish error = %v, want boom", err)
	}
	if seen != e {
		t.Error("SinkFunc did not receive the event")
	}
}

func TestEventJSONCarriesEventID(t *testing.T) {
	e := event.StatusUpdated(1001, product.InTransit, "Warehouse A", ts, "0xdistributor")

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var wire struct {
		ID   string     `json:"id"`
		Type event.Type `json:"type"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	parsed, err := id.ParseEventID(wire.ID)
	if err != nil {
		t.Fatalf("ParseEventID(%q): %v", wire.ID, err)
	}
	if parsed.String() != e.ID.String() {
		t.Errorf("id = %s, want %s", parsed, e.ID)
	}
	if wire.Type != event.TypeStatusUpdated {
		t.Errorf("type = %q", wire.Type)
	}
	if _, err := id.ParseHistoryID(wire.ID); err == nil {
		t.Error("event id accepted as a history id")
	}
}
