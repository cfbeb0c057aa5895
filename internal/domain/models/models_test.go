package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestSpeciesTable(t *testing.T) {
	want := map[Species]int{
		SpeciesChicken: 21,
		SpeciesDuck:    28,
		SpeciesQuail:   18,
		SpeciesGoose:   30,
	}
	if len(AllSpecies()) != len(want) {
		t.Fatalf("expected %d species, got %d", len(want), len(AllSpecies()))
	}
	for _, sp := range AllSpecies() {
		if got := sp.IncubationDays(); got != want[sp] {
			t.Fatalf("%s: expected %d days, got %d", sp, want[sp], got)
		}
		if sp.Label() == "" {
			t.Fatalf("%s: empty label", sp)
		}
	}
}

func TestParseSpecies(t *testing.T) {
	cases := map[string]Species{
		"chicken":  SpeciesChicken,
		" Duck ":   SpeciesDuck,
		"QUAIL":    SpeciesQuail,
		"Oca":      SpeciesGoose,
		"Gallina":  SpeciesChicken,
		"quaglia":  SpeciesQuail,
	}
	for in, want := range cases {
		got, err := ParseSpecies(in)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", in, err)
		}
		if got != want {
			t.Fatalf("%q: expected %s, got %s", in, want, got)
		}
	}
	if _, err := ParseSpecies("ostrich"); err == nil {
		t.Fatal("expected error for unknown species")
	}
}

func TestSpeciesUnmarshalJSON(t *testing.T) {
	var b Batch
	if err := json.Unmarshal([]byte(`{"species":"Anatra","egg_count":2}`), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if b.Species != SpeciesDuck {
		t.Fatalf("expected duck, got %s", b.Species)
	}
	if err := json.Unmarshal([]byte(`{"species":7}`), &b); err == nil {
		t.Fatal("expected error for numeric species")
	}
}

func TestSessionValidate(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		session IncubationSession
		field   string
	}{
		{name: "empty name", session: IncubationSession{Name: "  ", StartDate: start, Batches: []Batch{NewBatch()}}, field: "name"},
		{name: "no batches", session: IncubationSession{Name: "a", StartDate: start}, field: "batches"},
		{name: "zero eggs", session: IncubationSession{Name: "a", StartDate: start, Batches: []Batch{{Species: SpeciesDuck}}}, field: "batches[0].egg_count"},
		{name: "bad species", session: IncubationSession{Name: "a", StartDate: start, Batches: []Batch{NewBatch(), {Species: "emu", EggCount: 1}}}, field: "batches[1].species"},
		{name: "no start", session: IncubationSession{Name: "a", Batches: []Batch{NewBatch()}}, field: "start_date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.session.Validate()
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tc.field {
				t.Fatalf("expected field %s, got %v", tc.field, err)
			}
		})
	}

	ok := IncubationSession{Name: "ok", StartDate: start, Batches: []Batch{NewBatch()}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDraftLifecycle(t *testing.T) {
	d := NewDraft()
	if len(d.Batches) != 1 || d.Batches[0] != NewBatch() {
		t.Fatalf("expected one default batch, got %+v", d.Batches)
	}
	if err := d.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}

	d.SetName(" Spring hatch ")
	idx := d.AddBatch(Batch{Species: SpeciesGoose, Description: "Toulouse", EggCount: 2})
	if idx != 1 {
		t.Fatalf("expected index 1, got %d", idx)
	}
	if err := d.UpdateBatch(0, Batch{Species: SpeciesQuail, EggCount: 12}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := d.UpdateBatch(5, NewBatch()); err == nil {
		t.Fatal("expected out of range error")
	}

	now := time.Date(2024, time.May, 3, 21, 15, 0, 0, time.FixedZone("CET", 3600))
	s, err := d.Build(now)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if s.Name != "Spring hatch" || s.ID != 0 {
		t.Fatalf("unexpected session %+v", s)
	}
	if !s.StartDate.Equal(time.Date(2024, time.May, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start date %s", s.StartDate)
	}

	d.Batches[0].EggCount = 99
	if s.Batches[0].EggCount != 12 {
		t.Fatal("session batches must not alias the draft")
	}

	if err := d.RemoveBatch(0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(d.Batches) != 1 || d.Batches[0].Species != SpeciesGoose {
		t.Fatalf("unexpected batches after remove: %+v", d.Batches)
	}
	if err := d.RemoveBatch(1); err == nil {
		t.Fatal("expected out of range error")
	}

	d.Reset()
	if d.Name != "" || len(d.Batches) != 0 {
		t.Fatalf("expected empty draft, got %+v", d)
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-02-29T00:00:00Z")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Format(DateLayout) != "2024-02-29" {
		t.Fatalf("unexpected date %s", got)
	}
	if _, err := ParseDate("29/02/2024"); err == nil {
		t.Fatal("expected error for non-ISO date")
	}
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		in   string
		want CommandType
		args []string
	}{
		{in: "/status", want: CommandStatus},
		{in: "today", want: CommandStatus},
		{in: "/Sessions", want: CommandSessions},
		{in: "/new Spring chicken:6 duck", want: CommandNew, args: []string{"Spring", "chicken:6", "duck"}},
		{in: "/delete 4", want: CommandDelete, args: []string{"4"}},
		{in: "/help", want: CommandHelp},
		{in: "hello there", want: CommandUnknown, args: []string{"there"}},
		{in: "   ", want: CommandUnknown},
	}
	for _, tc := range cases {
		cmd := ParseCommand(tc.in)
		if cmd.Type != tc.want {
			t.Fatalf("%q: expected %s, got %s", tc.in, tc.want, cmd.Type)
		}
		if len(cmd.Args) != len(tc.args) {
			t.Fatalf("%q: expected args %v, got %v", tc.in, tc.args, cmd.Args)
		}
		for i := range tc.args {
			if cmd.Args[i] != tc.args[i] {
				t.Fatalf("%q: expected args %v, got %v", tc.in, tc.args, cmd.Args)
			}
		}
	}
}

func TestInboundMessageCommandText(t *testing.T) {
	msg := InboundMessage{Interactive: &InteractiveContent{ButtonReply: &ButtonReply{ID: "/status"}}}
	if got := msg.CommandText(); got != "/status" {
		t.Fatalf("expected /status, got %q", got)
	}
	if got := (InboundMessage{Type: "image"}).CommandText(); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}
