package services

import (
	"reflect"
	"testing"
	"time"
)

func TestDemoClassesAreDeterministicPerDay(t *testing.T) {
	gen := NewDemoGenerator(time.UTC)
	day := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

	first := gen.Classes(day)
	second := gen.Classes(day.Add(20 * time.Hour))
	if len(first) != len(demoSlots) {
		t.Fatalf("expected %d classes, got %d", len(demoSlots), len(first))
	}
	for i := range first {
		if !reflect.DeepEqual(first[i], second[i]) {
			t.Fatalf("class %d differs between calls: %+v vs %+v", i, first[i], second[i])
		}
	}

	for i, item := range first {
		if item.AttendeeCount < 0 || item.AttendeeCount > item.MaxCapacity {
			t.Fatalf("attendee count out of range: %+v", item)
		}
		if i > 0 && !item.StartsAt.After(first[i-1].StartsAt) {
			t.Fatalf("classes not ordered by start: %v then %v", first[i-1].StartsAt, item.StartsAt)
		}
	}
	if first[0].ID != "demo-20261016-1" {
		t.Fatalf("unexpected id %q", first[0].ID)
	}
}

func TestDemoClassesUseConfiguredZone(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	gen := NewDemoGenerator(loc)
	items := gen.Classes(time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC))

	if got := items[0].StartsAt.In(loc); got.Hour() != 6 || got.Day() != 16 {
		t.Fatalf("expected 06:00 local on the 16th, got %v", got)
	}
}

func TestDemoDetailForUnknownID(t *testing.T) {
	gen := NewDemoGenerator(time.UTC)
	today := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

	detail, attendees := gen.Detail("legacy-class-42", today)
	if detail.ID != "legacy-class-42" || detail.Date != "2026-10-16" {
		t.Fatalf("unexpected detail %+v", detail)
	}
	if len(attendees) != detail.AttendeeCount {
		t.Fatalf("expected %d attendees, got %d", detail.AttendeeCount, len(attendees))
	}
	for _, attendee := range attendees {
		if attendee.Name == "" || attendee.AvatarURL == nil {
			t.Fatalf("attendee missing name or avatar: %+v", attendee)
		}
	}

	again, _ := gen.Detail("legacy-class-42", today)
	if !reflect.DeepEqual(again, detail) {
		t.Fatal("detail for the same id must be stable")
	}
}

func TestParseDemoID(t *testing.T) {
	cases := map[string]bool{
		"demo-20261016-1": true,
		"demo-20261016-7": true,
		"demo-20261016-8": false,
		"demo-20261016-0": false,
		"demo-2026-10-16": false,
		"demo-":           false,
		"20261016-1":      false,
	}
	for id, want := range cases {
		if got := IsDemoID(id); got != want {
			t.Fatalf("IsDemoID(%q) = %v, want %v", id, got, want)
		}
	}
}
