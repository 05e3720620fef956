package proxy

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/five82/railcab/internal/railroad"
)

func ids(servers []railroad.Server) []string {
	out := make([]string, len(servers))
	for i, s := range servers {
		out[i] = s.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestConverge(t *testing.T) {
	tests := []struct {
		name  string
		prev  []railroad.Server
		batch []railroad.Server
		want  []string
	}{
		{"empty to batch", nil, []railroad.Server{serverA, serverB}, []string{"a", "b"}},
		{"drop and append", []railroad.Server{serverA, serverB, serverC}, []railroad.Server{serverB, serverC, serverD}, []string{"b", "c", "d"}},
		{"retained keep order", []railroad.Server{serverC, serverA}, []railroad.Server{serverA, serverB, serverC}, []string{"c", "a", "b"}},
		{"empty batch clears", []railroad.Server{serverA}, nil, []string{}},
		{"duplicates collapse", nil, []railroad.Server{serverA, serverA, serverB}, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Converge(tt.prev, tt.batch))
			if !equalIDs(got, tt.want) {
				t.Fatalf("Converge = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConverge_RetainedEntryKeepsPreviousValue(t *testing.T) {
	moved := railroad.Server{ID: "a", RestURL: "http://elsewhere/a"}
	got := Converge([]railroad.Server{serverA}, []railroad.Server{moved})
	if len(got) != 1 || got[0] != serverA {
		t.Fatalf("Converge = %#v, want retained %#v", got, serverA)
	}
}

func TestDirectory_RefreshCycle(t *testing.T) {
	sched := &manualScheduler{}
	boom := errors.New("directory down")
	api := &fakeDirectoryAPI{
		batches: [][]railroad.Server{
			{serverA, serverB, serverC},
			nil,
			{serverB, serverC, serverD},
		},
		errs: []error{nil, boom, nil},
	}
	errs := &errRecorder{}
	d := NewDirectory("locomotive-directory", sched, api, "http://host/locomotive", Options{
		Interval: 10 * time.Second,
		OnError:  errs.handle,
		Logger:   zaptest.NewLogger(t),
	})
	ch, cancel := d.Subscribe()
	defer cancel()

	d.Start()
	d.Start()
	sched.drain()
	<-ch // initial empty list

	sched.complete()
	if got := ids(d.Servers()); !equalIDs(got, []string{"a", "b", "c"}) {
		t.Fatalf("Servers = %v, want [a b c]", got)
	}
	if got := ids(<-ch); !equalIDs(got, []string{"a", "b", "c"}) {
		t.Fatalf("published = %v, want [a b c]", got)
	}

	sched.advance(10 * time.Second)
	sched.complete()
	if !errors.Is(errs.last(), boom) || errs.sources[0] != "locomotive-directory" {
		t.Fatalf("reported %v from %v, want %v from locomotive-directory", errs.last(), errs.sources, boom)
	}
	if got := ids(d.Servers()); !equalIDs(got, []string{"a", "b", "c"}) {
		t.Fatalf("Servers after failure = %v, want previous list", got)
	}

	sched.advance(10 * time.Second)
	sched.complete()
	if got := ids(d.Servers()); !equalIDs(got, []string{"b", "c", "d"}) {
		t.Fatalf("Servers = %v, want [b c d]", got)
	}
	if _, ok := d.Lookup("a"); ok {
		t.Fatalf("Lookup(a) found a removed server")
	}
	if s, ok := d.Lookup("d"); !ok || s != serverD {
		t.Fatalf("Lookup(d) = %#v, %v, want serverD", s, ok)
	}
	if api.calls != 3 {
		t.Fatalf("directory calls = %d, want 3 (Start twice must not double the loop)", api.calls)
	}
}
