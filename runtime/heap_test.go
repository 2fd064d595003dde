package runtime

import "testing"

func TestHeapAlloc(t *testing.T) {
	h := NewHeap(90, 128)
	if h.Base() != 96 {
		t.Fatalf("base: got %d, want 96", h.Base())
	}
	a := h.Alloc(12)
	b := h.Alloc(1)
	if a != 96 || b != 112 {
		t.Errorf("got %d, %d", a, b)
	}
	if p := h.Alloc(16); p != 0 {
		t.Errorf("over limit: got %d", p)
	}
	if p := h.Alloc(8); p != 120 {
		t.Errorf("exact fit: got %d", p)
	}

	st := h.Stats()
	if st.Allocs != 3 || st.Failed != 1 || st.Live != 3 || st.InUse != 21 {
		t.Errorf("stats: %+v", st)
	}
}

func TestHeapFree(t *testing.T) {
	h := NewHeap(0, 1024)
	p := h.Alloc(16)
	if p == 0 {
		t.Fatal("alloc failed")
	}
	if !h.Live(p) {
		t.Fatal("block not live")
	}
	h.Free(p)
	h.Free(p)
	if h.Live(p) {
		t.Error("block still live")
	}
	st := h.Stats()
	if st.Frees != 2 || st.Live != 0 || st.InUse != 0 {
		t.Errorf("stats: %+v", st)
	}
	if q := h.Alloc(16); q == p {
		t.Error("freed block reused")
	}
}

func TestHeapFailNext(t *testing.T) {
	h := NewHeap(16, 1024)
	h.FailNext(2)
	if h.Alloc(4) != 0 || h.Alloc(4) != 0 {
		t.Fatal("injected failures did not fail")
	}
	if h.Alloc(4) == 0 {
		t.Fatal("third allocation failed")
	}
	if st := h.Stats(); st.Failed != 2 || st.Allocs != 1 {
		t.Errorf("stats: %+v", st)
	}
}

func TestTrace(t *testing.T) {
	var tr Trace
	tr.Record(Event{Kind: EventAlloc, Size: 8, Ptr: 64})
	tr.Record(Event{Kind: EventCall, Entry: "a", Ptr: 64})
	tr.Record(Event{Kind: EventCall, Entry: "b", Ptr: 64})
	tr.Record(Event{Kind: EventFree, Ptr: 64})

	if n := tr.Count(EventCall, ""); n != 2 {
		t.Errorf("calls: %d", n)
	}
	if n := tr.Count(EventCall, "b"); n != 1 {
		t.Errorf("calls to b: %d", n)
	}
	ev := tr.Events()
	ev[0].Ptr = 0
	if tr.Events()[0].Ptr != 64 {
		t.Error("Events must return a copy")
	}
	tr.Reset()
	if len(tr.Events()) != 0 {
		t.Error("Reset kept events")
	}
	if EventFree.String() != "free" || EventKind(0).String() != "unknown" {
		t.Error("EventKind.String")
	}
}
