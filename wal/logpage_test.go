package wal

import "testing"

func TestLogPageAddAndBackwardIteration(t *testing.T) {
	page := NewLogPage(64)

	records := [][]byte{[]byte("first"), []byte("second"), []byte("third")}
	for _, r := range records {
		if !page.Add(r) {
			t.Fatalf("expected %q to fit in a fresh page", r)
		}
	}

	it := page.BackwardIterator()
	for i := len(records) - 1; i >= 0; i-- {
		got, ok := it.Next()
		if !ok {
			t.Fatalf("expected a record at reverse position %d", i)
		}
		if string(got) != string(records[i]) {
			t.Fatalf("expected %q, got %q", records[i], got)
		}
	}

	if _, ok := it.Next(); ok {
		t.Fatal("expected iterator to be exhausted")
	}
}

func TestLogPageAddFailsWhenFull(t *testing.T) {
	page := NewLogPage(16)

	added := 0
	for page.Add([]byte("xxxx")) {
		added++
	}

	if added == 0 {
		t.Fatal("expected at least one record to fit")
	}
	if page.Add([]byte("one more")) {
		t.Fatal("expected Add to fail once the page has no room left")
	}
}

func TestLogPageEncodeDecodeRoundTrip(t *testing.T) {
	page := NewLogPage(64)
	page.Add([]byte("alpha"))
	page.Add([]byte("beta"))

	encoded := page.Finish()

	decoded := DecodeLogPage(encoded)
	if got := decoded.NumRecords(); got != 2 {
		t.Fatalf("expected 2 records, got %d", got)
	}

	it := decoded.BackwardIterator()
	got, ok := it.Next()
	if !ok || string(got) != "beta" {
		t.Fatalf("expected (%q, true), got (%q, %v)", "beta", got, ok)
	}
}

func TestLogPageFinishPanicsWhenEmpty(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic finishing a page with no records")
		}
	}()

	NewLogPage(64).Finish()
}

func TestDecodeLogPageFreshZeroedBlockIsEmpty(t *testing.T) {
	page := DecodeLogPage(make([]byte, 64))
	if got := page.NumRecords(); got != 0 {
		t.Fatalf("expected 0 records on a freshly zeroed block, got %d", got)
	}
}
