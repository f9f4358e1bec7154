package printer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

// lines strips the ESC/POS prefix and returns the printed text lines
func lines(d *Document) []string {
	text := string(bytes.TrimPrefix(d.Bytes(), []byte{ESC, '@'}))
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

func TestKeyValueAlignsToWidth(t *testing.T) {
	d := NewDocument(20)
	d.KeyValue("Total:", "KES 12.50")

	got := lines(d)[0]
	if len(got) != 20 || !strings.HasSuffix(got, "KES 12.50") {
		t.Fatalf("KeyValue line = %q", got)
	}
}

func TestItemLineTruncatesLongNames(t *testing.T) {
	d := NewDocument(24)
	d.ItemLine(2, "Extra Large Club Sandwich With Fries", "1700.00")

	got := lines(d)[0]
	if len(got) != 24 {
		t.Fatalf("len = %d, line = %q", len(got), got)
	}
	if !strings.HasSuffix(got, " 1700.00") || !strings.HasPrefix(got, "2x Extra") {
		t.Fatalf("ItemLine = %q", got)
	}
}

func TestWrapBreaksOnWords(t *testing.T) {
	d := NewDocument(12)
	d.Wrap("no onions extra cheese please", 2)

	for _, l := range lines(d) {
		if len(l) > 12 || !strings.HasPrefix(l, "  ") {
			t.Fatalf("wrapped line %q overflows or lost indent", l)
		}
	}
	if n := len(lines(d)); n != 4 {
		t.Fatalf("got %d lines, want 4: %q", n, lines(d))
	}
}

func TestSpool(t *testing.T) {
	s := &Spool{}
	if err := s.Print(context.Background(), []byte("a")); err != nil {
		t.Fatal(err)
	}
	s.Err = errors.New("paper out")
	if err := s.Print(context.Background(), []byte("b")); err == nil {
		t.Fatal("expected spool error")
	}
	if jobs := s.Jobs(); len(jobs) != 1 || string(jobs[0]) != "a" {
		t.Fatalf("jobs = %q", jobs)
	}
}

func TestNewPrinterFromConfig(t *testing.T) {
	if _, err := NewPrinterFromConfig("usb", "", ""); err == nil {
		t.Error("usb without path accepted")
	}
	if _, err := NewPrinterFromConfig("laser", "", ""); err == nil {
		t.Error("unknown type accepted")
	}
	p, err := NewPrinterFromConfig("none", "", "")
	if err != nil || p.IsConnected() {
		t.Errorf("none printer = %v, %v", p, err)
	}
}
