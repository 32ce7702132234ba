package diag_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"quill/internal/diag"
	"quill/internal/source"
)

func at(start uint32) source.Span { return source.Span{File: 0, Start: start, End: start + 1} }

func TestBagLimitCountsDropped(t *testing.T) {
	bag := diag.NewBag(1)
	rep := diag.BagReporter{Bag: bag}
	rep.Report(diag.SynUnexpectedToken, diag.SevWarning, at(0), "first", nil)
	diag.Error(rep, diag.ResNotFound, at(4), "second")
	if bag.Len() != 1 || bag.Dropped() != 1 {
		t.Fatalf("len %d dropped %d", bag.Len(), bag.Dropped())
	}
	if !bag.HasErrors() {
		t.Error("dropped error not counted")
	}
	bag.Force(diag.Diagnostic{Severity: diag.SevInfo, Code: diag.ObsTimings})
	if bag.Len() != 2 {
		t.Errorf("Force did not bypass the limit: len %d", bag.Len())
	}
}

func TestBagSortAndDedup(t *testing.T) {
	bag := diag.NewBag(0)
	add := func(sev diag.Severity, code diag.Code, start uint32) {
		bag.Add(diag.Diagnostic{Severity: sev, Code: code, Primary: at(start)})
	}
	add(diag.SevError, diag.TyMismatch, 9)
	add(diag.SevWarning, diag.SynUnexpectedToken, 2)
	add(diag.SevError, diag.ResNotFound, 2)
	add(diag.SevError, diag.TyMismatch, 9)
	bag.Sort()
	bag.Dedup()
	want := []diag.Code{diag.ResNotFound, diag.SynUnexpectedToken, diag.TyMismatch}
	if diff := cmp.Diff(want, bag.Codes()); diff != "" {
		t.Errorf("codes mismatch (-want +got):\n%s", diff)
	}
	var nilBag *diag.Bag
	if nilBag.HasErrors() || nilBag.Len() != 0 || nilBag.Items() != nil {
		t.Error("nil bag is not empty")
	}
}
