package testing

import (
	"testing"

	"github.com/go-drift/vio/pkg/surface"
)

func TestByText(t *testing.T) {
	tester := newCounterTester(t)

	if !tester.Find(ByText("0")).Exists() {
		t.Error("expected to find text '0'")
	}
	if tester.Find(ByText("99")).Exists() {
		t.Error("should not find text '99'")
	}
	if tester.Find(ByText("0+")).Exists() {
		t.Error("ByText should match own text only, not descendants")
	}
}

func TestByTextContaining(t *testing.T) {
	tester := newCounterTester(t)

	if got := tester.Find(ByTextContaining("+")).First().Tag; got != "button" {
		t.Errorf("expected button, got %q", got)
	}
	if tester.Find(ByTextContaining("99")).Exists() {
		t.Error("should not find text containing '99'")
	}
}

func TestByClassAndRef(t *testing.T) {
	tester := newCounterTester(t)

	if tester.Find(ByClass("counter")).Count() != 1 {
		t.Error("expected one .counter")
	}
	if tester.Find(ByRef("inc")).First() != tester.Find(ByClass("inc")).First() {
		t.Error("ByRef and ByClass should find the same button")
	}
}

func TestFinderResult_FirstOrNil(t *testing.T) {
	tester := newCounterTester(t)

	if tester.Find(ByTag("table")).FirstOrNil() != nil {
		t.Error("expected nil for missing element")
	}
	if tester.Find(ByTag("span")).FirstOrNil() == nil {
		t.Error("expected a span")
	}
}

func TestFinderResult_FirstPanicsWithDescription(t *testing.T) {
	tester := newCounterTester(t)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		if msg, _ := r.(string); msg != `Finder found no elements: ByTag("table")` {
			t.Errorf("panic message = %q", msg)
		}
	}()
	tester.Find(ByTag("table")).First()
}

func TestFinderResult_At(t *testing.T) {
	tester := newCounterTester(t)

	all := tester.Find(ByTag("div"))
	if all.Count() != 2 {
		t.Fatalf("expected 2 divs (mount point and counter), got %d", all.Count())
	}
	if all.At(1) != all.All()[1] {
		t.Error("At and All disagree")
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic for out-of-range index")
		}
	}()
	all.At(5)
}

func TestDescendantAndAncestor(t *testing.T) {
	tester := newCounterTester(t)

	inside := tester.Find(Descendant(ByClass("counter"), ByTag("span")))
	if inside.Count() != 1 {
		t.Errorf("expected one span under .counter, got %d", inside.Count())
	}
	if tester.Find(Descendant(ByTag("span"), ByTag("button"))).Exists() {
		t.Error("button is not under span")
	}
	if tester.Find(Descendant(ByClass("counter"), ByClass("counter"))).Exists() {
		t.Error("Descendant must skip the ancestor itself")
	}

	outer := tester.Find(Ancestor(ByTag("button"), ByTag("div")))
	if outer.Count() != 2 {
		t.Errorf("expected both divs to contain the button, got %d", outer.Count())
	}
}

func TestByPredicate(t *testing.T) {
	tester := newCounterTester(t)

	result := tester.Find(ByPredicate(func(e *surface.Element) bool {
		return e.HasHandler("click")
	}))
	if result.Count() != 1 || result.First().Tag != "button" {
		t.Errorf("expected the button, got %d matches", result.Count())
	}
}
