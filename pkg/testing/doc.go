// Package testing provides an app testing harness for vio.
//
// # Quick Start
//
// Create a tester, mount the app, and make assertions:
//
//	func TestCounter(t *testing.T) {
//	    tester := viotest.NewAppTesterWithT(t, vio.Config{Component: counter})
//	    tester.Mount("/")
//
//	    // Find elements
//	    button := tester.Find(viotest.ByText("+")).First()
//
//	    // Simulate events
//	    tester.Tap(viotest.ByText("+"))
//
//	    // Assert output
//	    if !tester.Find(viotest.ByText("1")).Exists() {
//	        t.Error("expected '1'")
//	    }
//	}
//
// Every tester gets a fresh document, a fresh instance id counter and a
// mock clock, so ids ("Counter-1") and event timestamps are deterministic.
//
// # Snapshot Testing
//
// Capture and compare surface snapshots:
//
//	snapshot := tester.CaptureSnapshot()
//	snapshot.MatchesFile(t, "testdata/counter.snapshot.json")
//
// Update snapshots with:
//
//	VIO_UPDATE_SNAPSHOTS=1 go test ./...
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import viotest "github.com/go-drift/vio/pkg/testing"
package testing
