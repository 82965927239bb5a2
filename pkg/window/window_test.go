package window

import (
	"testing"

	"github.com/charmbracelet/log"
)

func testLogger() *log.Logger {
	logger := log.New(nil)
	logger.SetLevel(log.FatalLevel)
	return logger
}

func TestSecondOpenFocusesExisting(t *testing.T) {
	r := NewRegistry(testLogger())
	builds, focuses := 0, 0
	build := func() (func(), func()) {
		builds++
		return func() { focuses++ }, func() {}
	}

	first, created := r.Open(PersonRole("555-0001"), build)
	if !created {
		t.Fatal("first open did not create")
	}
	second, created := r.Open(PersonRole("555-0001"), build)
	if created {
		t.Error("second open created a duplicate")
	}
	if builds != 1 {
		t.Errorf("build called %d times, want 1", builds)
	}
	if focuses != 1 {
		t.Errorf("focus called %d times, want 1", focuses)
	}
	if first.Instance != second.Instance {
		t.Error("second open returned a different instance")
	}
	if r.Len() != 1 {
		t.Errorf("registry holds %d windows, want 1", r.Len())
	}
}

func TestDifferentPeopleGetDifferentWindows(t *testing.T) {
	r := NewRegistry(testLogger())
	build := func() (func(), func()) { return func() {}, func() {} }

	a, _ := r.Open(PersonRole("555-0001"), build)
	b, _ := r.Open(PersonRole("555-0002"), build)
	if a.Instance == b.Instance {
		t.Error("distinct people share a window instance")
	}
	if r.Len() != 2 {
		t.Errorf("registry holds %d windows, want 2", r.Len())
	}
}

func TestReopenAfterCloseCreatesFresh(t *testing.T) {
	r := NewRegistry(testLogger())
	closed := 0
	build := func() (func(), func()) {
		return func() {}, func() { closed++ }
	}

	first, _ := r.Open(RoleStats, build)
	if !r.Close(RoleStats) {
		t.Fatal("close of open window reported false")
	}
	if closed != 1 {
		t.Errorf("close callback ran %d times, want 1", closed)
	}

	second, created := r.Open(RoleStats, build)
	if !created {
		t.Error("reopen after close did not create")
	}
	if first.Instance == second.Instance {
		t.Error("reopened window reused the old instance id")
	}
}

func TestCloseUnknownRole(t *testing.T) {
	r := NewRegistry(testLogger())
	if r.Close(RoleFilter) {
		t.Error("closing a never-opened role reported true")
	}
}

func TestCloseAll(t *testing.T) {
	r := NewRegistry(testLogger())
	closed := 0
	build := func() (func(), func()) {
		return func() {}, func() { closed++ }
	}
	r.Open(RoleChart, build)
	r.Open(RoleStats, build)
	r.Open(PersonRole("x"), build)

	r.CloseAll()
	if closed != 3 {
		t.Errorf("closed %d windows, want 3", closed)
	}
	if r.Len() != 0 {
		t.Errorf("registry still holds %d windows", r.Len())
	}
}

func TestConcurrentOpenSingleInstance(t *testing.T) {
	r := NewRegistry(testLogger())
	const workers = 16
	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		go func() {
			_, created := r.Open(RoleChart, func() (func(), func()) {
				return func() {}, func() {}
			})
			results <- created
		}()
	}
	creations := 0
	for i := 0; i < workers; i++ {
		if <-results {
			creations++
		}
	}
	if creations != 1 {
		t.Errorf("%d concurrent opens created %d windows, want 1", workers, creations)
	}
}
