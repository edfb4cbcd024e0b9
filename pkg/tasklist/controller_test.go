package tasklist

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harrisonrobin/tasks/pkg/model"
)

var testNow = time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)

func doneAt(s string) *model.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return model.NewTime(t)
}

// fakeRepo behaves like the service: mutations change its collection and
// List returns a copy of it.
type fakeRepo struct {
	mu       sync.Mutex
	tasks    []model.Task
	maxDates []time.Time
	creates  int
	listErr  error
	mutErr   error
	list     func(ctx context.Context, maxDate time.Time) ([]model.Task, error)
}

func (r *fakeRepo) List(ctx context.Context, maxDate time.Time) ([]model.Task, error) {
	r.mu.Lock()
	r.maxDates = append(r.maxDates, maxDate)
	hook, err := r.list, r.listErr
	out := append([]model.Task(nil), r.tasks...)
	r.mu.Unlock()
	if hook != nil {
		return hook(ctx, maxDate)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *fakeRepo) Create(_ context.Context, desc string, estimateAt time.Time) error {
	if strings.TrimSpace(desc) == "" {
		return model.ErrValidation
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mutErr != nil {
		return r.mutErr
	}
	r.creates++
	id := model.ID(strconv.Itoa(len(r.tasks) + 1))
	r.tasks = append(r.tasks, model.Task{ID: id, Desc: desc, EstimateAt: model.Time{Time: estimateAt}})
	return nil
}

func (r *fakeRepo) Toggle(_ context.Context, id model.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mutErr != nil {
		return r.mutErr
	}
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			if r.tasks[i].Done() {
				r.tasks[i].DoneAt = nil
			} else {
				r.tasks[i].DoneAt = model.NewTime(testNow)
			}
			return nil
		}
	}
	return model.ErrNotFound
}

func (r *fakeRepo) Delete(_ context.Context, id model.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mutErr != nil {
		return r.mutErr
	}
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
			return nil
		}
	}
	return model.ErrNotFound
}

type fakePrefs struct {
	mu      sync.Mutex
	values  map[model.Window]bool
	saveErr error
	saves   int
	onSave  func(n int, showDone bool)
}

func newFakePrefs() *fakePrefs {
	return &fakePrefs{values: make(map[model.Window]bool)}
}

func (p *fakePrefs) Load(_ context.Context, w model.Window) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.values[w]
	if !ok {
		return true
	}
	return v
}

func (p *fakePrefs) Save(_ context.Context, w model.Window, showDone bool) error {
	p.mu.Lock()
	p.saves++
	n, hook := p.saves, p.onSave
	p.mu.Unlock()
	if hook != nil {
		hook(n, showDone)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saveErr != nil {
		return p.saveErr
	}
	p.values[w] = showDone
	return nil
}

func ids(tasks []model.Task) []model.ID {
	out := make([]model.ID, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func assertIDs(t *testing.T, what string, tasks []model.Task, want ...model.ID) {
	t.Helper()
	if want == nil {
		want = []model.ID{}
	}
	if got := ids(tasks); !reflect.DeepEqual(got, want) {
		t.Fatalf("%s = %v, want %v", what, got, want)
	}
}

// sameContent compares two snapshots ignoring Version.
func sameContent(a, b ViewState) bool {
	a.Version, b.Version = 0, 0
	return reflect.DeepEqual(a, b)
}

func twoTasks() []model.Task {
	return []model.Task{
		{ID: "1", Desc: "write report", EstimateAt: model.Time{Time: testNow}},
		{ID: "2", Desc: "buy milk", EstimateAt: model.Time{Time: testNow}, DoneAt: doneAt("2024-01-01")},
	}
}

func newTestController(repo *fakeRepo, prefs *fakePrefs, w model.Window) *Controller {
	return New(w, repo, prefs, WithClock(func() time.Time { return testNow }))
}

func TestNewControllerIsUninitialized(t *testing.T) {
	c := newTestController(&fakeRepo{}, newFakePrefs(), model.Today)
	s := c.Snapshot()
	if s.Phase != Uninitialized {
		t.Fatalf("phase = %v, want uninitialized", s.Phase)
	}
	if !s.ShowDoneTasks {
		t.Fatal("new controller should show done tasks")
	}
	if s.Tasks == nil || s.VisibleTasks == nil {
		t.Fatal("task slices should be empty, not nil")
	}
}

func TestActivateThenToggleFilter(t *testing.T) {
	repo := &fakeRepo{tasks: twoTasks()}
	prefs := newFakePrefs()
	c := newTestController(repo, prefs, model.Today)

	if err := c.Activate(context.Background()); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	s := c.Snapshot()
	if s.Phase != Ready {
		t.Fatalf("phase = %v, want ready", s.Phase)
	}
	assertIDs(t, "visible", s.VisibleTasks, "1", "2")

	c.ToggleFilter(context.Background())
	s = c.Snapshot()
	if s.ShowDoneTasks {
		t.Fatal("filter should hide done tasks")
	}
	assertIDs(t, "visible", s.VisibleTasks, "1")
	assertIDs(t, "tasks", s.Tasks, "1", "2")
	if prefs.Load(context.Background(), model.Today) {
		t.Fatal("preference should have been saved as false")
	}
}

func TestActivateUsesWindowBound(t *testing.T) {
	repo := &fakeRepo{}
	c := newTestController(repo, newFakePrefs(), model.Week)
	if err := c.Activate(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 1, 9, 23, 59, 59, 0, time.UTC)
	if len(repo.maxDates) != 1 || !repo.maxDates[0].Equal(want) {
		t.Fatalf("maxDates = %v, want [%v]", repo.maxDates, want)
	}
}

func TestActivateRestoresPreference(t *testing.T) {
	repo := &fakeRepo{tasks: twoTasks()}
	prefs := newFakePrefs()
	prefs.values[model.Today] = false
	c := newTestController(repo, prefs, model.Today)

	if err := c.Activate(context.Background()); err != nil {
		t.Fatal(err)
	}
	s := c.Snapshot()
	if s.ShowDoneTasks {
		t.Fatal("stored preference was not restored")
	}
	assertIDs(t, "visible", s.VisibleTasks, "1")
}

func TestActivateFailureLeavesWindowEmpty(t *testing.T) {
	repo := &fakeRepo{tasks: twoTasks(), listErr: model.ErrNetwork}
	c := newTestController(repo, newFakePrefs(), model.Today)

	err := c.Activate(context.Background())
	if !errors.Is(err, model.ErrNetwork) {
		t.Fatalf("Activate = %v, want ErrNetwork", err)
	}
	s := c.Snapshot()
	if s.Phase != Uninitialized {
		t.Fatalf("phase = %v, want uninitialized", s.Phase)
	}
	assertIDs(t, "tasks", s.Tasks)
	assertIDs(t, "visible", s.VisibleTasks)
}

func TestToggleRoundTrip(t *testing.T) {
	repo := &fakeRepo{tasks: twoTasks()}
	prefs := newFakePrefs()
	prefs.values[model.Today] = false
	c := newTestController(repo, prefs, model.Today)
	ctx := context.Background()

	if err := c.Activate(ctx); err != nil {
		t.Fatal(err)
	}
	assertIDs(t, "visible", c.Snapshot().VisibleTasks, "1")

	if err := c.Toggle(ctx, "2"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	s := c.Snapshot()
	assertIDs(t, "visible", s.VisibleTasks, "1", "2")
	if s.Phase != Ready {
		t.Fatalf("phase = %v, want ready", s.Phase)
	}

	if err := c.Toggle(ctx, "2"); err != nil {
		t.Fatal(err)
	}
	assertIDs(t, "visible", c.Snapshot().VisibleTasks, "1")
}

func TestDeleteReloads(t *testing.T) {
	repo := &fakeRepo{tasks: twoTasks()}
	c := newTestController(repo, newFakePrefs(), model.Today)
	ctx := context.Background()
	if err := c.Activate(ctx); err != nil {
		t.Fatal(err)
	}

	if err := c.Delete(ctx, "1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	s := c.Snapshot()
	assertIDs(t, "tasks", s.Tasks, "2")
	assertIDs(t, "visible", s.VisibleTasks, "2")
	if len(repo.maxDates) != 2 {
		t.Fatalf("expected a reload after delete, got %d lists", len(repo.maxDates))
	}
}

func TestDeleteMissingLeavesState(t *testing.T) {
	repo := &fakeRepo{tasks: twoTasks()}
	c := newTestController(repo, newFakePrefs(), model.Today)
	ctx := context.Background()
	if err := c.Activate(ctx); err != nil {
		t.Fatal(err)
	}
	before := c.Snapshot()

	if err := c.Delete(ctx, "9"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Delete = %v, want ErrNotFound", err)
	}
	if after := c.Snapshot(); !sameContent(before, after) {
		t.Fatalf("state changed after failed delete:\n%#v\n%#v", before, after)
	}
	if len(repo.maxDates) != 1 {
		t.Fatal("failed mutation should not reload")
	}
}

func TestAddValidationLeavesState(t *testing.T) {
	repo := &fakeRepo{tasks: twoTasks()}
	c := newTestController(repo, newFakePrefs(), model.Today)
	ctx := context.Background()
	if err := c.Activate(ctx); err != nil {
		t.Fatal(err)
	}
	before := c.Snapshot()

	for _, desc := range []string{"", "   "} {
		if err := c.Add(ctx, desc, testNow); !errors.Is(err, model.ErrValidation) {
			t.Fatalf("Add(%q) = %v, want ErrValidation", desc, err)
		}
	}
	if repo.creates != 0 {
		t.Fatalf("creates = %d, want 0", repo.creates)
	}
	if after := c.Snapshot(); !sameContent(before, after) {
		t.Fatal("state changed after rejected add")
	}
}

func TestAddReloads(t *testing.T) {
	repo := &fakeRepo{}
	c := newTestController(repo, newFakePrefs(), model.Today)
	ctx := context.Background()
	if err := c.Activate(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.Add(ctx, "call the bank", testNow); err != nil {
		t.Fatalf("Add: %v", err)
	}
	s := c.Snapshot()
	if len(s.VisibleTasks) != 1 || s.VisibleTasks[0].Desc != "call the bank" {
		t.Fatalf("visible = %#v", s.VisibleTasks)
	}
}

func TestMutationFailureLeavesState(t *testing.T) {
	repo := &fakeRepo{tasks: twoTasks()}
	c := newTestController(repo, newFakePrefs(), model.Today)
	ctx := context.Background()
	if err := c.Activate(ctx); err != nil {
		t.Fatal(err)
	}
	before := c.Snapshot()
	repo.mutErr = model.ErrNetwork

	if err := c.Add(ctx, "x", testNow); !errors.Is(err, model.ErrNetwork) {
		t.Fatalf("Add = %v", err)
	}
	if err := c.Toggle(ctx, "1"); !errors.Is(err, model.ErrNetwork) {
		t.Fatalf("Toggle = %v", err)
	}
	if after := c.Snapshot(); !sameContent(before, after) {
		t.Fatal("state changed after failed mutations")
	}
}

func TestReloadFailureKeepsTasks(t *testing.T) {
	repo := &fakeRepo{tasks: twoTasks()}
	c := newTestController(repo, newFakePrefs(), model.Today)
	ctx := context.Background()
	if err := c.Activate(ctx); err != nil {
		t.Fatal(err)
	}
	repo.listErr = model.ErrAuth

	if err := c.Reload(ctx); !errors.Is(err, model.ErrAuth) {
		t.Fatalf("Reload = %v, want ErrAuth", err)
	}
	s := c.Snapshot()
	assertIDs(t, "tasks", s.Tasks, "1", "2")
	if s.Phase != Ready {
		t.Fatalf("phase = %v, want ready", s.Phase)
	}
}

func TestPreferenceSaveFailureKeepsFlip(t *testing.T) {
	repo := &fakeRepo{tasks: twoTasks()}
	prefs := newFakePrefs()
	prefs.saveErr = errors.New("disk full")
	c := newTestController(repo, prefs, model.Today)
	if err := c.Activate(context.Background()); err != nil {
		t.Fatal(err)
	}

	c.ToggleFilter(context.Background())
	s := c.Snapshot()
	if s.ShowDoneTasks {
		t.Fatal("flip was rolled back")
	}
	assertIDs(t, "visible", s.VisibleTasks, "1")
	if prefs.saves != 1 {
		t.Fatalf("saves = %d, want 1", prefs.saves)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	repo := &fakeRepo{tasks: twoTasks()}
	c := newTestController(repo, newFakePrefs(), model.Today)
	if err := c.Activate(context.Background()); err != nil {
		t.Fatal(err)
	}

	s := c.Snapshot()
	s.Tasks[0].Desc = "changed"
	s.VisibleTasks[1].DoneAt.Time = time.Time{}

	again := c.Snapshot()
	if again.Tasks[0].Desc != "write report" {
		t.Fatal("snapshot tasks alias controller state")
	}
	if again.VisibleTasks[1].DoneAt.IsZero() {
		t.Fatal("snapshot doneAt aliases controller state")
	}
}

func TestStaleReloadIsDropped(t *testing.T) {
	stale := []model.Task{{ID: "old", Desc: "stale", EstimateAt: model.Time{Time: testNow}}}
	fresh := []model.Task{{ID: "new", Desc: "fresh", EstimateAt: model.Time{Time: testNow}}}

	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	calls := 0
	repo := &fakeRepo{
		list: func(context.Context, time.Time) ([]model.Task, error) {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			if n == 1 {
				close(started)
				<-release
				return stale, nil
			}
			return fresh, nil
		},
	}
	c := newTestController(repo, newFakePrefs(), model.Today)

	errc := make(chan error, 1)
	go func() { errc <- c.Reload(context.Background()) }()
	<-started

	if got := c.Snapshot().Phase; got != Loading {
		t.Fatalf("phase during reload = %v, want loading", got)
	}
	if err := c.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	close(release)
	if err := <-errc; err != nil {
		t.Fatalf("stale reload returned %v", err)
	}

	s := c.Snapshot()
	assertIDs(t, "tasks", s.Tasks, "new")
	if s.Phase != Ready {
		t.Fatalf("phase = %v, want ready", s.Phase)
	}
}

func TestWindowsAreIsolated(t *testing.T) {
	repo := &fakeRepo{tasks: twoTasks()}
	prefs := newFakePrefs()
	b := NewBoard(repo, prefs, WithClock(func() time.Time { return testNow }))
	ctx := context.Background()

	for _, w := range b.Windows() {
		if _, err := b.Activate(ctx, w); err != nil {
			t.Fatalf("activate %s: %v", w, err)
		}
	}

	week, err := b.Controller(model.Week)
	if err != nil {
		t.Fatal(err)
	}
	week.ToggleFilter(ctx)

	today, _ := b.Controller(model.Today)
	if s := today.Snapshot(); !s.ShowDoneTasks || len(s.VisibleTasks) != 2 {
		t.Fatalf("today changed after toggling week: %#v", s)
	}
	if !prefs.Load(ctx, model.Today) {
		t.Fatal("today preference changed")
	}
	if prefs.Load(ctx, model.Week) {
		t.Fatal("week preference not saved")
	}
}

func TestBoardUnknownWindow(t *testing.T) {
	b := NewBoard(&fakeRepo{}, newFakePrefs())
	if _, err := b.Controller(model.Window(3)); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if got := b.Windows(); !reflect.DeepEqual(got, model.Windows) {
		t.Fatalf("windows = %v", got)
	}
}

func TestConcurrentFilterTogglesPersistLatest(t *testing.T) {
	ctx := context.Background()
	prefs := newFakePrefs()
	started := make(chan struct{})
	prefs.onSave = func(n int, _ bool) {
		if n == 1 {
			close(started)
			time.Sleep(50 * time.Millisecond)
		}
	}
	c := newTestController(&fakeRepo{}, prefs, model.Today)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.ToggleFilter(ctx)
	}()
	<-started
	c.ToggleFilter(ctx)
	<-done

	got := c.Snapshot().ShowDoneTasks
	if !got {
		t.Fatal("two toggles should leave done tasks visible")
	}
	if stored := prefs.Load(ctx, model.Today); stored != got {
		t.Fatalf("stored preference %v, in-memory %v", stored, got)
	}
}

func TestVersionAdvances(t *testing.T) {
	ctx := context.Background()
	c := newTestController(&fakeRepo{tasks: twoTasks()}, newFakePrefs(), model.Today)

	v0 := c.Snapshot().Version
	if err := c.Activate(ctx); err != nil {
		t.Fatal(err)
	}
	v1 := c.Snapshot().Version
	if v1 <= v0 {
		t.Fatalf("version after Activate = %d, want > %d", v1, v0)
	}
	c.ToggleFilter(ctx)
	v2 := c.Snapshot().Version
	if v2 <= v1 {
		t.Fatalf("version after ToggleFilter = %d, want > %d", v2, v1)
	}
	if err := c.Toggle(ctx, "1"); err != nil {
		t.Fatal(err)
	}
	if v3 := c.Snapshot().Version; v3 <= v2 {
		t.Fatalf("version after Toggle = %d, want > %d", v3, v2)
	}
}
