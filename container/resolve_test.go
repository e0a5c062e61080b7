package container_test

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/km-arc/go-injector/container"
)

// ── test stubs ────────────────────────────────────────────────────────────────

type logger interface {
	Log(msg string)
}

type consoleLogger struct {
	lines []string
}

func (l *consoleLogger) Log(msg string) { l.lines = append(l.lines, msg) }

type database interface {
	Query(sql string) string
}

type sqlDatabase struct {
	dsn    string
	logger logger
}

func (db *sqlDatabase) Query(sql string) string {
	if db.logger != nil {
		db.logger.Log("query: " + sql)
	}
	return "rows from " + db.dsn
}

// mockDatabase carries a field so it is not zero-size: distinct allocations
// of a zero-size type may share an address, which would break the pointer
// identity comparisons in the per-request lifetime tests.
type mockDatabase struct{ _ byte }

func (*mockDatabase) Query(string) string { return "mock rows" }

type emailSender struct {
	server string
	logger logger
}

// registerConsoleLogger binds "logger" with the given lifetime.
func registerConsoleLogger(t *testing.T, c *container.Container, l container.Lifetime) {
	t.Helper()
	err := c.Register("logger", container.Factory(func(container.Args) (any, error) {
		return &consoleLogger{}, nil
	}), container.WithLifetime(l))
	if err != nil {
		t.Fatalf("register logger: %v", err)
	}
}

// registerSQLDatabase binds "database" as a constructor with a declared
// dependency on "logger" and a fixed dsn parameter.
func registerSQLDatabase(t *testing.T, c *container.Container, l container.Lifetime) {
	t.Helper()
	err := c.Register("database", container.Construct(
		func(args container.Args) (any, error) {
			db := &sqlDatabase{dsn: "memory"}
			if dsn, ok := container.Arg[string](args, "dsn"); ok {
				db.dsn = dsn
			}
			if lg, ok := container.Arg[logger](args, "logger"); ok {
				db.logger = lg
			}
			return db, nil
		},
		container.Dep{Param: "logger", Key: "logger"},
		container.Dep{Param: "dsn", Key: "dsn"},
	),
		container.WithLifetime(l),
		container.WithParams(container.Args{"dsn": "server=prod"}),
	)
	if err != nil {
		t.Fatalf("register database: %v", err)
	}
}

// ── Lookup failures ───────────────────────────────────────────────────────────

func TestResolve_UnboundKey_Fails(t *testing.T) {
	c := container.New()

	_, err := c.Resolve("mailer")
	if !errors.Is(err, container.ErrBindingNotFound) {
		t.Fatalf("got %v, want ErrBindingNotFound", err)
	}
}

func TestResolve_UnboundTransitiveDependency_IsSkippedNotFailed(t *testing.T) {
	c := container.New()
	// "logger" is declared but never bound: the constructor keeps its default.
	err := c.Register("database", container.Construct(
		func(args container.Args) (any, error) {
			db := &sqlDatabase{dsn: "default"}
			if lg, ok := container.Arg[logger](args, "logger"); ok {
				db.logger = lg
			}
			return db, nil
		},
		container.Dep{Param: "logger", Key: "logger"},
	))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	db, err := container.Resolve[*sqlDatabase](c, "database")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if db.logger != nil {
		t.Error("undeclared dependency should be left to the constructor's default")
	}
}

// ── Lifetime policies ─────────────────────────────────────────────────────────

func TestResolve_Singleton_SameInstanceEveryTime(t *testing.T) {
	c := container.New()
	registerConsoleLogger(t, c, container.Singleton)

	a, err := c.Resolve("logger")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	b, _ := c.Resolve("logger")

	if a != b {
		t.Error("singleton: two resolutions should return the identical instance")
	}
}

func TestResolve_PerRequest_FreshInstanceEveryTime(t *testing.T) {
	c := container.New()
	registerConsoleLogger(t, c, container.PerRequest)

	a, _ := c.Resolve("logger")
	b, _ := c.Resolve("logger")

	if a == b {
		t.Error("per-request: two resolutions should return distinct instances")
	}
}

// ── Recursive resolution ──────────────────────────────────────────────────────

func TestResolve_ConstructorReceivesBuiltDependency(t *testing.T) {
	c := container.New()
	registerConsoleLogger(t, c, container.Singleton)
	registerSQLDatabase(t, c, container.PerRequest)

	db, err := container.Resolve[*sqlDatabase](c, "database")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if db.logger == nil {
		t.Fatal("database should receive a constructed logger")
	}
	if db.dsn != "server=prod" {
		t.Errorf("dsn: got %q, want fixed parameter 'server=prod'", db.dsn)
	}
}

func TestResolve_SingletonDependency_SharedAcrossDependents(t *testing.T) {
	c := container.New()
	registerConsoleLogger(t, c, container.Singleton)
	registerSQLDatabase(t, c, container.PerRequest)

	db1, _ := container.Resolve[*sqlDatabase](c, "database")
	db2, _ := container.Resolve[*sqlDatabase](c, "database")

	if db1 == db2 {
		t.Fatal("per-request databases should be distinct")
	}
	if db1.logger != db2.logger {
		t.Error("a singleton dependency should be the same instance in every dependent")
	}
}

func TestResolve_FixedParam_OverridesRegisteredDependency(t *testing.T) {
	c := container.New()
	registerConsoleLogger(t, c, container.Singleton)

	pinned := &consoleLogger{}
	err := c.Register("database", container.Construct(
		func(args container.Args) (any, error) {
			return &sqlDatabase{logger: container.MustArg[logger](args, "logger")}, nil
		},
		container.Dep{Param: "logger", Key: "logger"},
	), container.WithParams(container.Args{"logger": logger(pinned)}))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	db, err := container.Resolve[*sqlDatabase](c, "database")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if db.logger != logger(pinned) {
		t.Error("a fixed parameter should win over a matching registration")
	}
}

// ── Factory bindings ──────────────────────────────────────────────────────────

func TestResolve_Factory_ReceivesExactlyFixedParams(t *testing.T) {
	c := container.New()

	var seen container.Args
	err := c.Register("mailer", container.Factory(func(params container.Args) (any, error) {
		seen = params
		return &emailSender{server: container.MustArg[string](params, "server")}, nil
	}), container.WithParams(container.Args{"server": "smtp.prod.example"}))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	m, err := container.Resolve[*emailSender](c, "mailer")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if m.server != "smtp.prod.example" {
		t.Errorf("server: got %q, want 'smtp.prod.example'", m.server)
	}
	if len(seen) != 1 {
		t.Errorf("factory params: got %v, want exactly the fixed params", seen)
	}
}

func TestResolve_Factory_CachedPerLifetime(t *testing.T) {
	c := container.New()

	var builds int
	c.Register("mailer", container.Factory(func(container.Args) (any, error) {
		builds++
		return &emailSender{}, nil
	}), container.WithLifetime(container.Singleton))

	a, _ := c.Resolve("mailer")
	b, _ := c.Resolve("mailer")

	if a != b {
		t.Error("singleton factory binding should be cached like a constructor binding")
	}
	if builds != 1 {
		t.Errorf("builds: got %d, want 1", builds)
	}
}

// ── Profile scenario ──────────────────────────────────────────────────────────

// Development wires a mock database per request; production wires a scoped
// SQL database behind the same keys.
func TestResolve_DevelopmentAndProductionProfiles(t *testing.T) {
	dev := container.New()
	registerConsoleLogger(t, dev, container.Singleton)
	dev.Register("database", container.Factory(func(container.Args) (any, error) {
		return &mockDatabase{}, nil
	}))

	db1, _ := container.Resolve[database](dev, "database")
	db2, _ := container.Resolve[database](dev, "database")
	if db1 == db2 {
		t.Error("development database is per-request: instances should differ")
	}
	if got := db1.Query("SELECT 1"); got != "mock rows" {
		t.Errorf("Query: got %q, want 'mock rows'", got)
	}

	prod := container.New()
	registerConsoleLogger(t, prod, container.Singleton)
	registerSQLDatabase(t, prod, container.Scoped)

	if _, err := prod.Resolve("database"); !errors.Is(err, container.ErrScopeViolation) {
		t.Fatalf("got %v, want ErrScopeViolation outside a scope", err)
	}

	prod.WithScope(func(s *container.Scope) error {
		a, err := container.Resolve[database](s, "database")
		if err != nil {
			t.Fatalf("Resolve in scope: %v", err)
		}
		b, _ := container.Resolve[database](s, "database")
		if a != b {
			t.Error("production database is scoped: one instance per scope")
		}
		if got := a.Query("SELECT 1"); got != "rows from server=prod" {
			t.Errorf("Query: got %q, want 'rows from server=prod'", got)
		}
		return nil
	})
}

// ── Cycle detection ───────────────────────────────────────────────────────────

func TestResolve_CircularDependency_Fails(t *testing.T) {
	c := container.New()

	c.Register("a", container.Construct(
		func(args container.Args) (any, error) { return "a", nil },
		container.Dep{Param: "b", Key: "b"},
	))
	c.Register("b", container.Construct(
		func(args container.Args) (any, error) { return "b", nil },
		container.Dep{Param: "a", Key: "a"},
	))

	_, err := c.Resolve("a")
	if !errors.Is(err, container.ErrCircularDependency) {
		t.Fatalf("resolving a: got %v, want ErrCircularDependency", err)
	}
	if !strings.Contains(err.Error(), "a -> b -> a") {
		t.Errorf("error should carry the cycle chain, got: %v", err)
	}

	if _, err := c.Resolve("b"); !errors.Is(err, container.ErrCircularDependency) {
		t.Fatalf("resolving b: got %v, want ErrCircularDependency", err)
	}
}

func TestResolve_SelfDependency_Fails(t *testing.T) {
	c := container.New()

	c.Register("a", container.Construct(
		func(args container.Args) (any, error) { return "a", nil },
		container.Dep{Param: "a", Key: "a"},
	))

	_, err := c.Resolve("a")
	if !errors.Is(err, container.ErrCircularDependency) {
		t.Fatalf("got %v, want ErrCircularDependency", err)
	}
}

// ── Failure semantics ─────────────────────────────────────────────────────────

func TestResolve_FailedBuild_DoesNotPoisonCache(t *testing.T) {
	c := container.New()

	var attempts int
	c.Register("flaky", container.Factory(func(container.Args) (any, error) {
		attempts++
		if attempts == 1 {
			return nil, fmt.Errorf("connection refused")
		}
		return &consoleLogger{}, nil
	}), container.WithLifetime(container.Singleton))

	if _, err := c.Resolve("flaky"); err == nil {
		t.Fatal("first resolution should fail")
	}

	got, err := c.Resolve("flaky")
	if err != nil {
		t.Fatalf("second resolution should succeed after a failed build, got: %v", err)
	}
	if got == nil {
		t.Fatal("second resolution returned nil instance")
	}
}

func TestResolve_DependencyBuildError_Propagates(t *testing.T) {
	c := container.New()

	c.Register("logger", container.Factory(func(container.Args) (any, error) {
		return nil, fmt.Errorf("disk full")
	}))
	registerSQLDatabase(t, c, container.PerRequest)

	_, err := c.Resolve("database")
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("dependency build error should reach the caller, got: %v", err)
	}
}

// ── Extend ────────────────────────────────────────────────────────────────────

type prefixLogger struct {
	inner  logger
	prefix string
}

func (l *prefixLogger) Log(msg string) { l.inner.Log(l.prefix + msg) }

func TestExtend_DecoratesEveryPerRequestBuild(t *testing.T) {
	c := container.New()
	registerConsoleLogger(t, c, container.PerRequest)
	c.Extend("logger", func(instance any) any {
		return &prefixLogger{inner: instance.(logger), prefix: "[app] "}
	})

	got, err := container.Resolve[logger](c, "logger")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, ok := got.(*prefixLogger); !ok {
		t.Fatalf("got %T, want *prefixLogger", got)
	}
}

func TestExtend_SingletonDecoratedOnce(t *testing.T) {
	c := container.New()
	registerConsoleLogger(t, c, container.Singleton)

	var applied int
	c.Extend("logger", func(instance any) any {
		applied++
		return instance
	})

	c.Resolve("logger")
	c.Resolve("logger")

	if applied != 1 {
		t.Errorf("extender applications: got %d, want 1 (cached after first build)", applied)
	}
}

// ── Contextual binding ────────────────────────────────────────────────────────

func TestContextual_OverridesDeclaredDependency(t *testing.T) {
	c := container.New()
	registerConsoleLogger(t, c, container.Singleton)
	registerSQLDatabase(t, c, container.PerRequest)

	special := &consoleLogger{}
	c.When("database").Needs("logger").GiveValue(logger(special))

	db, err := container.Resolve[*sqlDatabase](c, "database")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if db.logger != logger(special) {
		t.Error("contextual override should win over the registered binding")
	}

	// The registered logger binding itself is untouched.
	direct, _ := container.Resolve[logger](c, "logger")
	if direct == logger(special) {
		t.Error("contextual override must not leak into direct resolution")
	}
}

// ── Tags ──────────────────────────────────────────────────────────────────────

func TestTagged_ResolvesAllKeysInOrder(t *testing.T) {
	c := container.New()
	c.Instance("cpu-report", "cpu")
	c.Instance("mem-report", "mem")
	c.Tag([]string{"cpu-report", "mem-report"}, "reports")

	reports, err := c.Tagged("reports")
	if err != nil {
		t.Fatalf("Tagged: %v", err)
	}
	if len(reports) != 2 || reports[0] != "cpu" || reports[1] != "mem" {
		t.Errorf("Tagged: got %v, want [cpu mem]", reports)
	}
}

func TestTagged_UnboundKey_Fails(t *testing.T) {
	c := container.New()
	c.Tag([]string{"missing"}, "reports")

	_, err := c.Tagged("reports")
	if !errors.Is(err, container.ErrBindingNotFound) {
		t.Fatalf("got %v, want ErrBindingNotFound", err)
	}
}

// ── Generic helpers ───────────────────────────────────────────────────────────

func TestResolveGeneric_TypeMismatch_Fails(t *testing.T) {
	c := container.New()
	c.Instance("logger", &consoleLogger{})

	_, err := container.Resolve[*sqlDatabase](c, "logger")
	if err == nil {
		t.Fatal("resolving to the wrong type should fail")
	}
}

func TestMustResolve_PanicsOnMissingBinding(t *testing.T) {
	c := container.New()

	defer func() {
		if recover() == nil {
			t.Error("MustResolve should panic for an unbound key")
		}
	}()
	container.MustResolve[logger](c, "logger")
}

// ── Concurrency ───────────────────────────────────────────────────────────────

func TestResolve_ConcurrentSingleton_BuildsExactlyOnce(t *testing.T) {
	c := container.New()

	var builds atomic.Int32
	c.Register("logger", container.Factory(func(container.Args) (any, error) {
		builds.Add(1)
		time.Sleep(10 * time.Millisecond) // widen the race window
		return &consoleLogger{}, nil
	}), container.WithLifetime(container.Singleton))

	const callers = 16
	instances := make([]any, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			instances[i], _ = c.Resolve("logger")
		}(i)
	}
	wg.Wait()

	if got := builds.Load(); got != 1 {
		t.Errorf("builds: got %d, want 1 (single-flight)", got)
	}
	for i := 1; i < callers; i++ {
		if instances[i] != instances[0] {
			t.Fatal("all concurrent callers should receive the same instance")
		}
	}
}
