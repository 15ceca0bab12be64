package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/mvnboot/internal/testrepo"
	"github.com/matzehuels/mvnboot/pkg/jre"
	"github.com/matzehuels/mvnboot/pkg/maven"
	"github.com/matzehuels/mvnboot/pkg/observability"
	"github.com/matzehuels/mvnboot/pkg/resolve"
)

type harness struct {
	cli     *CLI
	out     *bytes.Buffer
	errOut  *bytes.Buffer
	dir     string
	config  string
	content string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	var out, errOut bytes.Buffer
	c := New(&out, &errOut, LogInfo)
	c.In = strings.NewReader("")
	dir := t.TempDir()
	return &harness{
		cli:     c,
		out:     &out,
		errOut:  &errOut,
		dir:     dir,
		config:  filepath.Join(dir, "mvnboot.toml"),
		content: filepath.Join(dir, "content"),
	}
}

// writeConfig writes a config pointing at repo with caching disabled.
func (h *harness) writeConfig(t *testing.T, repo *testrepo.Repo, extra string) {
	t.Helper()
	data := fmt.Sprintf(`entrypoint = "Main"
repository = %q
content-dir = %q

[cache]
disabled = true
%s`, repo.URL(), h.content, extra)
	if err := os.WriteFile(h.config, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func (h *harness) run(args ...string) error {
	root := h.cli.RootCommand()
	root.SetArgs(append([]string{"--config", h.config}, args...))
	return root.ExecuteContext(context.Background())
}

// sampleRepo serves app:1 -> lib:1 (compile), junit:4 (test), gone:1 (no archive).
func sampleRepo(t *testing.T) *testrepo.Repo {
	t.Helper()
	repo := testrepo.New(t)
	app := testrepo.C("org.example:app:1")
	lib := testrepo.C("org.example:lib:1")
	gone := testrepo.C("org.example:gone:1")
	junit := testrepo.D("junit:junit:4")
	junit.Scope = maven.ScopeTest

	repo.PutManifest(testrepo.Manifest{Coordinate: app, Dependencies: []testrepo.Dep{
		testrepo.D(lib.String()), junit, testrepo.D(gone.String()),
	}})
	repo.PutManifest(testrepo.Manifest{Coordinate: lib})
	repo.PutManifest(testrepo.Manifest{Coordinate: gone})
	repo.PutArchive(app, []byte("app-jar"))
	repo.PutArchive(lib, []byte("lib-jar"))
	return repo
}

func keys(deps []resolve.Dependency) []string {
	out := make([]string, len(deps))
	for i, d := range deps {
		out[i] = d.Key().String()
	}
	return out
}

func TestResolveJSON(t *testing.T) {
	h := newHarness(t)
	repo := sampleRepo(t)
	h.writeConfig(t, repo, "")

	if err := h.run("resolve", "org.example:app:1", "--format", "json"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	var res resolve.Result
	if err := json.Unmarshal(h.out.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v\n%s", err, h.out.String())
	}
	got := strings.Join(keys(res.Dependencies), ",")
	if got != "org.example:app,org.example:gone,org.example:lib" {
		t.Errorf("dependencies = %s", got)
	}
	if res.Root.String() != "org.example:app:1" {
		t.Errorf("root = %s", res.Root)
	}
}

func TestResolveFromConfigYAML(t *testing.T) {
	h := newHarness(t)
	repo := sampleRepo(t)
	repo.PutManifest(testrepo.Manifest{Coordinate: testrepo.C("org.other:tool:2")})
	h.writeConfig(t, repo, `
[artifacts.maven]
"org.example:app" = "1"
"org.other:tool" = "2"
`)

	if err := h.run("resolve", "--format", "yaml"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	var docs []struct {
		Root         maven.Coordinate     `yaml:"root"`
		Dependencies []resolve.Dependency `yaml:"dependencies"`
	}
	if err := yaml.Unmarshal(h.out.Bytes(), &docs); err != nil {
		t.Fatalf("decode: %v\n%s", err, h.out.String())
	}
	if len(docs) != 2 {
		t.Fatalf("got %d results, want 2", len(docs))
	}
	if docs[0].Root.String() != "org.example:app:1" || docs[1].Root.String() != "org.other:tool:2" {
		t.Errorf("roots = %s, %s", docs[0].Root, docs[1].Root)
	}
	if len(docs[0].Dependencies) != 3 || docs[0].Dependencies[2].Version != "1" {
		t.Errorf("app dependencies = %+v", docs[0].Dependencies)
	}
}

func TestResolveText(t *testing.T) {
	h := newHarness(t)
	h.writeConfig(t, sampleRepo(t), "")

	if err := h.run("resolve", "org.example:app:1", "--skip-scope", "provided", "--keep-going"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	out := h.out.String()
	for _, want := range []string{"org.example:app:1", "lib", "gone", "junit"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestResolveDOTToFile(t *testing.T) {
	h := newHarness(t)
	h.writeConfig(t, sampleRepo(t), "")
	path := filepath.Join(h.dir, "graph.dot")

	if err := h.run("resolve", "org.example:app:1", "-f", "dot", "-o", path); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"org.example:app" -> "org.example:lib";`) {
		t.Errorf("dot output:\n%s", data)
	}
	if !strings.Contains(h.out.String(), path) {
		t.Errorf("output path not reported: %s", h.out.String())
	}
}

func TestResolveErrors(t *testing.T) {
	h := newHarness(t)
	repo := sampleRepo(t)
	h.writeConfig(t, repo, "")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown format", args: []string{"resolve", "org.example:app:1", "-f", "xml"}, want: "unknown format"},
		{name: "bad coordinate", args: []string{"resolve", "nonsense"}, want: "invalid maven coordinate"},
		{name: "nothing configured", args: []string{"resolve"}, want: "nothing to resolve"},
		{name: "graph of two roots", args: []string{"resolve", "org.example:app:1", "org.example:lib:1", "-f", "svg"}, want: "single graph"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.run(tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestResolveMissingRoot(t *testing.T) {
	h := newHarness(t)
	h.writeConfig(t, testrepo.New(t), "")

	err := h.run("resolve", "org.example:absent:1", "-f", "json")
	var fe *maven.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FetchError", err)
	}
	if h.out.Len() != 0 {
		t.Errorf("partial output written: %s", h.out.String())
	}
}

func TestResolveWarnsAboutFailingHost(t *testing.T) {
	h := newHarness(t)
	repo := testrepo.New(t)
	app := testrepo.C("org.example:app:1")
	var deps []testrepo.Dep
	for i := 0; i < 6; i++ {
		dep := testrepo.C(fmt.Sprintf("org.example:down%d:1", i))
		repo.Status(testrepo.ManifestPath(dep), http.StatusServiceUnavailable)
		deps = append(deps, testrepo.D(dep.String()))
	}
	repo.PutManifest(testrepo.Manifest{Coordinate: app, Dependencies: deps})
	h.writeConfig(t, repo, "[http]\nretries = 0\n")

	if err := h.run("resolve", app.String(), "--keep-going", "-f", "json"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(h.errOut.String(), "repository host failing repeatedly") {
		t.Errorf("no warning about the failing host:\n%s", h.errOut.String())
	}
}

func TestDownload(t *testing.T) {
	h := newHarness(t)
	repo := sampleRepo(t)
	bundle := testrepo.C("org.example:bundle:3")
	repo.Put(testrepo.ArchivePath(bundle, "all"), []byte("fat-jar"))
	h.writeConfig(t, repo, `
[artifacts.maven]
"org.example:app" = "1"

[artifacts.full]
"org.example:bundle" = "3"
`)

	if err := h.run("download"); err != nil {
		t.Fatalf("download: %v", err)
	}
	for name, want := range map[string]string{
		"app-1.jar":        "app-jar",
		"lib-1.jar":        "lib-jar",
		"bundle-3-all.jar": "fat-jar",
	} {
		data, err := os.ReadFile(filepath.Join(h.content, name))
		if err != nil || string(data) != want {
			t.Errorf("%s = %q, %v", name, data, err)
		}
	}
	if _, err := os.Stat(filepath.Join(h.content, "gone-1.jar")); !os.IsNotExist(err) {
		t.Error("missing archive was written")
	}
	if _, err := os.Stat(filepath.Join(h.content, "junit-4.jar")); !os.IsNotExist(err) {
		t.Error("test scope dependency downloaded")
	}
	if !strings.Contains(h.out.String(), "skipped") || !strings.Contains(h.out.String(), "gone-1.jar") {
		t.Errorf("skip not reported:\n%s", h.out.String())
	}
}

func TestDownloadSkipsCompleteArtifacts(t *testing.T) {
	h := newHarness(t)
	repo := sampleRepo(t)
	h.writeConfig(t, repo, `
[artifacts.maven]
"org.example:app" = "1"
`)
	if err := os.MkdirAll(h.content, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(h.content, "app-1.jar"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := h.run("download"); err != nil {
		t.Fatalf("download: %v", err)
	}
	if n := repo.Hits(testrepo.ManifestPath(testrepo.C("org.example:app:1"))); n != 0 {
		t.Errorf("manifest fetched %d times for a present artifact", n)
	}

	if err := h.run("download", "--all"); err != nil {
		t.Fatalf("download --all: %v", err)
	}
	if _, err := os.Stat(filepath.Join(h.content, "lib-1.jar")); err != nil {
		t.Errorf("--all did not download dependencies: %v", err)
	}
}

func TestMissingConfigWritesTemplate(t *testing.T) {
	h := newHarness(t)
	err := h.run("download")
	if !errors.Is(err, ErrConfigCreated) {
		t.Fatalf("err = %v, want ErrConfigCreated", err)
	}
	if _, err := os.Stat(h.config); err != nil {
		t.Errorf("template not written: %v", err)
	}
}

func TestInit(t *testing.T) {
	h := newHarness(t)
	if err := h.run("init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	data, err := os.ReadFile(h.config)
	if err != nil || !strings.Contains(string(data), "[artifacts.maven]") {
		t.Fatalf("config = %q, %v", data, err)
	}
	if err := h.run("init"); err == nil {
		t.Error("init overwrote an existing config")
	}
}

func TestCachePath(t *testing.T) {
	h := newHarness(t)
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	if err := h.run("cache", "path"); err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if got := strings.TrimSpace(h.out.String()); got != filepath.Join(xdg, appName) {
		t.Errorf("cache path = %q", got)
	}
}

func TestCacheClear(t *testing.T) {
	h := newHarness(t)
	cacheDir := filepath.Join(h.dir, "cache")
	data := fmt.Sprintf("entrypoint = \"Main\"\n[cache]\ndir = %q\n", cacheDir)
	if err := os.WriteFile(h.config, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(cacheDir, "entry.json")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := h.run("cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("entry survived clear: %v", err)
	}
	if !strings.Contains(h.out.String(), cacheDir) {
		t.Errorf("directory not reported: %s", h.out.String())
	}
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	if err := h.run("version"); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(h.out.String(), "mvnboot ") {
		t.Errorf("version output = %q", h.out.String())
	}
}

func TestCompletion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			h := newHarness(t)
			if err := h.run("completion", shell); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(h.out.String(), "mvnboot") {
				t.Errorf("%s script does not mention mvnboot", shell)
			}
		})
	}

	h := newHarness(t)
	if err := h.run("completion", "tcsh"); err == nil {
		t.Error("unknown shell accepted")
	}
}

func TestMetricsTextfile(t *testing.T) {
	t.Cleanup(observability.Reset)
	h := newHarness(t)
	h.writeConfig(t, sampleRepo(t), "")
	path := filepath.Join(h.dir, "mvnboot.prom")

	if err := h.run("--metrics-textfile", path, "resolve", "org.example:app:1", "-f", "json"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "mvnboot_resolve_runs_total") {
		t.Errorf("metrics file:\n%s", data)
	}
}

// fakeJava writes a java stub that answers -version and otherwise echoes
// its arguments and stdin, exiting with status.
func fakeJava(t *testing.T, dir string, status int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub")
	}
	path := filepath.Join(dir, "java")
	script := fmt.Sprintf(`#!/bin/sh
if [ "$1" = "-version" ]; then
  echo 'openjdk version "11.0.8"' >&2
  exit 0
fi
echo "args: $*"
cat
exit %d
`, status)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun(t *testing.T) {
	h := newHarness(t)
	repo := sampleRepo(t)
	java := fakeJava(t, h.dir, 3)
	h.writeConfig(t, repo, fmt.Sprintf(`
[jre]
path = %q

[artifacts.maven]
"org.example:app" = "1"
`, java))
	// bootstrap-commands must precede the tables
	data, _ := os.ReadFile(h.config)
	if err := os.WriteFile(h.config, append([]byte("bootstrap-commands = [\"login 1 pw\"]\n"), data...), 0o644); err != nil {
		t.Fatal(err)
	}
	h.cli.In = strings.NewReader("typed\n")

	err := h.run("run", "--", "--extra")
	var exit *ExitError
	if !errors.As(err, &exit) || exit.Code != 3 {
		t.Fatalf("err = %v, want exit status 3", err)
	}

	out := h.out.String()
	wantArgs := "args: -cp " + filepath.Join(h.content, "*") + " Main --extra"
	for _, want := range []string{wantArgs, "login 1 pw\ntyped\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if _, err := os.Stat(filepath.Join(h.content, "lib-1.jar")); err != nil {
		t.Errorf("dependencies not downloaded before launch: %v", err)
	}
}

func TestRunMissingConfiguredJava(t *testing.T) {
	h := newHarness(t)
	h.writeConfig(t, sampleRepo(t), fmt.Sprintf("\n[jre]\npath = %q\n", filepath.Join(h.dir, "no", "java")))

	if err := h.run("run"); !errors.Is(err, jre.ErrNotInstalled) {
		t.Fatalf("err = %v, want ErrNotInstalled", err)
	}
}
