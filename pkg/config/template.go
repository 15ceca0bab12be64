package config

import (
	"errors"
	"fmt"
	"os"
)

// Template is written when no configuration exists.
const Template = `# mvnboot configuration

# Check for a newer mvnboot on start.
self-update = false

# Main class of the application.
entrypoint = "net.mamoe.mirai.console.terminal.MiraiConsoleTerminalLoader"

# Console commands written to the application's stdin after start, one per line.
bootstrap-commands = []

# Maven repository root.
repository = "https://repo1.maven.org/maven2"

# Where jars are downloaded; the class path is <content-dir>/*.
content-dir = "./content"

[jre]
# Java binary. Empty uses ./runtime/bin/java, installing a runtime if needed.
path = ""
# x64, x32, arm or aarch64. Empty detects the current machine.
arch = ""

# Resolved transitively from their POMs.
[artifacts.maven]
"net.mamoe:mirai-console" = "2.16.0"
"net.mamoe:mirai-console-terminal" = "2.16.0"

# Self-contained artifacts, downloaded as <artifact>-<version>-all.jar.
[artifacts.full]
"net.mamoe:mirai-core-all" = "2.16.0"

[resolver]
concurrency = 16
skip-scopes = ["test"]
keep-going = false

[download]
workers = 12

[http]
timeout = "60s"
retries = 2

[cache]
# Empty uses $XDG_CACHE_HOME/mvnboot.
dir = ""
redis-url = ""
disabled = false
`

// WriteTemplate writes [Template] to path. It refuses to overwrite an
// existing file.
func WriteTemplate(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%s already exists", path)
	}
	if err != nil {
		return err
	}
	if _, err := f.WriteString(Template); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
