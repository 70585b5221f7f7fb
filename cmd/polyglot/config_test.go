package main

import (
	"os"
	"path/filepath"
	"testing"
)

// resetGlobals restores the package-level settings once the test is done.
func resetGlobals(t *testing.T) {
	var (
		origDriver    = DBDriver
		origDB        = DBFile
		origNamespace = Namespace
		origCutoff    = Cutoff
		origAlgorithm = Algorithm
		origRoster    = RosterFile
		origEndpoint  = Endpoint
		origQuiet     = Quiet
		origVerbose   = Verbose
		origPaths     = DefaultConfigSearchPaths
		origEnvFile   = DefaultEnvFile
	)
	t.Cleanup(func() {
		DBDriver = origDriver
		DBFile = origDB
		Namespace = origNamespace
		Cutoff = origCutoff
		Algorithm = origAlgorithm
		RosterFile = origRoster
		Endpoint = origEndpoint
		Quiet = origQuiet
		Verbose = origVerbose
		DefaultConfigSearchPaths = origPaths
		DefaultEnvFile = origEnvFile
	})
}

func TestConfig(t *testing.T) {
	resetGlobals(t)

	// Note: quiet and verbose cannot both be set to true, this is only done here
	// to test that the settings are applied.
	const content = `
driver = "postgres"
db = "dbname=polyglot host=/var/run/postgresql"
namespace = "staging"
cutoff = 0.95
algorithm = "full"
roster = "/etc/polyglot/roster.yaml"
endpoint = "https://wiki.example.org/w/api.php"
quiet = true
verbose = true
`

	dir := t.TempDir()
	file := filepath.Join(dir, "polyglot.toml")
	if err := os.WriteFile(file, []byte(content), os.FileMode(int(0600))); err != nil {
		t.Fatal(err)
	}

	DefaultConfigSearchPaths = []string{filepath.Join(dir, "absent.toml"), file}
	DefaultEnvFile = filepath.Join(dir, ".env")

	cfg := NewConfig()
	if err := cfg.Do(); err != nil {
		t.Fatal(err)
	}

	if cfg.File != file {
		t.Errorf("Expected cfg.File=%v but actual=%v", file, cfg.File)
	}

	if expected, actual := "postgres", DBDriver; actual != expected {
		t.Errorf("Expected DBDriver=%v but actual=%v", expected, actual)
	}
	if expected, actual := "dbname=polyglot host=/var/run/postgresql", DBFile; actual != expected {
		t.Errorf("Expected DBFile=%v but actual=%v", expected, actual)
	}
	if expected, actual := "staging", Namespace; actual != expected {
		t.Errorf("Expected Namespace=%v but actual=%v", expected, actual)
	}
	if expected, actual := 0.95, Cutoff; actual != expected {
		t.Errorf("Expected Cutoff=%v but actual=%v", expected, actual)
	}
	if expected, actual := "full", Algorithm; actual != expected {
		t.Errorf("Expected Algorithm=%v but actual=%v", expected, actual)
	}
	if expected, actual := "/etc/polyglot/roster.yaml", RosterFile; actual != expected {
		t.Errorf("Expected RosterFile=%v but actual=%v", expected, actual)
	}
	if expected, actual := "https://wiki.example.org/w/api.php", Endpoint; actual != expected {
		t.Errorf("Expected Endpoint=%v but actual=%v", expected, actual)
	}
	if expected, actual := true, Quiet; actual != expected {
		t.Errorf("Expected Quiet=%v but actual=%v", expected, actual)
	}
	if expected, actual := true, Verbose; actual != expected {
		t.Errorf("Expected Verbose=%v but actual=%v", expected, actual)
	}
}

func TestConfigEnvPrecedence(t *testing.T) {
	resetGlobals(t)

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("POLYGLOT_DRIVER=sqlite\nPOLYGLOT_DB=from-env.sqlite\n"), 0600); err != nil {
		t.Fatal(err)
	}
	tomlFile := filepath.Join(dir, "polyglot.toml")
	if err := os.WriteFile(tomlFile, []byte(`db = "from-toml.sqlite"`+"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvDriver, "")
	t.Setenv(EnvDB, "")
	t.Setenv(EnvNamespace, "from_process_env")
	os.Unsetenv(EnvDriver)
	os.Unsetenv(EnvDB)

	DefaultEnvFile = envFile
	DefaultConfigSearchPaths = []string{tomlFile}

	if err := NewConfig().Do(); err != nil {
		t.Fatal(err)
	}

	if expected, actual := "sqlite", DBDriver; actual != expected {
		t.Errorf("Expected DBDriver=%v but actual=%v", expected, actual)
	}
	// The configuration file beats the environment.
	if expected, actual := "from-toml.sqlite", DBFile; actual != expected {
		t.Errorf("Expected DBFile=%v but actual=%v", expected, actual)
	}
	if expected, actual := "from_process_env", Namespace; actual != expected {
		t.Errorf("Expected Namespace=%v but actual=%v", expected, actual)
	}
}

func TestConfigFlagsWin(t *testing.T) {
	resetGlobals(t)

	DBDriver = "sqlite"
	Namespace = "from_config"

	rootCmd := newRootCmd()
	if err := rootCmd.PersistentFlags().Parse([]string{"--namespace", "from_flag"}); err != nil {
		t.Fatal(err)
	}

	if expected, actual := "sqlite", DBDriver; actual != expected {
		t.Errorf("Expected DBDriver=%v but actual=%v", expected, actual)
	}
	if expected, actual := "from_flag", Namespace; actual != expected {
		t.Errorf("Expected Namespace=%v but actual=%v", expected, actual)
	}
}
