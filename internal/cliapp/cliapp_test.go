package cliapp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hoyack/gemsieve/internal/domain"
	"github.com/hoyack/gemsieve/internal/store"
)

func TestResolveConfigPathPrefersFlagThenEnvThenDefault(t *testing.T) {
	t.Cleanup(func() {
		configPath = ""
		os.Unsetenv("GEMSIEVE_CONFIG")
	})

	os.Unsetenv("GEMSIEVE_CONFIG")
	configPath = ""
	if got := resolveConfigPath(); got != "./config.yaml" {
		t.Fatalf("default: got %q, want ./config.yaml", got)
	}

	os.Setenv("GEMSIEVE_CONFIG", "/etc/gemsieve/config.yaml")
	if got := resolveConfigPath(); got != "/etc/gemsieve/config.yaml" {
		t.Fatalf("env: got %q, want /etc/gemsieve/config.yaml", got)
	}

	configPath = "/explicit/path.yaml"
	if got := resolveConfigPath(); got != "/explicit/path.yaml" {
		t.Fatalf("flag: got %q, want /explicit/path.yaml", got)
	}
}

func TestDomainOf(t *testing.T) {
	cases := []struct {
		email string
		want  string
	}{
		{"alice@Example.COM", "example.com"},
		{"bob@vendor.io", "vendor.io"},
		{"not-an-email", "not-an-email"},
	}
	for _, c := range cases {
		if got := domainOf(c.email); got != c.want {
			t.Errorf("domainOf(%q) = %q, want %q", c.email, got, c.want)
		}
	}
}

func TestImportRelationshipsParsesAndUpserts(t *testing.T) {
	st, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	dir := t.TempDir()
	path := filepath.Join(dir, "relationships.csv")
	contents := "# comment line\nacme.com,my_vendor,primary hosting,false\nvendor.io,warm_contact\n\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	ctx := context.Background()
	require.NoError(t, importRelationships(ctx, st, path))

	acme, err := st.GetSenderRelationship(ctx, "acme.com")
	require.NoError(t, err)
	require.Equal(t, domain.RelMyVendor, acme.RelationshipType)
	require.Equal(t, "primary hosting", acme.Note)
	require.False(t, acme.SuppressGems)
	require.Equal(t, domain.RelSourceManual, acme.Source)

	vendor, err := st.GetSenderRelationship(ctx, "vendor.io")
	require.NoError(t, err)
	require.Equal(t, domain.RelWarmContact, vendor.RelationshipType)
}

func TestImportRelationshipsRejectsMalformedLine(t *testing.T) {
	st, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("onlyonefield\n"), 0o644))

	err = importRelationships(context.Background(), st, path)
	require.Error(t, err)
}

func TestRootCmdRegistersEveryVerb(t *testing.T) {
	want := []string{
		"ingest", "parse", "classify", "profile", "gems",
		"override", "overrides", "generate",
		"relationship", "relationships", "stats", "export", "db", "run", "web",
	}
	for _, name := range want {
		if cmd, _, err := rootCmd.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("rootCmd missing subcommand %q: %v", name, err)
		}
	}
}
