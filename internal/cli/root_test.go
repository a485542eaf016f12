package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/goafee/AuthenticatorPro/internal/vault"
	"github.com/stretchr/testify/require"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewRootCommand(&buf, BuildInfo{Version: "1.2.3", Commit: "abc", BuildTime: "now"})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// useMemoryVault keeps CLI tests off the OS keychain.
func useMemoryVault(t *testing.T) *vault.Memory {
	t.Helper()
	mem := vault.NewMemory()
	prev := newVaultFn
	newVaultFn = func() vault.Vault { return mem }
	t.Cleanup(func() { newVaultFn = prev })
	return mem
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	require.Equal(t, "version=1.2.3 commit=abc build_time=now\n", out)
}

func TestVersionCommandJSON(t *testing.T) {
	out, err := executeCommand(t, "version", "--json")
	require.NoError(t, err)

	var build BuildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &build))
	require.Equal(t, "1.2.3", build.Version)
}

func TestChangeSecretRequiresFlags(t *testing.T) {
	_, err := executeCommand(t, "db", "change-secret")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, ExitCodeUsage, exitErr.ExitCode())
}

func TestEntryRemoveRequiresID(t *testing.T) {
	_, err := executeCommand(t, "entry", "remove")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, ExitCodeUsage, exitErr.ExitCode())
}

func TestEntryAndEncryptFlow(t *testing.T) {
	useMemoryVault(t)
	dataDir := t.TempDir()

	out, err := executeCommand(t, "entry", "add", "--data-dir", dataDir,
		"--issuer", "GitHub", "--otp-secret", "JBSWY3DPEHPK3PXP", "--json")
	require.NoError(t, err)
	var added struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &added))
	require.NotEmpty(t, added.ID)

	out, err = executeCommand(t, "db", "status", "--data-dir", dataDir, "--json")
	require.NoError(t, err)
	var status struct {
		Exists bool `json:"exists"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	require.True(t, status.Exists)

	_, err = executeCommand(t, "db", "encrypt", "--data-dir", dataDir, "--secret", "store-pass")
	require.NoError(t, err)

	out, err = executeCommand(t, "entry", "list", "--data-dir", dataDir,
		"--secret", "store-pass", "--json")
	require.NoError(t, err)
	var listed []struct {
		Issuer string `json:"issuer"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	require.Equal(t, "GitHub", listed[0].Issuer)

	// The old plaintext open must fail once the store is keyed.
	_, err = executeCommand(t, "entry", "list", "--data-dir", dataDir)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, ExitCodeAuthFailed, exitErr.ExitCode())
}

func TestMigrateLegacyNothingToDo(t *testing.T) {
	useMemoryVault(t)
	dataDir := t.TempDir()

	out, err := executeCommand(t, "migrate", "legacy", "--data-dir", dataDir)
	require.NoError(t, err)
	require.Equal(t, "nothing to migrate\n", out)
}

func TestBackupRoundTripFlow(t *testing.T) {
	useMemoryVault(t)
	dataDir := t.TempDir()
	backupPath := dataDir + "/store.authpro"

	_, err := executeCommand(t, "entry", "add", "--data-dir", dataDir,
		"--issuer", "Fastmail", "--otp-secret", "JBSWY3DPEHPK3PXP")
	require.NoError(t, err)

	_, err = executeCommand(t, "backup", "export", "--data-dir", dataDir,
		"--out", backupPath, "--passphrase", "backup-pass")
	require.NoError(t, err)

	_, err = executeCommand(t, "backup", "import", "--data-dir", dataDir,
		"--in", backupPath, "--passphrase", "backup-pass")
	require.NoError(t, err)

	out, err := executeCommand(t, "entry", "list", "--data-dir", dataDir, "--json")
	require.NoError(t, err)
	var listed []struct {
		Issuer string `json:"issuer"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)

	_, err = executeCommand(t, "backup", "import", "--data-dir", dataDir,
		"--in", backupPath, "--passphrase", "wrong")
	require.Error(t, err)
}
