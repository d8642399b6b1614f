package profiles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leakscan/internal/domain"
)

func TestLookupBuiltin(t *testing.T) {
	r := Default()
	assert.Equal(t, len(Builtin), r.Len())

	fb := r.Lookup("www.facebook.com")
	assert.Equal(t, 65, fb.BaseRisk)
	assert.Equal(t, domain.EncryptionModerate, fb.Encryption)
	assert.Equal(t, domain.DataHandlingConcerning, fb.DataHandling)

	assert.Equal(t, 15, r.Lookup("mail.GOOGLE.com").BaseRisk)
	assert.Equal(t, domain.DefaultProfile, r.Lookup("example.xyz"))
	assert.Equal(t, domain.DefaultProfile, r.Lookup(""))
}

func TestLookupLongestPatternWins(t *testing.T) {
	r, err := New([]domain.DomainProfile{
		{Pattern: "apple.com", BaseRisk: 25, DataHandling: domain.DataHandlingGood, Encryption: domain.EncryptionStrong},
		{Pattern: "pineapple.com", BaseRisk: 80, DataHandling: domain.DataHandlingConcerning, Encryption: domain.EncryptionWeak},
	})
	require.NoError(t, err)

	assert.Equal(t, 80, r.Lookup("shop.pineapple.com").BaseRisk)
	assert.Equal(t, 25, r.Lookup("www.apple.com").BaseRisk)
}

func TestLookupEqualLengthUsesTableOrder(t *testing.T) {
	r, err := New([]domain.DomainProfile{
		{Pattern: "aaa.com", BaseRisk: 10, DataHandling: domain.DataHandlingGood, Encryption: domain.EncryptionStrong},
		{Pattern: "bbb.com", BaseRisk: 90, DataHandling: domain.DataHandlingGood, Encryption: domain.EncryptionStrong},
	})
	require.NoError(t, err)
	assert.Equal(t, 10, r.Lookup("aaa.com.bbb.com").BaseRisk)
}

func TestNewRejectsBadProfiles(t *testing.T) {
	bad := []domain.DomainProfile{
		{Pattern: "", BaseRisk: 10, DataHandling: domain.DataHandlingGood, Encryption: domain.EncryptionStrong},
		{Pattern: "x.com", BaseRisk: 101, DataHandling: domain.DataHandlingGood, Encryption: domain.EncryptionStrong},
		{Pattern: "x.com", BaseRisk: 10, DataHandling: "meh", Encryption: domain.EncryptionStrong},
		{Pattern: "x.com", BaseRisk: 10, DataHandling: domain.DataHandlingGood, Encryption: "rot13"},
	}
	for _, p := range bad {
		_, err := New([]domain.DomainProfile{p})
		assert.Error(t, err, "%+v", p)
	}
}

func TestNewCopiesTable(t *testing.T) {
	table := []domain.DomainProfile{
		{Pattern: "Example.ORG", BaseRisk: 33, DataHandling: domain.DataHandlingModerate, Encryption: domain.EncryptionStrong},
	}
	r, err := New(table)
	require.NoError(t, err)
	table[0].BaseRisk = 99

	got := r.Lookup("www.example.org")
	assert.Equal(t, 33, got.BaseRisk)
	assert.Equal(t, "example.org", got.Pattern)
}

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- pattern: tracker.example
  baseRisk: 85
  dataHandling: concerning
  encryption: weak
- pattern: bank.example
  baseRisk: 10
  dataHandling: good
  encryption: strong
`), 0o600))

	table, err := LoadTable(path)
	require.NoError(t, err)
	require.Len(t, table, 2)

	r, err := New(table)
	require.NoError(t, err)
	assert.Equal(t, 85, r.Lookup("ads.tracker.example").BaseRisk)
	assert.Equal(t, domain.EncryptionStrong, r.Lookup("my.bank.example").Encryption)

	require.NoError(t, os.WriteFile(path, []byte("- pattern: x\n  baseRisk: 10\n  dataHandling: good\n  encryption: nope\n"), 0o600))
	_, err = LoadTable(path)
	assert.Error(t, err)

	_, err = LoadTable(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
