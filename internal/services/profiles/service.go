package profiles

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"leakscan/internal/domain"
)

// Builtin is the table compiled into the binary.
var Builtin = []domain.DomainProfile{
	{Pattern: "google.com", BaseRisk: 15, DataHandling: domain.DataHandlingGood, Encryption: domain.EncryptionStrong},
	{Pattern: "facebook.com", BaseRisk: 65, DataHandling: domain.DataHandlingConcerning, Encryption: domain.EncryptionModerate},
	{Pattern: "amazon.com", BaseRisk: 30, DataHandling: domain.DataHandlingModerate, Encryption: domain.EncryptionStrong},
	{Pattern: "github.com", BaseRisk: 20, DataHandling: domain.DataHandlingGood, Encryption: domain.EncryptionStrong},
	{Pattern: "twitter.com", BaseRisk: 55, DataHandling: domain.DataHandlingConcerning, Encryption: domain.EncryptionModerate},
	{Pattern: "instagram.com", BaseRisk: 60, DataHandling: domain.DataHandlingConcerning, Encryption: domain.EncryptionModerate},
	{Pattern: "linkedin.com", BaseRisk: 40, DataHandling: domain.DataHandlingModerate, Encryption: domain.EncryptionStrong},
	{Pattern: "netflix.com", BaseRisk: 25, DataHandling: domain.DataHandlingGood, Encryption: domain.EncryptionStrong},
	{Pattern: "microsoft.com", BaseRisk: 20, DataHandling: domain.DataHandlingGood, Encryption: domain.EncryptionStrong},
	{Pattern: "apple.com", BaseRisk: 25, DataHandling: domain.DataHandlingGood, Encryption: domain.EncryptionStrong},
}

// Registry maps hostnames to baseline profiles. It is immutable once built.
type Registry struct {
	table []domain.DomainProfile
}

// New copies table so later edits by the caller cannot leak in.
func New(table []domain.DomainProfile) (*Registry, error) {
	for i, p := range table {
		if err := validate(p); err != nil {
			return nil, fmt.Errorf("profile %d: %w", i, err)
		}
	}
	cp := make([]domain.DomainProfile, len(table))
	copy(cp, table)
	for i := range cp {
		cp[i].Pattern = strings.ToLower(cp[i].Pattern)
	}
	return &Registry{table: cp}, nil
}

// Default returns a registry over the builtin table.
func Default() *Registry {
	r, err := New(Builtin)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the profile whose pattern is contained in hostname.
// Longest pattern wins; equal lengths fall back to table order.
func (r *Registry) Lookup(hostname string) domain.DomainProfile {
	host := strings.ToLower(hostname)
	best := -1
	for i, p := range r.table {
		if !strings.Contains(host, p.Pattern) {
			continue
		}
		if best < 0 || len(p.Pattern) > len(r.table[best].Pattern) {
			best = i
		}
	}
	if best < 0 {
		return domain.DefaultProfile
	}
	return r.table[best]
}

// Len is the number of configured patterns.
func (r *Registry) Len() int { return len(r.table) }

// LoadTable reads a YAML list of profiles from path.
func LoadTable(path string) ([]domain.DomainProfile, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var table []domain.DomainProfile
	if err := yaml.Unmarshal(buf, &table); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, p := range table {
		if err := validate(p); err != nil {
			return nil, fmt.Errorf("%s: profile %d: %w", path, i, err)
		}
	}
	return table, nil
}

func validate(p domain.DomainProfile) error {
	if strings.TrimSpace(p.Pattern) == "" {
		return fmt.Errorf("empty pattern")
	}
	if p.BaseRisk < 0 || p.BaseRisk > 100 {
		return fmt.Errorf("baseRisk %d out of [0,100]", p.BaseRisk)
	}
	if !p.DataHandling.Valid() {
		return fmt.Errorf("invalid dataHandling %q", p.DataHandling)
	}
	if !p.Encryption.Valid() {
		return fmt.Errorf("invalid encryption %q", p.Encryption)
	}
	return nil
}
