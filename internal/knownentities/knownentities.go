// Package knownentities loads the operator-curated domain lists the
// relationship classifier's step 2 consults before falling back to
// signal-weighted scoring (§4.7.3, §6.2 "known_entities_file").
package knownentities

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hoyack/gemsieve/internal/domain"
	"github.com/hoyack/gemsieve/internal/psl"
)

// Table is the loaded, normalized known-entities lists, keyed by
// organizational root domain for O(1) lookup.
type Table struct {
	infrastructure  map[string]bool
	institutional   map[string]bool
	marketingPlat   map[string]bool
	userSuppressed  map[string]bool
}

// file mirrors the on-disk YAML shape (§6.2).
type file struct {
	Infrastructure     []string `yaml:"infrastructure"`
	Institutional      []string `yaml:"institutional"`
	MarketingPlatforms []string `yaml:"marketing_platforms"`
	UserSuppressed     []string `yaml:"user_suppressed"`
}

// Load reads a known-entities YAML file. A missing path yields an empty,
// always-miss Table rather than an error — the file is optional.
func Load(path string) (*Table, error) {
	if path == "" {
		return Empty(), nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Empty(), nil
	}
	if err != nil {
		return nil, err
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &Table{
		infrastructure: toSet(f.Infrastructure),
		institutional:  toSet(f.Institutional),
		marketingPlat:  toSet(f.MarketingPlatforms),
		userSuppressed: toSet(f.UserSuppressed),
	}, nil
}

// Empty returns a Table with no entries; every lookup misses.
func Empty() *Table {
	return &Table{
		infrastructure: map[string]bool{},
		institutional:  map[string]bool{},
		marketingPlat:  map[string]bool{},
		userSuppressed: map[string]bool{},
	}
}

func toSet(list []string) map[string]bool {
	out := make(map[string]bool, len(list))
	for _, d := range list {
		out[psl.OrganizationalRoot(strings.ToLower(d))] = true
	}
	return out
}

// Classify returns the relationship type a known-entities match implies
// for senderDomain, and whether any list matched at all (§4.7.3 step 2).
func (t *Table) Classify(senderDomain string) (domain.RelationshipType, bool) {
	root := psl.OrganizationalRoot(senderDomain)
	if t.infrastructure[root] {
		return domain.RelMyInfrastructure, true
	}
	if t.institutional[root] {
		return domain.RelInstitutional, true
	}
	return "", false
}

// IsMarketingPlatform reports whether senderDomain is a known ESP/marketing
// platform domain, advisory context for the profiler rather than a gate.
func (t *Table) IsMarketingPlatform(senderDomain string) bool {
	return t.marketingPlat[psl.OrganizationalRoot(senderDomain)]
}

// IsSuppressed reports whether the user has globally suppressed gems for
// senderDomain via the known-entities file's user_suppressed list.
func (t *Table) IsSuppressed(senderDomain string) bool {
	return t.userSuppressed[psl.OrganizationalRoot(senderDomain)]
}
