package taxonomy

import (
	"strings"
	"testing"
)

func TestDefault_LoadsEmbeddedCatalog(t *testing.T) {
	t.Parallel()

	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if c.Len() != 21 {
		t.Errorf("Len = %d, want 21", c.Len())
	}
	if !c.Contains("tor-proxy") {
		t.Error("expected tor-proxy in embedded catalog")
	}

	p, ok := c.Profile("tor-proxy")
	if !ok {
		t.Fatal("Profile(tor-proxy) not found")
	}
	if p.Name == "" || p.Tier != TierHigh || p.Background == "" || p.Risk == "" || p.Mitigation == "" {
		t.Errorf("tor-proxy profile incomplete: %+v", p)
	}
}

func TestDefault_EveryEntryComplete(t *testing.T) {
	t.Parallel()

	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	for _, p := range c.Profiles() {
		if p.Name == "" || p.Description == "" || p.Background == "" || p.Risk == "" || p.Mitigation == "" {
			t.Errorf("category %q has empty profile fields", p.Category)
		}
	}
}

func TestContains_UnknownIsNotMember(t *testing.T) {
	t.Parallel()

	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if c.Contains(Unknown) {
		t.Error("Unknown sentinel must not be a catalog member")
	}
	if c.Contains("nonexistent-category") {
		t.Error("Contains accepted a nonexistent category")
	}
}

func TestContains_CaseSensitive(t *testing.T) {
	t.Parallel()

	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if c.Contains("Tor-Proxy") {
		t.Error("membership must be case-sensitive exact match")
	}
}

func TestLoad_Valid(t *testing.T) {
	t.Parallel()

	doc := `categories:
  - category: test-cat
    name: Test Category
    tier: low
    description: A test entry.
    background: b
    risk: r
    mitigation: m
`
	c, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 1 || !c.Contains("test-cat") {
		t.Errorf("catalog = %v", c.Profiles())
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", `categories: []`, "no categories"},
		{"not yaml", `{{{{`, "parse catalog"},
		{
			"missing name",
			"categories:\n  - category: x\n    tier: low\n    description: d\n",
			"missing name",
		},
		{
			"bad tier",
			"categories:\n  - category: x\n    name: X\n    tier: extreme\n    description: d\n",
			"invalid tier",
		},
		{
			"reserved sentinel",
			"categories:\n  - category: unknown\n    name: X\n    tier: low\n    description: d\n",
			"reserved",
		},
		{
			"duplicate",
			"categories:\n" +
				"  - {category: x, name: X, tier: low, description: d}\n" +
				"  - {category: x, name: X2, tier: low, description: d2}\n",
			"duplicate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Load(strings.NewReader(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	t.Parallel()

	if _, err := LoadFile("/nonexistent/catalog.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
