package simulator

import (
	"math/rand"
	"testing"

	"github.com/ShayCichocki/tenderswarm/pkg/models"
)

func newTestRegistry() *Registry {
	return NewRegistry(rand.NewSource(1))
}

func TestAssignPrefersExactTier(t *testing.T) {
	r := newTestRegistry()

	// Copywriting has providers at basic, standard, and enterprise.
	// A standard run should always land on the standard writer even
	// though the basic one is tier-adjacent.
	for i := 0; i < 20; i++ {
		p := r.Assign(models.CategoryCopywriting, models.TierStandard, nil)
		if p.Tier != models.TierStandard {
			t.Fatalf("Assign picked %s tier provider %s, want standard", p.Tier, p.ID)
		}
		if p.Specialty != models.CategoryCopywriting {
			t.Fatalf("Assign picked specialty %s, want copywriting", p.Specialty)
		}
	}
}

func TestAssignAllowsOneTierDown(t *testing.T) {
	r := newTestRegistry()

	// Development only has a premium provider. An enterprise run has
	// no exact match and should fall one tier down to it.
	p := r.Assign(models.CategoryDevelopment, models.TierEnterprise, nil)
	if p.ID != "gpt4-developer" {
		t.Errorf("Assign = %s, want gpt4-developer", p.ID)
	}
}

func TestAssignCapabilityFilter(t *testing.T) {
	r := newTestRegistry()

	// Requiring vision for copywriting at enterprise excludes nothing:
	// the opus writer advertises vision. Requiring financial excludes
	// all copywriters, forcing the tier-pool fallback.
	p := r.Assign(models.CategoryCopywriting, models.TierEnterprise, []models.Capability{models.CapabilityVision})
	if p.ID != "claude-opus-writer" {
		t.Errorf("vision filter: Assign = %s, want claude-opus-writer", p.ID)
	}

	p = r.Assign(models.CategoryCopywriting, models.TierEnterprise, []models.Capability{models.CapabilityFinancial})
	if p.Tier != models.TierEnterprise {
		t.Errorf("fallback should stay in run tier, got %s provider %s", p.Tier, p.ID)
	}
}

func TestAssignAlwaysReturnsActive(t *testing.T) {
	r := newTestRegistry()

	for i := 0; i < 50; i++ {
		p := r.Assign(models.CategoryFinancialModeling, models.TierBasic, nil)
		if !p.Active {
			t.Fatalf("Assign returned inactive provider %s", p.ID)
		}
	}
}

func TestByID(t *testing.T) {
	r := newTestRegistry()

	if _, ok := r.ByID("claude-analyst"); !ok {
		t.Error("ByID(claude-analyst) not found")
	}
	if _, ok := r.ByID("nobody"); ok {
		t.Error("ByID(nobody) unexpectedly found")
	}
}

func TestInferCapabilities(t *testing.T) {
	tests := []struct {
		name        string
		category    models.TaskCategory
		description string
		want        []models.Capability
	}{
		{
			name:     "research baseline",
			category: models.CategoryResearch,
			want:     []models.Capability{models.CapabilityText, models.CapabilityDataAnalysis},
		},
		{
			name:     "development",
			category: models.CategoryDevelopment,
			want:     []models.Capability{models.CapabilityText, models.CapabilityCode, models.CapabilityTechnical},
		},
		{
			name:        "copywriting with pricing keyword",
			category:    models.CategoryCopywriting,
			description: "Write the pricing page copy",
			want:        []models.Capability{models.CapabilityText, models.CapabilityCreative, models.CapabilityFinancial},
		},
		{
			name:        "design with api keyword",
			category:    models.CategoryDesign,
			description: "Design mockups for the API console",
			want:        []models.Capability{models.CapabilityText, models.CapabilityCreative, models.CapabilityVision, models.CapabilityCode},
		},
		{
			name:        "no duplicate from keyword overlap",
			category:    models.CategoryFinancialModeling,
			description: "Financial revenue projections",
			want:        []models.Capability{models.CapabilityText, models.CapabilityDataAnalysis, models.CapabilityFinancial},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferCapabilities(tt.category, tt.description)
			if len(got) != len(tt.want) {
				t.Fatalf("InferCapabilities = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("capability[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestProviderHas(t *testing.T) {
	p := Provider{Capabilities: []models.Capability{models.CapabilityText, models.CapabilityCode}}

	if !p.Has(nil) {
		t.Error("Has(nil) = false, want true")
	}
	if !p.Has([]models.Capability{models.CapabilityCode}) {
		t.Error("Has(code) = false, want true")
	}
	if p.Has([]models.Capability{models.CapabilityVision}) {
		t.Error("Has(vision) = true, want false")
	}
}
