package ingest

import (
	"testing"

	"github.com/anil-gorti/wone-india-race-registry-builder/internal/models"
)

func TestLoadRegistry(t *testing.T) {
	reg, err := LoadRegistry("config/platforms.yaml")
	if err != nil {
		t.Fatalf("LoadRegistry() error = %v", err)
	}

	// Registry order is the fixed aggregation order.
	wantOrder := []models.PlatformTag{
		models.PlatformSTS,
		models.PlatformIFinish,
		models.PlatformMySamay,
		models.PlatformTimingIndia,
		models.PlatformMyRaceIndia,
		models.PlatformRaceResult,
	}
	if len(reg.Platforms) != len(wantOrder) {
		t.Fatalf("len(Platforms) = %d, want %d", len(reg.Platforms), len(wantOrder))
	}
	for i, tag := range wantOrder {
		if reg.Platforms[i].ID != tag {
			t.Errorf("Platforms[%d].ID = %q, want %q", i, reg.Platforms[i].ID, tag)
		}
	}

	for _, cfg := range reg.Platforms {
		if _, err := GlobalStrategyFactory.Get(cfg.Strategy); err != nil {
			t.Errorf("platform %s: %v", cfg.ID, err)
		}
	}
}

func TestRegistryProbeConfig(t *testing.T) {
	reg, err := LoadRegistry("config/platforms.yaml")
	if err != nil {
		t.Fatalf("LoadRegistry() error = %v", err)
	}

	cfg, err := reg.Get(models.PlatformMySamay)
	if err != nil {
		t.Fatalf("Get(MySamay) error = %v", err)
	}
	if cfg.Strategy != "probe" {
		t.Errorf("Strategy = %q, want probe", cfg.Strategy)
	}
	if cfg.Probe.URLTemplate == "" || len(cfg.Probe.Slugs) == 0 {
		t.Errorf("probe config incomplete: %+v", cfg.Probe)
	}

	domains := cfg.Domains()
	if len(domains) != 1 || domains[0] != "mysamay.in" {
		t.Errorf("Domains() = %v, want [mysamay.in]", domains)
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	reg := &Registry{}
	if _, err := reg.Get(models.PlatformSTS); err == nil {
		t.Error("Get() on empty registry should fail")
	}
}
