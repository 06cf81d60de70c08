package domain

import "testing"

func TestDeploymentURLFor(t *testing.T) {
	cases := []struct {
		company string
		want    string
	}{
		{"Acme Co", "https://acme-co.fixitfred.app"},
		{"  Boeing  ", "https://boeing.fixitfred.app"},
		{"O'Malley & Sons, Inc.", "https://o-malley-sons-inc.fixitfred.app"},
		{"", "https://client.fixitfred.app"},
		{"---", "https://client.fixitfred.app"},
	}
	for _, tc := range cases {
		if got := DeploymentURLFor(tc.company); got != tc.want {
			t.Errorf("DeploymentURLFor(%q) = %q, want %q", tc.company, got, tc.want)
		}
	}
}

func TestIconForUnknownIndustry(t *testing.T) {
	if IconFor(IndustryManufacturing) == IconFor("something-else") {
		t.Fatal("expected distinct icon for known industry")
	}
	if IconFor("something-else") != IconFor(IndustryGeneral) {
		t.Fatal("expected unknown industries to share the fallback glyph")
	}
}

func TestCloneIsDeep(t *testing.T) {
	original := DeploymentRecord{ID: "a", Modules: []string{"operations", "memory"}}
	clone := original.Clone()
	clone.Modules[0] = "mutated"
	if original.Modules[0] != "operations" {
		t.Fatal("clone shares module storage with original")
	}
}
