package setup

import "testing"

func TestRunTestOnly(t *testing.T) {
	srs, err := Run(8, TestOnly, "")
	if err != nil {
		t.Fatalf("failed to create test SRS: %v", err)
	}
	if len(srs.Pk.G1) < 8+extraPowers {
		t.Fatalf("expected at least %d G1 parameters, got %d",
			8+extraPowers, len(srs.Pk.G1))
	}
	if !srs.Vk.G2[0].IsInSubGroup() || !srs.Vk.G2[1].IsInSubGroup() {
		t.Fatalf("SRS G2 points are not in the curve subgroup")
	}
}

func TestRunRejectsTinyDomain(t *testing.T) {
	if _, err := Run(1, TestOnly, ""); err == nil {
		t.Fatalf("expected rejection of a domain smaller than 2")
	}
}

func TestRunRejectsUnknownConf(t *testing.T) {
	if _, err := Run(8, Conf(42), ""); err == nil {
		t.Fatalf("expected rejection of an unknown setup conf")
	}
}

func TestRunCeremonyMissingFile(t *testing.T) {
	if _, err := Run(8, Ceremony, "does-not-exist.ptau"); err == nil {
		t.Fatalf("expected failure on a missing ceremony file")
	}
}
