package core_test

import (
	"errors"
	"math"
	"testing"

	"github.com/signalsfoundry/sar-geolocation/core"
	"github.com/signalsfoundry/sar-geolocation/model"
)

func topsScene(t *testing.T) (*core.SensorModel, []model.GCPRecord) {
	t.Helper()
	cfg := fineConfig(model.ProductSLC)
	cfg.Lines = 200
	cfg.Bursts = 3
	cfg.OverlapLines = 21
	s := buildScene(t, cfg)
	return sceneModel(t, s), s.Records.GCPs
}

func TestDeburstKeepsGCPsConsistent(t *testing.T) {
	m, gcps := topsScene(t)

	res, err := m.Deburst(false)
	if err != nil {
		t.Fatalf("Deburst: %v", err)
	}
	if len(res.Lines) != 3 || len(res.Model.Bursts()) != 1 {
		t.Fatalf("got %d line ranges and %d bursts", len(res.Lines), len(res.Model.Bursts()))
	}
	if len(m.Bursts()) != 3 {
		t.Fatalf("Deburst must not touch the receiver")
	}
	kept := res.Model.GCPs()
	if len(kept) == 0 || len(kept) > len(gcps) {
		t.Fatalf("kept %d of %d GCPs", len(kept), len(gcps))
	}
	for _, g := range kept {
		img, err := res.Model.WorldToLineSample(g.WorldPoint)
		if err != nil {
			t.Fatalf("%s: %v", g.ID, err)
		}
		if d := math.Sqrt(img.SquaredDistanceTo(g.ImagePoint)); d > 1e-3 {
			t.Fatalf("%s: deburst model puts GCP at %+v, annotated %+v", g.ID, img, g.ImagePoint)
		}
	}
}

func TestDeburstSingleBurstReturnsReceiver(t *testing.T) {
	m := sceneModel(t, buildScene(t, fineConfig(model.ProductSLC)))
	res, err := m.Deburst(true)
	if err != nil {
		t.Fatalf("Deburst: %v", err)
	}
	if res.Model != m {
		t.Fatalf("single burst product should come back unchanged")
	}
}

func TestBurstExtraction(t *testing.T) {
	m, _ := topsScene(t)

	burst, lines, samples, err := m.BurstExtraction(1)
	if err != nil {
		t.Fatalf("BurstExtraction: %v", err)
	}
	if lines != (core.LineRange{First: 200, Last: 399}) || samples.First != 0 {
		t.Fatalf("burst 1 spans lines %+v samples %+v", lines, samples)
	}
	b := burst.Bursts()
	if len(b) != 1 || b[0].StartLine != 0 || b[0].EndLine != 199 {
		t.Fatalf("extracted bursts %+v", b)
	}
	if len(burst.GCPs()) == 0 {
		t.Fatalf("expected GCPs inside burst 1")
	}
	for _, g := range burst.GCPs() {
		img, err := burst.WorldToLineSample(g.WorldPoint)
		if err != nil {
			t.Fatalf("%s: %v", g.ID, err)
		}
		if d := math.Sqrt(img.SquaredDistanceTo(g.ImagePoint)); d > 1e-3 {
			t.Fatalf("%s: extracted model puts GCP at %+v, annotated %+v", g.ID, img, g.ImagePoint)
		}
	}

	for _, bad := range []int{-1, 3} {
		if _, _, _, err := m.BurstExtraction(bad); !errors.Is(err, core.ErrBurstIndex) {
			t.Fatalf("burst %d: expected ErrBurstIndex, got %v", bad, err)
		}
	}
}
