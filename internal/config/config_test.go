package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/mbsym/internal/dynamo"
	"github.com/san-kum/mbsym/internal/mechanisms"
)

func TestDefaultConfig(t *testing.T) {
	g := NewWithT(t)

	cfg := DefaultConfig()
	g.Expect(cfg.Mechanism).To(Equal("threebar_trans"))
	g.Expect(cfg.Validate()).To(Succeed())
	g.Expect(cfg.Sim().Dt).To(Equal(DefaultDt))
	g.Expect(cfg.GetControllerParams()).To(HaveKeyWithValue("kp", DefaultKp))
}

func TestLoadAndSave(t *testing.T) {
	g := NewWithT(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	g.Expect(os.WriteFile(path, []byte(`
mechanism: fourbar
integrator: rk45
adaptive: true
params:
  q0: 0.9
  b: 0.33
controller_params:
  kp: 3
`), 0644)).To(Succeed())

	cfg, err := Load(path)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.Mechanism).To(Equal("fourbar"))
	g.Expect(cfg.Dt).To(Equal(DefaultDt))
	g.Expect(cfg.Params).To(HaveKeyWithValue("b", 0.33))
	g.Expect(cfg.ControllerParams.Kp).To(Equal(3.0))
	g.Expect(cfg.Sim().Adaptive).To(BeTrue())

	out := filepath.Join(dir, "copy.yaml")
	g.Expect(Save(out, cfg)).To(Succeed())
	again, err := Load(out)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(again).To(Equal(cfg))
}

func TestLoadRejectsInvalid(t *testing.T) {
	g := NewWithT(t)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	g.Expect(os.WriteFile(path, []byte("dt: -1\n"), 0644)).To(Succeed())
	_, err := Load(path)
	g.Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())

	g.Expect(os.WriteFile(path, []byte("dt: [1\n"), 0644)).To(Succeed())
	_, err = Load(path)
	g.Expect(err).To(MatchError(ContainSubstring("parse")))
}

func TestPresetsMatchMechanisms(t *testing.T) {
	g := NewWithT(t)

	for name, presets := range Presets {
		m, err := mechanisms.Get(name)
		g.Expect(err).NotTo(HaveOccurred(), name)
		for pname, p := range presets {
			g.Expect(p.Mechanism).To(Equal(name), pname)
			g.Expect(p.Validate()).To(Succeed(), pname)
			_, err := m.Params(p.Params)
			g.Expect(err).NotTo(HaveOccurred(), pname)
		}
	}
}

func TestGetPresetReturnsCopy(t *testing.T) {
	g := NewWithT(t)

	cfg := GetPreset("fourbar", "swing")
	g.Expect(cfg).NotTo(BeNil())
	cfg.Params["q0"] = 3
	g.Expect(GetPreset("fourbar", "swing").Params["q0"]).To(Equal(0.5))

	g.Expect(GetPreset("fourbar", "missing")).To(BeNil())
	g.Expect(GetPreset("pantograph", "swing")).To(BeNil())
	g.Expect(ListPresets("fourbar")).To(Equal([]string{"hold", "swing"}))
	g.Expect(ListPresets("pantograph")).To(BeNil())
}
