package components

import (
	"os"
	"sync"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	os.Exit(v)
}

func TestKey_String(t *testing.T) {
	require.Equal(t, "hero_1", Key{Type: "hero", Variant: "1"}.String())
	require.Equal(t, "hero_", Key{Type: "hero"}.String())
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(
		Binding{Key: Key{"hero", "1"}, Unit: Unit{Name: "Hero1", Template: "hero"}},
		Binding{Key: Key{"hero", "2"}, Unit: Unit{Name: "Hero2", Template: "hero"}},
	))

	err := r.Register(Binding{Key: Key{"hero", "2"}, Unit: Unit{Name: "Hero3", Template: "hero"}})
	require.ErrorIs(t, err, ErrDuplicateBinding)
	require.Contains(t, err.Error(), "hero_2 bound to Hero2")

	// the first binding wins
	u, ok := r.Resolve("hero", "2")
	require.True(t, ok)
	require.Equal(t, "Hero2", u.Name)

	// a failed batch registers nothing
	err = r.Register(
		Binding{Key: Key{"cta", "1"}, Unit: Unit{Name: "CTA1", Template: "cta"}},
		Binding{Key: Key{"hero", "1"}, Unit: Unit{Name: "HeroX", Template: "hero"}},
	)
	require.ErrorIs(t, err, ErrDuplicateBinding)
	_, ok = r.Resolve("cta", "1")
	require.False(t, ok)

	err = r.Register(
		Binding{Key: Key{"cta", "1"}, Unit: Unit{Name: "CTA1", Template: "cta"}},
		Binding{Key: Key{"faq", "1"}, Unit: Unit{Name: "FAQ1", Template: "faq"}},
		Binding{Key: Key{"cta", "1"}, Unit: Unit{Name: "CTA1b", Template: "cta"}},
	)
	require.ErrorIs(t, err, ErrDuplicateBinding)
	require.Contains(t, err.Error(), "cta_1 bound to CTA1, cannot bind CTA1b")
	_, ok = r.Resolve("cta", "1")
	require.False(t, ok)
	_, ok = r.Resolve("faq", "1")
	require.False(t, ok)

	r.Freeze()
	err = r.Register(Binding{Key: Key{"cta", "1"}, Unit: Unit{Name: "CTA1"}})
	require.ErrorIs(t, err, ErrRegistryFrozen)
	_, ok = r.Resolve("cta", "1")
	require.False(t, ok)
}

func TestRegistry_Resolve(t *testing.T) {
	r := DefaultCatalog()

	tests := []struct {
		sectionType string
		variant     string
		name        string
		ok          bool
	}{
		{sectionType: "header", variant: "1", name: "Header1", ok: true},
		{sectionType: "header", variant: "5", name: "Header5", ok: true},
		{sectionType: "hero", variant: "2", name: "Hero2", ok: true},
		{sectionType: "hero", variant: "3", name: "Hero3", ok: true},
		{sectionType: "faq", variant: "1", name: "FAQ1", ok: true},
		{sectionType: "team", variant: "2", name: "Team2", ok: true},
		{sectionType: "faq", variant: "2", ok: false},
		{sectionType: "header", variant: "6", ok: false},
		{sectionType: "unknown", variant: "1", ok: false},
		{sectionType: "", variant: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(Key{tt.sectionType, tt.variant}.String(), func(t *testing.T) {
			u, ok := r.Resolve(tt.sectionType, tt.variant)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.name, u.Name)
			if ok {
				require.Equal(t, tt.sectionType, u.Template)
				require.NotEmpty(t, u.Layout)
			}
		})
	}
}

func TestDefaultCatalog(t *testing.T) {
	r := DefaultCatalog()
	require.Len(t, r.Bindings(), 29)

	err := r.Register(Binding{Key: Key{"hero", "4"}, Unit: Unit{Name: "Hero4"}})
	require.ErrorIs(t, err, ErrRegistryFrozen)

	seen := map[string]bool{}
	for _, b := range catalog {
		require.False(t, seen[b.Key.String()], b.Key.String())
		seen[b.Key.String()] = true
	}
}

func TestDefaultCatalogSnapshot(t *testing.T) {
	snaps.MatchSnapshot(t, DefaultCatalog().Describe())
}

func TestRegistry_concurrentResolve(t *testing.T) {
	r := DefaultCatalog()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, ok := r.Resolve("hero", "1")
				assert.True(t, ok)
			}
		}()
	}
	wg.Wait()
}
