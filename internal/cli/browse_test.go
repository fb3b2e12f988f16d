package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hwseclab/regscan/pkg/report"
)

func browseFixture() BrowseModel {
	return newBrowseModel("aes", []report.CandidateRecord{
		{Size: 128, RoundBased: true, InputReg: []string{"s0", "s1"}, OutputReg: []string{"s0", "s1"}},
		{Size: 32, RoundBased: false, InputReg: []string{"a0"}, OutputReg: []string{"b0"}},
	})
}

func keyMsg(s string) tea.KeyMsg {
	if s == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowseNavigation(t *testing.T) {
	m := browseFixture()

	next, _ := m.Update(keyMsg("j"))
	m = next.(BrowseModel)
	if m.Cursor != 1 {
		t.Errorf("cursor = %d after down, want 1", m.Cursor)
	}

	// Down at the end stays put.
	next, _ = m.Update(keyMsg("j"))
	m = next.(BrowseModel)
	if m.Cursor != 1 {
		t.Errorf("cursor = %d past end, want 1", m.Cursor)
	}

	next, _ = m.Update(keyMsg("k"))
	m = next.(BrowseModel)
	if m.Cursor != 0 {
		t.Errorf("cursor = %d after up, want 0", m.Cursor)
	}
}

func TestBrowseToggleGates(t *testing.T) {
	m := browseFixture()

	if strings.Contains(m.View(), "s0") {
		t.Error("gate names shown before expansion")
	}

	next, _ := m.Update(keyMsg("enter"))
	m = next.(BrowseModel)
	view := m.View()
	if !strings.Contains(view, "s0, s1") {
		t.Errorf("expanded view missing gate names:\n%s", view)
	}

	next, _ = m.Update(keyMsg("enter"))
	m = next.(BrowseModel)
	if strings.Contains(m.View(), "s0, s1") {
		t.Error("gate names still shown after collapse")
	}
}

func TestBrowseView(t *testing.T) {
	m := browseFixture()
	view := m.View()

	for _, want := range []string{"aes", "128 bit", "round-based", "32 bit", "pipelined", "[1/2]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestBrowseQuit(t *testing.T) {
	m := browseFixture()
	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("q should produce a quit command")
	}
}
