package cards

import "testing"

func TestEffectiveLevel(t *testing.T) {
	tests := []struct {
		name   string
		level  int
		rarity Rarity
		want   int
	}{
		{name: "common", level: 11, rarity: RarityCommon, want: 11},
		{name: "rare", level: 9, rarity: RarityRare, want: 11},
		{name: "epic", level: 6, rarity: RarityEpic, want: 11},
		{name: "legendary", level: 3, rarity: RarityLegendary, want: 11},
		{name: "champion", level: 1, rarity: RarityChampion, want: 11},
		{name: "unowned", level: 0, rarity: RarityLegendary, want: 0},
		{name: "negative level", level: -3, rarity: RarityChampion, want: 0},
		{name: "unknown rarity acts as common", level: 4, rarity: Rarity("mythic"), want: 4},
		{name: "mixed case rarity", level: 4, rarity: Rarity("Epic"), want: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EffectiveLevel(tt.level, tt.rarity); got != tt.want {
				t.Errorf("EffectiveLevel(%d, %q) = %d, want %d", tt.level, tt.rarity, got, tt.want)
			}
		})
	}
}

func TestDeck_Validate(t *testing.T) {
	full := Deck{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}, {Name: "e"}, {Name: "f"}, {Name: "g"}, {Name: "h"}}
	if err := full.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}

	if err := full[:7].Validate(); err == nil {
		t.Error("Validate() on 7 cards should fail")
	}

	blank := append(Deck{}, full...)
	blank[3].Name = "  "
	if err := blank.Validate(); err == nil {
		t.Error("Validate() with a blank name should fail")
	}
}

func TestUniqueNames(t *testing.T) {
	got := UniqueNames([]string{"Knight", "", "Archers", "Knight", "Fireball"})
	want := []string{"Knight", "Archers", "Fireball"}
	if len(got) != len(want) {
		t.Fatalf("UniqueNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("UniqueNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPlayerLevels(t *testing.T) {
	p := NewPlayerLevels([]Card{
		{Name: "Knight", Level: 9, Rarity: RarityCommon},
		{Name: "Knight", Level: 11, Rarity: RarityCommon},
		{Name: "Knight", Level: 10, Rarity: RarityCommon},
		{Name: "Princess", Level: 5, Rarity: RarityLegendary},
		{Name: "Unowned", Level: 0, Rarity: RarityEpic},
		{Name: "", Level: 14, Rarity: RarityChampion},
	})

	if got := p.Level("Knight"); got != 11 {
		t.Errorf("Level(Knight) = %d, want 11", got)
	}
	if got := p.Level("Princess"); got != 13 {
		t.Errorf("Level(Princess) = %d, want 13", got)
	}
	if p.Owns("Unowned") {
		t.Error("Owns(Unowned) = true, want false")
	}
	if got := p.MaxLevel(); got != 13 {
		t.Errorf("MaxLevel() = %d, want 13", got)
	}
	if got := p.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
	c, ok := p.Card("Knight")
	if !ok || c.Level != 11 {
		t.Errorf("Card(Knight) = %+v, %v; want level 11", c, ok)
	}

	var nilLevels *PlayerLevels
	if nilLevels.Owns("Knight") || nilLevels.MaxLevel() != 0 {
		t.Error("nil PlayerLevels should own nothing")
	}
}
